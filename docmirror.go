// Package docmirror mirrors documentation websites to local Markdown files.
// It performs a depth-bounded, breadth-first crawl scoped to the start URL's
// host and path prefix, converts each page's main content to Markdown, and
// writes files whose relative paths mirror the site's URL structure.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, sqlite/).
package docmirror
