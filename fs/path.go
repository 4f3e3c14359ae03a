// Package fs provides file-based storage for mirrored pages.
package fs

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/fwojciec/docmirror"
)

var (
	unsafeChars = regexp.MustCompile(`[<>:"\\|?*\s]+`)
	repeatedSep = regexp.MustCompile(`_+`)
)

// maxComponentLen caps sanitized path components to stay well under
// filesystem name limits.
const maxComponentLen = 100

// URLToPath converts a page URL to a relative .md file path mirroring the
// URL's directory structure.
//
// Rules:
//   - root or trailing slash maps to index.md in the corresponding directory
//   - an extensionless final segment gets .md appended
//   - a final segment with an extension has it replaced with .md
//   - query strings are ignored: all query variants of a path fold onto one file
//
// The result is a pure function of the URL; repeated calls yield identical paths.
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", docmirror.Errorf(docmirror.EINVALID, "invalid URL %q: %v", rawURL, err)
	}

	p := u.EscapedPath()
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}

	if p == "" || p == "/" {
		return "index.md", nil
	}

	trailingSlash := strings.HasSuffix(p, "/")

	var components []string
	for _, c := range strings.Split(p, "/") {
		if c = sanitizeComponent(c); c != "" {
			components = append(components, c)
		}
	}
	if len(components) == 0 {
		return "index.md", nil
	}

	if trailingSlash {
		return path.Join(append(components, "index.md")...), nil
	}

	last := len(components) - 1
	name := components[last]
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	components[last] = name + ".md"
	return path.Join(components...), nil
}

// sanitizeComponent strips characters that are invalid in file names,
// squeezes repeated separators, and caps the component length.
func sanitizeComponent(c string) string {
	c = unsafeChars.ReplaceAllString(c, "_")
	c = repeatedSep.ReplaceAllString(c, "_")
	c = strings.Trim(c, "._")
	if len(c) > maxComponentLen {
		c = c[:maxComponentLen]
	}
	return c
}

// DefaultFilename derives a .md filename for a single-page save from the
// last meaningful URL path segment, falling back to the host.
func DefaultFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "page.md"
	}

	trimmed := strings.Trim(u.Path, "/")
	name := ""
	if trimmed != "" {
		segments := strings.Split(trimmed, "/")
		name = segments[len(segments)-1]
	}
	if name == "" {
		name = strings.ReplaceAll(u.Host, ".", "_")
	}
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = sanitizeComponent(name)
	if name == "" {
		return "page.md"
	}
	return name + ".md"
}
