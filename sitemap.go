package docmirror

import "context"

// SitemapService discovers URLs from website sitemaps.
// Discovered URLs are used to pre-seed the crawl frontier; the crawl
// works identically when no sitemap is reachable.
type SitemapService interface {
	// DiscoverURLs finds URLs from a site's sitemap.
	// It first checks robots.txt for sitemap directives, then falls back
	// to /sitemap.xml. Sitemap indexes are resolved recursively.
	// Returns an empty slice (not nil) if no sitemaps are found.
	DiscoverURLs(ctx context.Context, baseURL string) ([]string, error)
}
