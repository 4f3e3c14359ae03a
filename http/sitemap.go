package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/docmirror"
)

// Ensure SitemapService implements docmirror.SitemapService.
var _ docmirror.SitemapService = (*SitemapService)(nil)

// SitemapService discovers URLs from website sitemaps via HTTP.
// Results pre-seed the crawl frontier; the crawler's scope filter and
// depth bound still apply to everything returned here.
type SitemapService struct {
	client *http.Client
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// DiscoverURLs finds URLs from a site's sitemaps: robots.txt Sitemap
// directives first, then /sitemap.xml as a fallback. Sitemap indexes
// are followed recursively. Returns an empty slice (not nil) when no
// sitemap is reachable.
//
// When baseURL has a non-root path (e.g. https://example.com/docs/),
// only URLs whose paths fall under that prefix are returned.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, docmirror.Errorf(docmirror.EINVALID, "invalid base URL: %v", err)
	}

	// Sitemaps live at the domain root regardless of the start path.
	root := *base
	root.Path = ""

	seeds, err := s.sitemapLocations(ctx, &root)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return []string{}, nil
	}

	walk := &sitemapWalk{svc: s, visited: make(map[string]bool)}
	for _, loc := range seeds {
		if err := walk.collect(ctx, loc); err != nil {
			return nil, err
		}
	}

	prefix := base.Path
	if prefix == "" || prefix == "/" {
		return walk.urls, nil
	}

	filtered := []string{}
	for _, u := range walk.urls {
		if underPathPrefix(u, prefix) {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

// underPathPrefix reports whether the URL's path falls under prefix at a
// segment boundary (/docs covers /docs/ and /docs/intro, never /documentation).
func underPathPrefix(rawURL, prefix string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	trimmed := strings.TrimSuffix(prefix, "/")
	if parsed.Path == trimmed || parsed.Path == trimmed+"/" {
		return true
	}
	return strings.HasPrefix(parsed.Path, trimmed+"/")
}

// sitemapLocations finds the site's sitemap URLs: robots.txt directives
// when present, otherwise /sitemap.xml if it answers 200.
func (s *SitemapService) sitemapLocations(ctx context.Context, root *url.URL) ([]string, error) {
	robots := root.ResolveReference(&url.URL{Path: "/robots.txt"})
	if locs, err := s.robotsSitemaps(ctx, robots.String()); err == nil && len(locs) > 0 {
		return locs, nil
	}

	fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
	ok, err := s.headOK(ctx, fallback)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if ok {
		return []string{fallback}, nil
	}
	return nil, nil
}

// robotsSitemaps extracts Sitemap: directives from robots.txt.
func (s *SitemapService) robotsSitemaps(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var locs []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			continue
		}
		if loc := strings.TrimSpace(line[len("sitemap:"):]); loc != "" {
			locs = append(locs, loc)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return locs, nil
}

// sitemapWalk accumulates page URLs while following sitemap indexes,
// visiting each sitemap at most once and deduplicating page URLs.
type sitemapWalk struct {
	svc     *SitemapService
	visited map[string]bool
	seen    map[string]bool
	urls    []string
}

// collect fetches one sitemap and appends its page URLs, recursing into
// <sitemapindex> entries.
func (w *sitemapWalk) collect(ctx context.Context, sitemapURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.visited[sitemapURL] {
		return nil
	}
	w.visited[sitemapURL] = true

	body, err := w.svc.get(ctx, sitemapURL)
	if err != nil {
		return err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return fmt.Errorf("parsing sitemap XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("empty sitemap XML")
	}

	if root.Tag == "sitemapindex" {
		for _, child := range childLocs(root, "sitemap") {
			if err := w.collect(ctx, child); err != nil {
				return err
			}
		}
		return nil
	}

	if w.seen == nil {
		w.seen = make(map[string]bool)
	}
	for _, u := range childLocs(root, "url") {
		if !w.seen[u] {
			w.seen[u] = true
			w.urls = append(w.urls, u)
		}
	}
	return nil
}

// childLocs returns the non-empty <loc> values of the root's child
// elements with the given tag.
func childLocs(root *etree.Element, tag string) []string {
	var locs []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if v := strings.TrimSpace(loc.Text()); v != "" {
			locs = append(locs, v)
		}
	}
	return locs
}

// get fetches a URL and returns the response body.
func (s *SitemapService) get(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}
	return resp.Body, nil
}

// headOK checks whether a URL answers 200 to a HEAD request.
func (s *SitemapService) headOK(ctx context.Context, targetURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}
