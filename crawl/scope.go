package crawl

import (
	"net/url"
	"strings"

	"github.com/fwojciec/docmirror"
)

// Scope decides whether a discovered URL is eligible for the crawl.
// A URL is in scope when its host matches the start URL's host and its
// path falls under the start URL's path at a segment boundary, so a
// scope rooted at /api matches /api/extensions but never /apiary.
//
// Scope is a pure predicate; it is safe for concurrent use.
type Scope struct {
	host     string
	segments []string
}

// NewScope creates a Scope from the crawl's start URL.
func NewScope(startURL string) (*Scope, error) {
	u, err := url.Parse(startURL)
	if err != nil {
		return nil, docmirror.Errorf(docmirror.EINVALID, "invalid start URL %q: %v", startURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, docmirror.Errorf(docmirror.EINVALID, "start URL %q must be http or https", startURL)
	}
	if u.Host == "" {
		return nil, docmirror.Errorf(docmirror.EINVALID, "start URL %q has no host", startURL)
	}

	return &Scope{
		host:     u.Host,
		segments: pathSegments(u.Path),
	}, nil
}

// Contains reports whether the candidate URL is in scope.
// Non-HTTP(S) schemes and URLs on other hosts are rejected.
func (s *Scope) Contains(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host != s.host {
		return false
	}

	candidate := pathSegments(u.Path)
	if len(candidate) < len(s.segments) {
		return false
	}
	for i, seg := range s.segments {
		if candidate[i] != seg {
			return false
		}
	}
	return true
}

// pathSegments splits a URL path into its non-empty segments.
// Comparing segment by segment keeps prefix matching on path
// boundaries rather than raw bytes.
func pathSegments(p string) []string {
	var segments []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// Normalize produces the canonical form of a URL used for frontier
// deduplication and visited tracking: fragment stripped, trailing slash
// folded so /x and /x/ are the same logical resource. Returns the input
// unchanged if it cannot be parsed.
func Normalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String()
}
