package crawl_test

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/docmirror"
	"github.com/fwojciec/docmirror/crawl"
	"github.com/fwojciec/docmirror/fs"
	"github.com/fwojciec/docmirror/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSite wires the crawler's collaborators to an in-memory site
// description: pages maps URLs to HTML, links maps URLs to outbound
// absolute links. Fetches and writes are recorded for assertions.
type testSite struct {
	mu      sync.Mutex
	pages   map[string]string
	links   map[string][]string
	fetches map[string]int
	written []string
}

func (s *testSite) fetch(_ context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches[url]++
	html, ok := s.pages[url]
	if !ok {
		return "", docmirror.Errorf(docmirror.EUNAVAILABLE, "no page at %s", url)
	}
	return html, nil
}

func (s *testSite) fetchCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[url]
}

func (s *testSite) writtenURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

func newTestSite(pages map[string]string, links map[string][]string) *testSite {
	return &testSite{
		pages:   pages,
		links:   links,
		fetches: make(map[string]int),
	}
}

// newTestCrawler builds a crawler over the site with retries disabled.
func newTestCrawler(s *testSite) *crawl.Crawler {
	return &crawl.Crawler{
		Fetcher: &mock.Fetcher{FetchFn: s.fetch},
		Extractor: &mock.Extractor{ExtractFn: func(html string) (*docmirror.ExtractResult, error) {
			return &docmirror.ExtractResult{Title: "Title", ContentHTML: html}, nil
		}},
		Converter: &mock.Converter{ConvertFn: func(html string) (string, error) {
			return "# " + html + "\n", nil
		}},
		Links: &mock.LinkExtractor{ExtractLinksFn: func(html, baseURL string) ([]string, error) {
			return s.links[baseURL], nil
		}},
		Writer: &mock.PageWriter{WritePageFn: func(ctx context.Context, page *docmirror.Page) (string, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.written = append(s.written, page.URL)
			return page.URL + ".md", nil
		}},
		RetryDelays: []time.Duration{},
	}
}

func TestCrawler_Run_SameSubtree(t *testing.T) {
	t.Parallel()

	// The start page links inside the subtree, outside it, and to a
	// fragment variant of an already-discovered page.
	site := newTestSite(
		map[string]string{
			"https://example.com/api/":    "<html>start</html>",
			"https://example.com/api/foo": "<html>foo</html>",
		},
		map[string][]string{
			"https://example.com/api/": {
				"https://example.com/api/foo",
				"https://example.com/other/bar",
				"https://example.com/api/foo#section",
			},
		},
	)
	c := newTestCrawler(site)

	result, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/api/",
		OutputRoot: t.TempDir(),
		MaxDepth:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.Skipped, "the out-of-scope link")
	assert.False(t, result.Partial)
	assert.Equal(t, crawl.StateDone, c.State())

	assert.Equal(t, 1, site.fetchCount("https://example.com/api/"), "start URL fetched as given")
	assert.Equal(t, 1, site.fetchCount("https://example.com/api/foo"), "fragment variant not refetched")
	assert.Equal(t, 0, site.fetchCount("https://example.com/other/bar"))
	assert.Equal(t,
		[]string{"https://example.com/api/", "https://example.com/api/foo"},
		site.writtenURLs(),
		"breadth-first order")
}

func TestCrawler_Run_TrailingSlashStartURLWritesIndexFile(t *testing.T) {
	t.Parallel()

	// A directory-like start URL must land at api/index.md, not api.md:
	// the trailing slash survives dedup normalization all the way to the
	// path mapper.
	site := newTestSite(
		map[string]string{
			"https://example.com/api/":    "<html>start</html>",
			"https://example.com/api/foo": "<html>foo</html>",
		},
		map[string][]string{
			"https://example.com/api/": {"https://example.com/api/foo"},
		},
	)
	c := newTestCrawler(site)

	outDir := t.TempDir()
	c.Writer = fs.NewWriter(outDir)

	result, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/api/",
		OutputRoot: outDir,
		MaxDepth:   1,
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Written)

	assert.FileExists(t, filepath.Join(outDir, "api", "index.md"))
	assert.FileExists(t, filepath.Join(outDir, "api", "foo.md"))
	assert.NoFileExists(t, filepath.Join(outDir, "api.md"))
}

func TestCrawler_Run_DepthZeroFetchesOnlyStartPage(t *testing.T) {
	t.Parallel()

	site := newTestSite(
		map[string]string{
			"https://example.com/docs":   "<html>start</html>",
			"https://example.com/docs/a": "<html>a</html>",
		},
		map[string][]string{
			"https://example.com/docs": {
				"https://example.com/docs/a",
				"https://example.com/docs/b",
			},
		},
	)
	c := newTestCrawler(site)

	result, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/docs",
		OutputRoot: t.TempDir(),
		MaxDepth:   0,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 2, result.Skipped, "in-scope links beyond the depth bound")
	assert.Equal(t, 0, site.fetchCount("https://example.com/docs/a"))
}

func TestCrawler_Run_PageFailuresAreCountedNotFatal(t *testing.T) {
	t.Parallel()

	// /docs/bad has no page behind it; its sibling must still be written.
	site := newTestSite(
		map[string]string{
			"https://example.com/docs":      "<html>start</html>",
			"https://example.com/docs/good": "<html>good</html>",
		},
		map[string][]string{
			"https://example.com/docs": {
				"https://example.com/docs/bad",
				"https://example.com/docs/good",
			},
		},
	)
	c := newTestCrawler(site)

	result, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/docs",
		OutputRoot: t.TempDir(),
		MaxDepth:   1,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, site.writtenURLs(), "https://example.com/docs/good")
}

func TestCrawler_Run_WriteFailureCounted(t *testing.T) {
	t.Parallel()

	site := newTestSite(
		map[string]string{"https://example.com/docs": "<html>start</html>"},
		nil,
	)
	c := newTestCrawler(site)
	c.Writer = &mock.PageWriter{WritePageFn: func(ctx context.Context, page *docmirror.Page) (string, error) {
		return "", docmirror.Errorf(docmirror.EINTERNAL, "disk full")
	}}

	result, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/docs",
		OutputRoot: t.TempDir(),
		MaxDepth:   0,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Written)
	assert.Equal(t, 1, result.Failed)
}

func TestCrawler_Run_RetriesTransientFetchFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	c := newTestCrawler(newTestSite(nil, nil))
	c.Fetcher = &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (string, error) {
		attempts++
		if attempts < 3 {
			return "", docmirror.Errorf(docmirror.EUNAVAILABLE, "flaky")
		}
		return "<html>ok</html>", nil
	}}
	c.RetryDelays = []time.Duration{0, 0, 0}

	result, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/docs",
		OutputRoot: t.TempDir(),
		MaxDepth:   0,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 3, attempts)
}

func TestCrawler_Run_CancellationReturnsPartialResult(t *testing.T) {
	t.Parallel()

	site := newTestSite(
		map[string]string{"https://example.com/docs": "<html>start</html>"},
		nil,
	)
	c := newTestCrawler(site)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := c.Run(ctx, &docmirror.Target{
		StartURL:   "https://example.com/docs",
		OutputRoot: t.TempDir(),
		MaxDepth:   1,
	})
	require.NoError(t, err, "cancellation is not an error")

	assert.True(t, result.Partial)
	assert.Equal(t, 0, result.Written)
	assert.Equal(t, crawl.StateDone, c.State())
}

func TestCrawler_Run_PageBudgetMarksResultPartial(t *testing.T) {
	t.Parallel()

	site := newTestSite(
		map[string]string{
			"https://example.com/docs":   "<html>start</html>",
			"https://example.com/docs/a": "<html>a</html>",
			"https://example.com/docs/b": "<html>b</html>",
		},
		map[string][]string{
			"https://example.com/docs": {
				"https://example.com/docs/a",
				"https://example.com/docs/b",
			},
		},
	)
	c := newTestCrawler(site)
	c.MaxPages = 1

	result, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/docs",
		OutputRoot: t.TempDir(),
		MaxDepth:   3,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Written)
	assert.True(t, result.Partial)
}

func TestCrawler_Run_InvalidTarget(t *testing.T) {
	t.Parallel()

	c := newTestCrawler(newTestSite(nil, nil))

	tests := []struct {
		name   string
		target docmirror.Target
	}{
		{"missing start URL", docmirror.Target{OutputRoot: "/tmp/out"}},
		{"missing output root", docmirror.Target{StartURL: "https://example.com"}},
		{"negative depth", docmirror.Target{StartURL: "https://example.com", OutputRoot: "/tmp/out", MaxDepth: -1}},
		{"non-http start URL", docmirror.Target{StartURL: "ftp://example.com", OutputRoot: "/tmp/out"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Run(context.Background(), &tt.target)
			assert.Equal(t, docmirror.EINVALID, docmirror.ErrorCode(err))
		})
	}
}

// checkedWriter lets tests exercise the pre-crawl output root check.
type checkedWriter struct {
	mock.PageWriter
	checkErr error
}

func (w *checkedWriter) Check() error { return w.checkErr }

func TestCrawler_Run_AbortsOnUnusableOutputRoot(t *testing.T) {
	t.Parallel()

	site := newTestSite(
		map[string]string{"https://example.com/docs": "<html>start</html>"},
		nil,
	)
	c := newTestCrawler(site)
	c.Writer = &checkedWriter{checkErr: docmirror.Errorf(docmirror.EINVALID, "output root not writable")}

	_, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/docs",
		OutputRoot: "/nonexistent",
		MaxDepth:   1,
	})
	assert.Equal(t, docmirror.EINVALID, docmirror.ErrorCode(err))
	assert.Equal(t, 0, site.fetchCount("https://example.com/docs"), "no fetch after abort")
}

func TestCrawler_Run_SitemapSeedsFrontier(t *testing.T) {
	t.Parallel()

	site := newTestSite(
		map[string]string{
			"https://example.com/docs":        "<html>start</html>",
			"https://example.com/docs/seeded": "<html>seeded</html>",
		},
		nil,
	)
	c := newTestCrawler(site)
	c.Sitemaps = &mock.SitemapService{DiscoverURLsFn: func(ctx context.Context, baseURL string) ([]string, error) {
		return []string{
			"https://example.com/docs/seeded",
			"https://example.com/other/ignored",
		}, nil
	}}

	result, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/docs",
		OutputRoot: t.TempDir(),
		MaxDepth:   1,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 1, site.fetchCount("https://example.com/docs/seeded"))
	assert.Equal(t, 0, site.fetchCount("https://example.com/other/ignored"))
}

func TestCrawler_Run_SitemapSkippedAtDepthZero(t *testing.T) {
	t.Parallel()

	site := newTestSite(
		map[string]string{"https://example.com/docs": "<html>start</html>"},
		nil,
	)
	c := newTestCrawler(site)
	sitemaps := &mock.SitemapService{DiscoverURLsFn: func(ctx context.Context, baseURL string) ([]string, error) {
		return []string{"https://example.com/docs/seeded"}, nil
	}}
	c.Sitemaps = sitemaps

	_, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/docs",
		OutputRoot: t.TempDir(),
		MaxDepth:   0,
	})
	require.NoError(t, err)

	assert.False(t, sitemaps.DiscoverURLsInvoked, "depth 0 admits only the start page")
}

func TestCrawler_Run_RecordsManifest(t *testing.T) {
	t.Parallel()

	site := newTestSite(
		map[string]string{
			"https://example.com/docs":   "<html>start</html>",
			"https://example.com/docs/a": "<html>a</html>",
		},
		map[string][]string{
			"https://example.com/docs": {"https://example.com/docs/a"},
		},
	)
	c := newTestCrawler(site)

	var (
		mu       sync.Mutex
		records  []*docmirror.PageRecord
		finished *docmirror.CrawlRun
	)
	c.Manifest = &mock.ManifestService{
		CreateRunFn: func(ctx context.Context, run *docmirror.CrawlRun) error {
			run.ID = "run-1"
			return nil
		},
		FinishRunFn: func(ctx context.Context, run *docmirror.CrawlRun) error {
			finished = run
			return nil
		},
		RecordPageFn: func(ctx context.Context, rec *docmirror.PageRecord) error {
			mu.Lock()
			defer mu.Unlock()
			records = append(records, rec)
			return nil
		},
	}

	result, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/docs",
		OutputRoot: t.TempDir(),
		MaxDepth:   1,
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Written)

	require.Len(t, records, 2)
	hashRe := regexp.MustCompile(`^[0-9a-f]{16}$`)
	for _, rec := range records {
		assert.Equal(t, "run-1", rec.RunID)
		assert.NotEmpty(t, rec.FilePath)
		assert.Regexp(t, hashRe, rec.ContentHash)
		assert.False(t, rec.FetchedAt.IsZero())
	}

	require.NotNil(t, finished)
	assert.Equal(t, 2, finished.Written)
	assert.False(t, finished.FinishedAt.IsZero())
}

func TestCrawler_Run_ManifestFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	site := newTestSite(
		map[string]string{"https://example.com/docs": "<html>start</html>"},
		nil,
	)
	c := newTestCrawler(site)
	c.Manifest = &mock.ManifestService{
		CreateRunFn: func(ctx context.Context, run *docmirror.CrawlRun) error {
			return docmirror.Errorf(docmirror.EINTERNAL, "db locked")
		},
	}

	result, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/docs",
		OutputRoot: t.TempDir(),
		MaxDepth:   0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)
}

func TestCrawler_Run_ProgressLogsTruncateLongURLs(t *testing.T) {
	t.Parallel()

	longURL := "https://example.com/docs/" + strings.Repeat("nested/", 12) + "page"
	site := newTestSite(map[string]string{longURL: "<html>deep</html>"}, nil)
	c := newTestCrawler(site)
	c.Writer = &mock.PageWriter{WritePageFn: func(ctx context.Context, page *docmirror.Page) (string, error) {
		return "page.md", nil
	}}

	var buf bytes.Buffer
	c.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	result, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   longURL,
		OutputRoot: t.TempDir(),
		MaxDepth:   0,
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Written)

	out := buf.String()
	assert.Contains(t, out, "page written")
	assert.Contains(t, out, "url=...", "long URLs are shortened for display")
	assert.NotContains(t, out, longURL)
}

func TestCrawler_Run_ConcurrentWorkersFetchEachURLOnce(t *testing.T) {
	t.Parallel()

	pages := map[string]string{"https://example.com/docs": "<html>root</html>"}
	links := map[string][]string{}
	var children []string
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		u := "https://example.com/docs/" + name
		pages[u] = "<html>" + name + "</html>"
		children = append(children, u)
	}
	links["https://example.com/docs"] = children
	// Every child also links back to the root and to a sibling.
	for i, u := range children {
		links[u] = []string{"https://example.com/docs", children[(i+1)%len(children)]}
	}

	site := newTestSite(pages, links)
	c := newTestCrawler(site)
	c.Concurrency = 3

	result, err := c.Run(context.Background(), &docmirror.Target{
		StartURL:   "https://example.com/docs",
		OutputRoot: t.TempDir(),
		MaxDepth:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, 7, result.Written)
	assert.Equal(t, 0, result.Failed)
	for u := range pages {
		assert.Equal(t, 1, site.fetchCount(u), u)
	}
}
