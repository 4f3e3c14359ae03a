// Package crawl orchestrates depth-bounded, breadth-first mirroring of
// documentation sites. It coordinates fetching, content extraction,
// markdown conversion, link discovery, and storage of pages.
package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/fwojciec/docmirror"
)

// Frontier configuration.
const (
	// frontierExpectedURLs is the expected number of URLs for Bloom filter sizing.
	frontierExpectedURLs = 10000
	// frontierFalsePositiveRate is the acceptable false positive rate for deduplication.
	frontierFalsePositiveRate = 0.01
	// defaultMaxPages limits the number of URLs processed to prevent runaway crawls.
	defaultMaxPages = 1000
)

// State identifies the traversal controller's lifecycle phase.
type State int32

// Controller states. Transitions: Idle -> Running -> {Draining, Aborted} -> Done.
const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateAborted
	StateDone
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateAborted:
		return "aborted"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Crawler mirrors a site subtree to local Markdown files.
//
// The zero Concurrency value means one worker, which guarantees strict
// breadth-first order: shallower pages are fetched and written before
// deeper ones. With more workers the guarantee relaxes to "each URL's
// enqueue happens before its fetch, and each page is written at most once".
type Crawler struct {
	Fetcher   docmirror.Fetcher
	Extractor docmirror.Extractor
	Converter docmirror.Converter
	Links     docmirror.LinkExtractor
	Writer    docmirror.PageWriter

	// Optional collaborators.
	Manifest    docmirror.ManifestService
	Sitemaps    docmirror.SitemapService
	RateLimiter *DomainLimiter
	Logger      *slog.Logger

	Concurrency int
	MaxPages    int
	RetryDelays []time.Duration

	state atomic.Int32
}

// Result holds the outcome of a mirror run.
type Result struct {
	Written int
	Failed  int
	Skipped int
	Bytes   int

	// Partial is true when the run was cut short by cancellation or the
	// page budget rather than draining the frontier.
	Partial bool
}

// State returns the controller's current lifecycle state.
func (c *Crawler) State() State {
	return State(c.state.Load())
}

func (c *Crawler) setState(s State) {
	c.state.Store(int32(s))
}

// checker is implemented by writers that can verify their destination
// before any fetch happens.
type checker interface {
	Check() error
}

// Run mirrors the target's subtree and returns the run's counters.
//
// Only configuration-class failures (invalid target, unusable output root)
// return an error; per-page fetch and write failures are counted, logged,
// and never abort the crawl. Cancellation drains in-flight work and returns
// a partial result with no error.
func (c *Crawler) Run(ctx context.Context, target *docmirror.Target) (*Result, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := target.Validate(); err != nil {
		c.setState(StateDone)
		return nil, err
	}

	scope, err := NewScope(target.StartURL)
	if err != nil {
		c.setState(StateDone)
		return nil, err
	}

	// Fail before any fetch if the output root is unusable.
	if chk, ok := c.Writer.(checker); ok {
		if err := chk.Check(); err != nil {
			c.setState(StateAborted)
			logger.Error("aborting: output root not writable", "err", err)
			c.setState(StateDone)
			return nil, err
		}
	}

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	frontier.Push(Entry{URL: target.StartURL, Depth: 0})

	c.seedFromSitemap(ctx, target, scope, frontier, logger)

	run := &docmirror.CrawlRun{
		StartURL:   target.StartURL,
		OutputRoot: target.OutputRoot,
		MaxDepth:   target.MaxDepth,
		StartedAt:  time.Now().UTC(),
	}
	if c.Manifest != nil {
		if err := c.Manifest.CreateRun(ctx, run); err != nil {
			logger.Warn("manifest run not recorded", "err", err)
			run = nil
		}
	}

	c.setState(StateRunning)

	w := &walker{
		crawler:  c,
		target:   target,
		scope:    scope,
		frontier: frontier,
		logger:   logger,
		run:      run,
	}
	result := w.walk(ctx)

	if run != nil && c.Manifest != nil {
		run.Written = result.Written
		run.Failed = result.Failed
		run.Skipped = result.Skipped
		run.Partial = result.Partial
		run.FinishedAt = time.Now().UTC()
		if err := c.Manifest.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("manifest run not finished", "err", err)
		}
	}

	c.setState(StateDone)

	logger.Info("crawl finished",
		"written", result.Written,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"partial", result.Partial,
	)

	return result, nil
}

// seedFromSitemap pre-seeds the frontier with in-scope sitemap URLs at
// depth 1. Sitemap failures are logged and ignored; recursive discovery
// covers the same ground.
func (c *Crawler) seedFromSitemap(ctx context.Context, target *docmirror.Target, scope *Scope, frontier *Frontier, logger *slog.Logger) {
	if c.Sitemaps == nil || target.MaxDepth < 1 {
		return
	}

	urls, err := c.Sitemaps.DiscoverURLs(ctx, target.StartURL)
	if err != nil {
		logger.Debug("sitemap discovery failed", "err", err)
		return
	}

	seeded := 0
	for _, u := range urls {
		if !scope.Contains(u) {
			continue
		}
		if frontier.Push(Entry{URL: u, Depth: 1}) {
			seeded++
		}
	}
	if seeded > 0 {
		logger.Info("sitemap pre-seeded frontier", "urls", seeded)
	}
}

// entryResult holds the outcome of processing a single frontier entry.
type entryResult struct {
	entry    Entry
	title    string
	markdown string
	links    []string
	err      error
}

// processEntry fetches a page and prepares its markdown and outbound links.
//
// The fetch itself runs on an uncancelable child context so an in-flight
// page load completes during draining; retries and rate limiting still
// respect the run context, so no new attempts start after cancellation.
func (c *Crawler) processEntry(ctx context.Context, e Entry) entryResult {
	result := entryResult{entry: e}

	if c.RateLimiter != nil {
		u, err := url.Parse(e.URL)
		if err != nil {
			result.err = docmirror.Errorf(docmirror.EINVALID, "invalid URL %q: %v", e.URL, err)
			return result
		}
		if err := c.RateLimiter.Wait(ctx, u.Host); err != nil {
			result.err = err
			return result
		}
	}

	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	fetchCtx := context.WithoutCancel(ctx)
	html, err := FetchWithRetryDelays(ctx, e.URL, func(_ context.Context, url string) (string, error) {
		return c.Fetcher.Fetch(fetchCtx, url)
	}, c.Logger, delays)
	if err != nil {
		result.err = err
		return result
	}

	// Links are extracted even at the depth bound so the controller can
	// count what the bound excludes.
	if links, err := c.Links.ExtractLinks(html, e.URL); err == nil {
		result.links = links
	}

	extracted, err := c.Extractor.Extract(html)
	if err != nil {
		result.err = err
		return result
	}

	markdown, err := c.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		result.err = err
		return result
	}

	result.title = extracted.Title
	result.markdown = markdown
	return result
}
