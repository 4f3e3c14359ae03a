package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docmirror"
	"golang.org/x/sync/errgroup"
)

// drainTimeout bounds how long the coordinator waits for in-flight
// fetches after cancellation or frontier exhaustion.
const drainTimeout = 15 * time.Second

// walker holds the per-run state of the traversal controller.
// Results are handled only on the coordinator goroutine, so counters,
// manifest calls, and writes need no synchronization.
type walker struct {
	crawler  *Crawler
	target   *docmirror.Target
	scope    *Scope
	frontier *Frontier
	logger   *slog.Logger
	run      *docmirror.CrawlRun

	result Result
}

// walk drains the frontier through a bounded worker pool.
// With one worker (the default) dispatch and completion strictly
// alternate, which preserves FIFO breadth-first order end to end.
func (w *walker) walk(ctx context.Context) *Result {
	c := w.crawler

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	workCh := make(chan Entry)
	resultCh := make(chan entryResult)

	var g errgroup.Group
	for range concurrency {
		g.Go(func() error {
			for e := range workCh {
				resultCh <- c.processEntry(ctx, e)
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(resultCh)
	}()

	dispatched := 0
	pending := 0
	var next *Entry

	if e, ok := w.frontier.Pop(); ok {
		next = &e
	}

loop:
	for {
		if next == nil && pending == 0 {
			break
		}

		if ctx.Err() != nil {
			c.setState(StateDraining)
			w.result.Partial = true
			break
		}

		if next != nil && dispatched < maxPages {
			select {
			case <-ctx.Done():
				c.setState(StateDraining)
				w.result.Partial = true
				break loop
			case workCh <- *next:
				dispatched++
				pending++
				next = nil
			case res := <-resultCh:
				pending--
				w.handleResult(ctx, res)
			}
		} else {
			select {
			case <-ctx.Done():
				c.setState(StateDraining)
				w.result.Partial = true
				break loop
			case res, ok := <-resultCh:
				if !ok {
					break loop
				}
				pending--
				w.handleResult(ctx, res)
			}
		}

		if next == nil && dispatched < maxPages {
			if e, ok := w.frontier.Pop(); ok {
				next = &e
			}
		}
	}

	if dispatched >= maxPages && w.frontier.Len() > 0 {
		w.result.Partial = true
		w.logger.Warn("page budget exhausted", "budget", maxPages, "queued", w.frontier.Len())
	}

	// Let in-flight fetches finish and collect what they produced.
	close(workCh)
	deadline := time.After(drainTimeout)
	for pending > 0 {
		select {
		case res, ok := <-resultCh:
			if !ok {
				pending = 0
				break
			}
			pending--
			w.handleResult(context.WithoutCancel(ctx), res)
		case <-deadline:
			pending = 0
		}
	}

	return &w.result
}

// handleResult records one completed page: enqueues its in-scope links,
// writes its markdown, and updates the counters. Runs only on the
// coordinator goroutine.
func (w *walker) handleResult(ctx context.Context, res entryResult) {
	c := w.crawler

	// Expand children first so sibling failures never suppress discovery.
	for _, link := range res.links {
		if w.frontier.Seen(link) {
			continue
		}
		if !w.scope.Contains(link) {
			w.frontier.Mark(link)
			w.result.Skipped++
			continue
		}
		if res.entry.Depth >= w.target.MaxDepth {
			w.frontier.Mark(link)
			w.result.Skipped++
			continue
		}
		w.frontier.Push(Entry{URL: link, Depth: res.entry.Depth + 1})
	}

	if res.err != nil {
		// Cancellation is not a page failure; the page simply wasn't reached.
		if errors.Is(res.err, context.Canceled) {
			return
		}
		w.result.Failed++
		w.logger.Warn("page failed",
			"url", TruncateURL(res.entry.URL, logURLLen),
			"depth", res.entry.Depth,
			"reason", docmirror.ErrorCode(res.err),
			"err", res.err,
		)
		return
	}

	page := &docmirror.Page{
		URL:     res.entry.URL,
		Title:   res.title,
		Content: res.markdown,
	}

	relPath, err := c.Writer.WritePage(ctx, page)
	if err != nil {
		w.result.Failed++
		w.logger.Warn("page not written",
			"url", TruncateURL(res.entry.URL, logURLLen),
			"reason", docmirror.ErrorCode(err),
			"err", err,
		)
		return
	}

	w.result.Written++
	w.result.Bytes += len(res.markdown)
	w.logger.Info("page written",
		"url", TruncateURL(res.entry.URL, logURLLen),
		"depth", res.entry.Depth,
		"path", relPath,
	)

	if w.run != nil && c.Manifest != nil {
		rec := &docmirror.PageRecord{
			RunID:       w.run.ID,
			SourceURL:   res.entry.URL,
			FilePath:    relPath,
			Title:       res.title,
			ContentHash: fmt.Sprintf("%016x", xxhash.Sum64String(res.markdown)),
			Depth:       res.entry.Depth,
			FetchedAt:   time.Now().UTC(),
		}
		if err := c.Manifest.RecordPage(ctx, rec); err != nil {
			w.logger.Warn("manifest page not recorded", "url", res.entry.URL, "err", err)
		}
	}
}
