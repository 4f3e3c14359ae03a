package rod

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/docmirror"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout is the default per-page fetch timeout.
const DefaultFetchTimeout = 10 * time.Second

// Ensure Fetcher implements docmirror.Fetcher at compile time.
var _ docmirror.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Pages are created from a managed browser that is recycled periodically.
// Fetcher is safe for concurrent use by multiple goroutines; each Fetch
// uses its own browser page.
type Fetcher struct {
	manager *BrowserManager
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the per-page timeout applied when the caller's
// context carries no deadline. Defaults to DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	manager, err := NewBrowserManager()
	if err != nil {
		return nil, err
	}
	f.manager = manager

	return f, nil
}

// Fetch navigates to the URL, waits for the load event, and returns the
// rendered HTML. Timeouts surface as ETIMEOUT, navigation failures as
// EUNAVAILABLE, so callers can count failure reasons without inspecting
// browser internals.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	browser := f.manager.Browser()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", docmirror.Errorf(docmirror.EUNAVAILABLE, "opening page for %s: %v", url, err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", classifyFetchError(url, err)
	}

	if err := page.WaitLoad(); err != nil {
		return "", classifyFetchError(url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", classifyFetchError(url, err)
	}

	f.manager.IncrementPageCount()
	return html, nil
}

// Close releases browser resources.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// classifyFetchError maps context deadline errors to ETIMEOUT and
// everything else to EUNAVAILABLE.
func classifyFetchError(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return docmirror.Errorf(docmirror.ETIMEOUT, "fetching %s: %v", url, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return docmirror.Errorf(docmirror.EUNAVAILABLE, "fetching %s: %v", url, err)
}
