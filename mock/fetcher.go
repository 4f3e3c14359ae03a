// Package mock provides hand-written mocks of docmirror interfaces for testing.
package mock

import (
	"context"

	"github.com/fwojciec/docmirror"
)

var _ docmirror.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of docmirror.Fetcher.
type Fetcher struct {
	FetchFn      func(ctx context.Context, url string) (string, error)
	FetchInvoked bool
	CloseFn      func() error
	CloseInvoked bool
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.FetchInvoked = true
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	f.CloseInvoked = true
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}
