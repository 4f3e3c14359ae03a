package mock

import (
	"context"

	"github.com/fwojciec/docmirror"
)

var _ docmirror.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of docmirror.SitemapService.
type SitemapService struct {
	DiscoverURLsFn      func(ctx context.Context, baseURL string) ([]string, error)
	DiscoverURLsInvoked bool
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string) ([]string, error) {
	s.DiscoverURLsInvoked = true
	return s.DiscoverURLsFn(ctx, baseURL)
}
