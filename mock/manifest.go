package mock

import (
	"context"

	"github.com/fwojciec/docmirror"
)

var _ docmirror.ManifestService = (*ManifestService)(nil)

// ManifestService is a mock implementation of docmirror.ManifestService.
type ManifestService struct {
	CreateRunFn       func(ctx context.Context, run *docmirror.CrawlRun) error
	FinishRunFn       func(ctx context.Context, run *docmirror.CrawlRun) error
	RecordPageFn      func(ctx context.Context, rec *docmirror.PageRecord) error
	FindPagesByRunFn  func(ctx context.Context, runID string) ([]*docmirror.PageRecord, error)
	RecordPageInvoked bool
}

func (s *ManifestService) CreateRun(ctx context.Context, run *docmirror.CrawlRun) error {
	return s.CreateRunFn(ctx, run)
}

func (s *ManifestService) FinishRun(ctx context.Context, run *docmirror.CrawlRun) error {
	return s.FinishRunFn(ctx, run)
}

func (s *ManifestService) RecordPage(ctx context.Context, rec *docmirror.PageRecord) error {
	s.RecordPageInvoked = true
	return s.RecordPageFn(ctx, rec)
}

func (s *ManifestService) FindPagesByRun(ctx context.Context, runID string) ([]*docmirror.PageRecord, error) {
	return s.FindPagesByRunFn(ctx, runID)
}
