package mock

import (
	"context"

	"github.com/fwojciec/docmirror"
)

var _ docmirror.PageWriter = (*PageWriter)(nil)

// PageWriter is a mock implementation of docmirror.PageWriter.
type PageWriter struct {
	WritePageFn      func(ctx context.Context, page *docmirror.Page) (string, error)
	WritePageInvoked bool
}

func (w *PageWriter) WritePage(ctx context.Context, page *docmirror.Page) (string, error) {
	w.WritePageInvoked = true
	return w.WritePageFn(ctx, page)
}
