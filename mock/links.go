package mock

import "github.com/fwojciec/docmirror"

var _ docmirror.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of docmirror.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn      func(html string, baseURL string) ([]string, error)
	ExtractLinksInvoked bool
}

func (e *LinkExtractor) ExtractLinks(html string, baseURL string) ([]string, error) {
	e.ExtractLinksInvoked = true
	return e.ExtractLinksFn(html, baseURL)
}
