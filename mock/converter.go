package mock

import "github.com/fwojciec/docmirror"

var _ docmirror.Converter = (*Converter)(nil)

// Converter is a mock implementation of docmirror.Converter.
type Converter struct {
	ConvertFn      func(html string) (string, error)
	ConvertInvoked bool
}

func (c *Converter) Convert(html string) (string, error) {
	c.ConvertInvoked = true
	return c.ConvertFn(html)
}
