// Package trafilatura extracts main content from HTML pages.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/docmirror"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements docmirror.Extractor at compile time.
var _ docmirror.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to isolate main content, stripping
// navigation chrome and boilerplate. Extraction is best effort: when
// trafilatura finds no content node the raw HTML is returned so the
// page still produces a Markdown rendering.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*docmirror.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, docmirror.Errorf(docmirror.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		// Best effort: fall back to the unextracted document
		return &docmirror.ExtractResult{ContentHTML: rawHTML}, nil
	}

	contentHTML := rawHTML
	if result.ContentNode != nil {
		rendered, err := renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(rendered) != "" {
			contentHTML = rendered
		}
	}

	return &docmirror.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
