package docmirror

import "context"

// Page represents a fetched documentation page ready to be written.
type Page struct {
	URL     string
	Title   string
	Content string // Markdown
}

// Validate returns an error if the page contains invalid fields.
func (p *Page) Validate() error {
	if p.URL == "" {
		return Errorf(EINVALID, "page URL required")
	}
	return nil
}

// PageWriter persists pages to the local file tree.
// Implementations derive the destination path from the page URL,
// create intermediate directories, and overwrite unconditionally.
type PageWriter interface {
	// WritePage writes the page and returns the relative path it was
	// written to under the output root.
	WritePage(ctx context.Context, page *Page) (string, error)
}
