package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fwojciec/docmirror"
	"github.com/fwojciec/docmirror/crawl"
	"github.com/fwojciec/docmirror/fs"
)

// Run executes the page command.
func (c *PageCmd) Run(deps *Dependencies) error {
	html, err := crawl.FetchWithRetry(deps.Ctx, c.URL, deps.Fetcher.Fetch, deps.Logger)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docmirror.ErrorMessage(err))
		return err
	}

	extracted, err := deps.Extractor.Extract(html)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docmirror.ErrorMessage(err))
		return err
	}

	markdown, err := deps.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docmirror.ErrorMessage(err))
		return err
	}

	out := c.Output
	if out == "" {
		out = fs.DefaultFilename(c.URL)
	}
	if !strings.HasSuffix(out, ".md") {
		out += ".md"
	}
	if !c.Force {
		out = nextFreePath(out)
	}

	content := fs.FormatPage(&docmirror.Page{
		URL:     c.URL,
		Title:   extracted.Title,
		Content: markdown,
	})
	if err := os.WriteFile(out, []byte(content), 0644); err != nil {
		werr := docmirror.Errorf(docmirror.EINTERNAL, "failed to write %s: %v", out, err)
		fmt.Fprintf(deps.Stderr, "error: %s\n", docmirror.ErrorMessage(werr))
		return werr
	}

	fmt.Fprintf(deps.Stdout, "Saved %s to %s (%s)\n", c.URL, out, crawl.FormatBytes(len(content)))
	return nil
}

// nextFreePath returns path if nothing exists there, otherwise the first
// numbered variant (name_1.md, name_2.md, ...) that is free.
func nextFreePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	base := strings.TrimSuffix(path, ".md")
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d.md", base, i)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
