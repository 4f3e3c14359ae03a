package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/docmirror"
)

// Ensure Writer implements docmirror.PageWriter at compile time.
var _ docmirror.PageWriter = (*Writer)(nil)

// Writer writes pages as markdown files under a base directory.
// Existing files are overwritten unconditionally; re-crawl semantics
// are last write wins.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer that writes under the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Check verifies the base directory exists (creating it if needed) and is
// writable. Called before any fetch so an unusable output root aborts the
// run instead of failing page by page.
func (w *Writer) Check() error {
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return docmirror.Errorf(docmirror.EINVALID, "output root %q not usable: %v", w.baseDir, err)
	}

	probe := filepath.Join(w.baseDir, ".write_test")
	f, err := os.Create(probe)
	if err != nil {
		return docmirror.Errorf(docmirror.EINVALID, "output root %q not writable: %v", w.baseDir, err)
	}
	f.Close()
	return os.Remove(probe)
}

// WritePage writes a page to disk and returns the relative path written.
func (w *Writer) WritePage(ctx context.Context, page *docmirror.Page) (string, error) {
	if err := page.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	relPath, err := URLToPath(page.URL)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(w.baseDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", docmirror.Errorf(docmirror.EINTERNAL, "creating directory for %q: %v", relPath, err)
	}

	if err := writeFile(fullPath, FormatPage(page)); err != nil {
		return "", docmirror.Errorf(docmirror.EINTERNAL, "writing %q: %v", relPath, err)
	}
	return relPath, nil
}

// writeFile writes content through an explicitly closed handle so the
// descriptor is released on every exit path, including write failure.
func writeFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(content)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// FormatPage formats a page with YAML frontmatter.
func FormatPage(page *docmirror.Page) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(page.URL)
	b.WriteString("\ntitle: ")
	b.WriteString(page.Title)
	b.WriteString("\ncrawled: ")
	b.WriteString(time.Now().Format("2006-01-02"))
	b.WriteString("\n---\n\n")
	b.WriteString(page.Content)
	return b.String()
}
