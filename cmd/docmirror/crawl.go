package main

import (
	"fmt"

	"github.com/fwojciec/docmirror"
	"github.com/fwojciec/docmirror/crawl"
	"github.com/fwojciec/docmirror/fs"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	target := &docmirror.Target{
		StartURL:   c.URL,
		OutputRoot: c.OutDir,
		MaxDepth:   c.Depth,
		Quiet:      c.Quiet,
	}

	crawler := &crawl.Crawler{
		Fetcher:     deps.Fetcher,
		Extractor:   deps.Extractor,
		Converter:   deps.Converter,
		Links:       deps.Links,
		Writer:      fs.NewWriter(c.OutDir),
		Manifest:    deps.Manifest,
		Sitemaps:    deps.Sitemaps,
		RateLimiter: crawl.NewDomainLimiter(c.RPS),
		Logger:      deps.Logger,
		Concurrency: c.Concurrency,
		MaxPages:    c.MaxPages,
	}

	result, err := crawler.Run(deps.Ctx, target)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docmirror.ErrorMessage(err))
		return err
	}

	// Per-page failures never fail the run; the summary reports them.
	status := "complete"
	if result.Partial {
		status = "partial"
	}
	fmt.Fprintf(deps.Stdout, "Mirrored %d pages (%s) to %s: %d failed, %d skipped [%s]\n",
		result.Written, crawl.FormatBytes(result.Bytes), c.OutDir,
		result.Failed, result.Skipped, status)

	return nil
}
