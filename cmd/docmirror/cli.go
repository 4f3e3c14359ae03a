package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/docmirror"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Fetcher   docmirror.Fetcher
	Extractor docmirror.Extractor
	Converter docmirror.Converter
	Links     docmirror.LinkExtractor
	Sitemaps  docmirror.SitemapService
	Manifest  docmirror.ManifestService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Crawl CrawlCmd `cmd:"" help:"Mirror a site subtree to local Markdown files"`
	Page  PageCmd  `cmd:"" help:"Save a single page as a Markdown file"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	URL    string `arg:"" help:"Start URL; its host and path prefix define the crawl scope"`
	OutDir string `arg:"" help:"Directory the mirrored .md tree is written under"`

	Depth       int           `short:"d" default:"3" help:"Maximum link depth from the start URL (0 fetches only the start page)"`
	Quiet       bool          `short:"q" help:"Suppress per-page progress; the final summary still prints"`
	Concurrency int           `short:"c" default:"1" help:"Concurrent fetch limit (1 preserves breadth-first order)"`
	Timeout     time.Duration `short:"t" default:"10s" help:"Per-page fetch timeout"`
	RPS         float64       `name:"rps" default:"1" help:"Maximum requests per second per domain"`
	MaxPages    int           `name:"max-pages" default:"1000" help:"Page budget for the whole run"`
	HTTP        bool          `name:"http" help:"Fetch with plain HTTP instead of headless Chrome"`
	Manifest    string        `type:"path" help:"Record the run in a SQLite manifest at this path"`
}

// PageCmd is the "page" subcommand.
type PageCmd struct {
	URL string `arg:"" help:"Page URL"`

	Output  string        `short:"o" help:"Output file (default derived from the last URL path segment)"`
	Force   bool          `help:"Overwrite the output file if it exists"`
	Timeout time.Duration `short:"t" default:"10s" help:"Fetch timeout"`
	HTTP    bool          `name:"http" help:"Fetch with plain HTTP instead of headless Chrome"`
}
