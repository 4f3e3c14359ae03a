package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docmirror/goquery"
	"github.com/fwojciec/docmirror/htmltomarkdown"
	dochttp "github.com/fwojciec/docmirror/http"
	"github.com/fwojciec/docmirror/rod"
	docslog "github.com/fwojciec/docmirror/slog"
	"github.com/fwojciec/docmirror/sqlite"
	"github.com/fwojciec/docmirror/trafilatura"
)

func main() {
	// Interrupt cancels the run context: the crawler stops dispatching,
	// drains in-flight fetches, and the summary still prints. A second
	// interrupt kills the process via the default handler.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()
	defer m.Close()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database backing the optional crawl manifest.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docmirror"),
		kong.Description("Mirror a website subtree to local Markdown files."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docmirror --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Quiet raises the log level; per-page progress lands at info, the
	// final summary goes to stdout regardless.
	level := slog.LevelInfo
	if cmd == "crawl" && cli.Crawl.Quiet {
		level = slog.LevelWarn
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	useHTTP := cli.Crawl.HTTP
	timeout := cli.Crawl.Timeout
	if cmd == "page" {
		useHTTP = cli.Page.HTTP
		timeout = cli.Page.Timeout
	}

	if useHTTP {
		deps.Fetcher = dochttp.NewFetcher(dochttp.WithTimeout(timeout))
	} else {
		fetcher, err := rod.NewFetcher(rod.WithFetchTimeout(timeout))
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed, or pass --http")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		deps.Fetcher = fetcher
	}
	defer deps.Fetcher.Close()
	deps.Fetcher = rod.NewLoggingFetcher(deps.Fetcher, deps.Logger)

	deps.Extractor = trafilatura.NewExtractor()
	deps.Converter = htmltomarkdown.NewConverter()
	deps.Links = goquery.NewLinkExtractor()
	deps.Sitemaps = docslog.NewLoggingSitemapService(dochttp.NewSitemapService(nil), deps.Logger)

	if cmd == "crawl" && cli.Crawl.Manifest != "" {
		m.DB = sqlite.NewDB(cli.Crawl.Manifest)
		if err := m.DB.Open(); err != nil {
			return fmt.Errorf("failed to open manifest at %q: %w", cli.Crawl.Manifest, err)
		}
		deps.Manifest = sqlite.NewManifestService(m.DB)
	}

	return kongCtx.Run(deps)
}
