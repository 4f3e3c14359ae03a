package docmirror

import (
	"context"
	"time"
)

// CrawlRun records one mirror run in the manifest.
type CrawlRun struct {
	ID         string    `json:"id"`
	StartURL   string    `json:"startUrl"`
	OutputRoot string    `json:"outputRoot"`
	MaxDepth   int       `json:"maxDepth"`
	Written    int       `json:"written"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Partial    bool      `json:"partial"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Validate returns an error if the run contains invalid fields.
func (r *CrawlRun) Validate() error {
	if r.StartURL == "" {
		return Errorf(EINVALID, "run start URL required")
	}
	return nil
}

// PageRecord records one mirrored file in the manifest.
type PageRecord struct {
	ID          string    `json:"id"`
	RunID       string    `json:"runId"`
	SourceURL   string    `json:"sourceUrl"`
	FilePath    string    `json:"filePath"`
	Title       string    `json:"title"`
	ContentHash string    `json:"contentHash"`
	Depth       int       `json:"depth"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// Validate returns an error if the record contains invalid fields.
func (p *PageRecord) Validate() error {
	if p.RunID == "" {
		return Errorf(EINVALID, "page record run ID required")
	}
	if p.SourceURL == "" {
		return Errorf(EINVALID, "page record source URL required")
	}
	return nil
}

// ManifestService records crawl runs and their pages.
// The manifest is optional; the crawler works without one.
type ManifestService interface {
	// CreateRun registers a new run and assigns its ID.
	CreateRun(ctx context.Context, run *CrawlRun) error

	// FinishRun stores the run's final counts and finish time.
	FinishRun(ctx context.Context, run *CrawlRun) error

	// RecordPage registers a written page for a run.
	RecordPage(ctx context.Context, rec *PageRecord) error

	// FindPagesByRun retrieves the page records for a run, ordered by fetch time.
	FindPagesByRun(ctx context.Context, runID string) ([]*PageRecord, error)
}
