package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fwojciec/docmirror"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ docmirror.ManifestService = (*ManifestService)(nil)

// ManifestService implements docmirror.ManifestService using SQLite.
type ManifestService struct {
	db *DB
}

// NewManifestService creates a new ManifestService.
func NewManifestService(db *DB) *ManifestService {
	return &ManifestService{db: db}
}

// CreateRun registers a new run and assigns its ID.
func (s *ManifestService) CreateRun(ctx context.Context, run *docmirror.CrawlRun) error {
	if err := run.Validate(); err != nil {
		return err
	}

	run.ID = uuid.New().String()
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, start_url, output_root, max_depth, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.StartURL, run.OutputRoot, run.MaxDepth,
		run.StartedAt.Format(time.RFC3339))

	return err
}

// FinishRun stores the run's final counts and finish time.
func (s *ManifestService) FinishRun(ctx context.Context, run *docmirror.CrawlRun) error {
	if run.ID == "" {
		return docmirror.Errorf(docmirror.EINVALID, "run ID required")
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET written = ?, failed = ?, skipped = ?, partial = ?, finished_at = ?
		WHERE id = ?
	`, run.Written, run.Failed, run.Skipped, boolToInt(run.Partial),
		run.FinishedAt.Format(time.RFC3339), run.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return docmirror.Errorf(docmirror.ENOTFOUND, "run not found")
	}

	return nil
}

// RecordPage registers a written page for a run.
func (s *ManifestService) RecordPage(ctx context.Context, rec *docmirror.PageRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	rec.ID = uuid.New().String()
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (id, run_id, source_url, file_path, title, content_hash, depth, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.RunID, rec.SourceURL, rec.FilePath, rec.Title, rec.ContentHash,
		rec.Depth, rec.FetchedAt.Format(time.RFC3339))

	return err
}

// FindRunByID retrieves a run by ID.
func (s *ManifestService) FindRunByID(ctx context.Context, id string) (*docmirror.CrawlRun, error) {
	var run docmirror.CrawlRun
	var partial int
	var startedAt, finishedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, start_url, output_root, max_depth, written, failed, skipped, partial, started_at, finished_at
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.StartURL, &run.OutputRoot, &run.MaxDepth,
		&run.Written, &run.Failed, &run.Skipped, &partial, &startedAt, &finishedAt)

	if err == sql.ErrNoRows {
		return nil, docmirror.Errorf(docmirror.ENOTFOUND, "run not found")
	}
	if err != nil {
		return nil, err
	}

	run.Partial = partial != 0
	if run.StartedAt, err = parseRFC3339(startedAt, "started_at"); err != nil {
		return nil, err
	}
	if finishedAt != "" {
		if run.FinishedAt, err = parseRFC3339(finishedAt, "finished_at"); err != nil {
			return nil, err
		}
	}

	return &run, nil
}

// FindPagesByRun retrieves the page records for a run, ordered by fetch time.
func (s *ManifestService) FindPagesByRun(ctx context.Context, runID string) ([]*docmirror.PageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, source_url, file_path, title, content_hash, depth, fetched_at
		FROM pages
		WHERE run_id = ?
		ORDER BY fetched_at, source_url
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*docmirror.PageRecord
	for rows.Next() {
		var rec docmirror.PageRecord
		var fetchedAt string

		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.SourceURL, &rec.FilePath,
			&rec.Title, &rec.ContentHash, &rec.Depth, &fetchedAt); err != nil {
			return nil, err
		}

		if rec.FetchedAt, err = parseRFC3339(fetchedAt, "fetched_at"); err != nil {
			return nil, err
		}

		records = append(records, &rec)
	}

	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
