package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotex/internal/models"
	"github.com/desertthunder/spotex/internal/shared"
)

// HistoryRepository persists export runs and the outcome of each playlist within them.
//
// It satisfies the exporter's recorder interface, so a run records itself as it goes.
type HistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// StartRun inserts a new run for outputDir and returns its generated ID
func (r *HistoryRepository) StartRun(ctx context.Context, outputDir string) (string, error) {
	run := &models.ExportRun{StartedAt: r.now(), OutputDir: outputDir}
	if err := r.CreateRun(ctx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}

// CreateRun inserts run, generating an ID when it has none
func (r *HistoryRepository) CreateRun(ctx context.Context, run *models.ExportRun) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = r.now()
	}

	query := `
		INSERT INTO export_runs (id, started_at, finished_at, output_dir, pages, succeeded, failed, list_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.StartedAt,
		nullTime(run.FinishedAt),
		run.OutputDir,
		run.Pages,
		run.Succeeded,
		run.Failed,
		run.ListError,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final counts of a run
func (r *HistoryRepository) FinishRun(ctx context.Context, run models.ExportRun) error {
	finishedAt := run.FinishedAt
	if finishedAt == nil {
		now := r.now()
		finishedAt = &now
	}

	query := `
		UPDATE export_runs
		SET finished_at = ?, pages = ?, succeeded = ?, failed = ?, list_error = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		*finishedAt,
		run.Pages,
		run.Succeeded,
		run.Failed,
		run.ListError,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.ID)
	}
	return nil
}

// RecordPlaylist appends the outcome of one playlist to its run
func (r *HistoryRepository) RecordPlaylist(ctx context.Context, record models.ExportRecord) error {
	if record.RecordedAt.IsZero() {
		record.RecordedAt = r.now()
	}

	query := `
		INSERT INTO export_records (run_id, playlist_id, playlist_name, path, song_count, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.RunID,
		record.PlaylistID,
		record.PlaylistName,
		record.Path,
		record.SongCount,
		record.Error,
		record.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (r *HistoryRepository) GetRun(ctx context.Context, id string) (*models.ExportRun, error) {
	query := `
		SELECT id, started_at, finished_at, output_dir, pages, succeeded, failed, list_error
		FROM export_runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns retrieves the most recent runs, newest first. A limit <= 0 returns every run.
func (r *HistoryRepository) ListRuns(ctx context.Context, limit int) ([]*models.ExportRun, error) {
	query := `
		SELECT id, started_at, finished_at, output_dir, pages, succeeded, failed, list_error
		FROM export_runs
		ORDER BY started_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ExportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// ListRecords retrieves the playlist outcomes of a run in the order they were recorded
func (r *HistoryRepository) ListRecords(ctx context.Context, runID string) ([]models.ExportRecord, error) {
	query := `
		SELECT run_id, playlist_id, playlist_name, path, song_count, error, recorded_at
		FROM export_records
		WHERE run_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.ExportRecord
	for rows.Next() {
		var rec models.ExportRecord
		err := rows.Scan(&rec.RunID, &rec.PlaylistID, &rec.PlaylistName, &rec.Path, &rec.SongCount, &rec.Error, &rec.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a row from either [sql.Row] or [sql.Rows] into a [models.ExportRun]
func scanRun(s scanner) (*models.ExportRun, error) {
	var (
		run        models.ExportRun
		finishedAt sql.NullTime
	)

	err := s.Scan(&run.ID, &run.StartedAt, &finishedAt, &run.OutputDir, &run.Pages, &run.Succeeded, &run.Failed, &run.ListError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
