package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/shared"
)

// RunRepository persists [models.AnalysisRun] rows.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Record inserts run, assigning an ID and creation time when unset.
func (r *RunRepository) Record(ctx context.Context, run *models.AnalysisRun) error {
	if run.RunID == "" {
		run.RunID = shared.GenerateID()
	}
	if run.Created.IsZero() {
		run.Created = time.Now()
	}
	run.Created = run.Created.UTC()

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO analysis_runs (id, playlist_id, strategy, track_count, status, error_kind, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.RunID,
		run.PlaylistID,
		run.Strategy,
		run.TrackCount,
		run.Status,
		run.ErrorKind,
		run.Duration.Milliseconds(),
		run.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(ctx context.Context, id string) (*models.AnalysisRun, error) {
	query := `
		SELECT id, playlist_id, strategy, track_count, status, error_kind, duration_ms, created_at
		FROM analysis_runs
		WHERE id = ?
	`
	run, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "analysis run "+id)
	}
	return run, nil
}

// Recent lists the newest runs first.
func (r *RunRepository) Recent(ctx context.Context, limit int) ([]*models.AnalysisRun, error) {
	query := `
		SELECT id, playlist_id, strategy, track_count, status, error_kind, duration_ms, created_at
		FROM analysis_runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`
	return r.scanMany(r.db.QueryContext(ctx, query, limitOrDefault(limit)))
}

// ForPlaylist lists the newest runs of one playlist first.
func (r *RunRepository) ForPlaylist(ctx context.Context, playlistID string, limit int) ([]*models.AnalysisRun, error) {
	query := `
		SELECT id, playlist_id, strategy, track_count, status, error_kind, duration_ms, created_at
		FROM analysis_runs
		WHERE playlist_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`
	return r.scanMany(r.db.QueryContext(ctx, query, playlistID, limitOrDefault(limit)))
}

// Prune deletes runs created before cutoff and returns how many were removed.
//
// Timestamps are stored in UTC, so comparisons are made in UTC.
func (r *RunRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM analysis_runs WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune analysis runs: %w", err)
	}
	return res.RowsAffected()
}

func (r *RunRepository) scanOne(row scanner) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	var durationMS int64
	if err := row.Scan(
		&run.RunID,
		&run.PlaylistID,
		&run.Strategy,
		&run.TrackCount,
		&run.Status,
		&run.ErrorKind,
		&durationMS,
		&run.Created,
	); err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}

func (r *RunRepository) scanMany(rows *sql.Rows, err error) ([]*models.AnalysisRun, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.AnalysisRun{}
	for rows.Next() {
		run, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
