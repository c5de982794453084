// Package repositories implements SQLite persistence for sync history.
//
// Every completed pull writes one row recording the repository, the outcome
// counts and the run duration. The history table is append-only; rows are
// queried for the `history` command and never updated.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/favsync/internal/shared"
	"github.com/desertthunder/favsync/internal/tasks"
)

// SyncRecord is one persisted sync outcome.
type SyncRecord struct {
	ID         string
	RepoID     int
	RepoName   string
	StartedAt  time.Time
	FinishedAt time.Time
	Downloaded int
	Deleted    int
	Failed     int
	LedgerSize int
}

// Duration returns the wall-clock time the sync took.
func (r *SyncRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// HistoryRepository persists sync outcomes. Implements [tasks.HistoryRecorder].
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// RecordSync inserts one row for a completed sync.
func (r *HistoryRepository) RecordSync(ctx context.Context, result *tasks.SyncResult) error {
	query := `
		INSERT INTO sync_history (
			id, repo_id, repo_name, started_at, finished_at,
			downloaded, deleted, failed, ledger_size
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		shared.GenerateID(),
		result.RepoID,
		result.RepoName,
		result.StartedAt,
		result.FinishedAt,
		result.Downloaded,
		result.Deleted,
		result.Failed,
		result.LedgerSize,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync record: %w", err)
	}

	return nil
}

// ListRecent returns up to limit sync records, newest first. A repoName
// filter of "" lists across all repositories.
func (r *HistoryRepository) ListRecent(ctx context.Context, repoName string, limit int) ([]*SyncRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, repo_id, repo_name, started_at, finished_at,
			downloaded, deleted, failed, ledger_size
		FROM sync_history
	`
	args := []any{}
	if repoName != "" {
		query += " WHERE repo_name = ?"
		args = append(args, repoName)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync history: %w", err)
	}
	defer rows.Close()

	var records []*SyncRecord
	for rows.Next() {
		record := &SyncRecord{}
		if err := rows.Scan(
			&record.ID,
			&record.RepoID,
			&record.RepoName,
			&record.StartedAt,
			&record.FinishedAt,
			&record.Downloaded,
			&record.Deleted,
			&record.Failed,
			&record.LedgerSize,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
