package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"video_importer/internal/domain"
)

// RunStore keeps the history of sync runs.
type RunStore struct {
	db *sqlx.DB
}

func NewRunStore(db *sqlx.DB) *RunStore {
	return &RunStore{db: db}
}

type runRow struct {
	domain.RunSummary
	ItemsJSON []byte `db:"items"`
}

func (s *RunStore) Record(ctx context.Context, summary *domain.RunSummary) error {
	items := summary.Items
	if items == nil {
		items = []domain.ItemResult{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	query := `
		INSERT INTO sync_runs (
			id, trigger_kind, status, started_at, finished_at,
			listed, imported, skipped, failed, image_failures, published, items, error
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err = s.db.ExecContext(ctx, query,
		summary.ID,
		summary.Trigger,
		summary.Status,
		summary.StartedAt,
		summary.FinishedAt,
		summary.Listed,
		summary.Imported,
		summary.Skipped,
		summary.Failed,
		summary.ImageFailures,
		summary.Published,
		itemsJSON,
		summary.Error,
	)
	return err
}

// Recent returns up to limit runs, newest first.
func (s *RunStore) Recent(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	query := `
		SELECT id, trigger_kind, status, started_at, finished_at,
			listed, imported, skipped, failed, image_failures, published, items, error
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1`

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, err
	}

	runs := make([]domain.RunSummary, 0, len(rows))
	for _, r := range rows {
		run := r.RunSummary
		if err := json.Unmarshal(r.ItemsJSON, &run.Items); err != nil {
			return nil, fmt.Errorf("unmarshal items of run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
