package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/mkoziy/gbif-sync/internal/models"
)

// CreateRun inserts a new run row.
func CreateRun(ctx context.Context, db bun.IDB, run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}
	_, err := db.NewInsert().Model(run).Exec(ctx)
	return err
}

// FinishRun stores the end time, status and counters of a run.
func FinishRun(ctx context.Context, db bun.IDB, run *models.SyncRun, status string) error {
	now := time.Now()
	run.EndTime = &now
	run.Status = status

	_, err := db.NewUpdate().
		Model(run).
		Column("end_time", "status", "keys_total", "created", "updated", "skipped", "errors").
		Where("run_id = ?", run.RunID).
		Exec(ctx)
	return err
}

// InsertOutcome appends one key outcome.
func InsertOutcome(ctx context.Context, db bun.IDB, o *models.KeyOutcome) error {
	if err := o.Validate(); err != nil {
		return fmt.Errorf("invalid outcome: %w", err)
	}
	_, err := db.NewInsert().Model(o).Exec(ctx)
	return err
}

// GetRun fetches a run with its outcomes in processing order.
func GetRun(ctx context.Context, db bun.IDB, runID string) (*models.SyncRun, error) {
	run := new(models.SyncRun)
	err := db.NewSelect().
		Model(run).
		Where("sr.run_id = ?", runID).
		Relation("Outcomes", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("o.seq ASC")
		}).
		Scan(ctx)

	return run, err
}

// ListOutcomes returns a run's outcomes in processing order.
func ListOutcomes(ctx context.Context, db bun.IDB, runID string) ([]*models.KeyOutcome, error) {
	var outcomes []*models.KeyOutcome
	err := db.NewSelect().
		Model(&outcomes).
		Where("run_id = ?", runID).
		Order("seq ASC").
		Scan(ctx)

	return outcomes, err
}

// KeyHistory returns the most recent outcomes for a dataset key across runs.
func KeyHistory(ctx context.Context, db bun.IDB, datasetKey string, limit int) ([]*models.KeyOutcome, error) {
	var outcomes []*models.KeyOutcome
	err := db.NewSelect().
		Model(&outcomes).
		Where("dataset_key = ?", datasetKey).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit).
		Scan(ctx)

	return outcomes, err
}

// OutcomeWriter appends outcomes to the ledger as the syncer produces them.
type OutcomeWriter struct {
	DB bun.IDB
}

// Record implements syncer.Recorder.
func (w OutcomeWriter) Record(ctx context.Context, o *models.KeyOutcome) error {
	return InsertOutcome(ctx, w.DB, o)
}
