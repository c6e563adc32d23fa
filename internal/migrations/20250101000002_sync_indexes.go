package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, idx := range []string{
			"CREATE INDEX IF NOT EXISTS idx_outcomes_run_seq ON sync_outcomes(run_id, seq)",
			"CREATE INDEX IF NOT EXISTS idx_outcomes_dataset_key ON sync_outcomes(dataset_key)",
			"CREATE INDEX IF NOT EXISTS idx_outcomes_state ON sync_outcomes(state)",
			"CREATE INDEX IF NOT EXISTS idx_runs_start_time ON sync_runs(start_time DESC)",
		} {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, idx := range []string{
			"DROP INDEX IF EXISTS idx_outcomes_run_seq",
			"DROP INDEX IF EXISTS idx_outcomes_dataset_key",
			"DROP INDEX IF EXISTS idx_outcomes_state",
			"DROP INDEX IF EXISTS idx_runs_start_time",
		} {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return err
			}
		}
		return nil
	})
}
