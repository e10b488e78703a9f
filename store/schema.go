package store

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
)

func createJobsTable(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*jobModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func createMetricsTable(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*metricModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// createClaimIndex backs the atomic claim query's ORDER BY
// priority DESC, created_at ASC over state = 'pending'.
func createClaimIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_state_priority_created").
		Column("state", "priority", "created_at").
		IfNotExists().
		Exec(ctx)
	return err
}

// createReadyIndex accelerates the run_at readiness filter.
func createReadyIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_state_runat").
		Column("state", "run_at").
		IfNotExists().
		Exec(ctx)
	return err
}

func createMetricsTimestampIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*metricModel)(nil)).
		Index("idx_metrics_timestamp").
		Column("timestamp").
		IfNotExists().
		Exec(ctx)
	return err
}

func createMetricsJobIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*metricModel)(nil)).
		Index("idx_metrics_jobid").
		Column("job_id").
		IfNotExists().
		Exec(ctx)
	return err
}

// migrateColumns adds columns that an older database file may be
// missing (priority, run_at), giving them the same defaults a fresh
// table would have. This mirrors the original sqlite_store.py
// "ALTER TABLE ... ADD COLUMN" migration block: existing rows gain
// default values, no data is lost, and the step is a no-op on an
// up-to-date schema.
func migrateColumns(ctx context.Context, db bun.IDB) error {
	type columnRow struct {
		Name string `bun:"name"`
	}
	var columns []columnRow
	if err := db.NewRaw("PRAGMA table_info(jobs)").Scan(ctx, &columns); err != nil {
		return err
	}
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c.Name] = true
	}
	if !have["priority"] {
		if _, err := db.ExecContext(ctx, "ALTER TABLE jobs ADD COLUMN priority INTEGER NOT NULL DEFAULT 5"); err != nil {
			return err
		}
	}
	if !have["run_at"] {
		if _, err := db.ExecContext(ctx, "ALTER TABLE jobs ADD COLUMN run_at TIMESTAMP"); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(ctx context.Context, db *bun.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	steps := []func(context.Context, bun.IDB) error{
		createJobsTable,
		migrateColumns,
		createMetricsTable,
		createClaimIndex,
		createReadyIndex,
		createMetricsTimestampIndex,
		createMetricsJobIndex,
	}
	for _, step := range steps {
		if err := step(ctx, tx); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}
	return tx.Commit()
}

// InitSchema creates the jobs and job_metrics tables and their indices
// if they do not already exist, and adds any columns a pre-existing
// database file is missing. It is idempotent and safe to call on every
// process start.
func InitSchema(ctx context.Context, db *bun.DB) error {
	return initSchema(ctx, db)
}

// MustInitSchema behaves like InitSchema but panics on failure. It is
// intended for bootstrap code where schema setup is unrecoverable.
func MustInitSchema(ctx context.Context, db *bun.DB) {
	if err := initSchema(ctx, db); err != nil {
		panic(err)
	}
}
