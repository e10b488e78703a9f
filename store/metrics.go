package store

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/ArshdKhan/queuectl/metrics"
)

// recordMetricTx appends a metric event as part of an in-flight
// transaction, so it lives or dies with the state transition that
// produced it (spec.md §3: "Metric event ... Never updated or
// deleted", and §8 invariant 9, rollback atomicity).
func recordMetricTx(ctx context.Context, tx bun.IDB, jobID string, eventType metrics.EventType, durationMs *int64, errMsg *string) error {
	row := &metricModel{
		JobID:        jobID,
		EventType:    eventType,
		Timestamp:    time.Now().UTC(),
		DurationMs:   durationMs,
		ErrorMessage: errMsg,
	}
	_, err := tx.NewInsert().Model(row).Exec(ctx)
	return err
}

// RecordMetric appends a metric event in its own transaction. Queue
// Manager callers that need a metric tied to a job-row update use the
// transition methods instead (InsertJob in insert.go; Claim,
// MarkCompleted, MarkPending, MarkDead and RetryDLQJob in claim.go);
// RecordMetric exists for callers that only need the log entry, such
// as administrative tooling.
func (s *Store) RecordMetric(ctx context.Context, e *metrics.Event) error {
	tx, err := beginImmediate(ctx, s.db)
	if err != nil {
		return err
	}
	if err := recordMetricTx(ctx, tx, e.JobID, e.Type, e.DurationMs, e.ErrorMessage); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}
