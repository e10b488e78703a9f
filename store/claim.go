package store

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/ArshdKhan/queuectl/job"
	"github.com/ArshdKhan/queuectl/metrics"
)

// ErrJobNotFound is returned when a transition targets an id that does
// not exist in storage.
var ErrJobNotFound = errors.New("store: job not found")

// ErrInvalidJobState is returned when a transition's WHERE-state guard
// matched zero rows because the job was not in the expected state —
// it was raced by another worker, already terminal, or never existed
// in a state that permits the requested transition.
var ErrInvalidJobState = errors.New("store: invalid job state for transition")

// Claim atomically selects the single highest-priority, oldest, ready
// job in state Pending and transitions it to Processing, appending a
// Started metric in the same transaction.
//
// The transaction is opened through beginImmediate, which relies on
// the shared connection being capped to one (SetMaxOpenConns(1)) so
// the effective write lock is held from transaction start: a second
// concurrent Claim blocks until the first commits or rolls back, then
// re-runs its SELECT against the now-updated state and picks a
// different row, or none. This is the isolation requirement spec.md
// §4.1 calls non-negotiable.
//
// Claim returns (nil, nil) if no eligible job exists.
func (s *Store) Claim(ctx context.Context, now time.Time) (*job.Job, error) {
	tx, err := beginImmediate(ctx, s.db)
	if err != nil {
		return nil, err
	}

	subQuery := tx.NewSelect().
		Model((*jobModel)(nil)).
		Column("id").
		Where("state = ?", job.Pending).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.WhereOr("run_at IS NULL").WhereOr("run_at <= ?", now)
		}).
		Order("priority DESC", "created_at ASC").
		Limit(1)

	var rows []jobModel
	err = tx.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", job.Processing).
		Set("updated_at = ?", now).
		Set("last_executed_at = ?", now).
		Where("id IN (?)", subQuery).
		Returning("*").
		Scan(ctx, &rows)
	if err != nil {
		return nil, errors.Join(err, tx.Rollback())
	}
	if len(rows) == 0 {
		return nil, tx.Rollback()
	}
	row := rows[0]

	if err := recordMetricTx(ctx, tx, row.ID, metrics.Started, nil, nil); err != nil {
		return nil, errors.Join(err, tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return row.toJob(), nil
}

// markTerminal transitions id from one of the from states to the state
// to, optionally writing attempts and the error message, and appends a
// metric of eventType carrying the optional execution duration.
func (s *Store) markTerminal(ctx context.Context, id string, to job.State, from []job.State, eventType metrics.EventType, durationMs *int64, errMsg *string, attempts *uint32) error {
	now := time.Now().UTC()
	tx, err := beginImmediate(ctx, s.db)
	if err != nil {
		return err
	}

	q := tx.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", to).
		Set("updated_at = ?", now)
	if attempts != nil {
		q = q.Set("attempts = ?", *attempts)
	}
	if errMsg != nil {
		q = q.Set("error_message = ?", *errMsg)
	} else if to == job.Pending {
		q = q.Set("error_message = NULL")
	}
	q = q.Where("id = ?", id)
	if len(from) > 0 {
		q = q.Where("state IN (?)", bun.In(from))
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if !rowsAffected(res) {
		exists, existsErr := jobExists(ctx, tx, id)
		_ = tx.Rollback()
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return ErrJobNotFound
		}
		return ErrInvalidJobState
	}

	if err := recordMetricTx(ctx, tx, id, eventType, durationMs, errMsg); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

// MarkCompleted transitions id from Processing to Completed, recording
// a Completed metric with the observed execution duration.
func (s *Store) MarkCompleted(ctx context.Context, id string, durationMs int64) error {
	return s.markTerminal(ctx, id, job.Completed, []job.State{job.Processing}, metrics.Completed, &durationMs, nil, nil)
}

// MarkPending transitions id from Processing back to Pending with the
// given incremented attempts count and error message, ready to be
// claimed immediately. The caller (Worker) is responsible for having
// already slept the backoff delay before calling this.
func (s *Store) MarkPending(ctx context.Context, id string, attempts uint32, errMsg string) error {
	now := time.Now().UTC()
	tx, err := beginImmediate(ctx, s.db)
	if err != nil {
		return err
	}

	res, err := tx.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", job.Pending).
		Set("attempts = ?", attempts).
		Set("error_message = ?", errMsg).
		Set("run_at = NULL").
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("state = ?", job.Processing).
		Exec(ctx)
	if err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if !rowsAffected(res) {
		exists, existsErr := jobExists(ctx, tx, id)
		_ = tx.Rollback()
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return ErrJobNotFound
		}
		return ErrInvalidJobState
	}
	if err := recordMetricTx(ctx, tx, id, metrics.FailedEvent, nil, &errMsg); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

// MarkDead transitions id from Processing to Dead, recording the final
// error message and a DLQ metric.
func (s *Store) MarkDead(ctx context.Context, id string, attempts uint32, errMsg string) error {
	return s.markTerminal(ctx, id, job.Dead, []job.State{job.Processing}, metrics.DLQ, nil, &errMsg, &attempts)
}

// RetryDLQJob transitions id from Dead back to Pending, resetting
// Attempts to zero and clearing the error message, making it eligible
// for claiming again immediately.
func (s *Store) RetryDLQJob(ctx context.Context, id string) error {
	now := time.Now().UTC()
	tx, err := beginImmediate(ctx, s.db)
	if err != nil {
		return err
	}

	res, err := tx.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", job.Pending).
		Set("attempts = ?", 0).
		Set("error_message = NULL").
		Set("run_at = NULL").
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("state = ?", job.Dead).
		Exec(ctx)
	if err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if !rowsAffected(res) {
		exists, existsErr := jobExists(ctx, tx, id)
		_ = tx.Rollback()
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return ErrJobNotFound
		}
		return ErrInvalidJobState
	}
	if err := recordMetricTx(ctx, tx, id, metrics.Enqueued, nil, nil); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

// UpdateJob applies a partial update described by fields. It is used
// by callers (the janitor's lease reclaim, administrative tooling)
// that need to change job state without the paired metric semantics of
// the dedicated transition methods above.
func (s *Store) UpdateJob(ctx context.Context, id string, fields Fields) error {
	tx, err := beginImmediate(ctx, s.db)
	if err != nil {
		return err
	}

	updatedAt := fields.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	q := tx.NewUpdate().
		Model((*jobModel)(nil)).
		Set("state = ?", fields.State).
		Set("updated_at = ?", updatedAt)
	if fields.Attempts != nil {
		q = q.Set("attempts = ?", *fields.Attempts)
	}
	if fields.Priority != nil {
		q = q.Set("priority = ?", *fields.Priority)
	}
	switch {
	case fields.ClearRunAt:
		q = q.Set("run_at = NULL")
	case fields.RunAt != nil:
		q = q.Set("run_at = ?", *fields.RunAt)
	}
	switch {
	case fields.ClearErrorMessage:
		q = q.Set("error_message = NULL")
	case fields.ErrorMessage != nil:
		q = q.Set("error_message = ?", *fields.ErrorMessage)
	}
	if fields.LastExecutedAt != nil {
		q = q.Set("last_executed_at = ?", *fields.LastExecutedAt)
	}

	res, err := q.Where("id = ?", id).Exec(ctx)
	if err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if !rowsAffected(res) {
		_ = tx.Rollback()
		return ErrJobNotFound
	}
	return tx.Commit()
}

func jobExists(ctx context.Context, tx bun.IDB, id string) (bool, error) {
	count, err := tx.NewSelect().Model((*jobModel)(nil)).Where("id = ?", id).Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
