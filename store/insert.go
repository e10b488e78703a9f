package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ArshdKhan/queuectl/job"
	"github.com/ArshdKhan/queuectl/metrics"
)

// ErrDuplicateJob is returned by InsertJob when id already exists.
var ErrDuplicateJob = errors.New("store: duplicate job id")

// InsertJob inserts a row in state Pending and appends an Enqueued
// metric in the same transaction. It fails with ErrDuplicateJob if id
// already exists.
func (s *Store) InsertJob(ctx context.Context, j *job.Job) error {
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = now
	}
	if j.State == job.Unknown {
		j.State = job.Pending
	}
	model := fromJob(j)

	tx, err := beginImmediate(ctx, s.db)
	if err != nil {
		return err
	}
	if _, err := tx.NewInsert().Model(model).Exec(ctx); err != nil {
		rbErr := tx.Rollback()
		if isUniqueViolation(err) {
			return errors.Join(ErrDuplicateJob, rbErr)
		}
		return errors.Join(err, rbErr)
	}
	if err := recordMetricTx(ctx, tx, j.ID, metrics.Enqueued, nil, nil); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "constraint")
}
