package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ArshdKhan/queuectl/job"
	"github.com/ArshdKhan/queuectl/metrics"
)

// GetJob returns the current snapshot of id, or ErrJobNotFound.
func (s *Store) GetJob(ctx context.Context, id string) (*job.Job, error) {
	var row jobModel
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return row.toJob(), nil
}

// ListJobs returns every job in state, most recently created first. A
// zero state (job.Unknown) lists every job regardless of state.
func (s *Store) ListJobs(ctx context.Context, state job.State) ([]*job.Job, error) {
	var rows []jobModel
	q := s.db.NewSelect().Model(&rows).Order("created_at DESC")
	if state != job.Unknown {
		q = q.Where("state = ?", state)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*job.Job, len(rows))
	for i := range rows {
		out[i] = rows[i].toJob()
	}
	return out, nil
}

// CountsByState returns the number of jobs in each state, including
// states with zero jobs so callers can render a complete table without
// special-casing missing keys.
func (s *Store) CountsByState(ctx context.Context) (map[job.State]int64, error) {
	type countRow struct {
		State job.State `bun:"state"`
		N     int64     `bun:"n"`
	}
	var rows []countRow
	err := s.db.NewSelect().
		Model((*jobModel)(nil)).
		ColumnExpr("state").
		ColumnExpr("count(*) AS n").
		Group("state").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	counts := map[job.State]int64{
		job.Pending:    0,
		job.Processing: 0,
		job.Completed:  0,
		job.Dead:       0,
	}
	for _, r := range rows {
		counts[r.State] = r.N
	}
	return counts, nil
}

// MetricsSummary aggregates the event log into per-type counts, the
// average completed-job duration in seconds, and the recentLimit most
// recent events.
//
// Average duration is computed from the duration_ms recorded on each
// Completed event, not by re-pairing Started/Completed timestamps —
// the duration is captured once, in the worker, at the moment it's
// known, and carried through as a plain number. This sidesteps the
// original sqlite_store.py bug where the average was computed by
// averaging parsed ISO-8601 timestamp strings, which silently produced
// a meaningless unit.
func (s *Store) MetricsSummary(ctx context.Context, recentLimit int) (*metrics.Summary, error) {
	type countRow struct {
		EventType metrics.EventType `bun:"event_type"`
		N         int64             `bun:"n"`
	}
	var counts []countRow
	if err := s.db.NewSelect().
		Model((*metricModel)(nil)).
		ColumnExpr("event_type").
		ColumnExpr("count(*) AS n").
		Group("event_type").
		Scan(ctx, &counts); err != nil {
		return nil, err
	}

	eventCounts := make(map[metrics.EventType]int64, len(counts))
	for _, c := range counts {
		eventCounts[c.EventType] = c.N
	}

	var avg sql.NullFloat64
	if err := s.db.NewSelect().
		Model((*metricModel)(nil)).
		ColumnExpr("avg(duration_ms) AS avg").
		Where("event_type = ?", metrics.Completed).
		Where("duration_ms IS NOT NULL").
		Scan(ctx, &avg); err != nil {
		return nil, err
	}
	var avgSeconds float64
	if avg.Valid {
		avgSeconds = avg.Float64 / 1000.0
	}

	if recentLimit <= 0 {
		recentLimit = 20
	}
	var rows []metricModel
	if err := s.db.NewSelect().
		Model(&rows).
		Order("timestamp DESC").
		Limit(recentLimit).
		Scan(ctx); err != nil {
		return nil, err
	}
	recent := make([]*metrics.Event, len(rows))
	for i := range rows {
		recent[i] = rows[i].toEvent()
	}

	return &metrics.Summary{
		EventCounts:        eventCounts,
		AvgDurationSeconds: avgSeconds,
		RecentEvents:       recent,
	}, nil
}
