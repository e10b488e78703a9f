package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/ArshdKhan/queuectl/job"
	"github.com/ArshdKhan/queuectl/metrics"
	"github.com/ArshdKhan/queuectl/store"
)

func TestGetJobNotFound(t *testing.T) {
	db := newTestDB(t)
	s := store.New(db)

	_, err := s.GetJob(context.Background(), "nope")
	if err != store.ErrJobNotFound {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestListJobsFiltersByState(t *testing.T) {
	db := newTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	a := &job.Job{ID: "a", Command: "true", Priority: 5, MaxRetries: 3}
	b := &job.Job{ID: "b", Command: "true", Priority: 5, MaxRetries: 3}
	if err := s.InsertJob(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertJob(ctx, b); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Claim(ctx, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	pending, err := s.ListJobs(ctx, job.Pending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending job, got %d", len(pending))
	}

	processing, err := s.ListJobs(ctx, job.Processing)
	if err != nil {
		t.Fatal(err)
	}
	if len(processing) != 1 {
		t.Fatalf("expected 1 processing job, got %d", len(processing))
	}

	all, err := s.ListJobs(ctx, job.Unknown)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs total, got %d", len(all))
	}
}

func TestMetricsSummaryCountsAndAverage(t *testing.T) {
	db := newTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	j := &job.Job{ID: "a", Command: "true", Priority: 5, MaxRetries: 3}
	if err := s.InsertJob(ctx, j); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Claim(ctx, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkCompleted(ctx, "a", 500); err != nil {
		t.Fatal(err)
	}

	summary, err := s.MetricsSummary(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if summary.EventCounts[metrics.Enqueued] != 1 {
		t.Errorf("expected 1 enqueued event, got %d", summary.EventCounts[metrics.Enqueued])
	}
	if summary.EventCounts[metrics.Started] != 1 {
		t.Errorf("expected 1 started event, got %d", summary.EventCounts[metrics.Started])
	}
	if summary.EventCounts[metrics.Completed] != 1 {
		t.Errorf("expected 1 completed event, got %d", summary.EventCounts[metrics.Completed])
	}
	if summary.AvgDurationSeconds != 0.5 {
		t.Errorf("expected avg duration 0.5s, got %v", summary.AvgDurationSeconds)
	}
	if len(summary.RecentEvents) != 3 {
		t.Errorf("expected 3 recent events, got %d", len(summary.RecentEvents))
	}
}

func TestMetricsSummaryDefaultsRecentLimit(t *testing.T) {
	db := newTestDB(t)
	s := store.New(db)
	ctx := context.Background()

	j := &job.Job{ID: "a", Command: "true", Priority: 5, MaxRetries: 3}
	if err := s.InsertJob(ctx, j); err != nil {
		t.Fatal(err)
	}

	summary, err := s.MetricsSummary(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.RecentEvents) != 1 {
		t.Fatalf("expected 1 recent event, got %d", len(summary.RecentEvents))
	}
}
