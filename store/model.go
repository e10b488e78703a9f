package store

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/ArshdKhan/queuectl/job"
	"github.com/ArshdKhan/queuectl/metrics"
)

// jobModel is the bun row representation of job.Job. Field tags choose
// deliberately boring, portable column types so the schema survives a
// dialect swap (SQLite today, nothing stops a Postgres bun.Dialect
// tomorrow per spec.md's "single-file relational storage backend"
// framing).
type jobModel struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID      string `bun:"id,pk"`
	Command string `bun:"command,notnull"`

	State      job.State `bun:"state,notnull,default:1"`
	Attempts   uint32    `bun:"attempts,notnull,default:0"`
	MaxRetries uint32    `bun:"max_retries,notnull,default:3"`
	Priority   int       `bun:"priority,notnull,default:5"`

	RunAt *time.Time `bun:"run_at,nullzero"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	ErrorMessage   *string    `bun:"error_message"`
	LastExecutedAt *time.Time `bun:"last_executed_at,nullzero"`
}

func (m *jobModel) toJob() *job.Job {
	return &job.Job{
		ID:             m.ID,
		Command:        m.Command,
		State:          m.State,
		Attempts:       m.Attempts,
		MaxRetries:     m.MaxRetries,
		Priority:       m.Priority,
		RunAt:          m.RunAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		ErrorMessage:   m.ErrorMessage,
		LastExecutedAt: m.LastExecutedAt,
	}
}

func fromJob(j *job.Job) *jobModel {
	return &jobModel{
		ID:             j.ID,
		Command:        j.Command,
		State:          j.State,
		Attempts:       j.Attempts,
		MaxRetries:     j.MaxRetries,
		Priority:       j.Priority,
		RunAt:          j.RunAt,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
		ErrorMessage:   j.ErrorMessage,
		LastExecutedAt: j.LastExecutedAt,
	}
}

// metricModel is the bun row representation of metrics.Event.
type metricModel struct {
	bun.BaseModel `bun:"table:job_metrics,alias:m"`

	ID        int64            `bun:"id,pk,autoincrement"`
	JobID     string           `bun:"job_id,notnull"`
	EventType metrics.EventType `bun:"event_type,notnull"`
	Timestamp time.Time        `bun:"timestamp,nullzero,notnull,default:current_timestamp"`

	DurationMs   *int64  `bun:"duration_ms"`
	ErrorMessage *string `bun:"error_message"`
}

func (m *metricModel) toEvent() *metrics.Event {
	return &metrics.Event{
		ID:           m.ID,
		JobID:        m.JobID,
		Type:         m.EventType,
		Timestamp:    m.Timestamp,
		DurationMs:   m.DurationMs,
		ErrorMessage: m.ErrorMessage,
	}
}
