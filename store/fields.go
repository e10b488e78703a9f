package store

import (
	"time"

	"github.com/ArshdKhan/queuectl/job"
)

// Fields is a partial update set for UpdateJob. Only non-nil pointer
// fields are written. State is a plain value, not a pointer: every
// caller of UpdateJob is performing a state transition and must say
// what state the row lands in.
type Fields struct {
	State      job.State
	Attempts   *uint32
	Priority   *int
	RunAt      *time.Time
	ClearRunAt bool

	ErrorMessage      *string
	ClearErrorMessage bool

	LastExecutedAt *time.Time
	UpdatedAt      time.Time
}
