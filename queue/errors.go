// Package queue implements the state machine and public façade sitting
// between clients/workers and the durable store: Manager validates
// preconditions, applies defaults, and translates store-level failures
// into the typed error taxonomy.
package queue

import "errors"

// ErrJobNotFound is returned when an operation targets an id that does
// not exist.
var ErrJobNotFound = errors.New("queue: job not found")

// ErrInvalidJobState is returned when an operation requires the job to
// be in a particular state (e.g. RetryDLQJob requires Dead) and it
// is not.
var ErrInvalidJobState = errors.New("queue: invalid job state for operation")

// ErrDuplicateJob is returned by Enqueue when id already exists.
var ErrDuplicateJob = errors.New("queue: duplicate job id")

// ErrInvalidPriority is returned by Enqueue when priority falls outside
// [job.MinPriority, job.MaxPriority]. Out-of-range priorities are
// rejected, never silently clamped.
var ErrInvalidPriority = errors.New("queue: priority out of range")

// ErrEmptyID is returned by Enqueue when id is the empty string.
var ErrEmptyID = errors.New("queue: job id must not be empty")
