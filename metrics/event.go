// Package metrics defines the append-only job lifecycle event log and
// the summary statistics derived from it.
//
// Metric events are never updated or deleted; job rows in the store
// package remain the authoritative source of current state, while the
// event log here drives historical/observability queries only.
package metrics

import (
	"fmt"
	"time"
)

// EventType enumerates the kinds of lifecycle transition that produce
// a metric event.
type EventType uint8

const (
	// UnknownEvent is the zero value and is never recorded.
	UnknownEvent EventType = iota

	// Enqueued is recorded when a job is inserted, and again when a DLQ
	// retry returns it to pending.
	Enqueued

	// Started is recorded when a job is claimed.
	Started

	// Completed is recorded when a job finishes successfully.
	Completed

	// FailedEvent is recorded when an attempt fails and the job is
	// returned to pending for retry.
	FailedEvent

	// DLQ is recorded when a job is moved to the dead-letter queue.
	DLQ
)

func eventToString(e EventType) string {
	switch e {
	case Enqueued:
		return "enqueued"
	case Started:
		return "started"
	case Completed:
		return "completed"
	case FailedEvent:
		return "failed"
	case DLQ:
		return "dlq"
	default:
		return "unknown"
	}
}

func eventFromString(s string) (EventType, error) {
	switch s {
	case "enqueued":
		return Enqueued, nil
	case "started":
		return Started, nil
	case "completed":
		return Completed, nil
	case "failed":
		return FailedEvent, nil
	case "dlq":
		return DLQ, nil
	case "unknown", "":
		return UnknownEvent, nil
	default:
		return 0, fmt.Errorf("metrics: unknown event type %q", s)
	}
}

// ParseEventType converts a string into an EventType.
func ParseEventType(s string) (EventType, error) {
	return eventFromString(s)
}

// MarshalText implements encoding.TextMarshaler.
func (e EventType) MarshalText() ([]byte, error) {
	return []byte(eventToString(e)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EventType) UnmarshalText(text []byte) error {
	parsed, err := eventFromString(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// String returns the canonical string representation of the event type.
func (e EventType) String() string {
	return eventToString(e)
}

// Event is a single append-only record of a job lifecycle transition.
type Event struct {
	ID           int64
	JobID        string
	Type         EventType
	Timestamp    time.Time
	DurationMs   *int64
	ErrorMessage *string
}
