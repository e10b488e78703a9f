package metrics

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Summary is the aggregate view returned by store.Backend.MetricsSummary.
//
// AvgDurationSeconds is the mean execution duration, in seconds, across
// every Completed event that recorded one. The field name is explicit
// about its unit because the original implementation this engine
// replaces computed this average over parsed ISO-8601 timestamp
// strings directly, which does not yield a duration at all — see
// DESIGN.md.
type Summary struct {
	EventCounts        map[EventType]int64
	AvgDurationSeconds float64
	RecentEvents       []*Event
}

// String renders a short human-readable summary line suitable for a
// log statement. Nothing in this module calls it.
func (s *Summary) String() string {
	var b strings.Builder
	total := int64(0)
	for _, c := range s.EventCounts {
		total += c
	}
	fmt.Fprintf(&b, "%s events (", humanize.Comma(total))
	first := true
	for _, et := range []EventType{Enqueued, Started, Completed, FailedEvent, DLQ} {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s=%s", et, humanize.Comma(s.EventCounts[et]))
	}
	b.WriteString("), avg duration ")
	b.WriteString(humanize.Commaf(s.AvgDurationSeconds))
	b.WriteString("s")
	return b.String()
}
