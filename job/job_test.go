package job

import (
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	cases := []struct {
		base     float64
		attempts uint32
		want     time.Duration
	}{
		{2.0, 0, 1 * time.Second},
		{2.0, 1, 2 * time.Second},
		{2.0, 2, 4 * time.Second},
		{2.0, 3, 8 * time.Second},
		{3.0, 2, 9 * time.Second},
	}
	for _, c := range cases {
		got := CalculateBackoff(c.base, c.attempts)
		if got != c.want {
			t.Errorf("CalculateBackoff(%v, %d) = %v, want %v", c.base, c.attempts, got, c.want)
		}
	}
}

func TestShouldRetry(t *testing.T) {
	j := &Job{Attempts: 1, MaxRetries: 3}
	if !j.ShouldRetry() {
		t.Error("expected retry to be allowed at attempt 1 of 3")
	}
	j.Attempts = 4
	if j.ShouldRetry() {
		t.Error("expected retry to be disallowed once attempts exceed MaxRetries")
	}
	j.Attempts = 3
	if !j.ShouldRetry() {
		t.Error("expected retry to be allowed when attempts equals MaxRetries")
	}
}

func TestIsReadyToRun(t *testing.T) {
	now := time.Now().UTC()
	j := &Job{}
	if !j.IsReadyToRun(now) {
		t.Error("expected nil RunAt to be ready immediately")
	}
	future := now.Add(time.Minute)
	j.RunAt = &future
	if j.IsReadyToRun(now) {
		t.Error("expected future RunAt to not be ready")
	}
	past := now.Add(-time.Minute)
	j.RunAt = &past
	if !j.IsReadyToRun(now) {
		t.Error("expected past RunAt to be ready")
	}
}

func TestStateTextRoundTrip(t *testing.T) {
	states := []State{Pending, Processing, Completed, Failed, Dead, Unknown}
	for _, s := range states {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", s, err)
		}
		var got State
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if got != s {
			t.Errorf("round trip %v -> %q -> %v", s, text, got)
		}
	}
}

func TestParseStateUnknownValue(t *testing.T) {
	if _, err := ParseState("bogus"); err == nil {
		t.Error("expected error parsing unrecognized state")
	}
}
