package session

import (
	"testing"
	"time"
)

func TestRemainingAt(t *testing.T) {
	deadline := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	s := &Session{
		DeadlineUnix:     deadline.Unix(),
		RemainingSeconds: 600,
	}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"clamped to stored value", deadline.Add(-20 * time.Minute), 600},
		{"tracks the clock", deadline.Add(-5 * time.Minute), 300},
		{"at deadline", deadline, 0},
		{"past deadline", deadline.Add(time.Minute), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.RemainingAt(tt.now); got != tt.want {
				t.Errorf("RemainingAt() = %d, want %d", got, tt.want)
			}
		})
	}
}

// A client reporting a larger remaining value than before must not roll the
// countdown backwards.
func TestRemainingAtMonotonic(t *testing.T) {
	deadline := time.Now().Add(10 * time.Minute)
	s := &Session{
		DeadlineUnix:     deadline.Unix(),
		RemainingSeconds: 120,
	}

	if got := s.RemainingAt(deadline.Add(-9 * time.Minute)); got != 120 {
		t.Errorf("RemainingAt() = %d, want 120", got)
	}
}

func TestExpired(t *testing.T) {
	deadline := time.Now()
	s := &Session{DeadlineUnix: deadline.Unix()}

	if s.Expired(time.Unix(deadline.Unix()-1, 0)) {
		t.Error("expired before deadline")
	}
	if !s.Expired(time.Unix(deadline.Unix(), 0)) {
		t.Error("not expired at deadline")
	}
}

func TestHasQuestion(t *testing.T) {
	s := testSession()
	if !s.HasQuestion(s.Questions[0].ID) {
		t.Error("drawn question not recognized")
	}

	foreign := testSession().Questions[0].ID
	if s.HasQuestion(foreign) {
		t.Error("foreign question accepted")
	}
}
