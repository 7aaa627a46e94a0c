package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/nec-exams/examportal-backend/internal/model"
)

// Status is the state of an attempt held in the store. Every stored
// session is active: a session that reached a terminal event is deleted,
// not marked done.
type Status string

const StatusActive Status = "ACTIVE"

// Key identifies one student's attempt at one exam offering. It is the only
// key shape the store accepts.
type Key struct {
	StudentID int
	Exam      model.ExamKey
}

// Session is one in-progress exam attempt. It is transient state: created
// when a student first requests the exam, mutated on every answer, review
// toggle, navigation and tick, and destroyed on submission or timeout.
type Session struct {
	StudentID  int    `json:"student_id"`
	RollNumber string `json:"roll_number"`

	Exam model.ExamKey `json:"exam"`

	// Questions is the frozen randomized subset drawn at session creation.
	// It is replayed verbatim on every read; admin edits to the question
	// bank do not affect an already-drawn subset.
	Questions []model.QuestionForStudent `json:"questions"`
	Sections  []string                   `json:"sections"`

	// Answers maps question ID to the selected option index. A question
	// absent from the map has not been answered.
	Answers map[uuid.UUID]int `json:"answers"`

	// ReviewFlags is the set of question IDs marked "review later".
	ReviewFlags map[uuid.UUID]bool `json:"review_flags"`

	CurrentIndex int `json:"current_index"`

	// Draw parameters, frozen so the client can show "N of M pool" and
	// the time limit without another config lookup.
	TimeLimitMinutes int `json:"time_limit_minutes"`
	QuestionPoolSize int `json:"question_pool_size"`

	StartedAt        time.Time `json:"started_at"`
	DeadlineUnix     int64     `json:"deadline_unix"`
	RemainingSeconds int       `json:"remaining_seconds"`

	WarningCount int    `json:"warning_count"`
	Status       Status `json:"status"`
}

// Key returns the store key for this session.
func (s *Session) Key() Key {
	return Key{StudentID: s.StudentID, Exam: s.Exam}
}

// HasQuestion reports whether id belongs to the drawn subset. Selections
// against foreign question IDs are rejected, never stored.
func (s *Session) HasQuestion(id uuid.UUID) bool {
	for _, q := range s.Questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// Deadline returns the absolute wall-clock deadline of the attempt.
func (s *Session) Deadline() time.Time {
	return time.Unix(s.DeadlineUnix, 0)
}

// RemainingAt re-derives the countdown from the stored deadline, clamped so
// it never exceeds the last persisted value. The result is monotonically
// non-increasing across reads regardless of client-reported ticks.
func (s *Session) RemainingAt(now time.Time) int {
	byClock := int(s.Deadline().Sub(now).Seconds())
	if byClock < 0 {
		byClock = 0
	}
	if byClock > s.RemainingSeconds {
		byClock = s.RemainingSeconds
	}
	return byClock
}

// Expired reports whether the attempt's deadline has passed.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Deadline())
}
