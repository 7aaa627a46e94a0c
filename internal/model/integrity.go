package model

import "time"

// IntegrityEvent is one proctoring signal reported by the exam client,
// such as a tab switch or a fullscreen exit. Events are advisory: they
// trigger a warning toward the student, never an automatic termination.
type IntegrityEvent struct {
	ID         int64     `json:"id"`
	StudentID  int       `json:"student_id"`
	RollNumber string    `json:"roll_number"`
	ExamKey
	EventType  string    `json:"event_type"`
	Detail     string    `json:"detail,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
