package model

import (
	"time"

	"github.com/google/uuid"
)

// UnansweredSentinel is the selected-answer value recorded for a question
// the student never answered. It scores zero but keeps the question in the
// denominator of any later percentage display.
const UnansweredSentinel = -1

// AnswerRecord is one scored (question, selection) pair inside a result.
type AnswerRecord struct {
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedAnswer int       `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
}

// Answered reports whether the student actually selected an option.
func (a AnswerRecord) Answered() bool {
	return a.SelectedAnswer != UnansweredSentinel
}

// ExamResult is the permanent record of one completed attempt. Student
// fields are a denormalized snapshot taken at submission time, not a live
// join. At most one result exists per (student, ExamKey); the database
// enforces this with a uniqueness constraint. The embedded key's branch
// doubles as the student's branch, since students only sit exams of their
// own branch.
type ExamResult struct {
	ID         uuid.UUID `json:"id"`
	StudentID  int       `json:"student_id"`
	RollNumber string    `json:"roll_number"`
	Name       string    `json:"name"`
	Section    string    `json:"section"`
	ExamKey
	Answers     []AnswerRecord `json:"answers"`
	TotalMarks  int            `json:"total_marks"`
	CompletedAt time.Time      `json:"completed_at"`
}

// CorrectCount returns the number of correctly answered questions.
func (r *ExamResult) CorrectCount() int {
	n := 0
	for _, a := range r.Answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// SubmitExamRequest is the HTTP payload for submitting an attempt. Answers
// are a final sync of the client's state; the session store remains the
// authoritative record of what was answered during the attempt.
type SubmitExamRequest struct {
	Branch   string            `json:"branch" binding:"required"`
	Year     string            `json:"year" binding:"required"`
	Semester string            `json:"semester" binding:"required"`
	Subject  string            `json:"subject" binding:"required"`
	Answers  []SubmittedAnswer `json:"answers" binding:"dive"`
}

// SubmittedAnswer is one (question, selection) pair sent by the client.
type SubmittedAnswer struct {
	QuestionID     uuid.UUID `json:"question_id" binding:"required"`
	SelectedAnswer int       `json:"selected_answer"`
}
