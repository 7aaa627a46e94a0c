package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Validation errors enforced at construction time rather than left to
// ad hoc field checks at call sites.
var (
	ErrTooFewOptions     = errors.New("question needs at least 2 options")
	ErrCorrectOutOfRange = errors.New("correct answer is not a valid option index")
	ErrEmptyQuestionText = errors.New("question text is required")
	ErrNonPositiveMarks  = errors.New("marks must be positive")
)

// Question is one authored multiple-choice question, owned by the ExamKey
// of its config plus a section tag used for sub-grouping.
type Question struct {
	ID uuid.UUID `json:"id"`
	ExamKey
	Section       string    `json:"section"`
	QuestionText  string    `json:"question_text"`
	QuestionImage string    `json:"question_image,omitempty"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"correct_answer"`
	Marks         int       `json:"marks"`
	CreatedAt     time.Time `json:"created_at"`
}

// Validate checks the structural invariants of a question.
func (q *Question) Validate() error {
	if q.QuestionText == "" {
		return ErrEmptyQuestionText
	}
	if len(q.Options) < 2 {
		return ErrTooFewOptions
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return ErrCorrectOutOfRange
	}
	if q.Marks <= 0 {
		return ErrNonPositiveMarks
	}
	return nil
}

// QuestionForStudent is the student-facing view of a question. It has no
// correct-answer field at all, so the answer can never leak through
// serialization before submission.
type QuestionForStudent struct {
	ID            uuid.UUID `json:"id"`
	Section       string    `json:"section"`
	QuestionText  string    `json:"question_text"`
	QuestionImage string    `json:"question_image,omitempty"`
	Options       []string  `json:"options"`
	Marks         int       `json:"marks"`
}

// StudentView strips the correct answer from a question.
func (q *Question) StudentView() QuestionForStudent {
	return QuestionForStudent{
		ID:            q.ID,
		Section:       q.Section,
		QuestionText:  q.QuestionText,
		QuestionImage: q.QuestionImage,
		Options:       q.Options,
		Marks:         q.Marks,
	}
}

// CreateQuestionRequest is the payload for authoring a single question.
type CreateQuestionRequest struct {
	Branch        string   `json:"branch" binding:"required"`
	Section       string   `json:"section" binding:"required"`
	Year          string   `json:"year" binding:"required"`
	Semester      string   `json:"semester" binding:"required"`
	Subject       string   `json:"subject" binding:"required"`
	QuestionText  string   `json:"question_text" binding:"required,min=1,max=4000"`
	QuestionImage string   `json:"question_image" binding:"omitempty,max=500"`
	Options       []string `json:"options" binding:"required,min=2,dive,required"`
	CorrectAnswer int      `json:"correct_answer" binding:"min=0"`
	Marks         int      `json:"marks" binding:"omitempty,min=1,max=100"`
}

// UpdateQuestionRequest is the payload for editing an existing question.
type UpdateQuestionRequest struct {
	Section       string   `json:"section" binding:"omitempty"`
	QuestionText  string   `json:"question_text" binding:"omitempty,min=1,max=4000"`
	QuestionImage string   `json:"question_image" binding:"omitempty,max=500"`
	Options       []string `json:"options" binding:"omitempty,min=2,dive,required"`
	CorrectAnswer *int     `json:"correct_answer" binding:"omitempty,min=0"`
	Marks         *int     `json:"marks" binding:"omitempty,min=1,max=100"`
}

// ImportQuestionsRequest carries raw document text for bulk import plus the
// ExamKey and section the parsed questions belong to.
type ImportQuestionsRequest struct {
	Branch   string `json:"branch" binding:"required"`
	Section  string `json:"section" binding:"required"`
	Year     string `json:"year" binding:"required"`
	Semester string `json:"semester" binding:"required"`
	Subject  string `json:"subject" binding:"required"`
	Text     string `json:"text" binding:"required"`
}
