package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExamKey is the composite identity of one exam offering. All portal data
// (configs, questions, results, sessions) is partitioned by this tuple.
type ExamKey struct {
	Branch   string `json:"branch"`
	Year     string `json:"year"`
	Semester string `json:"semester"`
	Subject  string `json:"subject"`
}

// Normalize upper-cases and trims every field so lookups are
// case-insensitive regardless of how the client spelled them.
func (k ExamKey) Normalize() ExamKey {
	return ExamKey{
		Branch:   strings.ToUpper(strings.TrimSpace(k.Branch)),
		Year:     strings.TrimSpace(k.Year),
		Semester: strings.TrimSpace(k.Semester),
		Subject:  strings.ToUpper(strings.TrimSpace(k.Subject)),
	}
}

// ExamConfig identifies one exam offering and its delivery parameters.
// At most one live config exists per ExamKey (upsert semantics).
type ExamConfig struct {
	ID               uuid.UUID `json:"id"`
	ExamKey                    // embedded composite key
	NumberOfStudents int       `json:"number_of_students"`
	// NumberOfQuestions is the target size of the randomized subset drawn
	// for each session. The pool may be smaller; that is not an error.
	NumberOfQuestions int       `json:"number_of_questions"`
	TimeLimitMinutes  int       `json:"time_limit_minutes"`
	TotalQuestions    int       `json:"total_questions"`
	CreatedAt         time.Time `json:"created_at"`
}

// UpsertExamConfigRequest is the payload for creating or replacing a config.
type UpsertExamConfigRequest struct {
	Branch            string `json:"branch" binding:"required,min=1,max=50"`
	Year              string `json:"year" binding:"required,min=1,max=10"`
	Semester          string `json:"semester" binding:"required,min=1,max=10"`
	Subject           string `json:"subject" binding:"required,min=1,max=100"`
	NumberOfStudents  int    `json:"number_of_students" binding:"min=0"`
	NumberOfQuestions int    `json:"number_of_questions" binding:"required,min=1"`
	TimeLimitMinutes  int    `json:"time_limit_minutes" binding:"required,min=1,max=480"`
}
