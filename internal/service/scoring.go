package service

import (
	"github.com/google/uuid"
	"github.com/nec-exams/examportal-backend/internal/model"
)

// scoreAnswers grades a finished attempt against the authoritative
// questions. Every question in the session appears in the output exactly
// once, answered or not, except questions deleted from the bank since the
// session started, which are skipped entirely. The answers map and the
// question bank are trusted inputs; client-supplied selections must be
// merged into the session before scoring.
func scoreAnswers(sessionQuestionIDs []uuid.UUID, answers map[uuid.UUID]int, bank map[uuid.UUID]model.Question) (records []model.AnswerRecord, totalMarks int) {
	records = make([]model.AnswerRecord, 0, len(sessionQuestionIDs))

	for _, qid := range sessionQuestionIDs {
		q, ok := bank[qid]
		if !ok {
			continue // deleted mid-exam
		}

		selected, answered := answers[qid]
		if !answered || selected < 0 || selected >= len(q.Options) {
			selected = model.UnansweredSentinel
		}

		correct := selected != model.UnansweredSentinel && selected == q.CorrectAnswer
		if correct {
			totalMarks += q.Marks
		}

		records = append(records, model.AnswerRecord{
			QuestionID:     qid,
			SelectedAnswer: selected,
			IsCorrect:      correct,
		})
	}
	return records, totalMarks
}
