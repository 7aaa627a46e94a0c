package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/nec-exams/examportal-backend/internal/model"
)

func bankOf(questions ...model.Question) map[uuid.UUID]model.Question {
	bank := make(map[uuid.UUID]model.Question, len(questions))
	for _, q := range questions {
		bank[q.ID] = q
	}
	return bank
}

func TestScoreAnswers(t *testing.T) {
	q1 := model.Question{ID: uuid.New(), Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 2, Marks: 3}
	q2 := model.Question{ID: uuid.New(), Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 2}
	q3 := model.Question{ID: uuid.New(), Options: []string{"a", "b", "c"}, CorrectAnswer: 1, Marks: 5}
	ids := []uuid.UUID{q1.ID, q2.ID, q3.ID}
	bank := bankOf(q1, q2, q3)

	tests := []struct {
		name      string
		answers   map[uuid.UUID]int
		wantMarks int
		wantCorr  int
	}{
		{
			name:      "all correct",
			answers:   map[uuid.UUID]int{q1.ID: 2, q2.ID: 0, q3.ID: 1},
			wantMarks: 10,
			wantCorr:  3,
		},
		{
			name:      "partially answered",
			answers:   map[uuid.UUID]int{q1.ID: 2},
			wantMarks: 3,
			wantCorr:  1,
		},
		{
			name:      "all wrong",
			answers:   map[uuid.UUID]int{q1.ID: 0, q2.ID: 1, q3.ID: 2},
			wantMarks: 0,
			wantCorr:  0,
		},
		{
			name:      "nothing answered",
			answers:   map[uuid.UUID]int{},
			wantMarks: 0,
			wantCorr:  0,
		},
		{
			name:      "out of range selection scores as unanswered",
			answers:   map[uuid.UUID]int{q2.ID: 7},
			wantMarks: 0,
			wantCorr:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, marks := scoreAnswers(ids, tt.answers, bank)
			if marks != tt.wantMarks {
				t.Errorf("total marks = %d, want %d", marks, tt.wantMarks)
			}
			if len(records) != 3 {
				t.Fatalf("got %d records, want 3", len(records))
			}
			correct := 0
			for _, rec := range records {
				if rec.IsCorrect {
					correct++
				}
			}
			if correct != tt.wantCorr {
				t.Errorf("correct count = %d, want %d", correct, tt.wantCorr)
			}
		})
	}
}

func TestScoreAnswersUnansweredKeptWithSentinel(t *testing.T) {
	q := model.Question{ID: uuid.New(), Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 1}
	records, _ := scoreAnswers([]uuid.UUID{q.ID}, nil, bankOf(q))

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].SelectedAnswer != model.UnansweredSentinel {
		t.Errorf("selected = %d, want sentinel %d", records[0].SelectedAnswer, model.UnansweredSentinel)
	}
	if records[0].IsCorrect {
		t.Error("unanswered question marked correct")
	}
	if records[0].Answered() {
		t.Error("sentinel record reports answered")
	}
}

func TestScoreAnswersSkipsDeletedQuestions(t *testing.T) {
	q := model.Question{ID: uuid.New(), Options: []string{"a", "b"}, CorrectAnswer: 1, Marks: 2}
	deleted := uuid.New()

	records, marks := scoreAnswers([]uuid.UUID{q.ID, deleted}, map[uuid.UUID]int{q.ID: 1, deleted: 0}, bankOf(q))

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (deleted question must be skipped)", len(records))
	}
	if marks != 2 {
		t.Errorf("total marks = %d, want 2", marks)
	}
}
