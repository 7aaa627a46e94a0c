package service

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/nec-exams/examportal-backend/internal/model"
)

func makePool(sections ...string) []model.Question {
	pool := make([]model.Question, len(sections))
	for i, sec := range sections {
		pool[i] = model.Question{
			ID:            uuid.New(),
			Section:       sec,
			QuestionText:  "q",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: i % 4,
			Marks:         1,
		}
	}
	return pool
}

func TestSelectQuestionsCount(t *testing.T) {
	tests := []struct {
		name     string
		poolSize int
		target   int
		want     int
	}{
		{"target below pool", 10, 4, 4},
		{"target equals pool", 5, 5, 5},
		{"target above pool", 3, 10, 3},
		{"zero target", 5, 0, 0},
		{"empty pool", 0, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := makePool(make([]string, tt.poolSize)...)
			selected, _ := selectQuestions(pool, tt.target)
			if len(selected) != tt.want {
				t.Errorf("selected %d questions, want %d", len(selected), tt.want)
			}
		})
	}
}

func TestSelectQuestionsNoRepetition(t *testing.T) {
	pool := makePool(make([]string, 50)...)
	for trial := 0; trial < 20; trial++ {
		selected, _ := selectQuestions(pool, 30)
		seen := make(map[uuid.UUID]bool)
		for _, q := range selected {
			if seen[q.ID] {
				t.Fatalf("question %s drawn twice", q.ID)
			}
			seen[q.ID] = true
		}
	}
}

func TestSelectQuestionsLeavesPoolIntact(t *testing.T) {
	pool := makePool("A", "B", "C", "D", "E")
	before := make([]uuid.UUID, len(pool))
	for i, q := range pool {
		before[i] = q.ID
	}

	selectQuestions(pool, 3)

	for i, q := range pool {
		if q.ID != before[i] {
			t.Fatalf("pool reordered at index %d", i)
		}
	}
}

func TestSelectQuestionsSectionsSortedDistinct(t *testing.T) {
	pool := makePool("B", "A", "B", "C", "A")
	_, sections := selectQuestions(pool, 5)

	want := []string{"A", "B", "C"}
	if len(sections) != len(want) {
		t.Fatalf("sections = %v, want %v", sections, want)
	}
	for i := range want {
		if sections[i] != want[i] {
			t.Fatalf("sections = %v, want %v", sections, want)
		}
	}
}

func TestSelectedQuestionsNeverCarryCorrectAnswer(t *testing.T) {
	pool := makePool("A", "B")
	selected, _ := selectQuestions(pool, 2)

	data, err := json.Marshal(selected)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "correct") {
		t.Errorf("student view leaks answer data: %s", data)
	}
}

func TestSelectQuestionsUniformInclusion(t *testing.T) {
	const (
		poolSize = 10
		target   = 5
		trials   = 4000
	)
	pool := makePool(make([]string, poolSize)...)

	counts := make(map[uuid.UUID]int, poolSize)
	for trial := 0; trial < trials; trial++ {
		selected, _ := selectQuestions(pool, target)
		for _, q := range selected {
			counts[q.ID]++
		}
	}

	// Each question should appear in about target/poolSize of the draws.
	// The tolerance is over six standard deviations wide, so a correct
	// draw essentially never trips it while a biased one does.
	want := float64(target) / float64(poolSize)
	for i, q := range pool {
		rate := float64(counts[q.ID]) / float64(trials)
		if rate < want-0.05 || rate > want+0.05 {
			t.Errorf("question %d inclusion rate = %.3f, want %.2f ± 0.05", i, rate, want)
		}
	}
}
