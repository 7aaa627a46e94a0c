package service

import (
	"math/rand"
	"sort"

	"github.com/nec-exams/examportal-backend/internal/model"
)

// selectQuestions draws up to target questions from the pool, uniformly at
// random and without repetition, and returns their student views together
// with the sorted distinct sections of the draw. A pool smaller than the
// target yields the whole pool. The pool itself is never reordered.
func selectQuestions(pool []model.Question, target int) ([]model.QuestionForStudent, []string) {
	n := len(pool)
	if target > n {
		target = n
	}
	if target <= 0 {
		return nil, nil
	}

	// Partial Fisher-Yates over an index permutation; only the first
	// target slots are ever settled.
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < target; i++ {
		j := i + rand.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	selected := make([]model.QuestionForStudent, 0, target)
	sectionSet := make(map[string]struct{})
	for _, i := range idx[:target] {
		selected = append(selected, pool[i].StudentView())
		sectionSet[pool[i].Section] = struct{}{}
	}

	sections := make([]string, 0, len(sectionSet))
	for s := range sectionSet {
		sections = append(sections, s)
	}
	sort.Strings(sections)

	return selected, sections
}
