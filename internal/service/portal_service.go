package service

import (
	"context"
	"fmt"

	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/repository"
)

// PortalService assembles the student-facing read views: which exams are
// open, which are done, and the student's own scores.
type PortalService struct {
	configRepo *repository.ExamConfigRepository
	resultRepo *repository.ResultRepository
}

// NewPortalService creates a new PortalService.
func NewPortalService(configRepo *repository.ExamConfigRepository, resultRepo *repository.ResultRepository) *PortalService {
	return &PortalService{configRepo: configRepo, resultRepo: resultRepo}
}

// AvailableExam is one offering from the student's point of view.
type AvailableExam struct {
	model.ExamConfig
	Completed bool `json:"completed"`
}

// ListExams returns the offerings of the student's branch, flagged with
// whether that student already submitted them.
func (s *PortalService) ListExams(ctx context.Context, student *model.Student) ([]AvailableExam, error) {
	configs, err := s.configRepo.List(ctx, student.Branch)
	if err != nil {
		return nil, fmt.Errorf("list exam configs: %w", err)
	}

	done := make(map[model.ExamKey]bool)
	results, err := s.resultRepo.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("list own results: %w", err)
	}
	for _, res := range results {
		done[res.ExamKey] = true
	}

	exams := make([]AvailableExam, 0, len(configs))
	for _, cfg := range configs {
		exams = append(exams, AvailableExam{ExamConfig: cfg, Completed: done[cfg.ExamKey]})
	}
	return exams, nil
}

// OwnResult is one of the student's scores with correct/wrong tallies.
type OwnResult struct {
	model.ExamResult
	CorrectCount    int `json:"correct_count"`
	WrongCount      int `json:"wrong_count"`
	UnansweredCount int `json:"unanswered_count"`
}

// ListOwnResults returns the student's results, newest first, with tallies
// derived from the answer records.
func (s *PortalService) ListOwnResults(ctx context.Context, studentID int) ([]OwnResult, error) {
	results, err := s.resultRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list own results: %w", err)
	}

	out := make([]OwnResult, 0, len(results))
	for _, res := range results {
		own := OwnResult{ExamResult: res}
		for _, a := range res.Answers {
			switch {
			case a.IsCorrect:
				own.CorrectCount++
			case a.Answered():
				own.WrongCount++
			default:
				own.UnansweredCount++
			}
		}
		out = append(out, own)
	}
	return out, nil
}
