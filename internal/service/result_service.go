package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/nec-exams/examportal-backend/internal/broadcast"
	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/repository"
)

// ErrResultNotFound is returned for lookups of a missing result.
var ErrResultNotFound = errors.New("result not found")

// ResultService is the admin-side surface over recorded results.
type ResultService struct {
	resultRepo *repository.ResultRepository
	hub        *broadcast.Hub
	log        zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository, hub *broadcast.Hub, log zerolog.Logger) *ResultService {
	return &ResultService{
		resultRepo: resultRepo,
		hub:        hub,
		log:        log.With().Str("component", "result_service").Logger(),
	}
}

// Get retrieves one result.
func (s *ResultService) Get(ctx context.Context, id uuid.UUID) (*model.ExamResult, error) {
	res, err := s.resultRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return res, nil
}

// List retrieves results matching the filter with pagination.
func (s *ResultService) List(ctx context.Context, f repository.ResultFilter, limit, offset int) ([]model.ExamResult, int, error) {
	key := model.ExamKey{Branch: f.Branch, Year: f.Year, Semester: f.Semester, Subject: f.Subject}.Normalize()
	f.Branch, f.Year, f.Semester, f.Subject = key.Branch, key.Year, key.Semester, key.Subject
	if f.RollNumber != "" {
		f.RollNumber = model.NormalizeRollNumber(f.RollNumber)
	}
	return s.resultRepo.ListFiltered(ctx, f, limit, offset)
}

// FilterOptions returns the distinct values recorded for one filter column.
func (s *ResultService) FilterOptions(ctx context.Context, column, branch string) ([]string, error) {
	return s.resultRepo.FilterOptions(ctx, column, branch)
}

// Delete erases a result, which re-opens the offering for that student:
// the next exam start sees no prior result and draws a fresh attempt.
func (s *ResultService) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.resultRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrResultNotFound
		}
		return fmt.Errorf("delete result: %w", err)
	}

	s.log.Info().
		Str("roll_number", res.RollNumber).
		Str("subject", res.Subject).
		Msg("Result deleted, reattempt open")

	s.hub.Publish(broadcast.Event{
		Type: broadcast.EventResultUpdate,
		Data: map[string]interface{}{"deleted": true, "result": res},
	}, broadcast.AdminChannel(), broadcast.BranchChannel(res.Branch), broadcast.StudentChannel(res.StudentID))
	return nil
}
