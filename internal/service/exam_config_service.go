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

// ExamConfigService manages exam offerings and fans their mutations out to
// connected dashboards.
type ExamConfigService struct {
	configRepo *repository.ExamConfigRepository
	hub        *broadcast.Hub
	log        zerolog.Logger
}

// NewExamConfigService creates a new ExamConfigService.
func NewExamConfigService(configRepo *repository.ExamConfigRepository, hub *broadcast.Hub, log zerolog.Logger) *ExamConfigService {
	return &ExamConfigService{
		configRepo: configRepo,
		hub:        hub,
		log:        log.With().Str("component", "exam_config_service").Logger(),
	}
}

// Upsert creates the offering or replaces its delivery parameters, then
// broadcasts the new state.
func (s *ExamConfigService) Upsert(ctx context.Context, req *model.UpsertExamConfigRequest) (*model.ExamConfig, error) {
	cfg := &model.ExamConfig{
		ExamKey: model.ExamKey{
			Branch:   req.Branch,
			Year:     req.Year,
			Semester: req.Semester,
			Subject:  req.Subject,
		}.Normalize(),
		NumberOfStudents:  req.NumberOfStudents,
		NumberOfQuestions: req.NumberOfQuestions,
		TimeLimitMinutes:  req.TimeLimitMinutes,
	}

	if err := s.configRepo.Upsert(ctx, cfg); err != nil {
		return nil, fmt.Errorf("upsert exam config: %w", err)
	}

	s.log.Info().Str("branch", cfg.Branch).Str("subject", cfg.Subject).Msg("Exam config saved")
	s.publish(cfg)
	return cfg, nil
}

// Get retrieves one offering by key.
func (s *ExamConfigService) Get(ctx context.Context, key model.ExamKey) (*model.ExamConfig, error) {
	cfg, err := s.configRepo.GetByKey(ctx, key.Normalize())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("get exam config: %w", err)
	}
	return cfg, nil
}

// List retrieves offerings, optionally filtered by branch.
func (s *ExamConfigService) List(ctx context.Context, branch string) ([]model.ExamConfig, error) {
	return s.configRepo.List(ctx, branch)
}

// ListBranches returns the branches that have at least one offering.
func (s *ExamConfigService) ListBranches(ctx context.Context) ([]string, error) {
	return s.configRepo.ListBranches(ctx)
}

// Delete removes an offering with its questions and results, then
// broadcasts the removal.
func (s *ExamConfigService) Delete(ctx context.Context, id uuid.UUID) error {
	cfg, err := s.configRepo.DeleteCascade(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConfigNotFound
		}
		return fmt.Errorf("delete exam config: %w", err)
	}

	s.log.Info().Str("branch", cfg.Branch).Str("subject", cfg.Subject).Msg("Exam config deleted")
	s.hub.Publish(broadcast.Event{
		Type: broadcast.EventExamUpdate,
		Data: map[string]interface{}{"deleted": true, "config": cfg},
	}, broadcast.AdminChannel(), broadcast.BranchChannel(cfg.Branch))
	return nil
}

func (s *ExamConfigService) publish(cfg *model.ExamConfig) {
	s.hub.Publish(broadcast.Event{Type: broadcast.EventExamUpdate, Data: cfg},
		broadcast.AdminChannel(), broadcast.BranchChannel(cfg.Branch))
}
