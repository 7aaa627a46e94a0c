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

// ErrNothingParsed means a bulk import found no well-formed question.
var ErrNothingParsed = errors.New("no valid questions found in import text")

const defaultMarks = 1

// QuestionService manages the question bank and broadcasts its mutations.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	configRepo   *repository.ExamConfigRepository
	hub          *broadcast.Hub
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, configRepo *repository.ExamConfigRepository, hub *broadcast.Hub, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		configRepo:   configRepo,
		hub:          hub,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// Create authors one question under an existing offering.
func (s *QuestionService) Create(ctx context.Context, req *model.CreateQuestionRequest) (*model.Question, error) {
	key := model.ExamKey{Branch: req.Branch, Year: req.Year, Semester: req.Semester, Subject: req.Subject}.Normalize()
	if _, err := s.configRepo.GetByKey(ctx, key); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("check exam config: %w", err)
	}

	marks := req.Marks
	if marks == 0 {
		marks = defaultMarks
	}

	q := &model.Question{
		ExamKey:       key,
		Section:       req.Section,
		QuestionText:  req.QuestionText,
		QuestionImage: req.QuestionImage,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Marks:         marks,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.publish(q)
	return q, nil
}

// Import parses bulk document text and inserts every well-formed question
// it contains, all-or-nothing. Malformed blocks are skipped during parsing;
// an import with nothing usable fails with ErrNothingParsed.
func (s *QuestionService) Import(ctx context.Context, req *model.ImportQuestionsRequest) ([]model.Question, error) {
	key := model.ExamKey{Branch: req.Branch, Year: req.Year, Semester: req.Semester, Subject: req.Subject}.Normalize()
	if _, err := s.configRepo.GetByKey(ctx, key); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("check exam config: %w", err)
	}

	parsed := parseQuestionText(req.Text)
	if len(parsed) == 0 {
		return nil, ErrNothingParsed
	}
	questions := buildImportedQuestions(parsed, key, req.Section)

	if err := s.questionRepo.CreateBatch(ctx, questions); err != nil {
		return nil, fmt.Errorf("import questions: %w", err)
	}

	s.log.Info().Int("count", len(questions)).Str("subject", key.Subject).Msg("Questions imported")
	s.hub.Publish(broadcast.Event{
		Type: broadcast.EventQuestionUpdate,
		Data: map[string]interface{}{"imported": len(questions), "key": key},
	}, broadcast.AdminChannel(), broadcast.BranchChannel(key.Branch))

	return questions, nil
}

// List retrieves an offering's questions for the admin editor, correct
// answers included. Never exposed on student routes.
func (s *QuestionService) List(ctx context.Context, key model.ExamKey, section string) ([]model.Question, error) {
	return s.questionRepo.ListByKey(ctx, key.Normalize(), section)
}

// ListSections returns the distinct sections of an offering's questions.
func (s *QuestionService) ListSections(ctx context.Context, key model.ExamKey) ([]string, error) {
	return s.questionRepo.ListSections(ctx, key.Normalize())
}

// Update applies a partial edit to a question.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Section != "" {
		q.Section = req.Section
	}
	if req.QuestionText != "" {
		q.QuestionText = req.QuestionText
	}
	if req.QuestionImage != "" {
		q.QuestionImage = req.QuestionImage
	}
	if len(req.Options) > 0 {
		q.Options = req.Options
	}
	if req.CorrectAnswer != nil {
		q.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Marks != nil {
		q.Marks = *req.Marks
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}

	s.publish(q)
	return q, nil
}

// Delete removes a question. Sessions that already drew it keep showing it
// until submit, where grading silently drops it.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	q, err := s.questionRepo.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.hub.Publish(broadcast.Event{
		Type: broadcast.EventQuestionUpdate,
		Data: map[string]interface{}{"deleted": true, "question": q},
	}, broadcast.AdminChannel(), broadcast.BranchChannel(q.Branch))
	return nil
}

func (s *QuestionService) publish(q *model.Question) {
	s.hub.Publish(broadcast.Event{Type: broadcast.EventQuestionUpdate, Data: q},
		broadcast.AdminChannel(), broadcast.BranchChannel(q.Branch))
}
