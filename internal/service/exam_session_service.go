package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nec-exams/examportal-backend/internal/broadcast"
	"github.com/nec-exams/examportal-backend/internal/config"
	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/repository"
	"github.com/nec-exams/examportal-backend/internal/session"
)

// Exam session errors mapped to API error codes by the handlers.
var (
	ErrConfigNotFound   = errors.New("exam configuration not found")
	ErrNoQuestions      = errors.New("no questions available for this exam")
	ErrAlreadySubmitted = errors.New("exam already submitted")
	ErrNoActiveSession  = errors.New("no active session for this exam")
	ErrAttemptExpired   = errors.New("attempt deadline has passed")
)

// ConfigSource yields exam configs for session creation.
type ConfigSource interface {
	GetByKey(ctx context.Context, key model.ExamKey) (*model.ExamConfig, error)
}

// QuestionSource yields authoritative questions for selection and grading.
type QuestionSource interface {
	ListByKey(ctx context.Context, key model.ExamKey, section string) ([]model.Question, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error)
}

// ResultSink records finalized attempts. Its Create is the linearization
// point for the one-result-per-student rule.
type ResultSink interface {
	Create(ctx context.Context, res *model.ExamResult) error
	ExistsFor(ctx context.Context, studentID int, key model.ExamKey) (bool, error)
}

// ExamSessionService runs the lifecycle of an exam attempt: draw, answer,
// countdown, submit, grade. All attempt state lives in the session store;
// only the final result touches Postgres.
type ExamSessionService struct {
	cfg       *config.Config
	configs   ConfigSource
	questions QuestionSource
	results   ResultSink
	store     session.Store
	rdb       *redis.Client
	hub       *broadcast.Hub
	log       zerolog.Logger

	now func() time.Time
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	cfg *config.Config,
	configs ConfigSource,
	questions QuestionSource,
	results ResultSink,
	store session.Store,
	rdb *redis.Client,
	hub *broadcast.Hub,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		cfg:       cfg,
		configs:   configs,
		questions: questions,
		results:   results,
		store:     store,
		rdb:       rdb,
		hub:       hub,
		log:       log.With().Str("component", "exam_session_service").Logger(),
		now:       time.Now,
	}
}

// StartOrResume returns the student's session for the offering, creating
// one on first contact. A later call with a live session resumes it
// unchanged: the drawn questions, answers and deadline all survive a page
// reload. A student with a recorded result gets ErrAlreadySubmitted and
// never sees the questions again.
func (s *ExamSessionService) StartOrResume(ctx context.Context, student *model.Student, key model.ExamKey) (*session.Session, error) {
	key = key.Normalize()

	submitted, err := s.results.ExistsFor(ctx, student.ID, key)
	if err != nil {
		return nil, fmt.Errorf("check prior result: %w", err)
	}
	if submitted {
		return nil, ErrAlreadySubmitted
	}

	sessKey := session.Key{StudentID: student.ID, Exam: key}
	existing, err := s.store.Get(ctx, sessKey)
	if err == nil {
		existing.RemainingSeconds = existing.RemainingAt(s.now())
		return existing, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return nil, err
	}

	cfg, err := s.configs.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("load exam config: %w", err)
	}

	pool, err := s.questions.ListByKey(ctx, key, "")
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, ErrNoQuestions
	}

	selected, sections := selectQuestions(pool, cfg.NumberOfQuestions)
	now := s.now()
	limit := time.Duration(cfg.TimeLimitMinutes) * time.Minute

	sess := &session.Session{
		StudentID:        student.ID,
		RollNumber:       student.RollNumber,
		Exam:             key,
		Questions:        selected,
		Sections:         sections,
		Answers:          make(map[uuid.UUID]int),
		ReviewFlags:      make(map[uuid.UUID]bool),
		TimeLimitMinutes: cfg.TimeLimitMinutes,
		QuestionPoolSize: len(pool),
		StartedAt:        now,
		DeadlineUnix:     now.Add(limit).Unix(),
		RemainingSeconds: int(limit.Seconds()),
		Status:           session.StatusActive,
	}

	if err := s.store.Put(ctx, sessKey, sess); err != nil {
		return nil, err
	}

	s.log.Info().
		Int("student_id", student.ID).
		Str("subject", key.Subject).
		Int("questions", len(selected)).
		Msg("Exam session started")

	return sess, nil
}

// Answer records one selection and persists the session immediately, so a
// crash right after loses nothing.
func (s *ExamSessionService) Answer(ctx context.Context, studentID int, key model.ExamKey, questionID uuid.UUID, selected int) (*session.Session, error) {
	return s.mutate(ctx, studentID, key, func(sess *session.Session) error {
		if !sess.HasQuestion(questionID) {
			return fmt.Errorf("question %s is not part of this session", questionID)
		}
		if selected < 0 {
			delete(sess.Answers, questionID)
			return nil
		}
		sess.Answers[questionID] = selected
		return nil
	})
}

// Review toggles the "review later" flag on a question.
func (s *ExamSessionService) Review(ctx context.Context, studentID int, key model.ExamKey, questionID uuid.UUID, flagged bool) (*session.Session, error) {
	return s.mutate(ctx, studentID, key, func(sess *session.Session) error {
		if !sess.HasQuestion(questionID) {
			return fmt.Errorf("question %s is not part of this session", questionID)
		}
		if flagged {
			sess.ReviewFlags[questionID] = true
		} else {
			delete(sess.ReviewFlags, questionID)
		}
		return nil
	})
}

// Seek moves the student's current question pointer.
func (s *ExamSessionService) Seek(ctx context.Context, studentID int, key model.ExamKey, index int) (*session.Session, error) {
	return s.mutate(ctx, studentID, key, func(sess *session.Session) error {
		if index < 0 || index >= len(sess.Questions) {
			return fmt.Errorf("index %d out of range", index)
		}
		sess.CurrentIndex = index
		return nil
	})
}

// Tick advances the countdown. The remaining time is re-derived from the
// stored deadline and persisted, so it only ever moves down no matter what
// the client reports. When it hits zero the attempt is submitted
// server-side with whatever the session recorded.
func (s *ExamSessionService) Tick(ctx context.Context, student *model.Student, key model.ExamKey) (remaining int, result *model.ExamResult, err error) {
	key = key.Normalize()
	sessKey := session.Key{StudentID: student.ID, Exam: key}

	sess, err := s.store.Get(ctx, sessKey)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return 0, nil, ErrNoActiveSession
		}
		return 0, nil, err
	}

	sess.RemainingSeconds = sess.RemainingAt(s.now())
	if sess.RemainingSeconds <= 0 {
		result, err = s.finalize(ctx, student, sess, nil)
		if err != nil {
			return 0, nil, err
		}
		return 0, result, nil
	}

	if err := s.store.Put(ctx, sessKey, sess); err != nil {
		return 0, nil, err
	}
	return sess.RemainingSeconds, nil, nil
}

// integrityPayload is the durable-queue form of one proctoring signal.
// The integrity worker drains these into Postgres in batches.
type integrityPayload struct {
	StudentID  int    `json:"student_id"`
	RollNumber string `json:"roll_number"`
	Branch     string `json:"branch"`
	Year       string `json:"year"`
	Semester   string `json:"semester"`
	Subject    string `json:"subject"`
	EventType  string `json:"event_type"`
	Detail     string `json:"detail,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// ReportIntegrity counts a proctoring signal against the session and queues
// it for durable logging. The attempt always continues; the return value is
// the new warning count for the client's warning banner. Queue trouble is
// logged and swallowed, a full Redis must not end an exam.
func (s *ExamSessionService) ReportIntegrity(ctx context.Context, studentID int, key model.ExamKey, eventType, detail string) (int, error) {
	sess, err := s.mutate(ctx, studentID, key, func(sess *session.Session) error {
		sess.WarningCount++
		return nil
	})
	if err != nil {
		return 0, err
	}

	payload, _ := json.Marshal(integrityPayload{
		StudentID:  studentID,
		RollNumber: sess.RollNumber,
		Branch:     sess.Exam.Branch,
		Year:       sess.Exam.Year,
		Semester:   sess.Exam.Semester,
		Subject:    sess.Exam.Subject,
		EventType:  eventType,
		Detail:     detail,
		Timestamp:  s.now().Unix(),
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistIntegrityQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("Failed to queue integrity event")
	}

	return sess.WarningCount, nil
}

// Submit finalizes the attempt. The client's answers are a last sync: they
// are merged into the session only while the attempt is inside its deadline
// plus the configured grace window. A submission arriving later still goes
// through, but is graded purely from what the session already recorded.
func (s *ExamSessionService) Submit(ctx context.Context, student *model.Student, key model.ExamKey, clientAnswers []model.SubmittedAnswer) (*model.ExamResult, error) {
	key = key.Normalize()
	sessKey := session.Key{StudentID: student.ID, Exam: key}

	sess, err := s.store.Get(ctx, sessKey)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			submitted, exErr := s.results.ExistsFor(ctx, student.ID, key)
			if exErr != nil {
				return nil, fmt.Errorf("check prior result: %w", exErr)
			}
			if submitted {
				return nil, ErrAlreadySubmitted
			}
			return nil, ErrNoActiveSession
		}
		return nil, err
	}

	return s.finalize(ctx, student, sess, clientAnswers)
}

// finalize grades a session and records the result. The session is deleted
// on every outcome that leaves a result row in place, including losing a
// race to a concurrent duplicate submission.
func (s *ExamSessionService) finalize(ctx context.Context, student *model.Student, sess *session.Session, clientAnswers []model.SubmittedAnswer) (*model.ExamResult, error) {
	now := s.now()
	graceEnd := sess.Deadline().Add(s.cfg.SubmitGraceWindow)

	if len(clientAnswers) > 0 && now.Before(graceEnd) {
		for _, a := range clientAnswers {
			if sess.HasQuestion(a.QuestionID) && a.SelectedAnswer >= 0 {
				sess.Answers[a.QuestionID] = a.SelectedAnswer
			}
		}
	}

	ids := make([]uuid.UUID, len(sess.Questions))
	for i, q := range sess.Questions {
		ids[i] = q.ID
	}
	authoritative, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions for grading: %w", err)
	}
	bank := make(map[uuid.UUID]model.Question, len(authoritative))
	for _, q := range authoritative {
		bank[q.ID] = q
	}

	records, totalMarks := scoreAnswers(ids, sess.Answers, bank)

	result := &model.ExamResult{
		StudentID:   student.ID,
		RollNumber:  student.RollNumber,
		Name:        student.Name,
		Section:     student.Section,
		ExamKey:     sess.Exam,
		Answers:     records,
		TotalMarks:  totalMarks,
		CompletedAt: now,
	}

	if err := s.results.Create(ctx, result); err != nil {
		if errors.Is(err, repository.ErrDuplicateResult) {
			// Lost the race to another submission of the same attempt.
			// That result stands; this session is garbage either way.
			if delErr := s.store.Delete(ctx, sess.Key()); delErr != nil {
				s.log.Error().Err(delErr).Int("student_id", student.ID).Msg("Failed to delete session after duplicate submit")
			}
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("persist result: %w", err)
	}

	if err := s.store.Delete(ctx, sess.Key()); err != nil {
		s.log.Error().Err(err).Int("student_id", student.ID).Msg("Failed to delete session after submit")
	}

	s.log.Info().
		Int("student_id", student.ID).
		Str("subject", sess.Exam.Subject).
		Int("total_marks", totalMarks).
		Msg("Exam submitted")

	if s.hub != nil {
		s.hub.Publish(broadcast.Event{Type: broadcast.EventResultUpdate, Data: result},
			broadcast.AdminChannel(),
			broadcast.BranchChannel(result.Branch),
			broadcast.StudentChannel(student.ID),
		)
	}

	return result, nil
}

// mutate loads, edits and stores a session in one step. Mutations stop
// dead once the deadline plus the grace window has passed: whatever the
// session recorded by then is what gets graded, no matter how long the
// client stays connected without ticking.
func (s *ExamSessionService) mutate(ctx context.Context, studentID int, key model.ExamKey, fn func(*session.Session) error) (*session.Session, error) {
	sessKey := session.Key{StudentID: studentID, Exam: key.Normalize()}

	sess, err := s.store.Get(ctx, sessKey)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}

	if !s.now().Before(sess.Deadline().Add(s.cfg.SubmitGraceWindow)) {
		return nil, ErrAttemptExpired
	}

	if err := fn(sess); err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, sessKey, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
