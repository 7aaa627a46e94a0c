package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nec-exams/examportal-backend/internal/config"
	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/repository"
	"github.com/nec-exams/examportal-backend/internal/session"
)

// ─── In-memory collaborators ────────────────────────────────────────

type fakeConfigSource struct {
	configs map[model.ExamKey]*model.ExamConfig
}

func (f *fakeConfigSource) GetByKey(_ context.Context, key model.ExamKey) (*model.ExamConfig, error) {
	cfg, ok := f.configs[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cfg, nil
}

type fakeQuestionSource struct {
	questions []model.Question
}

func (f *fakeQuestionSource) ListByKey(_ context.Context, key model.ExamKey, _ string) ([]model.Question, error) {
	var out []model.Question
	for _, q := range f.questions {
		if q.ExamKey == key {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestionSource) GetByIDs(_ context.Context, ids []uuid.UUID) ([]model.Question, error) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Question
	for _, q := range f.questions {
		if want[q.ID] {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestionSource) remove(id uuid.UUID) {
	for i, q := range f.questions {
		if q.ID == id {
			f.questions = append(f.questions[:i], f.questions[i+1:]...)
			return
		}
	}
}

// fakeResultSink enforces the same one-result-per-offering rule the real
// table does, under a mutex so concurrent submits race realistically.
type fakeResultSink struct {
	mu        sync.Mutex
	results   []*model.ExamResult
	existsErr error
}

func (f *fakeResultSink) Create(_ context.Context, res *model.ExamResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.results {
		if existing.StudentID == res.StudentID && existing.ExamKey == res.ExamKey {
			return repository.ErrDuplicateResult
		}
	}
	res.ID = uuid.New()
	f.results = append(f.results, res)
	return nil
}

func (f *fakeResultSink) ExistsFor(_ context.Context, studentID int, key model.ExamKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, existing := range f.results {
		if existing.StudentID == studentID && existing.ExamKey == key {
			return true, nil
		}
	}
	return false, nil
}

// ─── Fixture ────────────────────────────────────────────────────────

var testExamKey = model.ExamKey{Branch: "CSE", Year: "3", Semester: "5", Subject: "DBMS"}

func testStudent() *model.Student {
	return &model.Student{ID: 42, RollNumber: "21CS042", Name: "TEST STUDENT", Branch: "CSE", Section: "A"}
}

type sessionFixture struct {
	svc       *ExamSessionService
	questions *fakeQuestionSource
	results   *fakeResultSink
	store     session.Store
	clock     *time.Time
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	questions := &fakeQuestionSource{}
	for i := 0; i < 10; i++ {
		questions.questions = append(questions.questions, model.Question{
			ID:            uuid.New(),
			ExamKey:       testExamKey,
			Section:       "A",
			QuestionText:  "q",
			Options:       []string{"w", "x", "y", "z"},
			CorrectAnswer: i % 4,
			Marks:         2,
		})
	}

	configs := &fakeConfigSource{configs: map[model.ExamKey]*model.ExamConfig{
		testExamKey: {
			ID:                uuid.New(),
			ExamKey:           testExamKey,
			NumberOfQuestions: 5,
			TimeLimitMinutes:  30,
		},
	}}

	results := &fakeResultSink{}
	store := session.NewRedisStore(rdb)

	cfg := &config.Config{SubmitGraceWindow: 60 * time.Second}
	svc := NewExamSessionService(cfg, configs, questions, results, store, rdb, nil, zerolog.Nop())

	clock := time.Now()
	svc.now = func() time.Time { return clock }

	return &sessionFixture{svc: svc, questions: questions, results: results, store: store, clock: &clock}
}

func (f *sessionFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestStartDrawsConfiguredSubset(t *testing.T) {
	f := newSessionFixture(t)

	sess, err := f.svc.StartOrResume(context.Background(), testStudent(), testExamKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.Questions) != 5 {
		t.Errorf("drew %d questions, want 5", len(sess.Questions))
	}
	if sess.RemainingSeconds != 30*60 {
		t.Errorf("remaining = %d, want %d", sess.RemainingSeconds, 30*60)
	}
	if sess.Status != session.StatusActive {
		t.Errorf("status = %q, want %q", sess.Status, session.StatusActive)
	}
	if sess.TimeLimitMinutes != 30 {
		t.Errorf("time limit = %d, want 30", sess.TimeLimitMinutes)
	}
	if sess.QuestionPoolSize != 10 {
		t.Errorf("pool size = %d, want 10", sess.QuestionPoolSize)
	}
}

func TestStartUnknownConfig(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.svc.StartOrResume(context.Background(), testStudent(), model.ExamKey{Branch: "EEE", Year: "1", Semester: "1", Subject: "PHY"})
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("err = %v, want ErrConfigNotFound", err)
	}
}

func TestStartEmptyPool(t *testing.T) {
	f := newSessionFixture(t)
	f.questions.questions = nil

	_, err := f.svc.StartOrResume(context.Background(), testStudent(), testExamKey)
	if !errors.Is(err, ErrNoQuestions) {
		t.Errorf("err = %v, want ErrNoQuestions", err)
	}
}

func TestResumeKeepsDrawAndAnswers(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	first, err := f.svc.StartOrResume(ctx, student, testExamKey)
	if err != nil {
		t.Fatal(err)
	}
	qid := first.Questions[0].ID
	if _, err := f.svc.Answer(ctx, student.ID, testExamKey, qid, 2); err != nil {
		t.Fatal(err)
	}

	f.advance(10 * time.Minute)

	resumed, err := f.svc.StartOrResume(ctx, student, testExamKey)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.Questions[0].ID != qid {
		t.Error("resume re-drew the question subset")
	}
	if resumed.Answers[qid] != 2 {
		t.Errorf("answer lost on resume: %v", resumed.Answers)
	}
	want := 20 * 60
	if resumed.RemainingSeconds != want {
		t.Errorf("remaining = %d, want %d", resumed.RemainingSeconds, want)
	}
}

func TestAnswerRejectsForeignQuestion(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	if _, err := f.svc.StartOrResume(ctx, student, testExamKey); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Answer(ctx, student.ID, testExamKey, uuid.New(), 1); err == nil {
		t.Error("answer against a question outside the draw was accepted")
	}
}

func TestAnswerWithoutSession(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.svc.Answer(context.Background(), 42, testExamKey, uuid.New(), 1)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("err = %v, want ErrNoActiveSession", err)
	}
}

func TestTickIsMonotonic(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	if _, err := f.svc.StartOrResume(ctx, student, testExamKey); err != nil {
		t.Fatal(err)
	}

	f.advance(5 * time.Minute)
	first, _, err := f.svc.Tick(ctx, student, testExamKey)
	if err != nil {
		t.Fatal(err)
	}

	// Clock rollback must not win time back.
	f.advance(-2 * time.Minute)
	second, _, err := f.svc.Tick(ctx, student, testExamKey)
	if err != nil {
		t.Fatal(err)
	}
	if second > first {
		t.Errorf("remaining grew from %d to %d", first, second)
	}
}

func TestTickAutoSubmitsAtZero(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	sess, err := f.svc.StartOrResume(ctx, student, testExamKey)
	if err != nil {
		t.Fatal(err)
	}
	qid := sess.Questions[0].ID
	if _, err := f.svc.Answer(ctx, student.ID, testExamKey, qid, 1); err != nil {
		t.Fatal(err)
	}

	f.advance(31 * time.Minute)

	remaining, result, err := f.svc.Tick(ctx, student, testExamKey)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
	if result == nil {
		t.Fatal("expired tick did not produce a result")
	}
	if len(result.Answers) != 5 {
		t.Errorf("result has %d answer records, want 5", len(result.Answers))
	}

	if _, err := f.store.Get(ctx, session.Key{StudentID: student.ID, Exam: testExamKey}); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("session survived auto submit: %v", err)
	}
}

func TestSubmitGradesAndBlocksReattempt(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	sess, err := f.svc.StartOrResume(ctx, student, testExamKey)
	if err != nil {
		t.Fatal(err)
	}

	// Answer every drawn question correctly via the client's final sync.
	bank := make(map[uuid.UUID]model.Question)
	for _, q := range f.questions.questions {
		bank[q.ID] = q
	}
	var answers []model.SubmittedAnswer
	for _, q := range sess.Questions {
		answers = append(answers, model.SubmittedAnswer{QuestionID: q.ID, SelectedAnswer: bank[q.ID].CorrectAnswer})
	}

	result, err := f.svc.Submit(ctx, student, testExamKey, answers)
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalMarks != 10 {
		t.Errorf("total marks = %d, want 10", result.TotalMarks)
	}
	if result.CorrectCount() != 5 {
		t.Errorf("correct count = %d, want 5", result.CorrectCount())
	}

	// A second attempt is refused before any question is drawn.
	if _, err := f.svc.StartOrResume(ctx, student, testExamKey); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("reattempt err = %v, want ErrAlreadySubmitted", err)
	}
	// And a second submit is refused too.
	if _, err := f.svc.Submit(ctx, student, testExamKey, answers); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("double submit err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestConcurrentSubmitsYieldOneResult(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	if _, err := f.svc.StartOrResume(ctx, student, testExamKey); err != nil {
		t.Fatal(err)
	}

	const submitters = 8
	errs := make(chan error, submitters)
	var wg sync.WaitGroup
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Submit(ctx, student, testExamKey, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadySubmitted) || errors.Is(err, ErrNoActiveSession):
		default:
			t.Errorf("unexpected submit error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d submissions succeeded, want exactly 1", succeeded)
	}
	if len(f.results.results) != 1 {
		t.Errorf("%d results recorded, want 1", len(f.results.results))
	}
}

func TestLateSubmitIgnoresNewAnswers(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	sess, err := f.svc.StartOrResume(ctx, student, testExamKey)
	if err != nil {
		t.Fatal(err)
	}
	bank := make(map[uuid.UUID]model.Question)
	for _, q := range f.questions.questions {
		bank[q.ID] = q
	}

	// One answer lands during the attempt.
	live := sess.Questions[0].ID
	if _, err := f.svc.Answer(ctx, student.ID, testExamKey, live, bank[live].CorrectAnswer); err != nil {
		t.Fatal(err)
	}

	// The rest arrive two minutes past the deadline, beyond the grace window.
	f.advance(32 * time.Minute)
	var lateAnswers []model.SubmittedAnswer
	for _, q := range sess.Questions {
		lateAnswers = append(lateAnswers, model.SubmittedAnswer{QuestionID: q.ID, SelectedAnswer: bank[q.ID].CorrectAnswer})
	}

	result, err := f.svc.Submit(ctx, student, testExamKey, lateAnswers)
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalMarks != bank[live].Marks {
		t.Errorf("total marks = %d, want %d (only the in-time answer counts)", result.TotalMarks, bank[live].Marks)
	}
}

func TestSubmitWithinGraceAcceptsFinalSync(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	sess, err := f.svc.StartOrResume(ctx, student, testExamKey)
	if err != nil {
		t.Fatal(err)
	}
	bank := make(map[uuid.UUID]model.Question)
	for _, q := range f.questions.questions {
		bank[q.ID] = q
	}

	// Thirty seconds past the deadline, inside the 60s grace window.
	f.advance(30*time.Minute + 30*time.Second)
	qid := sess.Questions[0].ID
	result, err := f.svc.Submit(ctx, student, testExamKey, []model.SubmittedAnswer{
		{QuestionID: qid, SelectedAnswer: bank[qid].CorrectAnswer},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalMarks != bank[qid].Marks {
		t.Errorf("total marks = %d, want %d", result.TotalMarks, bank[qid].Marks)
	}
}

func TestSubmitSkipsQuestionsDeletedMidExam(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	sess, err := f.svc.StartOrResume(ctx, student, testExamKey)
	if err != nil {
		t.Fatal(err)
	}
	deleted := sess.Questions[0].ID
	if _, err := f.svc.Answer(ctx, student.ID, testExamKey, deleted, 0); err != nil {
		t.Fatal(err)
	}
	f.questions.remove(deleted)

	result, err := f.svc.Submit(ctx, student, testExamKey, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Answers) != 4 {
		t.Errorf("result has %d answer records, want 4 after mid-exam deletion", len(result.Answers))
	}
	for _, rec := range result.Answers {
		if rec.QuestionID == deleted {
			t.Error("deleted question still present in result")
		}
	}
}

func TestReportIntegrityCountsAndQueues(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	if _, err := f.svc.StartOrResume(ctx, student, testExamKey); err != nil {
		t.Fatal(err)
	}

	warnings, err := f.svc.ReportIntegrity(ctx, student.ID, testExamKey, "tab_switch", "")
	if err != nil {
		t.Fatal(err)
	}
	if warnings != 1 {
		t.Errorf("warnings = %d, want 1", warnings)
	}
	warnings, err = f.svc.ReportIntegrity(ctx, student.ID, testExamKey, "fullscreen_exit", "")
	if err != nil {
		t.Fatal(err)
	}
	if warnings != 2 {
		t.Errorf("warnings = %d, want 2", warnings)
	}

	queued, err := f.svc.rdb.LLen(ctx, config.WorkerKey.PersistIntegrityQueue).Result()
	if err != nil {
		t.Fatal(err)
	}
	if queued != 2 {
		t.Errorf("queued %d events, want 2", queued)
	}

	// The attempt keeps running.
	if _, _, err := f.svc.Tick(ctx, student, testExamKey); err != nil {
		t.Errorf("tick after warnings failed: %v", err)
	}
}

func TestReviewAndSeek(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	sess, err := f.svc.StartOrResume(ctx, student, testExamKey)
	if err != nil {
		t.Fatal(err)
	}
	qid := sess.Questions[2].ID

	sess, err = f.svc.Review(ctx, student.ID, testExamKey, qid, true)
	if err != nil {
		t.Fatal(err)
	}
	if !sess.ReviewFlags[qid] {
		t.Error("review flag not set")
	}

	sess, err = f.svc.Review(ctx, student.ID, testExamKey, qid, false)
	if err != nil {
		t.Fatal(err)
	}
	if sess.ReviewFlags[qid] {
		t.Error("review flag not cleared")
	}

	sess, err = f.svc.Seek(ctx, student.ID, testExamKey, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sess.CurrentIndex != 3 {
		t.Errorf("current index = %d, want 3", sess.CurrentIndex)
	}
	if _, err := f.svc.Seek(ctx, student.ID, testExamKey, 99); err == nil {
		t.Error("out of range seek accepted")
	}
}

func TestAnswerRejectedPastGraceWindow(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	sess, err := f.svc.StartOrResume(ctx, student, testExamKey)
	if err != nil {
		t.Fatal(err)
	}
	bank := make(map[uuid.UUID]model.Question)
	for _, q := range f.questions.questions {
		bank[q.ID] = q
	}

	// Two minutes past the deadline, beyond the grace window. A client
	// that stopped ticking must not be able to keep recording answers.
	f.advance(32 * time.Minute)
	qid := sess.Questions[0].ID
	if _, err := f.svc.Answer(ctx, student.ID, testExamKey, qid, bank[qid].CorrectAnswer); !errors.Is(err, ErrAttemptExpired) {
		t.Fatalf("late answer err = %v, want ErrAttemptExpired", err)
	}
	if _, err := f.svc.Review(ctx, student.ID, testExamKey, qid, true); !errors.Is(err, ErrAttemptExpired) {
		t.Errorf("late review err = %v, want ErrAttemptExpired", err)
	}

	// Nothing was stored, so the final result carries zero marks.
	result, err := f.svc.Submit(ctx, student, testExamKey, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalMarks != 0 {
		t.Errorf("total marks = %d, want 0", result.TotalMarks)
	}
}

func TestSubmitPropagatesResultLookupError(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	student := testStudent()

	// No session exists and the prior-result check itself fails: the
	// caller must see the lookup failure, not a no-session verdict.
	lookupErr := errors.New("results table unavailable")
	f.results.existsErr = lookupErr

	_, err := f.svc.Submit(ctx, student, testExamKey, nil)
	if !errors.Is(err, lookupErr) {
		t.Fatalf("err = %v, want wrapped %v", err, lookupErr)
	}
	if errors.Is(err, ErrNoActiveSession) || errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("lookup failure was masked as a verdict: %v", err)
	}
}
