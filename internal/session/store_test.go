package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/nec-exams/examportal-backend/internal/model"
)

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb)
}

func testKey() Key {
	return Key{
		StudentID: 42,
		Exam:      model.ExamKey{Branch: "CSE", Year: "3", Semester: "5", Subject: "DBMS"},
	}
}

func testSession() *Session {
	qid := uuid.New()
	return &Session{
		StudentID:  42,
		RollNumber: "21CS042",
		Exam:       model.ExamKey{Branch: "CSE", Year: "3", Semester: "5", Subject: "DBMS"},
		Questions: []model.QuestionForStudent{
			{ID: qid, QuestionText: "What does ACID stand for?", Options: []string{"a", "b", "c", "d"}},
		},
		Answers:          map[uuid.UUID]int{qid: 2},
		ReviewFlags:      map[uuid.UUID]bool{qid: true},
		StartedAt:        time.Now().Truncate(time.Second),
		DeadlineUnix:     time.Now().Add(30 * time.Minute).Unix(),
		RemainingSeconds: 1800,
		Status:           StatusActive,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := testKey()
	want := testSession()

	if err := store.Put(ctx, key, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.RollNumber != want.RollNumber {
		t.Errorf("roll number = %q, want %q", got.RollNumber, want.RollNumber)
	}
	if len(got.Questions) != 1 || got.Questions[0].ID != want.Questions[0].ID {
		t.Errorf("questions not preserved: %+v", got.Questions)
	}
	if got.Answers[want.Questions[0].ID] != 2 {
		t.Errorf("answers not preserved: %v", got.Answers)
	}
	if !got.ReviewFlags[want.Questions[0].ID] {
		t.Errorf("review flags not preserved: %v", got.ReviewFlags)
	}
	if got.DeadlineUnix != want.DeadlineUnix {
		t.Errorf("deadline = %d, want %d", got.DeadlineUnix, want.DeadlineUnix)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), testKey())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreDeleteIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := testKey()

	if err := store.Put(ctx, key, testSession()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete: %v", err)
	}

	if _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestStoreKeyIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	keyA := testKey()
	keyB := keyA
	keyB.Exam.Subject = "OS"

	if err := store.Put(ctx, keyA, testSession()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, err := store.Get(ctx, keyB); !errors.Is(err, ErrNotFound) {
		t.Fatalf("sibling offering visible: err = %v, want ErrNotFound", err)
	}
}
