package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nec-exams/examportal-backend/internal/config"
)

// ErrNotFound is returned when no session exists for a key.
var ErrNotFound = errors.New("session not found")

// Store is durable, keyed storage for one exam attempt's state. It survives
// page reloads but is an expendable layer: losing it resets the attempt, it
// is never the system of record for completed results.
type Store interface {
	Get(ctx context.Context, key Key) (*Session, error)
	Put(ctx context.Context, key Key, s *Session) error
	Delete(ctx context.Context, key Key) error
}

// RedisStore keeps each session as a single JSON value in Redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func storeKey(key Key) string {
	return config.CacheKey.ExamSessionKey(
		key.StudentID,
		key.Exam.Branch, key.Exam.Year, key.Exam.Semester, key.Exam.Subject,
	)
}

// Get retrieves and decodes the session for key, or ErrNotFound.
func (st *RedisStore) Get(ctx context.Context, key Key) (*Session, error) {
	raw, err := st.rdb.Get(ctx, storeKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Put encodes and writes the session unconditionally (create or overwrite).
func (st *RedisStore) Put(ctx context.Context, key Key, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := st.rdb.Set(ctx, storeKey(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Delete removes the session record. Deleting a missing key is not an error;
// terminal transitions must be idempotent.
func (st *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := st.rdb.Del(ctx, storeKey(key)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
