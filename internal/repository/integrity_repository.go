package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nec-exams/examportal-backend/internal/model"
)

// IntegrityRepository reads persisted proctoring events. Writes go through
// the integrity worker's batched path, not through this type.
type IntegrityRepository struct {
	pool *pgxpool.Pool
}

// NewIntegrityRepository creates a new IntegrityRepository.
func NewIntegrityRepository(pool *pgxpool.Pool) *IntegrityRepository {
	return &IntegrityRepository{pool: pool}
}

// ListByStudent retrieves one student's events for an offering, oldest first.
func (r *IntegrityRepository) ListByStudent(ctx context.Context, studentID int, key model.ExamKey) ([]model.IntegrityEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, roll_number, branch, year, semester, subject, event_type, detail, recorded_at
		 FROM integrity_events
		 WHERE student_id = $1 AND branch = $2 AND year = $3 AND semester = $4 AND subject = $5
		 ORDER BY recorded_at`,
		studentID, key.Branch, key.Year, key.Semester, key.Subject,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIntegrityEvents(rows)
}

// ListRecent retrieves the latest events, optionally narrowed to a branch.
func (r *IntegrityRepository) ListRecent(ctx context.Context, branch string, limit int) ([]model.IntegrityEvent, error) {
	query := `SELECT id, student_id, roll_number, branch, year, semester, subject, event_type, detail, recorded_at
		 FROM integrity_events`
	var args []interface{}
	if branch != "" {
		query += ` WHERE branch = $1`
		args = append(args, branch)
	}
	query += ` ORDER BY recorded_at DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIntegrityEvents(rows)
}

func collectIntegrityEvents(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]model.IntegrityEvent, error) {
	var events []model.IntegrityEvent
	for rows.Next() {
		var e model.IntegrityEvent
		if err := rows.Scan(&e.ID, &e.StudentID, &e.RollNumber, &e.Branch, &e.Year, &e.Semester, &e.Subject,
			&e.EventType, &e.Detail, &e.RecordedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
