package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nec-exams/examportal-backend/internal/model"
)

// ErrDuplicateResult means the student already has a recorded result for
// this exam offering. The unique index on exam_results is the final
// arbiter when two submissions race.
var ErrDuplicateResult = errors.New("result already recorded for this exam")

// ResultRepository handles exam result data access. Answers are stored as
// a jsonb document on the result row, mirroring the session's final state.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `id, student_id, roll_number, name, section, branch, year, semester, subject, answers, total_marks, completed_at`

func scanResult(row interface{ Scan(...interface{}) error }) (*model.ExamResult, error) {
	res := &model.ExamResult{}
	err := row.Scan(&res.ID, &res.StudentID, &res.RollNumber, &res.Name, &res.Section,
		&res.Branch, &res.Year, &res.Semester, &res.Subject,
		&res.Answers, &res.TotalMarks, &res.CompletedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Create inserts a finalized result. The first writer wins; a concurrent
// duplicate gets ErrDuplicateResult.
func (r *ResultRepository) Create(ctx context.Context, res *model.ExamResult) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exam_results (student_id, roll_number, name, section, branch, year, semester, subject, answers, total_marks, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		res.StudentID, res.RollNumber, res.Name, res.Section,
		res.Branch, res.Year, res.Semester, res.Subject,
		res.Answers, res.TotalMarks, res.CompletedAt,
	).Scan(&res.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateResult
		}
		return err
	}
	return nil
}

// ExistsFor reports whether the student already submitted this offering.
func (r *ResultRepository) ExistsFor(ctx context.Context, studentID int, key model.ExamKey) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM exam_results
		 WHERE student_id = $1 AND branch = $2 AND year = $3 AND semester = $4 AND subject = $5)`,
		studentID, key.Branch, key.Year, key.Semester, key.Subject,
	).Scan(&exists)
	return exists, err
}

// GetByID retrieves one result.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamResult, error) {
	return scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM exam_results WHERE id = $1`, id,
	))
}

// ListByStudent retrieves every result of one student, newest first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID int) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM exam_results WHERE student_id = $1 ORDER BY completed_at DESC`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectResults(rows)
}

// ResultFilter narrows ListFiltered. Empty fields are ignored.
type ResultFilter struct {
	Branch     string
	Year       string
	Semester   string
	Subject    string
	Section    string
	RollNumber string
}

// ListFiltered retrieves results matching the filter with pagination,
// newest first, plus the unpaginated match count.
func (r *ResultRepository) ListFiltered(ctx context.Context, f ResultFilter, limit, offset int) ([]model.ExamResult, int, error) {
	where := ``
	var args []interface{}
	add := func(clause string, value interface{}) {
		if where == "" {
			where = ` WHERE `
		} else {
			where += ` AND `
		}
		args = append(args, value)
		where += clause + ` = $` + strconv.Itoa(len(args))
	}
	if f.Branch != "" {
		add(`branch`, f.Branch)
	}
	if f.Year != "" {
		add(`year`, f.Year)
	}
	if f.Semester != "" {
		add(`semester`, f.Semester)
	}
	if f.Subject != "" {
		add(`subject`, f.Subject)
	}
	if f.Section != "" {
		add(`section`, f.Section)
	}
	if f.RollNumber != "" {
		add(`roll_number`, f.RollNumber)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_results`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + resultColumns + ` FROM exam_results` + where +
		` ORDER BY completed_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := collectResults(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// Delete removes a result, which re-opens the offering for that student.
// Returns the deleted result so callers can broadcast it.
func (r *ResultRepository) Delete(ctx context.Context, id uuid.UUID) (*model.ExamResult, error) {
	return scanResult(r.pool.QueryRow(ctx,
		`DELETE FROM exam_results WHERE id = $1 RETURNING `+resultColumns, id,
	))
}

// FilterOptions returns the distinct values seen in recorded results for
// one filter column, used to drive dashboard filter dropdowns. The column
// name is restricted to a fixed whitelist.
func (r *ResultRepository) FilterOptions(ctx context.Context, column, branch string) ([]string, error) {
	switch column {
	case "branch", "year", "semester", "subject", "section":
	default:
		return nil, errors.New("unsupported filter column: " + column)
	}

	query := `SELECT DISTINCT ` + column + ` FROM exam_results`
	var args []interface{}
	if branch != "" && column != "branch" {
		query += ` WHERE branch = $1`
		args = append(args, branch)
	}
	query += ` ORDER BY ` + column

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func collectResults(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]model.ExamResult, error) {
	var results []model.ExamResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}
