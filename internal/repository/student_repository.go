package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nec-exams/examportal-backend/internal/model"
)

var ErrDuplicateRollNumber = errors.New("student with this roll number already exists")

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, roll_number, name, branch, section, password_hash, created_at
		 FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.RollNumber, &s.Name, &s.Branch, &s.Section, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByRollNumber retrieves a student by their unique roll number. The
// caller is expected to have normalized the roll number first.
func (r *StudentRepository) GetByRollNumber(ctx context.Context, rollNumber string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, roll_number, name, branch, section, password_hash, created_at
		 FROM students WHERE roll_number = $1`, rollNumber,
	).Scan(&s.ID, &s.RollNumber, &s.Name, &s.Branch, &s.Section, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// RollNumberExists reports whether a roll number is already registered.
func (r *StudentRepository) RollNumberExists(ctx context.Context, rollNumber string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM students WHERE roll_number = $1)`, rollNumber,
	).Scan(&exists)
	return exists, err
}

// ListPaginated retrieves students with pagination and optional branch and
// section filters.
func (r *StudentRepository) ListPaginated(ctx context.Context, branch, section string, limit, offset int) ([]model.Student, int, error) {
	where := ``
	var args []interface{}
	argIdx := 1

	if branch != "" {
		where += ` WHERE branch = $1`
		args = append(args, branch)
		argIdx++
	}
	if section != "" {
		if where == "" {
			where = ` WHERE section = $1`
		} else {
			where += ` AND section = $` + strconv.Itoa(argIdx)
		}
		args = append(args, section)
		argIdx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, roll_number, name, branch, section, password_hash, created_at FROM students` +
		where + ` ORDER BY roll_number LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.RollNumber, &s.Name, &s.Branch, &s.Section, &s.PasswordHash, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// ListByBranch retrieves every student of one branch, optionally narrowed
// to a section, without pagination. Used for attempt rosters.
func (r *StudentRepository) ListByBranch(ctx context.Context, branch, section string) ([]model.Student, error) {
	query := `SELECT id, roll_number, name, branch, section, password_hash, created_at
		 FROM students WHERE branch = $1`
	args := []interface{}{branch}
	if section != "" {
		query += ` AND section = $2`
		args = append(args, section)
	}
	query += ` ORDER BY roll_number`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.RollNumber, &s.Name, &s.Branch, &s.Section, &s.PasswordHash, &s.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Search retrieves up to limit students whose roll number or name contains
// the query, for the admin suggestion box.
func (r *StudentRepository) Search(ctx context.Context, query string, limit int) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, roll_number, name, branch, section, password_hash, created_at
		 FROM students
		 WHERE roll_number ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%'
		 ORDER BY roll_number LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.RollNumber, &s.Name, &s.Branch, &s.Section, &s.PasswordHash, &s.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (roll_number, name, branch, section, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		s.RollNumber, s.Name, s.Branch, s.Section, s.PasswordHash,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRollNumber
		}
		return err
	}
	return nil
}

// Update modifies a student's profile (excluding roll number and password).
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET name = $1, branch = $2, section = $3 WHERE id = $4`,
		s.Name, s.Branch, s.Section, s.ID,
	)
	return err
}

// UpdatePassword replaces a student's password hash.
func (r *StudentRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET password_hash = $1 WHERE id = $2`, passwordHash, id,
	)
	return err
}

// Delete removes a student by ID.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	return err
}
