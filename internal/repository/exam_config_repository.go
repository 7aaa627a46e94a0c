package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nec-exams/examportal-backend/internal/model"
)

// ExamConfigRepository handles exam configuration data access.
type ExamConfigRepository struct {
	pool *pgxpool.Pool
}

// NewExamConfigRepository creates a new ExamConfigRepository.
func NewExamConfigRepository(pool *pgxpool.Pool) *ExamConfigRepository {
	return &ExamConfigRepository{pool: pool}
}

const examConfigColumns = `id, branch, year, semester, subject, number_of_students, number_of_questions, time_limit_minutes, total_questions, created_at`

func scanExamConfig(row interface{ Scan(...interface{}) error }) (*model.ExamConfig, error) {
	c := &model.ExamConfig{}
	err := row.Scan(&c.ID, &c.Branch, &c.Year, &c.Semester, &c.Subject,
		&c.NumberOfStudents, &c.NumberOfQuestions, &c.TimeLimitMinutes, &c.TotalQuestions, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Upsert creates a config for the key or replaces the delivery parameters
// of the existing one. The question counter survives a replace.
func (r *ExamConfigRepository) Upsert(ctx context.Context, c *model.ExamConfig) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_configs (branch, year, semester, subject, number_of_students, number_of_questions, time_limit_minutes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (branch, year, semester, subject) DO UPDATE SET
		   number_of_students = EXCLUDED.number_of_students,
		   number_of_questions = EXCLUDED.number_of_questions,
		   time_limit_minutes = EXCLUDED.time_limit_minutes
		 RETURNING id, total_questions, created_at`,
		c.Branch, c.Year, c.Semester, c.Subject,
		c.NumberOfStudents, c.NumberOfQuestions, c.TimeLimitMinutes,
	).Scan(&c.ID, &c.TotalQuestions, &c.CreatedAt)
}

// GetByKey retrieves the config for one exam offering.
func (r *ExamConfigRepository) GetByKey(ctx context.Context, key model.ExamKey) (*model.ExamConfig, error) {
	return scanExamConfig(r.pool.QueryRow(ctx,
		`SELECT `+examConfigColumns+` FROM exam_configs
		 WHERE branch = $1 AND year = $2 AND semester = $3 AND subject = $4`,
		key.Branch, key.Year, key.Semester, key.Subject,
	))
}

// GetByID retrieves a config by its ID.
func (r *ExamConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamConfig, error) {
	return scanExamConfig(r.pool.QueryRow(ctx,
		`SELECT `+examConfigColumns+` FROM exam_configs WHERE id = $1`, id,
	))
}

// List retrieves every config, optionally filtered by branch, newest first.
func (r *ExamConfigRepository) List(ctx context.Context, branch string) ([]model.ExamConfig, error) {
	query := `SELECT ` + examConfigColumns + ` FROM exam_configs`
	var args []interface{}
	if branch != "" {
		query += ` WHERE branch = $1`
		args = append(args, branch)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []model.ExamConfig
	for rows.Next() {
		c, err := scanExamConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *c)
	}
	return configs, rows.Err()
}

// DeleteCascade removes a config together with every question and result
// recorded under its key, in one transaction. Returns the deleted config
// so callers can broadcast what disappeared.
func (r *ExamConfigRepository) DeleteCascade(ctx context.Context, id uuid.UUID) (*model.ExamConfig, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	c, err := scanExamConfig(tx.QueryRow(ctx,
		`DELETE FROM exam_configs WHERE id = $1 RETURNING `+examConfigColumns, id,
	))
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM questions WHERE branch = $1 AND year = $2 AND semester = $3 AND subject = $4`,
		c.Branch, c.Year, c.Semester, c.Subject,
	); err != nil {
		return nil, fmt.Errorf("delete questions for config %s: %w", id, err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM exam_results WHERE branch = $1 AND year = $2 AND semester = $3 AND subject = $4`,
		c.Branch, c.Year, c.Semester, c.Subject,
	); err != nil {
		return nil, fmt.Errorf("delete results for config %s: %w", id, err)
	}

	return c, tx.Commit(ctx)
}

// ListBranches returns the distinct branches that have at least one config.
func (r *ExamConfigRepository) ListBranches(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT branch FROM exam_configs ORDER BY branch`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}
