package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nec-exams/examportal-backend/internal/model"
)

// QuestionRepository handles question data access. Writes keep the
// denormalized total_questions counter on exam_configs in step with the
// question rows, inside the same transaction.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, branch, year, semester, subject, section, question_text, question_image, options, correct_answer, marks, created_at`

func scanQuestion(row interface{ Scan(...interface{}) error }) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.Branch, &q.Year, &q.Semester, &q.Subject, &q.Section,
		&q.QuestionText, &q.QuestionImage, &q.Options, &q.CorrectAnswer, &q.Marks, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListByKey retrieves every question of one exam offering, optionally
// narrowed to a section, in authored order.
func (r *QuestionRepository) ListByKey(ctx context.Context, key model.ExamKey, section string) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions
		 WHERE branch = $1 AND year = $2 AND semester = $3 AND subject = $4`
	args := []interface{}{key.Branch, key.Year, key.Semester, key.Subject}
	if section != "" {
		query += ` AND section = $5`
		args = append(args, section)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id,
	))
}

// GetByIDs retrieves the questions matching ids. Questions deleted since
// the ids were recorded are simply absent from the result.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// Create inserts one question and bumps the owning config's counter.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (branch, year, semester, subject, section, question_text, question_image, options, correct_answer, marks)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		q.Branch, q.Year, q.Semester, q.Subject, q.Section,
		q.QuestionText, q.QuestionImage, q.Options, q.CorrectAnswer, q.Marks,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return err
	}

	if err := adjustTotalQuestions(ctx, tx, q.ExamKey, 1); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreateBatch inserts a parsed import in one transaction and bumps the
// counter by the batch size. All-or-nothing.
func (r *QuestionRepository) CreateBatch(ctx context.Context, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range questions {
		q := &questions[i]
		batch.Queue(
			`INSERT INTO questions (branch, year, semester, subject, section, question_text, question_image, options, correct_answer, marks)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			q.Branch, q.Year, q.Semester, q.Subject, q.Section,
			q.QuestionText, q.QuestionImage, q.Options, q.CorrectAnswer, q.Marks,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	if err := adjustTotalQuestions(ctx, tx, questions[0].ExamKey, len(questions)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update modifies an existing question in place.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions SET section = $1, question_text = $2, question_image = $3, options = $4, correct_answer = $5, marks = $6
		 WHERE id = $7`,
		q.Section, q.QuestionText, q.QuestionImage, q.Options, q.CorrectAnswer, q.Marks, q.ID,
	)
	return err
}

// Delete removes a question and decrements the owning config's counter.
// Returns the deleted question so callers can broadcast it.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	q, err := scanQuestion(tx.QueryRow(ctx,
		`DELETE FROM questions WHERE id = $1 RETURNING `+questionColumns, id,
	))
	if err != nil {
		return nil, err
	}

	if err := adjustTotalQuestions(ctx, tx, q.ExamKey, -1); err != nil {
		return nil, err
	}
	return q, tx.Commit(ctx)
}

// ListSections returns the distinct sections used by an offering's questions.
func (r *QuestionRepository) ListSections(ctx context.Context, key model.ExamKey) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT section FROM questions
		 WHERE branch = $1 AND year = $2 AND semester = $3 AND subject = $4
		 ORDER BY section`,
		key.Branch, key.Year, key.Semester, key.Subject,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func adjustTotalQuestions(ctx context.Context, tx pgx.Tx, key model.ExamKey, delta int) error {
	_, err := tx.Exec(ctx,
		`UPDATE exam_configs SET total_questions = GREATEST(total_questions + $5, 0)
		 WHERE branch = $1 AND year = $2 AND semester = $3 AND subject = $4`,
		key.Branch, key.Year, key.Semester, key.Subject, delta,
	)
	return err
}
