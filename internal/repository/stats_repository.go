package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepository handles admin dashboard aggregate queries.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// GetSummaryCounts retrieves the portal-wide headline numbers.
func (r *StatsRepository) GetSummaryCounts(ctx context.Context) (totalStudents, totalConfigs, totalQuestions, totalResults int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM exam_configs),
			(SELECT COUNT(*) FROM questions),
			(SELECT COUNT(*) FROM exam_results)`,
	).Scan(&totalStudents, &totalConfigs, &totalQuestions, &totalResults)
	return
}

// SubjectAggregate summarizes submitted results for one exam offering.
type SubjectAggregate struct {
	Branch       string   `json:"branch"`
	Year         string   `json:"year"`
	Semester     string   `json:"semester"`
	Subject      string   `json:"subject"`
	Attempts     int      `json:"attempts"`
	AverageMarks *float64 `json:"average_marks"`
	HighestMarks *int     `json:"highest_marks"`
	LowestMarks  *int     `json:"lowest_marks"`
}

// GetSubjectAggregates retrieves per-offering result statistics, optionally
// narrowed to a branch, most-attempted first.
func (r *StatsRepository) GetSubjectAggregates(ctx context.Context, branch string) ([]SubjectAggregate, error) {
	query := `
		SELECT branch, year, semester, subject,
			COUNT(*) AS attempts,
			AVG(total_marks) AS average_marks,
			MAX(total_marks) AS highest_marks,
			MIN(total_marks) AS lowest_marks
		FROM exam_results`
	var args []interface{}
	if branch != "" {
		query += ` WHERE branch = $1`
		args = append(args, branch)
	}
	query += `
		GROUP BY branch, year, semester, subject
		ORDER BY attempts DESC, subject`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aggregates := []SubjectAggregate{}
	for rows.Next() {
		var a SubjectAggregate
		if err := rows.Scan(&a.Branch, &a.Year, &a.Semester, &a.Subject,
			&a.Attempts, &a.AverageMarks, &a.HighestMarks, &a.LowestMarks); err != nil {
			return nil, err
		}
		aggregates = append(aggregates, a)
	}
	return aggregates, rows.Err()
}

// BranchCount is the number of registered students in one branch.
type BranchCount struct {
	Branch string `json:"branch"`
	Count  int    `json:"count"`
}

// GetStudentsPerBranch retrieves registration counts grouped by branch.
func (r *StatsRepository) GetStudentsPerBranch(ctx context.Context) ([]BranchCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT branch, COUNT(*) FROM students GROUP BY branch ORDER BY branch`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []BranchCount{}
	for rows.Next() {
		var c BranchCount
		if err := rows.Scan(&c.Branch, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
