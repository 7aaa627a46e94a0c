package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/nec-exams/examportal-backend/internal/model"
	"github.com/nec-exams/examportal-backend/internal/repository"
)

// StatsService assembles the admin dashboard aggregates. Every view of an
// empty data set comes back as zeros, never as an error.
type StatsService struct {
	statsRepo   *repository.StatsRepository
	studentRepo *repository.StudentRepository
	resultRepo  *repository.ResultRepository
}

// NewStatsService creates a new StatsService.
func NewStatsService(statsRepo *repository.StatsRepository, studentRepo *repository.StudentRepository, resultRepo *repository.ResultRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo, studentRepo: studentRepo, resultRepo: resultRepo}
}

// Summary is the portal-wide headline block.
type Summary struct {
	TotalStudents    int                      `json:"total_students"`
	TotalExams       int                      `json:"total_exams"`
	TotalQuestions   int                      `json:"total_questions"`
	TotalSubmissions int                      `json:"total_submissions"`
	// CompletionRate is submissions over the number of expected attempts
	// (students × offerings). Zero when nothing is configured yet.
	CompletionRate   float64                  `json:"completion_rate"`
	StudentsByBranch []repository.BranchCount `json:"students_by_branch"`
}

// GetSummary retrieves the headline numbers.
func (s *StatsService) GetSummary(ctx context.Context) (*Summary, error) {
	students, exams, questions, results, err := s.statsRepo.GetSummaryCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary counts: %w", err)
	}
	byBranch, err := s.statsRepo.GetStudentsPerBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("students per branch: %w", err)
	}
	summary := &Summary{
		TotalStudents:    students,
		TotalExams:       exams,
		TotalQuestions:   questions,
		TotalSubmissions: results,
		StudentsByBranch: byBranch,
	}
	if expected := students * exams; expected > 0 {
		summary.CompletionRate = float64(results) / float64(expected)
	}
	return summary, nil
}

// GetSubjectAggregates retrieves per-offering result statistics.
func (s *StatsService) GetSubjectAggregates(ctx context.Context, branch string) ([]repository.SubjectAggregate, error) {
	return s.statsRepo.GetSubjectAggregates(ctx, branch)
}

// Aggregate summarizes total marks over one slice of results. The zero
// value is the correct answer for an empty slice.
type Aggregate struct {
	Count        int     `json:"count"`
	AverageMarks float64 `json:"average_marks"`
	HighestMarks int     `json:"highest_marks"`
	LowestMarks  int     `json:"lowest_marks"`
}

// GroupAggregate is one Aggregate labelled with its group value.
type GroupAggregate struct {
	Label string `json:"label"`
	Aggregate
}

// FilteredStats is the statistics block returned alongside a filtered
// result set: one overall summary plus branch and section breakdowns.
type FilteredStats struct {
	Overall   Aggregate        `json:"overall"`
	ByBranch  []GroupAggregate `json:"by_branch"`
	BySection []GroupAggregate `json:"by_section"`
}

// GetFilteredStats computes the statistics block for every result matching
// the filter.
func (s *StatsService) GetFilteredStats(ctx context.Context, f repository.ResultFilter) (*FilteredStats, error) {
	results, _, err := s.resultRepo.ListFiltered(ctx, f, 10000, 0)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return buildFilteredStats(results), nil
}

func buildFilteredStats(results []model.ExamResult) *FilteredStats {
	return &FilteredStats{
		Overall:   aggregateMarks(results),
		ByBranch:  groupAggregates(results, func(r model.ExamResult) string { return r.Branch }),
		BySection: groupAggregates(results, func(r model.ExamResult) string { return r.Section }),
	}
}

func aggregateMarks(results []model.ExamResult) Aggregate {
	if len(results) == 0 {
		return Aggregate{}
	}

	agg := Aggregate{
		Count:        len(results),
		HighestMarks: results[0].TotalMarks,
		LowestMarks:  results[0].TotalMarks,
	}
	sum := 0
	for _, res := range results {
		sum += res.TotalMarks
		if res.TotalMarks > agg.HighestMarks {
			agg.HighestMarks = res.TotalMarks
		}
		if res.TotalMarks < agg.LowestMarks {
			agg.LowestMarks = res.TotalMarks
		}
	}
	agg.AverageMarks = float64(sum) / float64(len(results))
	return agg
}

func groupAggregates(results []model.ExamResult, key func(model.ExamResult) string) []GroupAggregate {
	byLabel := make(map[string][]model.ExamResult)
	for _, res := range results {
		label := key(res)
		byLabel[label] = append(byLabel[label], res)
	}

	groups := make([]GroupAggregate, 0, len(byLabel))
	for label, group := range byLabel {
		groups = append(groups, GroupAggregate{Label: label, Aggregate: aggregateMarks(group)})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Label < groups[j].Label })
	return groups
}

// distributionBuckets are the mark percentages dividing the score histogram.
var distributionBuckets = []struct {
	Label string
	Low   int
}{
	{"90-100", 90},
	{"75-89", 75},
	{"60-74", 60},
	{"40-59", 40},
	{"0-39", 0},
}

// ScoreBucket is one bar of the score distribution histogram.
type ScoreBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// GetScoreDistribution buckets an offering's results by percentage of the
// maximum recorded marks. No results yields all-zero buckets.
func (s *StatsService) GetScoreDistribution(ctx context.Context, f repository.ResultFilter) ([]ScoreBucket, error) {
	results, _, err := s.resultRepo.ListFiltered(ctx, f, 10000, 0)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return bucketScores(results), nil
}

func bucketScores(results []model.ExamResult) []ScoreBucket {
	maxMarks := 0
	for _, res := range results {
		if res.TotalMarks > maxMarks {
			maxMarks = res.TotalMarks
		}
	}

	buckets := make([]ScoreBucket, len(distributionBuckets))
	for i, b := range distributionBuckets {
		buckets[i] = ScoreBucket{Label: b.Label}
	}
	if maxMarks == 0 {
		// Either no results or nobody scored; everything lands in the
		// bottom bucket.
		buckets[len(buckets)-1].Count = len(results)
		return buckets
	}

	for _, res := range results {
		pct := res.TotalMarks * 100 / maxMarks
		for i, b := range distributionBuckets {
			if pct >= b.Low {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets
}

// AttemptRoster splits a branch's students into attempted and pending for
// one exam offering.
type AttemptRoster struct {
	Attempted []model.ExamResult `json:"attempted"`
	Pending   []model.Student    `json:"pending"`
}

// GetAttempts builds the attempted/pending roster for one offering.
func (s *StatsService) GetAttempts(ctx context.Context, key model.ExamKey, section string) (*AttemptRoster, error) {
	key = key.Normalize()

	results, _, err := s.resultRepo.ListFiltered(ctx, repository.ResultFilter{
		Branch:   key.Branch,
		Year:     key.Year,
		Semester: key.Semester,
		Subject:  key.Subject,
		Section:  section,
	}, 10000, 0)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	students, err := s.studentRepo.ListByBranch(ctx, key.Branch, section)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	attempted := make(map[int]bool, len(results))
	for _, res := range results {
		attempted[res.StudentID] = true
	}

	roster := &AttemptRoster{Attempted: results, Pending: []model.Student{}}
	if roster.Attempted == nil {
		roster.Attempted = []model.ExamResult{}
	}
	for _, st := range students {
		if !attempted[st.ID] {
			roster.Pending = append(roster.Pending, st)
		}
	}
	return roster, nil
}
