package service

import (
	"testing"

	"github.com/nec-exams/examportal-backend/internal/model"
)

func TestBucketScores(t *testing.T) {
	results := []model.ExamResult{
		{TotalMarks: 100},
		{TotalMarks: 90},
		{TotalMarks: 80},
		{TotalMarks: 60},
		{TotalMarks: 40},
		{TotalMarks: 10},
		{TotalMarks: 0},
	}

	buckets := bucketScores(results)

	want := map[string]int{"90-100": 2, "75-89": 1, "60-74": 1, "40-59": 1, "0-39": 2}
	total := 0
	for _, b := range buckets {
		if b.Count != want[b.Label] {
			t.Errorf("bucket %s = %d, want %d", b.Label, b.Count, want[b.Label])
		}
		total += b.Count
	}
	if total != len(results) {
		t.Errorf("bucketed %d results, want %d", total, len(results))
	}
}

func TestBucketScoresEmpty(t *testing.T) {
	buckets := bucketScores(nil)
	if len(buckets) != len(distributionBuckets) {
		t.Fatalf("got %d buckets, want %d", len(buckets), len(distributionBuckets))
	}
	for _, b := range buckets {
		if b.Count != 0 {
			t.Errorf("bucket %s = %d, want 0", b.Label, b.Count)
		}
	}
}

func TestBucketScoresAllZeroMarks(t *testing.T) {
	buckets := bucketScores([]model.ExamResult{{TotalMarks: 0}, {TotalMarks: 0}})
	if got := buckets[len(buckets)-1].Count; got != 2 {
		t.Errorf("bottom bucket = %d, want 2", got)
	}
}

func TestBuildFilteredStats(t *testing.T) {
	results := []model.ExamResult{
		{Section: "A", ExamKey: model.ExamKey{Branch: "CSE"}, TotalMarks: 10},
		{Section: "B", ExamKey: model.ExamKey{Branch: "CSE"}, TotalMarks: 6},
		{Section: "A", ExamKey: model.ExamKey{Branch: "EEE"}, TotalMarks: 2},
	}

	stats := buildFilteredStats(results)

	if stats.Overall.Count != 3 {
		t.Errorf("overall count = %d, want 3", stats.Overall.Count)
	}
	if stats.Overall.AverageMarks != 6 {
		t.Errorf("overall average = %v, want 6", stats.Overall.AverageMarks)
	}
	if stats.Overall.HighestMarks != 10 || stats.Overall.LowestMarks != 2 {
		t.Errorf("overall high/low = %d/%d, want 10/2", stats.Overall.HighestMarks, stats.Overall.LowestMarks)
	}

	wantBranches := []GroupAggregate{
		{Label: "CSE", Aggregate: Aggregate{Count: 2, AverageMarks: 8, HighestMarks: 10, LowestMarks: 6}},
		{Label: "EEE", Aggregate: Aggregate{Count: 1, AverageMarks: 2, HighestMarks: 2, LowestMarks: 2}},
	}
	if len(stats.ByBranch) != len(wantBranches) {
		t.Fatalf("got %d branch groups, want %d", len(stats.ByBranch), len(wantBranches))
	}
	for i, want := range wantBranches {
		if stats.ByBranch[i] != want {
			t.Errorf("branch[%d] = %+v, want %+v", i, stats.ByBranch[i], want)
		}
	}

	wantSections := []GroupAggregate{
		{Label: "A", Aggregate: Aggregate{Count: 2, AverageMarks: 6, HighestMarks: 10, LowestMarks: 2}},
		{Label: "B", Aggregate: Aggregate{Count: 1, AverageMarks: 6, HighestMarks: 6, LowestMarks: 6}},
	}
	if len(stats.BySection) != len(wantSections) {
		t.Fatalf("got %d section groups, want %d", len(stats.BySection), len(wantSections))
	}
	for i, want := range wantSections {
		if stats.BySection[i] != want {
			t.Errorf("section[%d] = %+v, want %+v", i, stats.BySection[i], want)
		}
	}
}

func TestBuildFilteredStatsEmpty(t *testing.T) {
	stats := buildFilteredStats(nil)

	if stats.Overall != (Aggregate{}) {
		t.Errorf("overall = %+v, want zero value", stats.Overall)
	}
	if len(stats.ByBranch) != 0 {
		t.Errorf("got %d branch groups, want 0", len(stats.ByBranch))
	}
	if len(stats.BySection) != 0 {
		t.Errorf("got %d section groups, want 0", len(stats.BySection))
	}
}
