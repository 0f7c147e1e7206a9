package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/roksva123/kinerja-planner/internal/model"
)

func init() {
	color.NoColor = true
}

func day(d int) time.Time {
	return time.Date(2023, 12, d, 0, 0, 0, 0, time.UTC)
}

func TestWriteWorkload(t *testing.T) {
	snap := model.WorkloadSnapshot{
		Department: "Ops",
		StartDate:  day(1),
		EndDate:    day(4),
		Assignees: []model.AssigneeWorkload{
			{ID: "E1", Name: "Eka", Capacity: model.CapacityResult{AvailableCapacity: 16}, ScheduledHours: 24, Utilization: 150, Classification: model.Overallocated, TaskIDs: []string{"T1", "T2"}},
			{ID: model.Unassigned, Name: "Unassigned", TaskIDs: []string{"T3"}},
		},
		Tasks:   []model.WorkloadTask{{}, {}, {}},
		Metrics: model.WorkloadMetrics{TotalCapacity: 16, TotalAllocated: 24, OverallUtilization: 150},
		Recommendations: []model.Recommendation{
			{Kind: model.RecommendationKind("overallocation"), Priority: "high", Message: "1 employee over capacity"},
		},
	}

	var buf bytes.Buffer
	WriteWorkload(&buf, snap)
	out := buf.String()

	assert.Contains(t, out, "Workload Ops  2023-12-01 → 2023-12-04")
	assert.Contains(t, out, "Eka")
	assert.Contains(t, out, "16h")
	assert.Contains(t, out, "24h")
	assert.Contains(t, out, "150.0%")
	assert.Contains(t, out, "overallocated")
	assert.Contains(t, out, "Unassigned")
	assert.Contains(t, out, "[high] 1 employee over capacity")
}

func TestWriteWorkloadEmpty(t *testing.T) {
	var buf bytes.Buffer
	WriteWorkload(&buf, model.WorkloadSnapshot{StartDate: day(1), EndDate: day(31)})
	assert.Contains(t, buf.String(), "all departments")
	assert.Contains(t, buf.String(), "no employees or tasks")
}

func TestWriteCapacity(t *testing.T) {
	var buf bytes.Buffer
	WriteCapacity(&buf, model.CapacityResult{
		EmployeeID: "E1", StartDate: day(1), EndDate: day(4),
		WorkingDays: 2, DailyHours: 8, TotalCapacity: 16, LeaveHours: 8, AvailableCapacity: 8, AvailabilityPercent: 50,
	})
	out := buf.String()
	assert.Contains(t, out, "Capacity E1")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "8h")
}

func TestWriteAnalysis(t *testing.T) {
	var buf bytes.Buffer
	WriteAnalysis(&buf, model.CapacityAnalysis{
		Summary:       model.AnalysisSummary{TotalEmployees: 2, TotalTasks: 5, ScheduledTasks: 3, UnscheduledTasks: 2},
		Underutilized: []model.CapacityBreakdown{{Employee: "Dwi", Utilization: 25, AvailableHours: 30}},
	})
	out := buf.String()
	assert.Contains(t, out, "employees 2  tasks 5")
	assert.Contains(t, out, "Underutilized")
	assert.NotContains(t, out, "Overallocated")
	assert.Contains(t, out, "30h free")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
