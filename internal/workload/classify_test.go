package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roksva123/kinerja-planner/internal/model"
)

func TestClassifyBoundaries(t *testing.T) {
	th := DefaultThresholds()

	assert.Equal(t, model.Balanced, th.Classify(120))
	assert.Equal(t, model.Overallocated, th.Classify(120.01))
	assert.Equal(t, model.Balanced, th.Classify(70))
	assert.Equal(t, model.Underutilized, th.Classify(69.99))
	assert.Equal(t, model.Balanced, th.Classify(0))
	assert.Equal(t, model.Balanced, th.Classify(100))
}

func TestTaskColor(t *testing.T) {
	cases := []struct {
		status   model.Status
		priority model.Priority
		want     string
	}{
		{model.StatusCompleted, model.PriorityHigh, "#10B981"},
		{model.StatusWorking, model.PriorityLow, "#3B82F6"},
		{model.StatusOverdue, model.PriorityLow, "#EF4444"},
		{model.StatusOpen, model.PriorityHigh, "#6B7280"},
		{model.StatusPendingReview, model.PriorityHigh, "#DC2626"},
		{model.StatusPendingReview, model.PriorityMedium, "#F59E0B"},
		{model.StatusCancelled, model.PriorityLow, "#10B981"},
		{model.StatusCancelled, model.PriorityUrgent, "#6B7280"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TaskColor(model.Task{Status: tc.status, Priority: tc.priority}), "%s/%s", tc.status, tc.priority)
	}
}

func TestRecommendOnePerKind(t *testing.T) {
	m := model.WorkloadMetrics{OverallocatedCount: 3, UnscheduledCount: 2}

	recs := Recommend(m, 0, DefaultThresholds())

	assert.Equal(t, []model.Recommendation{
		{Kind: model.RecommendOverallocation, Priority: "high", Message: "3 employees are overallocated", Action: "Consider redistributing tasks or extending deadlines"},
		{Kind: model.RecommendUnscheduled, Priority: "medium", Message: "2 tasks need scheduling", Action: "Schedule unassigned tasks to available capacity"},
	}, recs)
	assert.Empty(t, Recommend(model.WorkloadMetrics{}, 0, DefaultThresholds()))
}
