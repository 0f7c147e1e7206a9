package workload

import (
	"fmt"

	"github.com/roksva123/kinerja-planner/internal/model"
)

// Thresholds are utilization percentages. Both bounds are strict.
type Thresholds struct {
	Overallocated float64
	Underutilized float64
	Imbalance     float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Overallocated: 120, Underutilized: 70, Imbalance: 30}
}

func (t Thresholds) Classify(utilization float64) model.Classification {
	switch {
	case utilization > t.Overallocated:
		return model.Overallocated
	case utilization > 0 && utilization < t.Underutilized:
		return model.Underutilized
	default:
		return model.Balanced
	}
}

const (
	colorGreen   = "#10B981"
	colorBlue    = "#3B82F6"
	colorRed     = "#EF4444"
	colorGray    = "#6B7280"
	colorCrimson = "#DC2626"
	colorAmber   = "#F59E0B"
)

// TaskColor picks a display color by status first, then by priority.
func TaskColor(t model.Task) string {
	switch t.Status {
	case model.StatusCompleted:
		return colorGreen
	case model.StatusWorking:
		return colorBlue
	case model.StatusOverdue:
		return colorRed
	case model.StatusOpen:
		return colorGray
	}
	switch t.Priority {
	case model.PriorityHigh:
		return colorCrimson
	case model.PriorityMedium:
		return colorAmber
	case model.PriorityLow:
		return colorGreen
	}
	return colorGray
}

// Recommend derives at most one recommendation per kind from the metrics.
func Recommend(m model.WorkloadMetrics, urgentUnscheduled int, th Thresholds) []model.Recommendation {
	recs := []model.Recommendation{}
	if m.OverallocatedCount > 0 {
		recs = append(recs, model.Recommendation{
			Kind:     model.RecommendOverallocation,
			Priority: "high",
			Message:  fmt.Sprintf("%d employees are overallocated", m.OverallocatedCount),
			Action:   "Consider redistributing tasks or extending deadlines",
		})
	}
	if urgentUnscheduled > 0 {
		recs = append(recs, model.Recommendation{
			Kind:     model.RecommendBottleneck,
			Priority: "high",
			Message:  fmt.Sprintf("%d high priority tasks are not scheduled", urgentUnscheduled),
			Action:   "Schedule high priority tasks before the rest of the backlog",
		})
	}
	if m.UnscheduledCount > 0 {
		recs = append(recs, model.Recommendation{
			Kind:     model.RecommendUnscheduled,
			Priority: "medium",
			Message:  fmt.Sprintf("%d tasks need scheduling", m.UnscheduledCount),
			Action:   "Schedule unassigned tasks to available capacity",
		})
	}
	if m.UnderutilizedCount > 0 {
		recs = append(recs, model.Recommendation{
			Kind:     model.RecommendUnderutilization,
			Priority: "medium",
			Message:  fmt.Sprintf("%d employees have spare capacity", m.UnderutilizedCount),
			Action:   "Assign backlog tasks to underutilized employees",
		})
	}
	if m.UtilizationStdDev > th.Imbalance {
		recs = append(recs, model.Recommendation{
			Kind:     model.RecommendImbalance,
			Priority: "medium",
			Message:  fmt.Sprintf("Utilization varies by %.1f points across the team", m.UtilizationStdDev),
			Action:   "Move work from overallocated to underutilized employees",
		})
	}
	return recs
}
