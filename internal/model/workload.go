package model

import "time"

type Classification string

const (
	Overallocated Classification = "overallocated"
	Underutilized Classification = "underutilized"
	Balanced      Classification = "balanced"
)

type WorkloadTask struct {
	Task
	Assignee    string `json:"assignee"`
	IsScheduled bool   `json:"is_scheduled"`
	IsOverdue   bool   `json:"is_overdue"`
	Color       string `json:"color"`
}

type AssigneeWorkload struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Department     string         `json:"department,omitempty"`
	Capacity       CapacityResult `json:"capacity"`
	ScheduledHours float64        `json:"scheduled_hours"`
	Utilization    float64        `json:"utilization"`
	Classification Classification `json:"classification,omitempty"`
	TaskIDs        []string       `json:"task_ids"`
}

type CapacitySettings struct {
	DefaultDailyHours      float64  `json:"default_daily_hours"`
	DefaultWorkWeek        WorkWeek `json:"default_work_week"`
	OverallocatedThreshold float64  `json:"overallocated_threshold"`
	UnderutilizedThreshold float64  `json:"underutilized_threshold"`
}

type WorkloadMetrics struct {
	TotalCapacity        float64          `json:"total_capacity"`
	TotalAllocated       float64          `json:"total_allocated"`
	OverallUtilization   float64          `json:"overall_utilization"`
	UtilizationStdDev    float64          `json:"utilization_std_dev"`
	OverallocatedCount   int              `json:"overallocated_count"`
	UnderutilizedCount   int              `json:"underutilized_count"`
	BalancedCount        int              `json:"balanced_count"`
	ScheduledCount       int              `json:"scheduled_count"`
	UnscheduledCount     int              `json:"unscheduled_count"`
	OverdueCount         int              `json:"overdue_count"`
	CompletionRate       float64          `json:"completion_rate"`
	StatusDistribution   map[Status]int   `json:"status_distribution"`
	PriorityDistribution map[Priority]int `json:"priority_distribution"`
}

// WorkloadSnapshot is built fresh on every query and never persisted.
type WorkloadSnapshot struct {
	Department       string             `json:"department,omitempty"`
	StartDate        time.Time          `json:"start_date"`
	EndDate          time.Time          `json:"end_date"`
	Assignees        []AssigneeWorkload `json:"assignees"`
	Tasks            []WorkloadTask     `json:"tasks"`
	CapacitySettings CapacitySettings   `json:"capacity_settings"`
	Metrics          WorkloadMetrics    `json:"metrics"`
	Recommendations  []Recommendation   `json:"recommendations"`
}

func (s WorkloadSnapshot) Empty() bool {
	return len(s.Assignees) == 0 && len(s.Tasks) == 0
}

type RecommendationKind string

const (
	RecommendOverallocation   RecommendationKind = "overallocation"
	RecommendUnderutilization RecommendationKind = "underutilization"
	RecommendUnscheduled      RecommendationKind = "unscheduled"
	RecommendBottleneck       RecommendationKind = "bottleneck"
	RecommendImbalance        RecommendationKind = "imbalance"
)

type Recommendation struct {
	Kind     RecommendationKind `json:"type"`
	Priority string             `json:"priority"`
	Message  string             `json:"message"`
	Action   string             `json:"action"`
}

type AnalysisSummary struct {
	TotalEmployees   int `json:"total_employees"`
	TotalTasks       int `json:"total_tasks"`
	ScheduledTasks   int `json:"scheduled_tasks"`
	UnscheduledTasks int `json:"unscheduled_tasks"`
}

type CapacityBreakdown struct {
	Employee       string  `json:"employee"`
	EmployeeID     string  `json:"employee_id"`
	Capacity       float64 `json:"capacity"`
	ScheduledHours float64 `json:"scheduled_hours"`
	Utilization    float64 `json:"utilization"`
	AvailableHours float64 `json:"available_hours"`
	TaskCount      int     `json:"task_count"`
}

type CapacityAnalysis struct {
	Summary           AnalysisSummary     `json:"summary"`
	CapacityBreakdown []CapacityBreakdown `json:"capacity_breakdown"`
	Overallocated     []CapacityBreakdown `json:"overallocated"`
	Underutilized     []CapacityBreakdown `json:"underutilized"`
	Recommendations   []Recommendation    `json:"recommendations"`
}

type TaskStats struct {
	Department string           `json:"department,omitempty"`
	Total      int              `json:"total"`
	Completed  int              `json:"completed"`
	InProgress int              `json:"in_progress"`
	Overdue    int              `json:"overdue"`
	ByPriority map[Priority]int `json:"by_priority"`
}
