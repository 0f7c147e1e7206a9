package model

import (
	"math"
	"time"
)

// TaskTimeline refines a task's schedule and progress. EndDate is exclusive.
type TaskTimeline struct {
	ID               string     `json:"id"`
	TaskID           string     `json:"task_id"`
	Assignee         string     `json:"assignee,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	EstimatedHours   float64    `json:"estimated_hours"`
	ActualHours      float64    `json:"actual_hours"`
	ProgressPercent  float64    `json:"progress_percent"`
	PriorityScore    int        `json:"priority_score"`
	ComplexityRating int        `json:"complexity_rating,omitempty"`
	Dependencies     []string   `json:"dependencies,omitempty"`
	ModifiedAt       time.Time  `json:"modified_at"`
	Version          int64      `json:"version"`
}

func PriorityScore(p Priority) int {
	switch p {
	case PriorityLow:
		return 25
	case PriorityMedium:
		return 50
	case PriorityHigh:
		return 75
	case PriorityUrgent:
		return 100
	}
	return 50
}

// DurationDays counts calendar days covered by the timeline, 0 when open ended.
func (tl TaskTimeline) DurationDays() int {
	if tl.StartDate == nil || tl.EndDate == nil {
		return 0
	}
	return int(math.Ceil(tl.EndDate.Sub(*tl.StartDate).Hours() / 24))
}

func (tl TaskTimeline) Validate() error {
	if tl.StartDate != nil && tl.EndDate != nil && !tl.EndDate.After(*tl.StartDate) {
		return invalid("end_date", "must be after start_date")
	}
	if tl.ProgressPercent < 0 || tl.ProgressPercent > 100 {
		return invalid("progress_percent", "must be between 0 and 100")
	}
	if tl.EstimatedHours < 0 {
		return invalid("estimated_hours", "must not be negative")
	}
	if tl.ActualHours < 0 {
		return invalid("actual_hours", "must not be negative")
	}
	return nil
}

// SyncFromTask copies assignment and schedule from t. The task's inclusive
// end date becomes the timeline's exclusive end.
func (tl *TaskTimeline) SyncFromTask(t Task) {
	tl.Assignee = t.PrimaryAssignee()
	tl.StartDate = cloneTime(t.ScheduledStart)
	tl.EndDate = nil
	if t.ScheduledEnd != nil {
		end := t.ScheduledEnd.AddDate(0, 0, 1)
		tl.EndDate = &end
	}
	tl.EstimatedHours = t.Hours()
	tl.PriorityScore = PriorityScore(t.Priority)
}

type DependencyCheck struct {
	TaskID   string   `json:"task_id"`
	CanStart bool     `json:"can_start"`
	Blocking []string `json:"blocking"`
}
