package model

import (
	"time"
)

type Status string

const (
	StatusOpen          Status = "Open"
	StatusWorking       Status = "Working"
	StatusCompleted     Status = "Completed"
	StatusOverdue       Status = "Overdue"
	StatusCancelled     Status = "Cancelled"
	StatusPendingReview Status = "Pending Review"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusWorking, StatusCompleted, StatusOverdue, StatusCancelled, StatusPendingReview:
		return true
	}
	return false
}

// Terminal reports whether a task in this status no longer blocks dependents.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Unassigned is the sentinel assignee for tasks without a valid owner.
const Unassigned = "unassigned"

// WorkloadStatuses are the statuses that count towards planned work.
var WorkloadStatuses = []Status{StatusOpen, StatusWorking, StatusCompleted, StatusOverdue}

type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         Status     `json:"status"`
	Priority       Priority   `json:"priority"`
	Project        string     `json:"project,omitempty"`
	Department     string     `json:"department,omitempty"`
	Assignees      []string   `json:"assignees"`
	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ModifiedAt     time.Time  `json:"modified_at"`
	Version        int64      `json:"version"`
}

// PrimaryAssignee returns the first assignee, or "" when there is none.
func (t Task) PrimaryAssignee() string {
	if len(t.Assignees) == 0 {
		return ""
	}
	return t.Assignees[0]
}

func (t Task) IsScheduled() bool {
	return t.ScheduledStart != nil && t.ScheduledEnd != nil
}

// IsOverdue compares against the civil date of today.
func (t Task) IsOverdue(today time.Time) bool {
	if t.ScheduledEnd == nil || t.Status == StatusCompleted {
		return false
	}
	return t.ScheduledEnd.Before(Day(today))
}

func (t Task) Hours() float64 {
	if t.EstimatedHours == nil {
		return 0
	}
	return *t.EstimatedHours
}

// Validate checks set membership and schedule ordering. It does not
// enforce status transitions.
func (t Task) Validate() error {
	if !t.Status.Valid() {
		return invalid("status", "unknown status %q", t.Status)
	}
	if !t.Priority.Valid() {
		return invalid("priority", "unknown priority %q", t.Priority)
	}
	if t.IsScheduled() && t.ScheduledEnd.Before(*t.ScheduledStart) {
		return invalid("scheduled_end", "must not be before scheduled_start")
	}
	if t.EstimatedHours != nil && *t.EstimatedHours < 0 {
		return invalid("estimated_hours", "must not be negative")
	}
	return nil
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	c := t
	c.Assignees = append([]string(nil), t.Assignees...)
	c.ScheduledStart = cloneTime(t.ScheduledStart)
	c.ScheduledEnd = cloneTime(t.ScheduledEnd)
	if t.EstimatedHours != nil {
		h := *t.EstimatedHours
		c.EstimatedHours = &h
	}
	return c
}

type TaskFilter struct {
	Department string
	Statuses   []Status
	Assignee   string
	IDs        []string
}

func (f TaskFilter) Match(t Task) bool {
	if f.Department != "" && t.Department != f.Department {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if f.Assignee != "" && t.PrimaryAssignee() != f.Assignee {
		return false
	}
	if len(f.IDs) > 0 {
		for _, id := range f.IDs {
			if id == t.ID {
				return true
			}
		}
		return false
	}
	return true
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
