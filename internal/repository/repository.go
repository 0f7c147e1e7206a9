package repository

import (
	"context"
	"errors"
	"time"

	"github.com/roksva123/kinerja-planner/internal/model"
)

var (
	ErrNotFound = errors.New("repository: not found")
	// ErrVersionMismatch is the optimistic-concurrency signal: the stored
	// version differs from the one the caller loaded.
	ErrVersionMismatch = errors.New("repository: version mismatch")
)

type TaskStore interface {
	GetTask(ctx context.Context, id string) (model.Task, error)
	FindTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	// SaveTask persists t if t.Version matches the stored version and
	// returns it with the incremented version.
	SaveTask(ctx context.Context, t model.Task) (model.Task, error)
}

type TimelineStore interface {
	GetTimelineByTask(ctx context.Context, taskID string) (model.TaskTimeline, error)
	SaveTimeline(ctx context.Context, tl model.TaskTimeline) (model.TaskTimeline, error)
	// CreateTimeline inserts the first timeline of a task. It returns
	// ErrVersionMismatch when the task already has one.
	CreateTimeline(ctx context.Context, tl model.TaskTimeline) (model.TaskTimeline, error)
}

type EmployeeStore interface {
	ListEmployees(ctx context.Context, department string) ([]model.Employee, error)
	GetEmployee(ctx context.Context, id string) (model.Employee, error)
	DepartmentExists(ctx context.Context, name string) (bool, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (model.User, error)
}

type LeaveStore interface {
	// ApprovedLeaves returns approved leave overlapping [start, end].
	ApprovedLeaves(ctx context.Context, employeeID string, start, end time.Time) ([]model.LeaveApplication, error)
}

type EventStore interface {
	RecordEvent(ctx context.Context, e model.WorkloadEvent) error
}

// Store is everything the planner reads and writes.
type Store interface {
	TaskStore
	TimelineStore
	EmployeeStore
	UserStore
	LeaveStore
	EventStore
}
