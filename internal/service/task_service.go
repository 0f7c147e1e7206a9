package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roksva123/kinerja-planner/internal/apperror"
	"github.com/roksva123/kinerja-planner/internal/identity"
	"github.com/roksva123/kinerja-planner/internal/metrics"
	"github.com/roksva123/kinerja-planner/internal/model"
	"github.com/roksva123/kinerja-planner/internal/realtime"
	"github.com/roksva123/kinerja-planner/internal/repository"
)

// Authorizer decides whether a user may write an entity type.
type Authorizer interface {
	CanWrite(ctx context.Context, entity, userID string) bool
}

// Invalidator drops cached workload views for departments.
type Invalidator interface {
	Invalidate(ctx context.Context, departments ...string)
}

// CapacityChecker projects an assignee's utilization after adding hours.
type CapacityChecker interface {
	Check(ctx context.Context, employeeID string, start, end *time.Time, additional, threshold float64) (model.CapacityCheck, error)
}

type EmployeeGetter interface {
	GetEmployee(ctx context.Context, id string) (model.Employee, error)
}

type TaskDeps struct {
	Tasks     repository.TaskStore
	Timelines repository.TimelineStore
	Employees EmployeeGetter
	Auth      Authorizer
	Notifier  *Notifier
	Cache     Invalidator
	Capacity  CapacityChecker
	Metrics   *metrics.Metrics
	// AlertThreshold is the utilization above which a move raises a
	// workload alert for the new assignee.
	AlertThreshold float64
}

// TaskService is the only write path for tasks and their timelines.
type TaskService struct {
	tasks     repository.TaskStore
	timelines repository.TimelineStore
	employees EmployeeGetter
	auth      Authorizer
	notifier  *Notifier
	cache     Invalidator
	capacity  CapacityChecker
	metrics   *metrics.Metrics
	threshold float64
	now       func() time.Time
	log       zerolog.Logger
}

func NewTaskService(d TaskDeps, log zerolog.Logger) (*TaskService, error) {
	if d.Tasks == nil || d.Employees == nil || d.Auth == nil {
		return nil, errors.New("task service: tasks, employees and auth are required")
	}
	th := d.AlertThreshold
	if th <= 0 {
		th = 100
	}
	return &TaskService{
		tasks:     d.Tasks,
		timelines: d.Timelines,
		employees: d.Employees,
		auth:      d.Auth,
		notifier:  d.Notifier,
		cache:     d.Cache,
		capacity:  d.Capacity,
		metrics:   d.Metrics,
		threshold: th,
		now:       time.Now,
		log:       log.With().Str("component", "task_service").Logger(),
	}, nil
}

// UpdateTask applies changes to one task on behalf of userID.
func (s *TaskService) UpdateTask(ctx context.Context, taskID string, changes model.TaskChanges, userID string) (model.Task, error) {
	const op = "updateTask"
	if err := s.authorize(ctx, op, identity.EntityTask, userID); err != nil {
		return model.Task{}, err
	}
	if changes.Empty() {
		return model.Task{}, apperror.Validation(op, "no changes supplied")
	}

	saved, before, err := s.mutate(ctx, op, taskID, func(t *model.Task) error {
		changes.Apply(t)
		return nil
	})
	if err != nil {
		s.metrics.Mutation(op, resultLabel(err))
		return model.Task{}, err
	}
	s.metrics.Mutation(op, "ok")

	if changes.ScheduledStart.Set || changes.ScheduledEnd.Set || changes.Priority.Set || changes.EstimatedHours.Set {
		if err := s.syncTimeline(ctx, op, saved, nil, false); err != nil {
			s.log.Warn().Err(err).Str("task_id", saved.ID).Msg("timeline left unsynced")
		}
	}
	s.invalidate(ctx, before.Department, saved.Department)
	s.notifier.emit(ctx, notice{
		event:      model.EventTaskUpdate,
		rooms:      taskRooms(saved),
		taskID:     saved.ID,
		department: saved.Department,
		userID:     userID,
		payload: map[string]any{
			"task":       saved,
			"changed_by": userID,
		},
	})
	return saved, nil
}

// MoveRequest reassigns and reschedules a task. A nil AssigneeID leaves the
// assignment alone and model.Unassigned clears it. Both dates are always
// written; a nil date clears the stored one.
type MoveRequest struct {
	TaskID     string
	AssigneeID *string
	StartDate  *time.Time
	EndDate    *time.Time
}

type MoveResult struct {
	Task    model.Task `json:"task"`
	Success bool       `json:"success"`
}

func (s *TaskService) MoveTask(ctx context.Context, req MoveRequest, userID string) (MoveResult, error) {
	const op = "moveTask"
	if err := s.authorize(ctx, op, identity.EntityTask, userID); err != nil {
		return MoveResult{}, err
	}
	if req.StartDate != nil && req.EndDate != nil && model.Day(*req.EndDate).Before(model.Day(*req.StartDate)) {
		s.metrics.Mutation(op, "invalid")
		return MoveResult{}, apperror.Validation(op, "end date is before start date")
	}

	var assignees []string
	if req.AssigneeID != nil {
		switch id := *req.AssigneeID; id {
		case model.Unassigned, "":
			assignees = []string{}
		default:
			if _, err := s.employees.GetEmployee(ctx, id); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					s.metrics.Mutation(op, "invalid")
					return MoveResult{}, apperror.InvalidAssignee(op, id)
				}
				return MoveResult{}, fmt.Errorf("%s: load employee %s: %w", op, id, err)
			}
			assignees = []string{id}
		}
	}

	saved, before, err := s.mutate(ctx, op, req.TaskID, func(t *model.Task) error {
		if assignees != nil {
			t.Assignees = append([]string{}, assignees...)
		}
		t.ScheduledStart = dayPtr(req.StartDate)
		t.ScheduledEnd = dayPtr(req.EndDate)
		return nil
	})
	if err != nil {
		s.metrics.Mutation(op, resultLabel(err))
		return MoveResult{}, err
	}
	s.metrics.Mutation(op, "ok")

	if err := s.syncTimeline(ctx, op, saved, nil, true); err != nil {
		s.log.Warn().Err(err).Str("task_id", saved.ID).Msg("timeline left unsynced")
	}
	s.invalidate(ctx, before.Department, saved.Department)
	s.notifier.emit(ctx, notice{
		event:      model.EventTaskMoved,
		rooms:      taskRooms(saved, before.PrimaryAssignee()),
		taskID:     saved.ID,
		department: saved.Department,
		userID:     userID,
		payload: map[string]any{
			"task":          saved,
			"from_assignee": before.PrimaryAssignee(),
			"to_assignee":   saved.PrimaryAssignee(),
			"moved_by":      userID,
		},
	})
	s.alertIfOverloaded(ctx, saved)

	return MoveResult{Task: saved, Success: true}, nil
}

// BatchItem is one entry of a batch update. Changes and Timeline are raw
// JSON objects decoded per item, so a bad field only fails its own item.
type BatchItem struct {
	TaskID   string          `json:"task_id"`
	Changes  json.RawMessage `json:"changes"`
	Timeline json.RawMessage `json:"timeline,omitempty"`
}

// BatchUpdateTasks applies each item independently and returns the tasks
// that were updated. Failed items are logged and skipped.
func (s *TaskService) BatchUpdateTasks(ctx context.Context, items []BatchItem, userID string) ([]model.Task, error) {
	const op = "batchUpdateTasks"
	if err := s.authorize(ctx, op, identity.EntityTask, userID); err != nil {
		return nil, err
	}

	updated := make([]model.Task, 0, len(items))
	departments := make([]string, 0, len(items))
	for i, item := range items {
		saved, before, err := s.applyBatchItem(ctx, op, item)
		if err != nil {
			s.metrics.Mutation(op, resultLabel(err))
			s.log.Warn().Err(err).Int("index", i).Str("task_id", item.TaskID).Msg("batch item skipped")
			continue
		}
		s.metrics.Mutation(op, "ok")
		updated = append(updated, saved)
		departments = append(departments, before.Department, saved.Department)
	}
	if len(updated) == 0 {
		return updated, nil
	}

	s.invalidate(ctx, departments...)
	ids := make([]string, len(updated))
	for i, t := range updated {
		ids[i] = t.ID
	}
	s.notifier.emit(ctx, notice{
		event:  model.EventBatchTaskUpdate,
		rooms:  []string{realtime.GlobalRoom},
		userID: userID,
		payload: map[string]any{
			"batch_id":   uuid.NewString(),
			"task_ids":   ids,
			"count":      len(updated),
			"updated_by": userID,
		},
	})
	return updated, nil
}

func (s *TaskService) applyBatchItem(ctx context.Context, op string, item BatchItem) (model.Task, model.Task, error) {
	if item.TaskID == "" {
		return model.Task{}, model.Task{}, apperror.Validation(op, "task_id is required")
	}
	var changes model.TaskChanges
	if len(item.Changes) > 0 {
		ch, err := model.ParseTaskChanges(item.Changes)
		if err != nil {
			return model.Task{}, model.Task{}, err
		}
		changes = ch
	}
	var tlChanges *model.TimelineChanges
	if len(item.Timeline) > 0 {
		tc, err := model.ParseTimelineChanges(item.Timeline)
		if err != nil {
			return model.Task{}, model.Task{}, err
		}
		if !tc.Empty() {
			tlChanges = &tc
		}
	}
	if changes.Empty() && tlChanges == nil {
		return model.Task{}, model.Task{}, apperror.Validation(op, "no changes supplied")
	}
	if tlChanges != nil {
		if err := s.checkTimeline(ctx, op, item.TaskID, changes, *tlChanges); err != nil {
			return model.Task{}, model.Task{}, err
		}
	}

	if changes.Empty() {
		cur, err := s.tasks.GetTask(ctx, item.TaskID)
		if err != nil {
			return model.Task{}, model.Task{}, storeError(op, "task "+item.TaskID, err)
		}
		if err := s.syncTimeline(ctx, op, cur, tlChanges, false); err != nil {
			return model.Task{}, model.Task{}, err
		}
		return cur, cur, nil
	}

	saved, before, err := s.mutate(ctx, op, item.TaskID, func(t *model.Task) error {
		changes.Apply(t)
		return nil
	})
	if err != nil {
		return model.Task{}, model.Task{}, err
	}
	if err := s.syncTimeline(ctx, op, saved, tlChanges, false); err != nil {
		s.log.Warn().Err(err).Str("task_id", saved.ID).Msg("timeline changes not applied")
	}
	return saved, before, nil
}

// checkTimeline rejects timeline changes before anything is written: the
// task needs a timeline and the result must still validate.
func (s *TaskService) checkTimeline(ctx context.Context, op, taskID string, changes model.TaskChanges, tlChanges model.TimelineChanges) error {
	t, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return storeError(op, "task "+taskID, err)
	}
	if s.timelines == nil {
		return apperror.NotFound(op, "timeline for task "+taskID)
	}
	tl, err := s.timelines.GetTimelineByTask(ctx, taskID)
	if err != nil {
		return storeError(op, "timeline for task "+taskID, err)
	}
	changes.Apply(&t)
	tl.SyncFromTask(t)
	tlChanges.Apply(&tl)
	return withOp(op, tl.Validate())
}

// CheckDependencies reports whether every task the timeline depends on has
// reached a terminal status. Missing dependencies count as blocking.
func (s *TaskService) CheckDependencies(ctx context.Context, taskID string) (model.DependencyCheck, error) {
	const op = "checkDependencies"
	res := model.DependencyCheck{TaskID: taskID, CanStart: true, Blocking: []string{}}
	if _, err := s.tasks.GetTask(ctx, taskID); err != nil {
		return res, storeError(op, "task "+taskID, err)
	}
	if s.timelines == nil {
		return res, nil
	}
	tl, err := s.timelines.GetTimelineByTask(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("%s: load timeline: %w", op, err)
	}
	if len(tl.Dependencies) == 0 {
		return res, nil
	}

	deps, err := s.tasks.FindTasks(ctx, model.TaskFilter{IDs: tl.Dependencies})
	if err != nil {
		return res, fmt.Errorf("%s: load dependencies: %w", op, err)
	}
	status := make(map[string]model.Status, len(deps))
	for _, d := range deps {
		status[d.ID] = d.Status
	}
	for _, id := range tl.Dependencies {
		if st, ok := status[id]; !ok || !st.Terminal() {
			res.Blocking = append(res.Blocking, id)
		}
	}
	res.CanStart = len(res.Blocking) == 0
	return res, nil
}

// mutate loads the task, applies fn and saves it. A version conflict is
// retried once against freshly loaded state before giving up.
func (s *TaskService) mutate(ctx context.Context, op, taskID string, fn func(*model.Task) error) (saved, before model.Task, err error) {
	for attempt := 0; ; attempt++ {
		cur, err := s.tasks.GetTask(ctx, taskID)
		if err != nil {
			return model.Task{}, model.Task{}, storeError(op, "task "+taskID, err)
		}

		next := cur.Clone()
		if err := fn(&next); err != nil {
			return model.Task{}, model.Task{}, withOp(op, err)
		}
		if err := next.Validate(); err != nil {
			return model.Task{}, model.Task{}, withOp(op, err)
		}
		next.ModifiedAt = s.now().UTC()

		saved, err = s.tasks.SaveTask(ctx, next)
		switch {
		case err == nil:
			return saved, cur, nil
		case errors.Is(err, repository.ErrVersionMismatch) && attempt == 0:
			s.metrics.Conflict(op, "retried")
			s.log.Info().Str("op", op).Str("task_id", taskID).Msg("version conflict, reloading")
		case errors.Is(err, repository.ErrVersionMismatch):
			s.metrics.Conflict(op, "exhausted")
			return model.Task{}, model.Task{}, apperror.Conflict(op, err)
		default:
			return model.Task{}, model.Task{}, storeError(op, "task "+taskID, err)
		}
	}
}

// syncTimeline mirrors the task onto its timeline and applies changes. A
// missing timeline is created when create is set, and otherwise is only an
// error if there are changes to apply. A timeline conflict is retried once.
func (s *TaskService) syncTimeline(ctx context.Context, op string, t model.Task, changes *model.TimelineChanges, create bool) error {
	if s.timelines == nil {
		if changes != nil {
			return apperror.NotFound(op, "timeline for task "+t.ID)
		}
		return nil
	}
	for attempt := 0; attempt < 2; attempt++ {
		tl, err := s.timelines.GetTimelineByTask(ctx, t.ID)
		fresh := errors.Is(err, repository.ErrNotFound)
		switch {
		case fresh && create:
			tl = model.TaskTimeline{TaskID: t.ID, Dependencies: []string{}}
		case fresh && changes == nil:
			return nil
		case err != nil:
			return storeError(op, "timeline for task "+t.ID, err)
		}

		tl.SyncFromTask(t)
		if fresh && tl.EstimatedHours <= 0 {
			tl.EstimatedHours = model.DefaultDailyHours
		}
		if changes != nil {
			changes.Apply(&tl)
		}
		if err := tl.Validate(); err != nil {
			return withOp(op, err)
		}
		tl.ModifiedAt = s.now().UTC()

		if fresh {
			_, err = s.timelines.CreateTimeline(ctx, tl)
		} else {
			_, err = s.timelines.SaveTimeline(ctx, tl)
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionMismatch) {
			return fmt.Errorf("%s: save timeline: %w", op, err)
		}
		s.metrics.Conflict(op+".timeline", "retried")
	}
	s.metrics.Conflict(op+".timeline", "exhausted")
	return apperror.Conflict(op, repository.ErrVersionMismatch)
}

func (s *TaskService) alertIfOverloaded(ctx context.Context, t model.Task) {
	assignee := t.PrimaryAssignee()
	if s.capacity == nil || assignee == "" || !t.IsScheduled() {
		return
	}
	check, err := s.capacity.Check(ctx, assignee, t.ScheduledStart, t.ScheduledEnd, 0, s.threshold)
	if err != nil {
		s.log.Debug().Err(err).Str("assignee", assignee).Msg("capacity check skipped")
		return
	}
	if check.CanAssign {
		return
	}
	s.notifier.emit(ctx, notice{
		event:      model.EventWorkloadAlert,
		rooms:      []string{realtime.UserRoom(assignee), realtime.DepartmentRoom(t.Department)},
		taskID:     t.ID,
		department: t.Department,
		userID:     assignee,
		payload: map[string]any{
			"assignee":    assignee,
			"utilization": check.UtilizationAfter,
			"threshold":   s.threshold,
			"task_id":     t.ID,
		},
	})
}

func (s *TaskService) authorize(ctx context.Context, op, entity, userID string) error {
	if userID == "" || !s.auth.CanWrite(ctx, entity, userID) {
		s.metrics.Mutation(op, "denied")
		return apperror.Permission(op, fmt.Sprintf("user %q may not write %s", userID, entity))
	}
	return nil
}

func (s *TaskService) invalidate(ctx context.Context, departments ...string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, departments...)
	}
}

func storeError(op, what string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(op, what)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// withOp stamps op on validation errors raised below the service.
func withOp(op string, err error) error {
	var e *apperror.Error
	if errors.As(err, &e) && e.Op == "" {
		cp := *e
		cp.Op = op
		return &cp
	}
	return err
}

func resultLabel(err error) string {
	switch apperror.KindOf(err) {
	case apperror.KindPermission:
		return "denied"
	case apperror.KindConflict:
		return "conflict"
	case apperror.KindNotFound:
		return "not_found"
	case apperror.KindValidation, apperror.KindInvalidField, apperror.KindInvalidAssignee:
		return "invalid"
	}
	return "error"
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := model.Day(*t)
	return &d
}
