// Package memory is an in-process Store used by tests and the demo server.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/roksva123/kinerja-planner/internal/model"
	"github.com/roksva123/kinerja-planner/internal/repository"
)

type Store struct {
	mu          sync.RWMutex
	tasks       map[string]model.Task
	timelines   map[string]model.TaskTimeline // keyed by task id
	employees   map[string]model.Employee
	users       map[string]model.User
	departments map[string]bool
	leaves      []model.LeaveApplication
	holidays    map[string][]time.Time
	events      []model.WorkloadEvent
}

func New() *Store {
	return &Store{
		tasks:       make(map[string]model.Task),
		timelines:   make(map[string]model.TaskTimeline),
		employees:   make(map[string]model.Employee),
		users:       make(map[string]model.User),
		departments: make(map[string]bool),
		holidays:    make(map[string][]time.Time),
	}
}

// PutTask stores t as is, defaulting its version to 1.
func (s *Store) PutTask(t model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Version == 0 {
		t.Version = 1
	}
	if t.Assignees == nil {
		t.Assignees = []string{}
	}
	s.tasks[t.ID] = t.Clone()
}

func (s *Store) PutTimeline(tl model.TaskTimeline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tl.Version == 0 {
		tl.Version = 1
	}
	if tl.ID == "" {
		tl.ID = "tl-" + tl.TaskID
	}
	s.timelines[tl.TaskID] = tl
}

// PutEmployee also registers the employee as a user and its department.
func (s *Store) PutEmployee(e model.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
	if _, ok := s.users[e.ID]; !ok {
		s.users[e.ID] = model.User{ID: e.ID, Name: e.Name, Role: "member"}
	}
	if e.Department != "" {
		s.departments[e.Department] = true
	}
}

func (s *Store) PutUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) PutDepartment(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments[name] = true
}

func (s *Store) PutLeave(l model.LeaveApplication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaves = append(s.leaves, l)
}

// PutHoliday adds a holiday; an empty employeeID applies to everyone.
func (s *Store) PutHoliday(employeeID string, d time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays[employeeID] = append(s.holidays[employeeID], model.Day(d))
}

func (s *Store) Events() []model.WorkloadEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.WorkloadEvent(nil), s.events...)
}

func (s *Store) GetTask(_ context.Context, id string) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, repository.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *Store) FindTasks(_ context.Context, f model.TaskFilter) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Task{}
	for _, t := range s.tasks {
		if f.Match(t) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SaveTask(_ context.Context, t model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[t.ID]
	if !ok {
		return model.Task{}, repository.ErrNotFound
	}
	if cur.Version != t.Version {
		return model.Task{}, repository.ErrVersionMismatch
	}
	t.Version++
	s.tasks[t.ID] = t.Clone()
	return t, nil
}

func (s *Store) GetTimelineByTask(_ context.Context, taskID string) (model.TaskTimeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tl, ok := s.timelines[taskID]
	if !ok {
		return model.TaskTimeline{}, repository.ErrNotFound
	}
	return tl, nil
}

func (s *Store) SaveTimeline(_ context.Context, tl model.TaskTimeline) (model.TaskTimeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.timelines[tl.TaskID]
	if !ok || cur.ID != tl.ID {
		return model.TaskTimeline{}, repository.ErrNotFound
	}
	if cur.Version != tl.Version {
		return model.TaskTimeline{}, repository.ErrVersionMismatch
	}
	tl.Version++
	s.timelines[tl.TaskID] = tl
	return tl, nil
}

func (s *Store) CreateTimeline(_ context.Context, tl model.TaskTimeline) (model.TaskTimeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[tl.TaskID]; !ok {
		return model.TaskTimeline{}, repository.ErrNotFound
	}
	if _, ok := s.timelines[tl.TaskID]; ok {
		return model.TaskTimeline{}, repository.ErrVersionMismatch
	}
	if tl.ID == "" {
		tl.ID = "tl-" + tl.TaskID
	}
	tl.Version = 1
	s.timelines[tl.TaskID] = tl
	return tl, nil
}

func (s *Store) ListEmployees(_ context.Context, department string) ([]model.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Employee{}
	for _, e := range s.employees {
		if department == "" || e.Department == department {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetEmployee(_ context.Context, id string) (model.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return model.Employee{}, repository.ErrNotFound
	}
	return e, nil
}

func (s *Store) DepartmentExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.departments[name], nil
}

func (s *Store) GetUser(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Store) ApprovedLeaves(_ context.Context, employeeID string, start, end time.Time) ([]model.LeaveApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	first, last := model.Day(start), model.Day(end)
	out := []model.LeaveApplication{}
	for _, l := range s.leaves {
		if l.EmployeeID != employeeID || l.Status != model.LeaveApproved {
			continue
		}
		if model.Day(l.FromDate).After(last) || model.Day(l.ToDate).Before(first) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *Store) HolidaysFor(_ context.Context, employeeID string, _, _ time.Time) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]time.Time(nil), s.holidays[""]...)
	if employeeID != "" {
		out = append(out, s.holidays[employeeID]...)
	}
	return out, nil
}

func (s *Store) RecordEvent(_ context.Context, e model.WorkloadEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

var _ repository.Store = (*Store)(nil)
