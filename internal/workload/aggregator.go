// Package workload builds workload snapshots and capacity analyses from the
// persisted roster and tasks.
package workload

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/roksva123/kinerja-planner/internal/apperror"
	"github.com/roksva123/kinerja-planner/internal/model"
)

type Roster interface {
	ListEmployees(ctx context.Context, department string) ([]model.Employee, error)
	DepartmentExists(ctx context.Context, name string) (bool, error)
}

type TaskFinder interface {
	FindTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
}

// UserResolver reports whether an identity exists.
type UserResolver interface {
	ResolveUser(ctx context.Context, id string) bool
}

type CapacityCalculator interface {
	Window(start, end *time.Time) (time.Time, time.Time)
	Today() time.Time
	Profile(ctx context.Context, id string) model.Employee
	CalculateFor(ctx context.Context, emp model.Employee, start, end time.Time) (model.CapacityResult, error)
}

type Aggregator struct {
	roster     Roster
	tasks      TaskFinder
	users      UserResolver
	capacity   CapacityCalculator
	thresholds Thresholds
	workers    int
	log        zerolog.Logger
}

func NewAggregator(roster Roster, tasks TaskFinder, users UserResolver, capacity CapacityCalculator, th Thresholds, workers int, log zerolog.Logger) *Aggregator {
	if workers <= 0 {
		workers = 4
	}
	return &Aggregator{
		roster:     roster,
		tasks:      tasks,
		users:      users,
		capacity:   capacity,
		thresholds: th,
		workers:    workers,
		log:        log.With().Str("component", "workload").Logger(),
	}
}

func (a *Aggregator) Thresholds() Thresholds {
	return a.thresholds
}

// GetWorkload never fails on missing or partial data. The only error is an
// inverted date range.
func (a *Aggregator) GetWorkload(ctx context.Context, department string, start, end *time.Time) (model.WorkloadSnapshot, error) {
	s, e := a.capacity.Window(start, end)
	if s.After(e) {
		return model.WorkloadSnapshot{}, apperror.Validation("getWorkload", "start date is after end date")
	}
	snap := a.emptySnapshot(department, s, e)

	if department != "" {
		exists, err := a.roster.DepartmentExists(ctx, department)
		if err != nil {
			a.log.Warn().Err(err).Str("department", department).Msg("department lookup failed")
			return snap, nil
		}
		if !exists {
			a.log.Debug().Str("department", department).Msg("unknown department, returning empty workload")
			return snap, nil
		}
	}

	employees, err := a.roster.ListEmployees(ctx, department)
	if err != nil {
		a.log.Warn().Err(err).Msg("roster lookup failed")
		employees = nil
	}
	tasks, err := a.tasks.FindTasks(ctx, model.TaskFilter{Department: department, Statuses: model.WorkloadStatuses})
	if err != nil {
		a.log.Warn().Err(err).Msg("task lookup failed")
		tasks = nil
	}

	today := a.capacity.Today()
	resolved := make(map[string]bool)
	for _, t := range tasks {
		assignee := a.resolveAssignee(ctx, t, resolved)
		snap.Tasks = append(snap.Tasks, model.WorkloadTask{
			Task:        t,
			Assignee:    assignee,
			IsScheduled: t.IsScheduled(),
			IsOverdue:   t.IsOverdue(today),
			Color:       TaskColor(t),
		})
	}

	snap.Assignees = a.buildAssignees(ctx, employees, snap.Tasks, s, e)
	snap.Metrics = a.metrics(snap)
	snap.Recommendations = Recommend(snap.Metrics, urgentUnscheduled(snap.Tasks), a.thresholds)
	return snap, nil
}

func (a *Aggregator) emptySnapshot(department string, start, end time.Time) model.WorkloadSnapshot {
	return model.WorkloadSnapshot{
		Department: department,
		StartDate:  start,
		EndDate:    end,
		Assignees:  []model.AssigneeWorkload{},
		Tasks:      []model.WorkloadTask{},
		CapacitySettings: model.CapacitySettings{
			DefaultDailyHours:      model.DefaultDailyHours,
			DefaultWorkWeek:        model.DefaultWorkWeek,
			OverallocatedThreshold: a.thresholds.Overallocated,
			UnderutilizedThreshold: a.thresholds.Underutilized,
		},
		Metrics: model.WorkloadMetrics{
			StatusDistribution:   map[model.Status]int{},
			PriorityDistribution: map[model.Priority]int{},
		},
		Recommendations: []model.Recommendation{},
	}
}

// resolveAssignee maps a task to its primary assignee, or the sentinel when
// the reference is empty or dangling.
func (a *Aggregator) resolveAssignee(ctx context.Context, t model.Task, seen map[string]bool) string {
	id := t.PrimaryAssignee()
	if id == "" || id == model.Unassigned {
		return model.Unassigned
	}
	ok, cached := seen[id]
	if !cached {
		ok = a.users == nil || a.users.ResolveUser(ctx, id)
		seen[id] = ok
	}
	if !ok {
		a.log.Warn().Str("task", t.ID).Str("assignee", id).Msg("task references unknown assignee")
		return model.Unassigned
	}
	return id
}

func (a *Aggregator) buildAssignees(ctx context.Context, employees []model.Employee, tasks []model.WorkloadTask, start, end time.Time) []model.AssigneeWorkload {
	buckets := make([]model.AssigneeWorkload, 0, len(employees)+1)
	profiles := make([]model.Employee, 0, len(employees)+1)
	index := make(map[string]int)
	for _, emp := range employees {
		index[emp.ID] = len(buckets)
		buckets = append(buckets, model.AssigneeWorkload{ID: emp.ID, Name: emp.Name, Department: emp.Department, TaskIDs: []string{}})
		profiles = append(profiles, emp)
	}
	// Assignees outside the roster (another department, inactive) still
	// carry their hours.
	unassigned := false
	for _, t := range tasks {
		if t.Assignee == model.Unassigned {
			unassigned = true
			continue
		}
		if _, ok := index[t.Assignee]; ok {
			continue
		}
		emp := a.capacity.Profile(ctx, t.Assignee)
		emp.ID = t.Assignee
		if emp.Name == "" {
			emp.Name = t.Assignee
		}
		index[emp.ID] = len(buckets)
		buckets = append(buckets, model.AssigneeWorkload{ID: emp.ID, Name: emp.Name, Department: emp.Department, TaskIDs: []string{}})
		profiles = append(profiles, emp)
	}
	if unassigned {
		index[model.Unassigned] = len(buckets)
		buckets = append(buckets, model.AssigneeWorkload{ID: model.Unassigned, Name: "Unassigned", TaskIDs: []string{}})
		profiles = append(profiles, model.DefaultProfile(model.Unassigned))
	}

	for _, t := range tasks {
		i, ok := index[t.Assignee]
		if !ok {
			continue
		}
		buckets[i].TaskIDs = append(buckets[i].TaskIDs, t.ID)
		if t.IsScheduled {
			buckets[i].ScheduledHours += t.Hours()
		}
	}

	results := make([]model.CapacityResult, len(buckets))
	var g errgroup.Group
	g.SetLimit(a.workers)
	for i := range buckets {
		g.Go(func() error {
			res, err := a.capacity.CalculateFor(ctx, profiles[i], start, end)
			if err != nil {
				a.log.Warn().Err(err).Str("employee", profiles[i].ID).Msg("capacity calculation failed")
				res = model.CapacityResult{EmployeeID: profiles[i].ID, StartDate: start, EndDate: end}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for i := range buckets {
		b := &buckets[i]
		b.Capacity = results[i]
		b.Utilization = utilization(b.ScheduledHours, b.Capacity.AvailableCapacity)
		if b.ID != model.Unassigned {
			b.Classification = a.thresholds.Classify(b.Utilization)
		}
	}
	return buckets
}

func (a *Aggregator) metrics(snap model.WorkloadSnapshot) model.WorkloadMetrics {
	m := snap.Metrics
	utils := []float64{}
	for _, b := range snap.Assignees {
		if b.ID == model.Unassigned {
			continue
		}
		m.TotalCapacity += b.Capacity.AvailableCapacity
		m.TotalAllocated += b.ScheduledHours
		utils = append(utils, b.Utilization)
		switch b.Classification {
		case model.Overallocated:
			m.OverallocatedCount++
		case model.Underutilized:
			m.UnderutilizedCount++
		default:
			m.BalancedCount++
		}
	}
	m.OverallUtilization = utilization(m.TotalAllocated, m.TotalCapacity)
	m.UtilizationStdDev = stdDev(utils)

	completed := 0
	for _, t := range snap.Tasks {
		m.StatusDistribution[t.Status]++
		m.PriorityDistribution[t.Priority]++
		if t.IsScheduled {
			m.ScheduledCount++
		} else {
			m.UnscheduledCount++
		}
		if t.IsOverdue {
			m.OverdueCount++
		}
		if t.Status == model.StatusCompleted {
			completed++
		}
	}
	if len(snap.Tasks) > 0 {
		m.CompletionRate = float64(completed) / float64(len(snap.Tasks)) * 100
	}
	return m
}

// GetCapacityAnalysis summarizes a workload snapshot per employee. The
// unassigned bucket is left out of the breakdown.
func (a *Aggregator) GetCapacityAnalysis(ctx context.Context, department string, start, end *time.Time) (model.CapacityAnalysis, error) {
	snap, err := a.GetWorkload(ctx, department, start, end)
	if err != nil {
		return model.CapacityAnalysis{}, err
	}
	return Analyze(snap), nil
}

func Analyze(snap model.WorkloadSnapshot) model.CapacityAnalysis {
	out := model.CapacityAnalysis{
		Summary: model.AnalysisSummary{
			TotalTasks:       len(snap.Tasks),
			ScheduledTasks:   snap.Metrics.ScheduledCount,
			UnscheduledTasks: snap.Metrics.UnscheduledCount,
		},
		CapacityBreakdown: []model.CapacityBreakdown{},
		Overallocated:     []model.CapacityBreakdown{},
		Underutilized:     []model.CapacityBreakdown{},
		Recommendations:   snap.Recommendations,
	}
	if out.Recommendations == nil {
		out.Recommendations = []model.Recommendation{}
	}

	for _, b := range snap.Assignees {
		if b.ID == model.Unassigned {
			continue
		}
		out.Summary.TotalEmployees++
		row := model.CapacityBreakdown{
			Employee:       b.Name,
			EmployeeID:     b.ID,
			Capacity:       b.Capacity.AvailableCapacity,
			ScheduledHours: b.ScheduledHours,
			Utilization:    round1(b.Utilization),
			AvailableHours: max(0, b.Capacity.AvailableCapacity-b.ScheduledHours),
			TaskCount:      len(b.TaskIDs),
		}
		out.CapacityBreakdown = append(out.CapacityBreakdown, row)
		switch b.Classification {
		case model.Overallocated:
			out.Overallocated = append(out.Overallocated, row)
		case model.Underutilized:
			out.Underutilized = append(out.Underutilized, row)
		}
	}
	return out
}

// TaskStats counts every task of a department regardless of status.
func (a *Aggregator) TaskStats(ctx context.Context, department string) model.TaskStats {
	stats := model.TaskStats{Department: department, ByPriority: map[model.Priority]int{}}
	tasks, err := a.tasks.FindTasks(ctx, model.TaskFilter{Department: department})
	if err != nil {
		a.log.Warn().Err(err).Msg("task lookup failed")
		return stats
	}
	today := a.capacity.Today()
	for _, t := range tasks {
		stats.Total++
		stats.ByPriority[t.Priority]++
		switch {
		case t.Status == model.StatusCompleted:
			stats.Completed++
		case t.Status == model.StatusWorking:
			stats.InProgress++
		}
		if t.Status == model.StatusOverdue || (t.Status != model.StatusCancelled && t.IsOverdue(today)) {
			stats.Overdue++
		}
	}
	return stats
}

func urgentUnscheduled(tasks []model.WorkloadTask) int {
	n := 0
	for _, t := range tasks {
		if !t.IsScheduled && t.Status != model.StatusCompleted &&
			(t.Priority == model.PriorityHigh || t.Priority == model.PriorityUrgent) {
			n++
		}
	}
	return n
}

func utilization(scheduled, capacity float64) float64 {
	if capacity <= 0 {
		return 0
	}
	return scheduled / capacity * 100
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	sum := 0.0
	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}
	return math.Sqrt(sum / float64(len(values)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
