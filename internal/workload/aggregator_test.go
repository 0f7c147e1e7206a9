package workload

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roksva123/kinerja-planner/internal/apperror"
	"github.com/roksva123/kinerja-planner/internal/calendar"
	"github.com/roksva123/kinerja-planner/internal/capacity"
	"github.com/roksva123/kinerja-planner/internal/model"
	"github.com/roksva123/kinerja-planner/internal/repository/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func hours(h float64) *float64 { return &h }

type resolverFunc func(ctx context.Context, id string) bool

func (f resolverFunc) ResolveUser(ctx context.Context, id string) bool { return f(ctx, id) }

func storeResolver(s *memory.Store) UserResolver {
	return resolverFunc(func(ctx context.Context, id string) bool {
		_, err := s.GetUser(ctx, id)
		return err == nil
	})
}

func newAggregator(s *memory.Store) *Aggregator {
	now := func() time.Time { return day(2023, 12, 5) }
	cal := calendar.New(s, zerolog.Nop())
	calc := capacity.NewCalculator(s, s, s, cal, capacity.Options{Now: now}, zerolog.Nop())
	return NewAggregator(s, s, storeResolver(s), calc, DefaultThresholds(), 2, zerolog.Nop())
}

func scheduledTask(id, assignee string, h float64) model.Task {
	return model.Task{
		ID: id, Title: id, Status: model.StatusWorking, Priority: model.PriorityMedium, Department: "Ops",
		Assignees: []string{assignee}, ScheduledStart: ptr(day(2023, 12, 1)), ScheduledEnd: ptr(day(2023, 12, 4)),
		EstimatedHours: hours(h),
	}
}

func TestGetWorkloadScenario(t *testing.T) {
	s := memory.New()
	s.PutEmployee(model.Employee{ID: "E", Name: "Eka", Department: "Ops", DailyHours: 8, WorkWeek: model.DefaultWorkWeek})
	s.PutTask(scheduledTask("T1", "E", 10))
	s.PutTask(scheduledTask("T2", "E", 6))

	snap, err := newAggregator(s).GetWorkload(context.Background(), "Ops", ptr(day(2023, 12, 1)), ptr(day(2023, 12, 4)))
	require.NoError(t, err)

	require.Len(t, snap.Assignees, 1)
	e := snap.Assignees[0]
	assert.Equal(t, 2, e.Capacity.WorkingDays)
	assert.Equal(t, 16.0, e.Capacity.TotalCapacity)
	assert.Equal(t, 16.0, e.ScheduledHours)
	assert.Equal(t, 100.0, e.Utilization)
	assert.Equal(t, model.Balanced, e.Classification)
	assert.Equal(t, []string{"T1", "T2"}, e.TaskIDs)
	assert.Equal(t, 0, snap.Metrics.OverallocatedCount)
	assert.Equal(t, 0, snap.Metrics.UnderutilizedCount)
	assert.Empty(t, snap.Recommendations)
}

func TestGetWorkloadUnknownDepartment(t *testing.T) {
	s := memory.New()
	s.PutEmployee(model.Employee{ID: "E", Name: "Eka", Department: "Ops"})
	s.PutTask(scheduledTask("T1", "E", 10))

	snap, err := newAggregator(s).GetWorkload(context.Background(), "Ghost", nil, nil)
	require.NoError(t, err)
	assert.True(t, snap.Empty())

	b, err := json.Marshal(snap)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.JSONEq(t, `[]`, string(raw["assignees"]))
	assert.JSONEq(t, `[]`, string(raw["tasks"]))
}

func TestGetWorkloadInvalidRange(t *testing.T) {
	_, err := newAggregator(memory.New()).GetWorkload(context.Background(), "", ptr(day(2023, 12, 4)), ptr(day(2023, 12, 1)))
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestDanglingAssigneeFallsBackToUnassigned(t *testing.T) {
	s := memory.New()
	s.PutEmployee(model.Employee{ID: "E", Name: "Eka", Department: "Ops"})
	s.PutTask(scheduledTask("T1", "ghost", 4))
	backlog := model.Task{ID: "T2", Status: model.StatusOpen, Priority: model.PriorityHigh, Department: "Ops", Assignees: []string{}}
	s.PutTask(backlog)

	snap, err := newAggregator(s).GetWorkload(context.Background(), "Ops", ptr(day(2023, 12, 1)), ptr(day(2023, 12, 4)))
	require.NoError(t, err)

	require.Len(t, snap.Tasks, 2)
	for _, task := range snap.Tasks {
		assert.Equal(t, model.Unassigned, task.Assignee)
	}
	require.Len(t, snap.Assignees, 2)
	un := snap.Assignees[1]
	assert.Equal(t, model.Unassigned, un.ID)
	assert.Equal(t, 4.0, un.ScheduledHours)
	assert.Empty(t, un.Classification)
	assert.Equal(t, model.Balanced, snap.Assignees[0].Classification)

	kinds := []model.RecommendationKind{}
	for _, r := range snap.Recommendations {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []model.RecommendationKind{model.RecommendBottleneck, model.RecommendUnscheduled}, kinds)
}

func TestOffRosterAssigneeKeepsHours(t *testing.T) {
	s := memory.New()
	s.PutEmployee(model.Employee{ID: "E", Name: "Eka", Department: "Ops", DailyHours: 8, WorkWeek: model.DefaultWorkWeek})
	s.PutEmployee(model.Employee{ID: "X", Name: "Xena", Department: "Dev", DailyHours: 8, WorkWeek: model.DefaultWorkWeek})
	s.PutUser(model.User{ID: "C", Name: "Contractor", Role: "member"})
	s.PutTask(scheduledTask("T1", "X", 10))
	s.PutTask(scheduledTask("T2", "C", 4))

	snap, err := newAggregator(s).GetWorkload(context.Background(), "Ops", ptr(day(2023, 12, 1)), ptr(day(2023, 12, 4)))
	require.NoError(t, err)

	require.Len(t, snap.Assignees, 3)
	assert.Equal(t, "E", snap.Assignees[0].ID)

	x := snap.Assignees[1]
	assert.Equal(t, "X", x.ID)
	assert.Equal(t, "Dev", x.Department)
	assert.Equal(t, []string{"T1"}, x.TaskIDs)
	assert.Equal(t, 10.0, x.ScheduledHours)
	assert.Equal(t, 16.0, x.Capacity.TotalCapacity)
	assert.Equal(t, 62.5, x.Utilization)
	assert.Equal(t, model.Underutilized, x.Classification)

	c := snap.Assignees[2]
	assert.Equal(t, "C", c.ID)
	assert.Equal(t, 4.0, c.ScheduledHours)
	assert.Equal(t, 16.0, c.Capacity.TotalCapacity)

	assert.Equal(t, 14.0, snap.Metrics.TotalAllocated)
	assert.Equal(t, 48.0, snap.Metrics.TotalCapacity)
	for _, task := range snap.Tasks {
		assert.NotEqual(t, model.Unassigned, task.Assignee)
	}
}

func TestGetWorkloadStatusFilterAndTaskFlags(t *testing.T) {
	s := memory.New()
	s.PutEmployee(model.Employee{ID: "E", Name: "Eka", Department: "Ops"})
	late := scheduledTask("T1", "E", 2)
	s.PutTask(late)
	done := scheduledTask("T2", "E", 2)
	done.Status = model.StatusCompleted
	s.PutTask(done)
	cancelled := scheduledTask("T3", "E", 2)
	cancelled.Status = model.StatusCancelled
	s.PutTask(cancelled)
	review := scheduledTask("T4", "E", 2)
	review.Status = model.StatusPendingReview
	s.PutTask(review)

	snap, err := newAggregator(s).GetWorkload(context.Background(), "", ptr(day(2023, 12, 1)), ptr(day(2023, 12, 4)))
	require.NoError(t, err)

	require.Len(t, snap.Tasks, 2)
	byID := map[string]model.WorkloadTask{}
	for _, task := range snap.Tasks {
		byID[task.ID] = task
	}
	assert.True(t, byID["T1"].IsOverdue)
	assert.Equal(t, "#3B82F6", byID["T1"].Color)
	assert.False(t, byID["T2"].IsOverdue)
	assert.Equal(t, "#10B981", byID["T2"].Color)
	assert.Equal(t, 1, snap.Metrics.OverdueCount)
	assert.Equal(t, 50.0, snap.Metrics.CompletionRate)
	assert.Equal(t, 1, snap.Metrics.StatusDistribution[model.StatusCompleted])
}

func TestGetWorkloadIsDeterministic(t *testing.T) {
	s := memory.New()
	for _, id := range []string{"A", "B", "C"} {
		s.PutEmployee(model.Employee{ID: id, Name: "Emp " + id, Department: "Ops"})
	}
	s.PutTask(scheduledTask("T1", "A", 30))
	s.PutTask(scheduledTask("T2", "B", 3))
	s.PutTask(model.Task{ID: "T3", Status: model.StatusOpen, Priority: model.PriorityLow, Department: "Ops", Assignees: []string{"C"}})
	agg := newAggregator(s)

	first, err := agg.GetWorkload(context.Background(), "Ops", ptr(day(2023, 12, 1)), ptr(day(2023, 12, 4)))
	require.NoError(t, err)
	second, err := agg.GetWorkload(context.Background(), "Ops", ptr(day(2023, 12, 1)), ptr(day(2023, 12, 4)))
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestGetCapacityAnalysis(t *testing.T) {
	s := memory.New()
	s.PutEmployee(model.Employee{ID: "A", Name: "Ana", Department: "Ops"})
	s.PutEmployee(model.Employee{ID: "B", Name: "Budi", Department: "Ops"})
	s.PutEmployee(model.Employee{ID: "C", Name: "Citra", Department: "Ops"})
	s.PutTask(scheduledTask("T1", "A", 20))
	s.PutTask(scheduledTask("T2", "B", 5))
	s.PutTask(model.Task{ID: "T3", Status: model.StatusOpen, Priority: model.PriorityLow, Department: "Ops"})

	analysis, err := newAggregator(s).GetCapacityAnalysis(context.Background(), "Ops", ptr(day(2023, 12, 1)), ptr(day(2023, 12, 4)))
	require.NoError(t, err)

	assert.Equal(t, model.AnalysisSummary{TotalEmployees: 3, TotalTasks: 3, ScheduledTasks: 2, UnscheduledTasks: 1}, analysis.Summary)
	require.Len(t, analysis.CapacityBreakdown, 3)

	ana := analysis.CapacityBreakdown[0]
	assert.Equal(t, "Ana", ana.Employee)
	assert.Equal(t, 125.0, ana.Utilization)
	assert.Equal(t, 0.0, ana.AvailableHours)

	budi := analysis.CapacityBreakdown[1]
	assert.Equal(t, 31.3, budi.Utilization)
	assert.Equal(t, 11.0, budi.AvailableHours)
	assert.Equal(t, 1, budi.TaskCount)

	require.Len(t, analysis.Overallocated, 1)
	assert.Equal(t, "A", analysis.Overallocated[0].EmployeeID)
	require.Len(t, analysis.Underutilized, 1)
	assert.Equal(t, "B", analysis.Underutilized[0].EmployeeID)

	msgs := map[model.RecommendationKind]string{}
	for _, r := range analysis.Recommendations {
		_, dup := msgs[r.Kind]
		assert.False(t, dup, "duplicate recommendation %s", r.Kind)
		msgs[r.Kind] = r.Message
	}
	assert.Equal(t, "1 employees are overallocated", msgs[model.RecommendOverallocation])
	assert.Equal(t, "1 tasks need scheduling", msgs[model.RecommendUnscheduled])
	assert.Contains(t, msgs, model.RecommendUnderutilization)
	assert.Contains(t, msgs, model.RecommendImbalance)
}

func TestTaskStats(t *testing.T) {
	s := memory.New()
	s.PutTask(scheduledTask("T1", "E", 1))
	done := scheduledTask("T2", "E", 1)
	done.Status = model.StatusCompleted
	s.PutTask(done)
	cancelled := scheduledTask("T3", "E", 1)
	cancelled.Status = model.StatusCancelled
	cancelled.Priority = model.PriorityUrgent
	s.PutTask(cancelled)

	stats := newAggregator(s).TaskStats(context.Background(), "Ops")
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 1, stats.ByPriority[model.PriorityUrgent])
}
