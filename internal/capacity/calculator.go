// Package capacity turns working days, daily hours and approved leave into
// hour figures per employee.
package capacity

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/roksva123/kinerja-planner/internal/apperror"
	"github.com/roksva123/kinerja-planner/internal/calendar"
	"github.com/roksva123/kinerja-planner/internal/model"
	"github.com/roksva123/kinerja-planner/internal/repository"
)

// DefaultHorizonDays is the window length used when no end date is given.
const DefaultHorizonDays = 30

type ProfileSource interface {
	GetEmployee(ctx context.Context, id string) (model.Employee, error)
}

type LeaveSource interface {
	ApprovedLeaves(ctx context.Context, employeeID string, start, end time.Time) ([]model.LeaveApplication, error)
}

type TaskFinder interface {
	FindTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
}

type Options struct {
	HorizonDays int
	// DailyHours replaces the 8h default for employees without their own.
	DailyHours  float64
	Now         func() time.Time
}

type Calculator struct {
	profiles ProfileSource
	leaves   LeaveSource
	tasks    TaskFinder
	cal      *calendar.Calendar
	horizon  int
	daily    float64
	now      func() time.Time
	log      zerolog.Logger
}

func NewCalculator(profiles ProfileSource, leaves LeaveSource, tasks TaskFinder, cal *calendar.Calendar, opts Options, log zerolog.Logger) *Calculator {
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = DefaultHorizonDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DailyHours <= 0 {
		opts.DailyHours = model.DefaultDailyHours
	}
	return &Calculator{
		profiles: profiles,
		leaves:   leaves,
		tasks:    tasks,
		cal:      cal,
		horizon:  opts.HorizonDays,
		daily:    opts.DailyHours,
		now:      opts.Now,
		log:      log.With().Str("component", "capacity").Logger(),
	}
}

// Window resolves optional bounds: start defaults to today and end to start
// plus the planning horizon.
func (c *Calculator) Window(start, end *time.Time) (time.Time, time.Time) {
	s := model.Day(c.now())
	if start != nil {
		s = model.Day(*start)
	}
	e := s.AddDate(0, 0, c.horizon)
	if end != nil {
		e = model.Day(*end)
	}
	return s, e
}

func (c *Calculator) Today() time.Time {
	return model.Day(c.now())
}

// Profile returns the working-hours profile of id, falling back to the
// default 8h Mon-Fri profile when it cannot be resolved.
func (c *Calculator) Profile(ctx context.Context, id string) model.Employee {
	if id == model.Unassigned || c.profiles == nil {
		return c.normalize(model.Employee{ID: id, Name: id})
	}
	emp, err := c.profiles.GetEmployee(ctx, id)
	if err != nil {
		ev := c.log.Warn()
		if errors.Is(err, repository.ErrNotFound) {
			ev = c.log.Debug()
		}
		ev.Err(err).Str("employee", id).Msg("using default capacity profile")
		return c.normalize(model.Employee{ID: id, Name: id})
	}
	return c.normalize(emp)
}

func (c *Calculator) normalize(emp model.Employee) model.Employee {
	if emp.DailyHours <= 0 {
		emp.DailyHours = c.daily
	}
	return emp.Normalized()
}

func (c *Calculator) Calculate(ctx context.Context, employeeID string, start, end *time.Time) (model.CapacityResult, error) {
	s, e := c.Window(start, end)
	return c.CalculateFor(ctx, c.Profile(ctx, employeeID), s, e)
}

func (c *Calculator) CalculateFor(ctx context.Context, emp model.Employee, start, end time.Time) (model.CapacityResult, error) {
	emp = c.normalize(emp)
	start, end = model.Day(start), model.Day(end)

	days, err := c.cal.CountWorkingDays(ctx, emp, start, end)
	if err != nil {
		return model.CapacityResult{}, err
	}

	res := model.CapacityResult{
		EmployeeID:  emp.ID,
		StartDate:   start,
		EndDate:     end,
		WorkingDays: days,
		DailyHours:  emp.DailyHours,
	}
	res.TotalCapacity = float64(days) * emp.DailyHours
	res.LeaveHours = c.leaveHours(ctx, emp, start, end)
	res.AvailableCapacity = max(0, res.TotalCapacity-res.LeaveHours)
	if res.TotalCapacity > 0 {
		res.AvailabilityPercent = res.AvailableCapacity / res.TotalCapacity * 100
	}
	return res, nil
}

// leaveHours charges a full day for every approved leave day.
func (c *Calculator) leaveHours(ctx context.Context, emp model.Employee, start, end time.Time) float64 {
	leaves := c.approvedLeaves(ctx, emp.ID, start, end)
	total := 0.0
	for _, l := range leaves {
		total += l.Days * emp.DailyHours
	}
	return total
}

func (c *Calculator) approvedLeaves(ctx context.Context, employeeID string, start, end time.Time) []model.LeaveApplication {
	if c.leaves == nil || employeeID == model.Unassigned {
		return nil
	}
	leaves, err := c.leaves.ApprovedLeaves(ctx, employeeID, start, end)
	if err != nil {
		c.log.Warn().Err(err).Str("employee", employeeID).Msg("leave lookup failed, assuming no leave")
		return nil
	}
	return leaves
}

// DailyRecords projects capacity per day. Allocation spreads each scheduled
// task's hours evenly over its working days.
func (c *Calculator) DailyRecords(ctx context.Context, employeeID string, start, end *time.Time) ([]model.CapacityRecord, error) {
	s, e := c.Window(start, end)
	if s.After(e) {
		return nil, apperror.Validation("dailyCapacity", "start date is after end date")
	}
	emp := c.Profile(ctx, employeeID)
	holidays := c.cal.Holidays(ctx, emp.ID, s, e)

	onLeave := make(map[time.Time]bool)
	for _, l := range c.approvedLeaves(ctx, emp.ID, s, e) {
		for d := model.Day(l.FromDate); !d.After(model.Day(l.ToDate)); d = d.AddDate(0, 0, 1) {
			onLeave[d] = true
		}
	}

	index := make(map[time.Time]int)
	records := []model.CapacityRecord{}
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		rec := model.CapacityRecord{EmployeeID: emp.ID, Date: d, IsHoliday: holidays[d], IsLeave: onLeave[d]}
		if emp.WorkWeek.Has(d.Weekday()) && !rec.IsHoliday && !rec.IsLeave {
			rec.AvailableHours = emp.DailyHours
		}
		index[d] = len(records)
		records = append(records, rec)
	}

	for _, t := range c.assignedTasks(ctx, emp.ID) {
		if !t.IsScheduled() || t.Hours() <= 0 {
			continue
		}
		dates, err := c.cal.WorkingDates(ctx, emp, *t.ScheduledStart, *t.ScheduledEnd)
		if err != nil || len(dates) == 0 {
			continue
		}
		perDay := t.Hours() / float64(len(dates))
		for _, d := range dates {
			if i, ok := index[d]; ok {
				records[i].AllocatedHours += perDay
			}
		}
	}

	for i := range records {
		if records[i].AvailableHours > 0 {
			records[i].UtilizationPercent = records[i].AllocatedHours / records[i].AvailableHours * 100
		}
	}
	return records, nil
}

// Check reports whether additional hours fit in the employee's capacity
// without crossing the overallocation threshold.
func (c *Calculator) Check(ctx context.Context, employeeID string, start, end *time.Time, additional, threshold float64) (model.CapacityCheck, error) {
	if additional < 0 {
		return model.CapacityCheck{}, apperror.Validation("checkCapacity", "hours must not be negative")
	}
	s, e := c.Window(start, end)
	res, err := c.CalculateFor(ctx, c.Profile(ctx, employeeID), s, e)
	if err != nil {
		return model.CapacityCheck{}, err
	}

	scheduled := 0.0
	for _, t := range c.assignedTasks(ctx, employeeID) {
		if t.IsScheduled() && !t.ScheduledEnd.Before(s) && !t.ScheduledStart.After(e) {
			scheduled += t.Hours()
		}
	}

	check := model.CapacityCheck{
		EmployeeID:      employeeID,
		ScheduledHours:  scheduled,
		AdditionalHours: additional,
		AvailableHours:  max(0, res.AvailableCapacity-scheduled),
	}
	if res.AvailableCapacity > 0 {
		check.UtilizationAfter = (scheduled + additional) / res.AvailableCapacity * 100
		check.CanAssign = check.UtilizationAfter <= threshold
	} else {
		check.CanAssign = scheduled+additional == 0
	}
	return check, nil
}

func (c *Calculator) assignedTasks(ctx context.Context, employeeID string) []model.Task {
	if c.tasks == nil {
		return nil
	}
	tasks, err := c.tasks.FindTasks(ctx, model.TaskFilter{Assignee: employeeID, Statuses: model.WorkloadStatuses})
	if err != nil {
		c.log.Warn().Err(err).Str("employee", employeeID).Msg("task lookup failed")
		return nil
	}
	return tasks
}
