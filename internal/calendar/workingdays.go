// Package calendar counts working days for an employee over a date range.
package calendar

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/roksva123/kinerja-planner/internal/apperror"
	"github.com/roksva123/kinerja-planner/internal/model"
)

// HolidaySource lists non-working dates for an employee. Implementations may
// return duplicates or dates outside the range; both are ignored.
type HolidaySource interface {
	HolidaysFor(ctx context.Context, employeeID string, start, end time.Time) ([]time.Time, error)
}

// HolidayFunc adapts a plain function to HolidaySource.
type HolidayFunc func(ctx context.Context, employeeID string, start, end time.Time) ([]time.Time, error)

func (f HolidayFunc) HolidaysFor(ctx context.Context, employeeID string, start, end time.Time) ([]time.Time, error) {
	return f(ctx, employeeID, start, end)
}

// Calendar counts working days against a work week and a holiday source.
type Calendar struct {
	holidays HolidaySource
	log      zerolog.Logger
}

// New returns a Calendar. holidays may be nil, in which case only the work
// week is applied.
func New(holidays HolidaySource, log zerolog.Logger) *Calendar {
	return &Calendar{holidays: holidays, log: log.With().Str("component", "calendar").Logger()}
}

// CountWorkingDays counts the employee's working days in [start, end]. It
// fails with a validation error when start is after end.
func (c *Calendar) CountWorkingDays(ctx context.Context, emp model.Employee, start, end time.Time) (int, error) {
	if err := checkRange("countWorkingDays", start, end); err != nil {
		return 0, err
	}
	return Count(emp.Normalized().WorkWeek, start, end, c.Holidays(ctx, emp.ID, start, end)), nil
}

// WorkingDates lists the days CountWorkingDays would count.
func (c *Calendar) WorkingDates(ctx context.Context, emp model.Employee, start, end time.Time) ([]time.Time, error) {
	if err := checkRange("workingDates", start, end); err != nil {
		return nil, err
	}
	return Dates(emp.Normalized().WorkWeek, start, end, c.Holidays(ctx, emp.ID, start, end)), nil
}

// Holidays returns the in-range holiday set for employeeID. A failing source
// yields an empty set.
func (c *Calendar) Holidays(ctx context.Context, employeeID string, start, end time.Time) map[time.Time]bool {
	set := make(map[time.Time]bool)
	if c.holidays == nil || employeeID == model.Unassigned {
		return set
	}
	days, err := c.holidays.HolidaysFor(ctx, employeeID, model.Day(start), model.Day(end))
	if err != nil {
		c.log.Warn().Err(err).Str("employee", employeeID).Msg("holiday source unavailable, using work week only")
		return set
	}
	first, last := model.Day(start), model.Day(end)
	for _, d := range days {
		d = model.Day(d)
		if d.Before(first) || d.After(last) {
			continue
		}
		set[d] = true
	}
	return set
}

// Count counts days in [start, end] that fall in week and are not holidays.
func Count(week model.WorkWeek, start, end time.Time, holidays map[time.Time]bool) int {
	n := 0
	each(start, end, func(d time.Time) {
		if week.Has(d.Weekday()) && !holidays[d] {
			n++
		}
	})
	return n
}

// Dates lists the days in [start, end] that Count would count.
func Dates(week model.WorkWeek, start, end time.Time, holidays map[time.Time]bool) []time.Time {
	out := []time.Time{}
	each(start, end, func(d time.Time) {
		if week.Has(d.Weekday()) && !holidays[d] {
			out = append(out, d)
		}
	})
	return out
}

func each(start, end time.Time, fn func(time.Time)) {
	last := model.Day(end)
	for d := model.Day(start); !d.After(last); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

func checkRange(op string, start, end time.Time) error {
	if model.Day(start).After(model.Day(end)) {
		return apperror.Validation(op, "start date is after end date")
	}
	return nil
}
