package model

import (
	"encoding/json"
	"time"
)

const DefaultDailyHours = 8.0

// WorkWeek is a set of working weekdays, bit i standing for time.Weekday(i).
type WorkWeek uint8

const DefaultWorkWeek = WorkWeek(1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday)

func NewWorkWeek(days ...time.Weekday) WorkWeek {
	var w WorkWeek
	for _, d := range days {
		w |= 1 << d
	}
	return w
}

func (w WorkWeek) Has(d time.Weekday) bool {
	return w&(1<<d) != 0
}

func (w WorkWeek) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

func (w WorkWeek) MarshalJSON() ([]byte, error) {
	days := make([]int, 0, 7)
	for _, d := range w.Days() {
		days = append(days, int(d))
	}
	return json.Marshal(days)
}

func (w *WorkWeek) UnmarshalJSON(b []byte) error {
	var days []int
	if err := json.Unmarshal(b, &days); err != nil {
		return err
	}
	*w = 0
	for _, d := range days {
		if d >= 0 && d <= 6 {
			*w |= 1 << d
		}
	}
	return nil
}

type Employee struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Department string   `json:"department"`
	DailyHours float64  `json:"daily_hours"`
	WorkWeek   WorkWeek `json:"work_week"`
}

// DefaultProfile is used whenever an employee's configuration cannot be resolved.
func DefaultProfile(id string) Employee {
	return Employee{ID: id, Name: id, DailyHours: DefaultDailyHours, WorkWeek: DefaultWorkWeek}
}

// Normalized fills unset working-hours fields with the defaults.
func (e Employee) Normalized() Employee {
	if e.DailyHours <= 0 {
		e.DailyHours = DefaultDailyHours
	}
	if e.WorkWeek == 0 {
		e.WorkWeek = DefaultWorkWeek
	}
	return e
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
