package model

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/roksva123/kinerja-planner/internal/apperror"
)

// Optional marks a field as present in an update. A present field holding
// a nil pointer clears the stored value.
type Optional[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// TaskChanges is the set of fields a caller may change through updateTask.
type TaskChanges struct {
	Status         Optional[Status]
	Priority       Optional[Priority]
	ScheduledStart Optional[*time.Time]
	ScheduledEnd   Optional[*time.Time]
	EstimatedHours Optional[*float64]
	Description    Optional[string]
}

func (c TaskChanges) Empty() bool {
	return !c.Status.Set && !c.Priority.Set && !c.ScheduledStart.Set &&
		!c.ScheduledEnd.Set && !c.EstimatedHours.Set && !c.Description.Set
}

// Apply writes the present fields onto t. The result still needs Validate.
func (c TaskChanges) Apply(t *Task) {
	if c.Status.Set {
		t.Status = c.Status.Value
	}
	if c.Priority.Set {
		t.Priority = c.Priority.Value
	}
	if c.ScheduledStart.Set {
		t.ScheduledStart = cloneTime(c.ScheduledStart.Value)
	}
	if c.ScheduledEnd.Set {
		t.ScheduledEnd = cloneTime(c.ScheduledEnd.Value)
	}
	if c.EstimatedHours.Set {
		if c.EstimatedHours.Value == nil {
			t.EstimatedHours = nil
		} else {
			h := *c.EstimatedHours.Value
			t.EstimatedHours = &h
		}
	}
	if c.Description.Set {
		t.Description = c.Description.Value
	}
}

// ParseTaskChanges decodes a JSON object of field changes. Keys outside
// the updatable set fail with an InvalidField error.
func ParseTaskChanges(raw []byte) (TaskChanges, error) {
	const op = "updateTask"
	var ch TaskChanges
	obj, err := parseObject(op, raw)
	if err != nil {
		return ch, err
	}

	obj.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "status":
			var s string
			if s, err = stringValue(op, "status", value); err == nil {
				if st := Status(s); st.Valid() {
					ch.Status = Some(st)
				} else {
					err = apperror.Validation(op, fmt.Sprintf("unknown status %q", s))
				}
			}
		case "priority":
			var s string
			if s, err = stringValue(op, "priority", value); err == nil {
				if p := Priority(s); p.Valid() {
					ch.Priority = Some(p)
				} else {
					err = apperror.Validation(op, fmt.Sprintf("unknown priority %q", s))
				}
			}
		case "scheduled_start":
			var d *time.Time
			if d, err = dateValue(op, "scheduled_start", value); err == nil {
				ch.ScheduledStart = Some(d)
			}
		case "scheduled_end":
			var d *time.Time
			if d, err = dateValue(op, "scheduled_end", value); err == nil {
				ch.ScheduledEnd = Some(d)
			}
		case "estimated_hours":
			var h *float64
			if h, err = hoursValue(op, "estimated_hours", value); err == nil {
				ch.EstimatedHours = Some(h)
			}
		case "description":
			if value.Type == gjson.Null {
				ch.Description = Some("")
			} else if value.Type == gjson.String {
				ch.Description = Some(value.String())
			} else {
				err = apperror.Validation(op, "description must be a string")
			}
		default:
			err = apperror.InvalidField(op, key.String())
		}
		return err == nil
	})
	if err != nil {
		return TaskChanges{}, err
	}
	return ch, nil
}

// TimelineChanges carries progress fields applied to an existing timeline.
type TimelineChanges struct {
	ProgressPercent  Optional[float64]
	ActualHours      Optional[float64]
	ComplexityRating Optional[int]
}

func (c TimelineChanges) Empty() bool {
	return !c.ProgressPercent.Set && !c.ActualHours.Set && !c.ComplexityRating.Set
}

func (c TimelineChanges) Apply(tl *TaskTimeline) {
	if c.ProgressPercent.Set {
		tl.ProgressPercent = c.ProgressPercent.Value
	}
	if c.ActualHours.Set {
		tl.ActualHours = c.ActualHours.Value
	}
	if c.ComplexityRating.Set {
		tl.ComplexityRating = c.ComplexityRating.Value
	}
}

func ParseTimelineChanges(raw []byte) (TimelineChanges, error) {
	const op = "updateTimeline"
	var ch TimelineChanges
	obj, err := parseObject(op, raw)
	if err != nil {
		return ch, err
	}

	obj.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.Number {
			err = apperror.Validation(op, key.String()+" must be a number")
			return false
		}
		switch key.String() {
		case "progress_percent":
			ch.ProgressPercent = Some(value.Float())
		case "actual_hours":
			ch.ActualHours = Some(value.Float())
		case "complexity_rating":
			ch.ComplexityRating = Some(int(value.Int()))
		default:
			err = apperror.InvalidField(op, key.String())
		}
		return err == nil
	})
	if err != nil {
		return TimelineChanges{}, err
	}
	return ch, nil
}

func parseObject(op string, raw []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, apperror.Validation(op, "changes must be valid JSON")
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return gjson.Result{}, apperror.Validation(op, "changes must be a JSON object")
	}
	return obj, nil
}

func stringValue(op, field string, v gjson.Result) (string, error) {
	if v.Type != gjson.String {
		return "", apperror.Validation(op, field+" must be a string")
	}
	return v.String(), nil
}

func dateValue(op, field string, v gjson.Result) (*time.Time, error) {
	switch v.Type {
	case gjson.Null:
		return nil, nil
	case gjson.String:
		if v.String() == "" {
			return nil, nil
		}
		d, err := time.Parse(DateLayout, v.String())
		if err != nil {
			return nil, apperror.Validation(op, fmt.Sprintf("%s: invalid date %q", field, v.String()))
		}
		return &d, nil
	}
	return nil, apperror.Validation(op, field+" must be a date string or null")
}

func hoursValue(op, field string, v gjson.Result) (*float64, error) {
	switch v.Type {
	case gjson.Null:
		return nil, nil
	case gjson.Number:
		h := v.Float()
		if h < 0 {
			return nil, apperror.Validation(op, field+" must not be negative")
		}
		return &h, nil
	}
	return nil, apperror.Validation(op, field+" must be a number or null")
}
