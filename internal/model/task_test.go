package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roksva123/kinerja-planner/internal/apperror"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestTaskValidate(t *testing.T) {
	neg := -2.0
	cases := []struct {
		name string
		task Task
		ok   bool
	}{
		{"valid", Task{Status: StatusOpen, Priority: PriorityLow}, true},
		{"same day", Task{Status: StatusOpen, Priority: PriorityLow, ScheduledStart: date(2023, 12, 1), ScheduledEnd: date(2023, 12, 1)}, true},
		{"partial schedule", Task{Status: StatusOpen, Priority: PriorityLow, ScheduledEnd: date(2023, 12, 1)}, true},
		{"end before start", Task{Status: StatusOpen, Priority: PriorityLow, ScheduledStart: date(2023, 12, 2), ScheduledEnd: date(2023, 12, 1)}, false},
		{"negative hours", Task{Status: StatusOpen, Priority: PriorityLow, EstimatedHours: &neg}, false},
		{"bad status", Task{Status: "Done", Priority: PriorityLow}, false},
		{"bad priority", Task{Status: StatusOpen, Priority: "Critical"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.task.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, apperror.ErrValidation))
		})
	}
}

func TestTaskIsOverdue(t *testing.T) {
	today := time.Date(2023, 12, 5, 15, 0, 0, 0, time.UTC)

	assert.True(t, Task{Status: StatusWorking, ScheduledEnd: date(2023, 12, 4)}.IsOverdue(today))
	assert.False(t, Task{Status: StatusWorking, ScheduledEnd: date(2023, 12, 5)}.IsOverdue(today))
	assert.False(t, Task{Status: StatusCompleted, ScheduledEnd: date(2023, 12, 1)}.IsOverdue(today))
	assert.False(t, Task{Status: StatusOpen}.IsOverdue(today))
}

func TestTaskClone(t *testing.T) {
	h := 3.0
	orig := Task{Assignees: []string{"a"}, ScheduledStart: date(2023, 1, 2), EstimatedHours: &h}
	c := orig.Clone()
	c.Assignees[0] = "b"
	*c.ScheduledStart = time.Time{}
	*c.EstimatedHours = 9

	assert.Equal(t, "a", orig.Assignees[0])
	assert.Equal(t, *date(2023, 1, 2), *orig.ScheduledStart)
	assert.Equal(t, 3.0, *orig.EstimatedHours)
}

func TestTaskFilterMatch(t *testing.T) {
	task := Task{ID: "T1", Department: "Ops", Status: StatusOverdue, Assignees: []string{"e1", "e2"}}

	assert.True(t, TaskFilter{Department: "Ops", Statuses: WorkloadStatuses}.Match(task))
	assert.False(t, TaskFilter{Department: "Sales"}.Match(task))
	assert.False(t, TaskFilter{Statuses: []Status{StatusOpen}}.Match(task))
	assert.True(t, TaskFilter{Assignee: "e1"}.Match(task))
	assert.False(t, TaskFilter{Assignee: "e2"}.Match(task))
	assert.False(t, TaskFilter{IDs: []string{"T2"}}.Match(task))
}

func TestWorkWeekJSON(t *testing.T) {
	b, err := json.Marshal(DefaultWorkWeek)
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,3,4,5]`, string(b))

	var w WorkWeek
	require.NoError(t, json.Unmarshal([]byte(`[0,6]`), &w))
	assert.True(t, w.Has(time.Sunday))
	assert.True(t, w.Has(time.Saturday))
	assert.False(t, w.Has(time.Monday))
	assert.Equal(t, NewWorkWeek(time.Sunday, time.Saturday), w)
}

func TestTimelineSyncAndValidate(t *testing.T) {
	h := 12.0
	task := Task{Priority: PriorityUrgent, Assignees: []string{"e1"}, ScheduledStart: date(2023, 12, 4), ScheduledEnd: date(2023, 12, 4), EstimatedHours: &h}

	var tl TaskTimeline
	tl.SyncFromTask(task)

	require.NoError(t, tl.Validate())
	assert.Equal(t, "e1", tl.Assignee)
	assert.Equal(t, *date(2023, 12, 5), *tl.EndDate)
	assert.Equal(t, 1, tl.DurationDays())
	assert.Equal(t, 100, tl.PriorityScore)
	assert.Equal(t, 12.0, tl.EstimatedHours)

	tl.ProgressPercent = 120
	assert.True(t, errors.Is(tl.Validate(), apperror.ErrValidation))
}
