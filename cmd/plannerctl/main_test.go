package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowFlags(t *testing.T) {
	t.Cleanup(func() { flagStart, flagEnd = "", "" })

	flagStart, flagEnd = "2024-03-01", ""
	start, end, err := window()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *start)
	assert.Nil(t, end)

	flagEnd = "03/08/2024"
	_, _, err = window()
	assert.ErrorContains(t, err, "--end")
}

func TestDemoTasksAreValid(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tasks := demoTasks("Engineering", monday)
	require.NotEmpty(t, tasks)
	for _, task := range tasks {
		assert.NoError(t, task.Validate(), task.ID)
		assert.Equal(t, "Engineering", task.Department)
	}
}
