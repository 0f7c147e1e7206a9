package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubtypesMatchValidation(t *testing.T) {
	err := InvalidField("updateTask", "title")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(err, ErrInvalidField))
	assert.False(t, errors.Is(err, ErrInvalidAssignee))
	assert.False(t, errors.Is(err, ErrConflict))

	assert.True(t, errors.Is(InvalidAssignee("moveTask", "ghost"), ErrValidation))
	assert.False(t, errors.Is(ErrValidation, ErrInvalidField))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("moveTask", errors.New("stale")))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "updateTask: title: field is not updatable", InvalidField("updateTask", "title").Error())
	assert.Equal(t, "moveTask: task not found", NotFound("moveTask", "task").Error())
}
