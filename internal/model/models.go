package model

import (
	"fmt"
	"time"

	"github.com/roksva123/kinerja-planner/internal/apperror"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperror.Validation("parseDate", fmt.Sprintf("invalid date %q, use YYYY-MM-DD", s))
	}
	return t, nil
}

func DatePtr(t time.Time) *time.Time {
	d := Day(t)
	return &d
}

func invalid(field, format string, args ...any) error {
	return &apperror.Error{Kind: apperror.KindValidation, Field: field, Msg: fmt.Sprintf(format, args...)}
}
