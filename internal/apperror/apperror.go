// Package apperror defines the error kinds surfaced by planner operations.
package apperror

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error categories a caller can observe.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindInvalidField
	KindInvalidAssignee
	KindPermission
	KindConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidField:
		return "invalid_field"
	case KindInvalidAssignee:
		return "invalid_assignee"
	case KindPermission:
		return "permission"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// IsValidation reports whether k is Validation or one of its subtypes.
func (k Kind) IsValidation() bool {
	return k == KindValidation || k == KindInvalidField || k == KindInvalidAssignee
}

type Error struct {
	Kind  Kind
	Op    string
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the package sentinels by kind, so errors.Is(err, ErrValidation)
// also holds for InvalidField and InvalidAssignee errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Msg != "" || t.Field != "" {
		return false
	}
	if t.Kind == KindValidation {
		return e.Kind.IsValidation()
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrInvalidField    = &Error{Kind: KindInvalidField}
	ErrInvalidAssignee = &Error{Kind: KindInvalidAssignee}
	ErrPermission      = &Error{Kind: KindPermission}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrNotFound        = &Error{Kind: KindNotFound}
)

func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

func InvalidField(op, field string) error {
	return &Error{Kind: KindInvalidField, Op: op, Field: field, Msg: "field is not updatable"}
}

func InvalidAssignee(op, assignee string) error {
	return &Error{Kind: KindInvalidAssignee, Op: op, Field: "assignee", Msg: fmt.Sprintf("unknown employee %q", assignee)}
}

func Permission(op, msg string) error {
	return &Error{Kind: KindPermission, Op: op, Msg: msg}
}

func Conflict(op string, err error) error {
	return &Error{Kind: KindConflict, Op: op, Msg: "document was modified concurrently", Err: err}
}

func NotFound(op, what string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: what + " not found"}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
