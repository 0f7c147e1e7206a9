package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roksva123/kinerja-planner/internal/apperror"
)

// respondError maps service errors onto HTTP statuses. Unknown errors are
// reported as 500 without leaking their text.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindInvalidField, apperror.KindInvalidAssignee:
		status = http.StatusBadRequest
	case apperror.KindPermission:
		status = http.StatusForbidden
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindConflict:
		status = http.StatusConflict
	}

	body := gin.H{"error": "internal error"}
	var e *apperror.Error
	if status != http.StatusInternalServerError && errors.As(err, &e) {
		body["error"] = e.Error()
		body["kind"] = e.Kind.String()
		if e.Field != "" {
			body["field"] = e.Field
		}
	}
	c.AbortWithStatusJSON(status, body)
}
