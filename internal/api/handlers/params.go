package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roksva123/kinerja-planner/internal/apperror"
	"github.com/roksva123/kinerja-planner/internal/model"
)

// dateRange reads the optional start and end query parameters.
func dateRange(c *gin.Context) (start, end *time.Time, err error) {
	if start, err = optionalDate(c.Query("start"), "start"); err != nil {
		return nil, nil, err
	}
	if end, err = optionalDate(c.Query("end"), "end"); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func optionalDate(value, name string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return nil, apperror.Validation("parseQuery", "invalid "+name+" date, use YYYY-MM-DD")
	}
	return &d, nil
}

func floatQuery(c *gin.Context, name string, def float64) (float64, error) {
	value := c.Query(name)
	if value == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, apperror.Validation("parseQuery", name+" must be a number")
	}
	return f, nil
}
