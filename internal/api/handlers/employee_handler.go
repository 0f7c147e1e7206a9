package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roksva123/kinerja-planner/internal/service"
)

// EmployeeHandler serves per-employee capacity.
type EmployeeHandler struct {
	Workload *service.WorkloadService
}

func NewEmployeeHandler(workload *service.WorkloadService) *EmployeeHandler {
	return &EmployeeHandler{Workload: workload}
}

func (h *EmployeeHandler) GetCapacity(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.Workload.EmployeeCapacity(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *EmployeeHandler) GetDailyCapacity(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}
	records, err := h.Workload.DailyCapacity(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee_id": c.Param("id"), "days": records})
}

func (h *EmployeeHandler) CheckCapacity(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}
	hours, err := floatQuery(c, "hours", 0)
	if err != nil {
		respondError(c, err)
		return
	}
	check, err := h.Workload.CheckCapacity(c.Request.Context(), c.Param("id"), start, end, hours)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}
