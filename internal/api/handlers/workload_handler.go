package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roksva123/kinerja-planner/internal/service"
)

type WorkloadHandler struct {
	Workload *service.WorkloadService
}

func NewWorkloadHandler(workload *service.WorkloadService) *WorkloadHandler {
	return &WorkloadHandler{Workload: workload}
}

// GET /workload?department=&start=&end=
func (h *WorkloadHandler) GetWorkload(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}
	snap, err := h.Workload.GetWorkload(c.Request.Context(), c.Query("department"), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GET /workload/analysis?department=&start=&end=
func (h *WorkloadHandler) GetAnalysis(c *gin.Context) {
	start, end, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}
	analysis, err := h.Workload.GetCapacityAnalysis(c.Request.Context(), c.Query("department"), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// GET /workload/stats?department=
func (h *WorkloadHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Workload.TaskStats(c.Request.Context(), c.Query("department")))
}
