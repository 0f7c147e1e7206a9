package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/roksva123/kinerja-planner/internal/api/middleware"
	"github.com/roksva123/kinerja-planner/internal/apperror"
	"github.com/roksva123/kinerja-planner/internal/model"
	"github.com/roksva123/kinerja-planner/internal/service"
)

type TaskHandler struct {
	Tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{Tasks: tasks}
}

// PATCH /tasks/:id with a JSON object of field changes.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, apperror.Validation("updateTask", "unreadable body"))
		return
	}
	changes, err := model.ParseTaskChanges(body)
	if err != nil {
		respondError(c, err)
		return
	}
	task, err := h.Tasks.UpdateTask(c.Request.Context(), c.Param("id"), changes, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// POST /tasks/:id/move
//
//	{"assignee_id": "E1" | "unassigned", "start_date": "2024-01-02", "end_date": null}
//
// A missing assignee_id keeps the assignment. Missing or null dates clear
// the schedule.
func (h *TaskHandler) MoveTask(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, apperror.Validation("moveTask", "unreadable body"))
		return
	}
	req, err := parseMoveRequest(c.Param("id"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.Tasks.MoveTask(c.Request.Context(), req, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func parseMoveRequest(taskID string, body []byte) (service.MoveRequest, error) {
	const op = "moveTask"
	req := service.MoveRequest{TaskID: taskID}
	if len(body) == 0 {
		return req, nil
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return req, apperror.Validation(op, "body must be a JSON object")
	}
	doc := gjson.ParseBytes(body)

	if a := doc.Get("assignee_id"); a.Exists() && a.Type != gjson.Null {
		if a.Type != gjson.String {
			return req, apperror.Validation(op, "assignee_id must be a string")
		}
		id := a.String()
		req.AssigneeID = &id
	}
	var err error
	if req.StartDate, err = bodyDate(op, doc, "start_date"); err != nil {
		return req, err
	}
	if req.EndDate, err = bodyDate(op, doc, "end_date"); err != nil {
		return req, err
	}
	return req, nil
}

func bodyDate(op string, doc gjson.Result, key string) (*time.Time, error) {
	v := doc.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if v.Type != gjson.String {
		return nil, apperror.Validation(op, key+" must be a date string")
	}
	d, err := model.ParseDate(v.String())
	if err != nil {
		return nil, apperror.Validation(op, "invalid "+key+", use YYYY-MM-DD")
	}
	return &d, nil
}

type batchRequest struct {
	Updates []service.BatchItem `json:"updates" binding:"required"`
}

// POST /tasks/batch
func (h *TaskHandler) BatchUpdate(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperror.Validation("batchUpdateTasks", "invalid request: "+err.Error()))
		return
	}
	updated, err := h.Tasks.BatchUpdateTasks(c.Request.Context(), req.Updates, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, BatchUpdateResponse{
		Requested: len(req.Updates),
		Updated:   len(updated),
		Tasks:     updated,
	})
}

// GET /tasks/:id/dependencies
func (h *TaskHandler) GetDependencies(c *gin.Context) {
	res, err := h.Tasks.CheckDependencies(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
