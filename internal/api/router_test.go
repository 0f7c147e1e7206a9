package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roksva123/kinerja-planner/internal/api/handlers"
	"github.com/roksva123/kinerja-planner/internal/cache"
	"github.com/roksva123/kinerja-planner/internal/calendar"
	"github.com/roksva123/kinerja-planner/internal/capacity"
	"github.com/roksva123/kinerja-planner/internal/identity"
	"github.com/roksva123/kinerja-planner/internal/metrics"
	"github.com/roksva123/kinerja-planner/internal/model"
	"github.com/roksva123/kinerja-planner/internal/realtime"
	"github.com/roksva123/kinerja-planner/internal/repository/memory"
	"github.com/roksva123/kinerja-planner/internal/service"
	"github.com/roksva123/kinerja-planner/internal/workload"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

type testServer struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := memory.New()
	s.PutUser(model.User{ID: "boss", Role: "manager"})
	s.PutUser(model.User{ID: "viewer", Role: "member"})
	s.PutEmployee(model.Employee{ID: "E1", Name: "Eka", Department: "Ops", DailyHours: 8, WorkWeek: model.DefaultWorkWeek})
	s.PutEmployee(model.Employee{ID: "E2", Name: "Dwi", Department: "Ops", DailyHours: 8, WorkWeek: model.DefaultWorkWeek})
	h := 10.0
	s.PutTask(model.Task{
		ID: "T1", Title: "Deploy", Status: model.StatusOpen, Priority: model.PriorityHigh, Department: "Ops",
		Assignees: []string{"E1"}, ScheduledStart: ptr(day(2023, 12, 4)), ScheduledEnd: ptr(day(2023, 12, 5)), EstimatedHours: &h,
	})
	s.PutTask(model.Task{ID: "T2", Title: "Review", Status: model.StatusWorking, Priority: model.PriorityLow, Department: "Ops"})

	log := zerolog.Nop()
	m := metrics.New()
	now := func() time.Time { return day(2023, 12, 1) }
	cal := calendar.New(s, log)
	calc := capacity.NewCalculator(s, s, s, cal, capacity.Options{Now: now}, log)
	ids := identity.NewService(s, []string{"manager"}, log)
	agg := workload.NewAggregator(s, s, ids, calc, workload.DefaultThresholds(), 2, log)
	reads := service.NewWorkloadService(agg, calc, cache.NewLocalCache(32, time.Minute), time.Minute, m, log)

	reg := realtime.NewRegistry(realtime.Options{}, log)
	t.Cleanup(reg.Close)
	tasks, err := service.NewTaskService(service.TaskDeps{
		Tasks: s, Timelines: s, Employees: s, Auth: ids,
		Notifier: service.NewNotifier(reg, s, m, log),
		Cache:    reads, Capacity: calc, Metrics: m,
	}, log)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		JWTSecret: secret,
		Metrics:   m.Handler(),
		Workload:  handlers.NewWorkloadHandler(reads),
		Employees: handlers.NewEmployeeHandler(reads),
		Tasks:     handlers.NewTaskHandler(tasks),
		Realtime:  handlers.NewRealtimeHandler(realtime.NewServer(reg, nil, log)),
		Health:    &handlers.HealthHandler{Sessions: reg.SessionCount},
	}, log)
	return &testServer{router: router, store: s}
}

func (ts *testServer) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		tok, err := identity.IssueToken(secret, user, "", time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestUnauthenticatedRoutes(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/v1/workload", "", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/healthz", "", "").Code)

	w := ts.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestGetWorkloadRoute(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/workload?department=Ops&start=2023-12-04&end=2023-12-08", "viewer", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap model.WorkloadSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "Ops", snap.Department)
	assert.Len(t, snap.Tasks, 2)
	assert.Len(t, snap.Assignees, 3)

	w = ts.do(t, http.MethodGet, "/api/v1/workload?start=2023-12-08&end=2023-12-04", "viewer", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/workload?start=04-12-2023", "viewer", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/workload/analysis?department=Ops&start=2023-12-04&end=2023-12-08", "viewer", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/workload/stats?department=Ops", "viewer", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
}

func TestCapacityRoutes(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/employees/E1/capacity?start=2023-12-01&end=2023-12-04", "viewer", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res model.CapacityResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.WorkingDays)
	assert.Equal(t, 16.0, res.TotalCapacity)

	w = ts.do(t, http.MethodGet, "/api/v1/employees/E1/capacity/daily?start=2023-12-04&end=2023-12-05", "viewer", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/employees/E1/capacity/check?start=2023-12-04&end=2023-12-05&hours=abc", "viewer", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/employees/E1/capacity/check?start=2023-12-04&end=2023-12-05&hours=20", "viewer", "")
	require.Equal(t, http.StatusOK, w.Code)
	var check model.CapacityCheck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &check))
	assert.False(t, check.CanAssign)
}

func TestUpdateTaskRoute(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPatch, "/api/v1/tasks/T1", "boss", `{"status":"Working"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Working"`)

	w = ts.do(t, http.MethodPatch, "/api/v1/tasks/T1", "boss", `{"title":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"title"`)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPatch, "/api/v1/tasks/T1", "viewer", `{"status":"Open"}`).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPatch, "/api/v1/tasks/T404", "boss", `{"status":"Open"}`).Code)
}

func TestMoveTaskRoute(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/tasks/T1/move", "boss", `{"assignee_id":"E2","start_date":"2023-12-06","end_date":"2023-12-07"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res service.MoveResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, []string{"E2"}, res.Task.Assignees)

	w = ts.do(t, http.MethodPost, "/api/v1/tasks/T1/move", "boss", `{"assignee_id":"ghost"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/tasks/T1/move", "boss", `{"start_date":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/tasks/T1/move", "boss", `{"start_date":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	stored, err := ts.store.GetTask(t.Context(), "T1")
	require.NoError(t, err)
	assert.Nil(t, stored.ScheduledStart)
	assert.Equal(t, []string{"E2"}, stored.Assignees)
}

func TestBatchAndDependencyRoutes(t *testing.T) {
	ts := newTestServer(t)

	body := `{"updates":[
		{"task_id":"T1","changes":{"priority":"Low"}},
		{"task_id":"T404","changes":{"priority":"Low"}},
		{"task_id":"T2","changes":{"status":"Completed"}}
	]}`
	w := ts.do(t, http.MethodPost, "/api/v1/tasks/batch", "boss", body)
	require.Equal(t, http.StatusOK, w.Code)
	var res handlers.BatchUpdateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, 2, res.Updated)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/v1/tasks/batch", "boss", `{"updates":"x"}`).Code)

	ts.store.PutTimeline(model.TaskTimeline{TaskID: "T1", Dependencies: []string{"T2"}})
	w = ts.do(t, http.MethodGet, "/api/v1/tasks/T1/dependencies", "viewer", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"task_id":"T1","can_start":true,"blocking":[]}`, w.Body.String())
}
