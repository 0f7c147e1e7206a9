package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roksva123/kinerja-planner/internal/api/handlers"
	"github.com/roksva123/kinerja-planner/internal/api/middleware"
)

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	Metrics        http.Handler

	Workload  *handlers.WorkloadHandler
	Employees *handlers.EmployeeHandler
	Tasks     *handlers.TaskHandler
	Realtime  *handlers.RealtimeHandler
	Health    *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig, log zerolog.Logger) *gin.Engine {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowsAll(origins),
		MaxAge:           12 * time.Hour,
	}))

	if cfg.Health != nil {
		r.GET("/healthz", cfg.Health.Health)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := r.Group("/api/v1", middleware.JWTAuth(cfg.JWTSecret))

	// WORKLOAD ROUTES
	workload := api.Group("/workload")
	{
		workload.GET("", cfg.Workload.GetWorkload)
		workload.GET("/analysis", cfg.Workload.GetAnalysis)
		workload.GET("/stats", cfg.Workload.GetStats)
	}

	// EMPLOYEE CAPACITY ROUTES
	emp := api.Group("/employees")
	{
		emp.GET("/:id/capacity", cfg.Employees.GetCapacity)
		emp.GET("/:id/capacity/daily", cfg.Employees.GetDailyCapacity)
		emp.GET("/:id/capacity/check", cfg.Employees.CheckCapacity)
	}

	// TASK ROUTES
	tasks := api.Group("/tasks")
	{
		tasks.POST("/batch", cfg.Tasks.BatchUpdate)
		tasks.PATCH("/:id", cfg.Tasks.UpdateTask)
		tasks.POST("/:id/move", cfg.Tasks.MoveTask)
		tasks.GET("/:id/dependencies", cfg.Tasks.GetDependencies)
	}

	if cfg.Realtime != nil {
		api.GET("/ws", cfg.Realtime.Connect)
	}
	return r
}

func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
