package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/roksva123/kinerja-planner/internal/api"
	"github.com/roksva123/kinerja-planner/internal/api/handlers"
	"github.com/roksva123/kinerja-planner/internal/cache"
	"github.com/roksva123/kinerja-planner/internal/calendar"
	"github.com/roksva123/kinerja-planner/internal/capacity"
	"github.com/roksva123/kinerja-planner/internal/config"
	"github.com/roksva123/kinerja-planner/internal/identity"
	"github.com/roksva123/kinerja-planner/internal/metrics"
	"github.com/roksva123/kinerja-planner/internal/realtime"
	"github.com/roksva123/kinerja-planner/internal/repository"
	"github.com/roksva123/kinerja-planner/internal/service"
	"github.com/roksva123/kinerja-planner/internal/workload"
)

func main() {

	// LOAD ENV
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed load config:", err)
		os.Exit(1)
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// INIT DB
	repo, err := repository.NewPostgresRepoFromConfig(&repository.DBConfig{
		URL:  cfg.DatabaseURL,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer repo.Close()

	// MIGRATIONS
	if err := repo.RunMigrations(ctx); err != nil {
		log.Fatal().Err(err).Msg("migration error")
	}

	m := metrics.New()
	store, cachePinger := newCache(cfg, log)
	defer store.Close()

	// SERVICES
	holidays := calendar.NewGuardedSource(repo, cfg.HolidayTimeout, log)
	cal := calendar.New(holidays, log)
	calc := capacity.NewCalculator(repo, repo, repo, cal, capacity.Options{
		HorizonDays: cfg.PlanningHorizonDays,
		DailyHours:  cfg.DefaultDailyHours,
	}, log)
	ids := identity.NewService(repo, cfg.WriteRoles, log)
	thresholds := workload.Thresholds{
		Overallocated: cfg.OverallocatedThreshold,
		Underutilized: cfg.UnderutilizedThreshold,
		Imbalance:     cfg.ImbalanceThreshold,
	}
	agg := workload.NewAggregator(repo, repo, ids, calc, thresholds, cfg.AggregateWorkers, log)
	reads := service.NewWorkloadService(agg, calc, store, cfg.CacheTTL, m, log)

	reg := realtime.NewRegistry(realtime.Options{
		IdleTimeout: cfg.SessionIdleTimeout,
		OnSessions:  m.SetSessions,
	}, log)
	defer reg.Close()
	go reg.Run(ctx)

	tasks, err := service.NewTaskService(service.TaskDeps{
		Tasks:          repo,
		Timelines:      repo,
		Employees:      repo,
		Auth:           ids,
		Notifier:       service.NewNotifier(reg, repo, m, log),
		Cache:          reads,
		Capacity:       calc,
		Metrics:        m,
		AlertThreshold: thresholds.Overallocated,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("task service")
	}

	// HANDLERS
	health := &handlers.HealthHandler{DB: repo.DB, Sessions: reg.SessionCount}
	if cachePinger != nil {
		health.Cache = cachePinger
	}

	// ROUTER
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        m.Handler(),
		Workload:       handlers.NewWorkloadHandler(reads),
		Employees:      handlers.NewEmployeeHandler(reads),
		Tasks:          handlers.NewTaskHandler(tasks),
		Realtime:       handlers.NewRealtimeHandler(realtime.NewServer(reg, cfg.AllowedOrigins, log)),
		Health:         health,
	}, log)

	// START SERVER
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Str("cache", cfg.CacheBackend).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	var log zerolog.Logger
	if cfg.IsProduction() {
		log = zerolog.New(os.Stdout)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	return log.Level(level).With().Timestamp().Str("service", "planner").Logger()
}

// newCache picks the backend from CACHE_BACKEND. A redis backend that
// cannot be reached falls back to the in-process cache.
func newCache(cfg *config.Config, log zerolog.Logger) (cache.Cache, handlers.Pinger) {
	switch cfg.CacheBackend {
	case "redis":
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Address:   cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Namespace: "planner:",
		})
		if err == nil {
			return rc, rc
		}
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-process cache")
	case "none":
		return cache.Nop{}, nil
	}
	return cache.NewLocalCache(cfg.CacheSize, cfg.CacheTTL), nil
}
