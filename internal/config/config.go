package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// APP
	AppEnv   string
	Port     string
	LogLevel string

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPass      string
	DBName      string

	JWTSecret  string
	WriteRoles []string

	// Cache: redis | memory | none
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	CacheSize     int

	// Workload settings, utilization in percent
	OverallocatedThreshold float64
	UnderutilizedThreshold float64
	ImbalanceThreshold     float64
	DefaultDailyHours      float64
	PlanningHorizonDays    int
	AggregateWorkers       int

	HolidayTimeout     time.Duration
	SessionIdleTimeout time.Duration
	AllowedOrigins     []string
}

func Load() (*Config, error) {
	cfg := &Config{
		// App
		AppEnv:   getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8001"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// DB
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "127.0.0.1"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPass:      getEnv("DB_PASS", ""),
		DBName:      getEnv("DB_NAME", "planner_db"),

		// JWT
		JWTSecret:  getEnv("JWT_SECRET", ""),
		WriteRoles: getEnvList("WRITE_ROLES", []string{"admin", "manager", "planner"}),

		// Cache
		CacheBackend:  getEnv("CACHE_BACKEND", "memory"),
		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 300*time.Second),
		CacheSize:     getEnvInt("CACHE_SIZE", 512),

		// Workload settings
		OverallocatedThreshold: getEnvFloat("OVERALLOCATED_THRESHOLD", 120),
		UnderutilizedThreshold: getEnvFloat("UNDERUTILIZED_THRESHOLD", 70),
		ImbalanceThreshold:     getEnvFloat("IMBALANCE_THRESHOLD", 30),
		DefaultDailyHours:      getEnvFloat("DEFAULT_DAILY_HOURS", 8),
		PlanningHorizonDays:    getEnvInt("PLANNING_HORIZON_DAYS", 30),
		AggregateWorkers:       getEnvInt("AGGREGATE_WORKERS", 8),

		HolidayTimeout:     getEnvDuration("HOLIDAY_TIMEOUT", 2*time.Second),
		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		AllowedOrigins:     getEnvList("ALLOWED_ORIGINS", []string{"*"}),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) validate() error {
	switch c.CacheBackend {
	case "redis", "memory", "none":
	default:
		return fmt.Errorf("config: CACHE_BACKEND must be redis, memory or none, got %q", c.CacheBackend)
	}
	if c.UnderutilizedThreshold >= c.OverallocatedThreshold {
		return fmt.Errorf("config: UNDERUTILIZED_THRESHOLD (%v) must be below OVERALLOCATED_THRESHOLD (%v)", c.UnderutilizedThreshold, c.OverallocatedThreshold)
	}
	if c.DefaultDailyHours <= 0 || c.DefaultDailyHours > 24 {
		return fmt.Errorf("config: DEFAULT_DAILY_HOURS must be in (0, 24], got %v", c.DefaultDailyHours)
	}
	if c.PlanningHorizonDays <= 0 {
		return fmt.Errorf("config: PLANNING_HORIZON_DAYS must be positive, got %d", c.PlanningHorizonDays)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required in production")
	}
	if c.JWTSecret == "" {
		c.JWTSecret = "dev-secret"
	}
	return nil
}

// getEnv returns environment variable or default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFloat returns float from env or default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
