package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roksva123/kinerja-planner/internal/calendar"
	"github.com/roksva123/kinerja-planner/internal/capacity"
	"github.com/roksva123/kinerja-planner/internal/config"
	"github.com/roksva123/kinerja-planner/internal/identity"
	"github.com/roksva123/kinerja-planner/internal/model"
	"github.com/roksva123/kinerja-planner/internal/report"
	"github.com/roksva123/kinerja-planner/internal/repository"
	"github.com/roksva123/kinerja-planner/internal/workload"
)

var (
	flagStart      string
	flagEnd        string
	flagDepartment string
	flagJSON       bool
	flagVerbose    bool
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "plannerctl",
		Short:         "Inspect team capacity and workload from the planner database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagStart, "start", "", "Window start (YYYY-MM-DD), default today")
	rootCmd.PersistentFlags().StringVar(&flagEnd, "end", "", "Window end (YYYY-MM-DD), default start + horizon")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(capacityCmd())
	rootCmd.AddCommand(workloadCmd())
	rootCmd.AddCommand(analysisCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, report.Red("error:"), err)
		os.Exit(1)
	}
}

// env holds the read side wired against Postgres.
type env struct {
	cfg  *config.Config
	repo *repository.PostgresRepo
	calc *capacity.Calculator
	agg  *workload.Aggregator
}

func open() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := zerolog.Nop()
	if flagVerbose {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	repo, err := repository.NewPostgresRepoFromConfig(&repository.DBConfig{
		URL: cfg.DatabaseURL, Host: cfg.DBHost, Port: cfg.DBPort,
		User: cfg.DBUser, Pass: cfg.DBPass, Name: cfg.DBName,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	cal := calendar.New(calendar.NewGuardedSource(repo, cfg.HolidayTimeout, log), log)
	calc := capacity.NewCalculator(repo, repo, repo, cal, capacity.Options{
		HorizonDays: cfg.PlanningHorizonDays,
		DailyHours:  cfg.DefaultDailyHours,
	}, log)
	th := workload.Thresholds{
		Overallocated: cfg.OverallocatedThreshold,
		Underutilized: cfg.UnderutilizedThreshold,
		Imbalance:     cfg.ImbalanceThreshold,
	}
	ids := identity.NewService(repo, cfg.WriteRoles, log)
	agg := workload.NewAggregator(repo, repo, ids, calc, th, cfg.AggregateWorkers, log)
	return &env{cfg: cfg, repo: repo, calc: calc, agg: agg}, nil
}

func window() (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if flagStart != "" {
		d, err := model.ParseDate(flagStart)
		if err != nil {
			return nil, nil, fmt.Errorf("--start: %w", err)
		}
		start = &d
	}
	if flagEnd != "" {
		d, err := model.ParseDate(flagEnd)
		if err != nil {
			return nil, nil, fmt.Errorf("--end: %w", err)
		}
		end = &d
	}
	return start, end, nil
}

func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Minute)
}
