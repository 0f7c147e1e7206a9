package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roksva123/kinerja-planner/internal/config"
	"github.com/roksva123/kinerja-planner/internal/identity"
	"github.com/roksva123/kinerja-planner/internal/report"
)

func capacityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capacity <employee-id>",
		Short: "Show an employee's capacity for the window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window()
			if err != nil {
				return err
			}
			e, err := open()
			if err != nil {
				return err
			}
			defer e.repo.Close()

			ctx, cancel := commandContext()
			defer cancel()
			res, err := e.calc.Calculate(ctx, args[0], start, end)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(res)
			}
			report.WriteCapacity(os.Stdout, res)
			return nil
		},
	}
}

func workloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workload",
		Short: "Show per-assignee utilization for a department",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window()
			if err != nil {
				return err
			}
			e, err := open()
			if err != nil {
				return err
			}
			defer e.repo.Close()

			ctx, cancel := commandContext()
			defer cancel()
			snap, err := e.agg.GetWorkload(ctx, flagDepartment, start, end)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(snap)
			}
			report.WriteWorkload(os.Stdout, snap)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagDepartment, "department", "", "Department name, all when empty")
	return cmd
}

func analysisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Summarize over and under allocation with recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window()
			if err != nil {
				return err
			}
			e, err := open()
			if err != nil {
				return err
			}
			defer e.repo.Close()

			ctx, cancel := commandContext()
			defer cancel()
			analysis, err := e.agg.GetCapacityAnalysis(ctx, flagDepartment, start, end)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(analysis)
			}
			report.WriteAnalysis(os.Stdout, analysis)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagDepartment, "department", "", "Department name, all when empty")
	return cmd
}

func tokenCmd() *cobra.Command {
	var role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an API token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			tok, err := identity.IssueToken(cfg.JWTSecret, args[0], role, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role claim, informational only")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
