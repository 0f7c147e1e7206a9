package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roksva123/kinerja-planner/internal/model"
	"github.com/roksva123/kinerja-planner/internal/report"
)

// seedCmd creates the tables and a small demo roster: one planner account,
// a department with three employees and a week of tasks.
func seedCmd() *cobra.Command {
	var adminID, department string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Run migrations and insert demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.repo.Close()

			ctx, cancel := commandContext()
			defer cancel()

			if err := e.repo.RunMigrations(ctx); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			if err := e.repo.UpsertUser(ctx, model.User{ID: adminID, Name: "Planner Admin", Role: "admin"}); err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			if err := e.repo.UpsertDepartment(ctx, department); err != nil {
				return fmt.Errorf("seed department: %w", err)
			}

			employees := []model.Employee{
				{ID: "emp-ayu", Name: "Ayu", Department: department, DailyHours: 8, WorkWeek: model.DefaultWorkWeek},
				{ID: "emp-bima", Name: "Bima", Department: department, DailyHours: 6, WorkWeek: model.DefaultWorkWeek},
				{ID: "emp-citra", Name: "Citra", Department: department, DailyHours: 8,
					WorkWeek: model.NewWorkWeek(time.Monday, time.Tuesday, time.Wednesday, time.Thursday)},
			}
			for _, emp := range employees {
				if err := e.repo.UpsertUser(ctx, model.User{ID: emp.ID, Name: emp.Name, Role: "member"}); err != nil {
					return fmt.Errorf("seed user %s: %w", emp.ID, err)
				}
				if err := e.repo.UpsertEmployee(ctx, emp); err != nil {
					return fmt.Errorf("seed employee %s: %w", emp.ID, err)
				}
			}

			monday := model.Day(time.Now())
			for monday.Weekday() != time.Monday {
				monday = monday.AddDate(0, 0, 1)
			}
			tasks := demoTasks(department, monday)
			for _, t := range tasks {
				if err := e.repo.InsertTask(ctx, t); err != nil {
					return fmt.Errorf("seed task %s: %w", t.ID, err)
				}
			}

			fmt.Println(report.Green("Demo data seeded."))
			fmt.Printf("  admin %s, department %s, %d employees, %d tasks\n", report.Bold(adminID), report.Bold(department), len(employees), len(tasks))
			fmt.Printf("  token: plannerctl token %s\n", adminID)
			return nil
		},
	}
	cmd.Flags().StringVar(&adminID, "admin", "admin", "ID of the planner account to create")
	cmd.Flags().StringVar(&department, "department", "Engineering", "Department for the demo roster")
	return cmd
}

func demoTasks(department string, monday time.Time) []model.Task {
	at := func(days int) *time.Time { return model.DatePtr(monday.AddDate(0, 0, days)) }
	h := func(v float64) *float64 { return &v }
	return []model.Task{
		{ID: "demo-1", Title: "API rate limiting", Status: model.StatusWorking, Priority: model.PriorityHigh, Project: "platform",
			Department: department, Assignees: []string{"emp-ayu"}, ScheduledStart: at(0), ScheduledEnd: at(3), EstimatedHours: h(30)},
		{ID: "demo-2", Title: "Billing export", Status: model.StatusOpen, Priority: model.PriorityMedium, Project: "billing",
			Department: department, Assignees: []string{"emp-ayu"}, ScheduledStart: at(2), ScheduledEnd: at(4), EstimatedHours: h(20)},
		{ID: "demo-3", Title: "Dashboard polish", Status: model.StatusOpen, Priority: model.PriorityLow, Project: "platform",
			Department: department, Assignees: []string{"emp-bima"}, ScheduledStart: at(1), ScheduledEnd: at(2), EstimatedHours: h(4)},
		{ID: "demo-4", Title: "Incident review", Status: model.StatusOpen, Priority: model.PriorityUrgent, Project: "ops",
			Department: department, EstimatedHours: h(6)},
		{ID: "demo-5", Title: "Schema migration", Status: model.StatusWorking, Priority: model.PriorityHigh, Project: "platform",
			Department: department, Assignees: []string{"emp-citra"}, ScheduledStart: at(0), ScheduledEnd: at(3), EstimatedHours: h(24)},
	}
}
