// Package report renders workload views as terminal tables.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/roksva123/kinerja-planner/internal/model"
)

func WriteCapacity(w io.Writer, c model.CapacityResult) {
	fmt.Fprintf(w, "%s %s  %s → %s\n", Bold("Capacity"), c.EmployeeID,
		c.StartDate.Format(model.DateLayout), c.EndDate.Format(model.DateLayout))
	rows := [][2]string{
		{"working days", fmt.Sprintf("%d", c.WorkingDays)},
		{"daily hours", hoursCell(c.DailyHours)},
		{"total", hoursCell(c.TotalCapacity)},
		{"leave", hoursCell(c.LeaveHours)},
		{"available", hoursCell(c.AvailableCapacity)},
		{"availability", fmt.Sprintf("%.1f%%", c.AvailabilityPercent)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-14s %s\n", Dim(r[0]), r[1])
	}
}

// WriteWorkload prints one row per assignee bucket followed by the
// recommendations.
func WriteWorkload(w io.Writer, snap model.WorkloadSnapshot) {
	dept := snap.Department
	if dept == "" {
		dept = "all departments"
	}
	fmt.Fprintf(w, "%s %s  %s → %s\n", Bold("Workload"), dept,
		snap.StartDate.Format(model.DateLayout), snap.EndDate.Format(model.DateLayout))
	if snap.Empty() {
		fmt.Fprintln(w, Dim("  no employees or tasks"))
		return
	}

	header := fmt.Sprintf("  %-20s %9s %9s %8s %6s  %s", "ASSIGNEE", "CAPACITY", "SCHEDULED", "UTIL", "TASKS", "STATUS")
	fmt.Fprintln(w, Bold(header))
	for _, a := range snap.Assignees {
		name := a.Name
		if name == "" {
			name = a.ID
		}
		status := string(a.Classification)
		if status == "" {
			status = "-"
		}
		row := fmt.Sprintf("  %-20s %9s %9s %7.1f%% %6d  %s",
			truncate(name, 20), hoursCell(a.Capacity.AvailableCapacity), hoursCell(a.ScheduledHours),
			a.Utilization, len(a.TaskIDs), status)
		fmt.Fprintln(w, Classification(a.Classification, row))
	}

	m := snap.Metrics
	fmt.Fprintf(w, "\n  %s %s of %s (%.1f%%), σ %.1f\n", Dim("overall"),
		hoursCell(m.TotalAllocated), hoursCell(m.TotalCapacity), m.OverallUtilization, m.UtilizationStdDev)
	writeRecommendations(w, snap.Recommendations)
}

func WriteAnalysis(w io.Writer, a model.CapacityAnalysis) {
	s := a.Summary
	fmt.Fprintf(w, "%s  employees %d  tasks %d  scheduled %d  unscheduled %d\n", Bold("Analysis"),
		s.TotalEmployees, s.TotalTasks, s.ScheduledTasks, s.UnscheduledTasks)
	writeBreakdown(w, "Overallocated", a.Overallocated, Red)
	writeBreakdown(w, "Underutilized", a.Underutilized, Yellow)
	writeRecommendations(w, a.Recommendations)
}

func writeBreakdown(w io.Writer, title string, rows []model.CapacityBreakdown, paint func(a ...interface{}) string) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  %s\n", Bold(title))
	for _, r := range rows {
		fmt.Fprintln(w, paint(fmt.Sprintf("    %-20s %7.1f%%  %s free", truncate(r.Employee, 20), r.Utilization, hoursCell(r.AvailableHours))))
	}
}

func writeRecommendations(w io.Writer, recs []model.Recommendation) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  %s\n", Bold("Recommendations"))
	for _, r := range recs {
		tag := Priority(r.Priority, fmt.Sprintf("[%s]", r.Priority))
		fmt.Fprintf(w, "    %s %s\n", tag, r.Message)
	}
}

func hoursCell(h float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", h), ".0") + "h"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
