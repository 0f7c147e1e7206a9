package model

import "time"

type LeaveApplication struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	FromDate   time.Time `json:"from_date"`
	ToDate     time.Time `json:"to_date"`
	Days       float64   `json:"days"`
	Status     string    `json:"status"`
}

const LeaveApproved = "Approved"

type CapacityResult struct {
	EmployeeID          string    `json:"employee_id"`
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	WorkingDays         int       `json:"working_days"`
	DailyHours          float64   `json:"daily_hours"`
	TotalCapacity       float64   `json:"total_capacity"`
	LeaveHours          float64   `json:"leave_hours"`
	AvailableCapacity   float64   `json:"available_capacity"`
	AvailabilityPercent float64   `json:"availability_percent"`
}

// CapacityRecord is a per-day projection recomputed from tasks on demand.
type CapacityRecord struct {
	EmployeeID         string    `json:"employee_id"`
	Date               time.Time `json:"date"`
	AvailableHours     float64   `json:"available_hours"`
	AllocatedHours     float64   `json:"allocated_hours"`
	UtilizationPercent float64   `json:"utilization_percent"`
	IsHoliday          bool      `json:"is_holiday"`
	IsLeave            bool      `json:"is_leave"`
}

type CapacityCheck struct {
	EmployeeID       string  `json:"employee_id"`
	CanAssign        bool    `json:"can_assign"`
	ScheduledHours   float64 `json:"scheduled_hours"`
	AdditionalHours  float64 `json:"additional_hours"`
	AvailableHours   float64 `json:"available_hours"`
	UtilizationAfter float64 `json:"utilization_after"`
}
