package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/roksva123/kinerja-planner/internal/model"
)

type DBConfig struct {
	URL  string
	Host string
	Port string
	User string
	Pass string
	Name string
}

func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Pass, c.Name)
}

type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepoFromConfig(cfg *DBConfig) (*PostgresRepo, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	// ping
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresRepo{DB: db}, nil
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

func (r *PostgresRepo) Close() error {
	return r.DB.Close()
}

func (r *PostgresRepo) RunMigrations(ctx context.Context) error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
		`CREATE TABLE IF NOT EXISTS departments (
            name TEXT PRIMARY KEY,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT,
            role TEXT NOT NULL DEFAULT 'member',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
        );`,
		`CREATE TABLE IF NOT EXISTS employees (
            id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
            name TEXT NOT NULL,
            department TEXT REFERENCES departments(name) ON DELETE SET NULL,
            daily_hours DOUBLE PRECISION NOT NULL DEFAULT 8,
            work_week SMALLINT NOT NULL DEFAULT 62,
            active BOOLEAN NOT NULL DEFAULT true
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'Open',
            priority TEXT NOT NULL DEFAULT 'Medium',
            project TEXT NOT NULL DEFAULT '',
            department TEXT NOT NULL DEFAULT '',
            assignees TEXT[] NOT NULL DEFAULT '{}',
            scheduled_start DATE,
            scheduled_end DATE,
            estimated_hours DOUBLE PRECISION,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
            modified_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
            version BIGINT NOT NULL DEFAULT 1
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_department_status ON tasks(department, status);`,
		`CREATE TABLE IF NOT EXISTS task_timelines (
            id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
            task_id TEXT UNIQUE NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
            assignee TEXT NOT NULL DEFAULT '',
            start_date TIMESTAMP WITH TIME ZONE,
            end_date TIMESTAMP WITH TIME ZONE,
            estimated_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
            actual_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
            progress_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
            priority_score INT NOT NULL DEFAULT 50,
            complexity_rating INT NOT NULL DEFAULT 0,
            dependencies TEXT[] NOT NULL DEFAULT '{}',
            modified_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
            version BIGINT NOT NULL DEFAULT 1
        );`,
		`CREATE TABLE IF NOT EXISTS leave_applications (
            id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
            employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
            from_date DATE NOT NULL,
            to_date DATE NOT NULL,
            total_leave_days DOUBLE PRECISION NOT NULL,
            status TEXT NOT NULL DEFAULT 'Open'
        );`,
		`CREATE TABLE IF NOT EXISTS holidays (
            id BIGSERIAL PRIMARY KEY,
            employee_id TEXT REFERENCES employees(id) ON DELETE CASCADE,
            holiday_date DATE NOT NULL,
            description TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS workload_events (
            id UUID PRIMARY KEY,
            event_type TEXT NOT NULL,
            task_id TEXT NOT NULL DEFAULT '',
            user_id TEXT NOT NULL DEFAULT '',
            department TEXT NOT NULL DEFAULT '',
            data JSONB,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
        );`,
	}

	for _, q := range queries {
		if _, err := r.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

const taskColumns = `id, title, description, status, priority, project, department, assignees,
        scheduled_start, scheduled_end, estimated_hours, created_at, modified_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.Task, error) {
	var (
		t          model.Task
		assignees  []string
		start, end sql.NullTime
		hours      sql.NullFloat64
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Project, &t.Department,
		pq.Array(&assignees), &start, &end, &hours, &t.CreatedAt, &t.ModifiedAt, &t.Version,
	)
	if err != nil {
		return t, err
	}
	t.Assignees = assignees
	if t.Assignees == nil {
		t.Assignees = []string{}
	}
	if start.Valid {
		t.ScheduledStart = model.DatePtr(start.Time)
	}
	if end.Valid {
		t.ScheduledEnd = model.DatePtr(end.Time)
	}
	if hours.Valid {
		h := hours.Float64
		t.EstimatedHours = &h
	}
	return t, nil
}

func (r *PostgresRepo) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

func (r *PostgresRepo) FindTasks(ctx context.Context, f model.TaskFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	args := []any{}
	idx := 1

	if f.Department != "" {
		query += fmt.Sprintf(" AND department = $%d", idx)
		args = append(args, f.Department)
		idx++
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		query += fmt.Sprintf(" AND status = ANY($%d)", idx)
		args = append(args, pq.Array(statuses))
		idx++
	}
	if f.Assignee != "" {
		query += fmt.Sprintf(" AND assignees[1] = $%d", idx)
		args = append(args, f.Assignee)
		idx++
	}
	if len(f.IDs) > 0 {
		query += fmt.Sprintf(" AND id = ANY($%d)", idx)
		args = append(args, pq.Array(f.IDs))
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *PostgresRepo) SaveTask(ctx context.Context, t model.Task) (model.Task, error) {
	var version int64
	err := r.DB.QueryRowContext(ctx, `
        UPDATE tasks SET
            title = $2, description = $3, status = $4, priority = $5, project = $6,
            department = $7, assignees = $8, scheduled_start = $9, scheduled_end = $10,
            estimated_hours = $11, modified_at = $12, version = version + 1
        WHERE id = $1 AND version = $13
        RETURNING version
    `,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.Project,
		t.Department, pq.Array(t.Assignees), nullTime(t.ScheduledStart), nullTime(t.ScheduledEnd),
		nullFloat(t.EstimatedHours), t.ModifiedAt, t.Version,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, r.missingOrStale(ctx, "tasks", t.ID)
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("save task %s: %w", t.ID, err)
	}
	t.Version = version
	return t, nil
}

// InsertTask is used by seeding and imports; the planner never creates tasks.
func (r *PostgresRepo) InsertTask(ctx context.Context, t model.Task) error {
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO tasks (id, title, description, status, priority, project, department, assignees,
            scheduled_start, scheduled_end, estimated_hours)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (id) DO NOTHING
    `,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.Project, t.Department,
		pq.Array(t.Assignees), nullTime(t.ScheduledStart), nullTime(t.ScheduledEnd), nullFloat(t.EstimatedHours),
	)
	return err
}

func (r *PostgresRepo) missingOrStale(ctx context.Context, table, id string) error {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check %s %s: %w", table, id, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionMismatch
}

const timelineColumns = `id, task_id, assignee, start_date, end_date, estimated_hours, actual_hours,
        progress_percent, priority_score, complexity_rating, dependencies, modified_at, version`

func (r *PostgresRepo) GetTimelineByTask(ctx context.Context, taskID string) (model.TaskTimeline, error) {
	var (
		tl         model.TaskTimeline
		start, end sql.NullTime
		deps       []string
	)
	err := r.DB.QueryRowContext(ctx, `SELECT `+timelineColumns+` FROM task_timelines WHERE task_id = $1`, taskID).Scan(
		&tl.ID, &tl.TaskID, &tl.Assignee, &start, &end, &tl.EstimatedHours, &tl.ActualHours,
		&tl.ProgressPercent, &tl.PriorityScore, &tl.ComplexityRating, pq.Array(&deps), &tl.ModifiedAt, &tl.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TaskTimeline{}, ErrNotFound
	}
	if err != nil {
		return model.TaskTimeline{}, fmt.Errorf("get timeline for %s: %w", taskID, err)
	}
	if start.Valid {
		s := start.Time.UTC()
		tl.StartDate = &s
	}
	if end.Valid {
		e := end.Time.UTC()
		tl.EndDate = &e
	}
	tl.Dependencies = deps
	return tl, nil
}

func (r *PostgresRepo) SaveTimeline(ctx context.Context, tl model.TaskTimeline) (model.TaskTimeline, error) {
	var version int64
	err := r.DB.QueryRowContext(ctx, `
        UPDATE task_timelines SET
            assignee = $2, start_date = $3, end_date = $4, estimated_hours = $5, actual_hours = $6,
            progress_percent = $7, priority_score = $8, complexity_rating = $9, dependencies = $10,
            modified_at = $11, version = version + 1
        WHERE id = $1 AND version = $12
        RETURNING version
    `,
		tl.ID, tl.Assignee, nullTime(tl.StartDate), nullTime(tl.EndDate), tl.EstimatedHours, tl.ActualHours,
		tl.ProgressPercent, tl.PriorityScore, tl.ComplexityRating, pq.Array(tl.Dependencies),
		tl.ModifiedAt, tl.Version,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TaskTimeline{}, r.missingOrStale(ctx, "task_timelines", tl.ID)
	}
	if err != nil {
		return model.TaskTimeline{}, fmt.Errorf("save timeline %s: %w", tl.ID, err)
	}
	tl.Version = version
	return tl, nil
}

// CreateTimeline relies on the unique task_id to detect a concurrent insert.
func (r *PostgresRepo) CreateTimeline(ctx context.Context, tl model.TaskTimeline) (model.TaskTimeline, error) {
	err := r.DB.QueryRowContext(ctx, `
        INSERT INTO task_timelines (
            task_id, assignee, start_date, end_date, estimated_hours, actual_hours,
            progress_percent, priority_score, complexity_rating, dependencies, modified_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (task_id) DO NOTHING
        RETURNING id, version
    `,
		tl.TaskID, tl.Assignee, nullTime(tl.StartDate), nullTime(tl.EndDate), tl.EstimatedHours, tl.ActualHours,
		tl.ProgressPercent, tl.PriorityScore, tl.ComplexityRating, pq.Array(tl.Dependencies), tl.ModifiedAt,
	).Scan(&tl.ID, &tl.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TaskTimeline{}, ErrVersionMismatch
	}
	if err != nil {
		return model.TaskTimeline{}, fmt.Errorf("create timeline for %s: %w", tl.TaskID, err)
	}
	return tl, nil
}

func (r *PostgresRepo) ListEmployees(ctx context.Context, department string) ([]model.Employee, error) {
	query := `SELECT id, name, COALESCE(department, ''), daily_hours, work_week FROM employees WHERE active`
	args := []any{}
	if department != "" {
		query += " AND department = $1"
		args = append(args, department)
	}
	query += " ORDER BY name, id"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	employees := []model.Employee{}
	for rows.Next() {
		var e model.Employee
		var week int16
		if err := rows.Scan(&e.ID, &e.Name, &e.Department, &e.DailyHours, &week); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		e.WorkWeek = model.WorkWeek(week)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *PostgresRepo) GetEmployee(ctx context.Context, id string) (model.Employee, error) {
	var e model.Employee
	var week int16
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(department, ''), daily_hours, work_week FROM employees WHERE id = $1 AND active`, id,
	).Scan(&e.ID, &e.Name, &e.Department, &e.DailyHours, &week)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Employee{}, ErrNotFound
	}
	if err != nil {
		return model.Employee{}, fmt.Errorf("get employee %s: %w", id, err)
	}
	e.WorkWeek = model.WorkWeek(week)
	return e, nil
}

func (r *PostgresRepo) DepartmentExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM departments WHERE name = $1)`, name).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) UpsertDepartment(ctx context.Context, name string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO departments (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	return err
}

func (r *PostgresRepo) UpsertEmployee(ctx context.Context, e model.Employee) error {
	e = e.Normalized()
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO employees (id, name, department, daily_hours, work_week)
        VALUES ($1,$2,NULLIF($3, ''),$4,$5)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            department = EXCLUDED.department,
            daily_hours = EXCLUDED.daily_hours,
            work_week = EXCLUDED.work_week
    `, e.ID, e.Name, e.Department, e.DailyHours, int16(e.WorkWeek))
	return err
}

func (r *PostgresRepo) ApprovedLeaves(ctx context.Context, employeeID string, start, end time.Time) ([]model.LeaveApplication, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, employee_id, from_date, to_date, total_leave_days, status
        FROM leave_applications
        WHERE employee_id = $1 AND status = $2 AND from_date <= $4 AND to_date >= $3
        ORDER BY from_date, id
    `, employeeID, model.LeaveApproved, model.Day(start), model.Day(end))
	if err != nil {
		return nil, fmt.Errorf("approved leaves: %w", err)
	}
	defer rows.Close()

	leaves := []model.LeaveApplication{}
	for rows.Next() {
		var l model.LeaveApplication
		if err := rows.Scan(&l.ID, &l.EmployeeID, &l.FromDate, &l.ToDate, &l.Days, &l.Status); err != nil {
			return nil, fmt.Errorf("scan leave: %w", err)
		}
		leaves = append(leaves, l)
	}
	return leaves, rows.Err()
}

// HolidaysFor returns company-wide and employee-specific holidays in range.
func (r *PostgresRepo) HolidaysFor(ctx context.Context, employeeID string, start, end time.Time) ([]time.Time, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT holiday_date FROM holidays
        WHERE (employee_id IS NULL OR employee_id = $1) AND holiday_date BETWEEN $2 AND $3
        ORDER BY holiday_date
    `, employeeID, model.Day(start), model.Day(end))
	if err != nil {
		return nil, fmt.Errorf("holidays: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, model.Day(d))
	}
	return days, rows.Err()
}

func (r *PostgresRepo) RecordEvent(ctx context.Context, e model.WorkloadEvent) error {
	var data any
	if len(e.Data) > 0 {
		data = []byte(e.Data)
	}
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO workload_events (id, event_type, task_id, user_id, department, data, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, e.ID, string(e.Type), e.TaskID, e.UserID, e.Department, data, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("record event %s: %w", e.Type, err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

var _ Store = (*PostgresRepo)(nil)
