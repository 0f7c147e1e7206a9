package model

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventTaskUpdate      EventType = "task_update"
	EventTaskMoved       EventType = "task_moved"
	EventBatchTaskUpdate EventType = "batch_task_update"
	EventWorkloadAlert   EventType = "workload_alert"
	EventUserActivity    EventType = "user_activity"
)

// WorkloadEvent is an audit row appended after every mutation.
type WorkloadEvent struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	TaskID     string          `json:"task_id,omitempty"`
	UserID     string          `json:"user_id"`
	Department string          `json:"department,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
