package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roksva123/kinerja-planner/internal/metrics"
	"github.com/roksva123/kinerja-planner/internal/model"
	"github.com/roksva123/kinerja-planner/internal/realtime"
	"github.com/roksva123/kinerja-planner/internal/repository"
)

// Publisher is the real-time sink.
type Publisher interface {
	Publish(ctx context.Context, room string, event model.EventType, payload any) error
}

// Notifier emits best-effort side effects of a mutation: real-time frames
// and an audit row. Failures are logged and counted, never returned.
type Notifier struct {
	pub     Publisher
	events  repository.EventStore
	metrics *metrics.Metrics
	now     func() time.Time
	log     zerolog.Logger
}

func NewNotifier(pub Publisher, events repository.EventStore, m *metrics.Metrics, log zerolog.Logger) *Notifier {
	return &Notifier{pub: pub, events: events, metrics: m, now: time.Now, log: log.With().Str("component", "notifier").Logger()}
}

type notice struct {
	event      model.EventType
	rooms      []string
	taskID     string
	department string
	userID     string
	payload    any
}

func (n *Notifier) emit(ctx context.Context, nt notice) {
	if n == nil {
		return
	}
	if n.pub != nil {
		for _, room := range dedupe(nt.rooms) {
			if err := n.pub.Publish(ctx, room, nt.event, nt.payload); err != nil {
				n.metrics.NotifyFailed("realtime")
				n.log.Warn().Err(err).Str("room", room).Str("event", string(nt.event)).Msg("publish failed")
			}
		}
	}
	if n.events == nil {
		return
	}
	data, err := json.Marshal(nt.payload)
	if err != nil {
		data = nil
	}
	ev := model.WorkloadEvent{
		ID:         uuid.NewString(),
		Type:       nt.event,
		TaskID:     nt.taskID,
		UserID:     nt.userID,
		Department: nt.department,
		Data:       data,
		CreatedAt:  n.now().UTC(),
	}
	if err := n.events.RecordEvent(ctx, ev); err != nil {
		n.metrics.NotifyFailed("events")
		n.log.Warn().Err(err).Str("event", string(nt.event)).Msg("recording workload event failed")
	}
}

// taskRooms lists every room interested in a change to t.
func taskRooms(t model.Task, extraAssignees ...string) []string {
	rooms := []string{realtime.GlobalRoom}
	if t.Department != "" {
		rooms = append(rooms, realtime.DepartmentRoom(t.Department))
	}
	if a := t.PrimaryAssignee(); a != "" {
		rooms = append(rooms, realtime.UserRoom(a))
	}
	for _, a := range extraAssignees {
		if a != "" && a != model.Unassigned {
			rooms = append(rooms, realtime.UserRoom(a))
		}
	}
	if t.Project != "" {
		rooms = append(rooms, realtime.ProjectRoom(t.Project))
	}
	return rooms
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
