// Package realtime fans out workload events to connected planner clients.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roksva123/kinerja-planner/internal/model"
)

const GlobalRoom = "workload_global"

func DepartmentRoom(dept string) string { return "workload_" + dept }
func UserRoom(userID string) string     { return "user_" + userID }
func ProjectRoom(project string) string { return "project_" + project }

var (
	ErrUnknownSession = errors.New("realtime: unknown session")
	ErrInvalidRoom    = errors.New("realtime: invalid room")
	ErrClosed         = errors.New("realtime: registry closed")
)

// Envelope is the frame delivered to clients.
type Envelope struct {
	ID        string          `json:"id"`
	Event     model.EventType `json:"event"`
	Room      string          `json:"room"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type Session struct {
	ID       string
	UserID   string
	send     chan []byte
	rooms    map[string]struct{}
	lastSeen time.Time
}

// Send yields frames for the session; it is closed when the session ends.
func (s *Session) Send() <-chan []byte {
	return s.send
}

type Options struct {
	IdleTimeout time.Duration
	SendBuffer  int
	Now         func() time.Time
	// OnSessions is called with the session count after it changes.
	OnSessions func(n int)
}

// Registry owns session and room membership. It is created at server start
// and closed at shutdown.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rooms    map[string]map[string]struct{}
	closed   bool

	idle       time.Duration
	buffer     int
	now        func() time.Time
	onSessions func(int)
	log        zerolog.Logger
}

func NewRegistry(opts Options, log zerolog.Logger) *Registry {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Minute
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		sessions:   make(map[string]*Session),
		rooms:      make(map[string]map[string]struct{}),
		idle:       opts.IdleTimeout,
		buffer:     opts.SendBuffer,
		now:        opts.Now,
		onSessions: opts.OnSessions,
		log:        log.With().Str("component", "realtime").Logger(),
	}
}

// Register creates a session joined to the global room and the user's room.
func (r *Registry) Register(userID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	s := &Session{
		ID:       uuid.NewString(),
		UserID:   userID,
		send:     make(chan []byte, r.buffer),
		rooms:    make(map[string]struct{}),
		lastSeen: r.now(),
	}
	r.sessions[s.ID] = s
	r.joinLocked(s, GlobalRoom)
	if userID != "" {
		r.joinLocked(s, UserRoom(userID))
	}
	r.notifyLocked()
	r.log.Debug().Str("session", s.ID).Str("user", userID).Msg("session registered")
	return s, nil
}

func (r *Registry) Join(sessionID, room string) error {
	if !validRoom(room) {
		return ErrInvalidRoom
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return ErrUnknownSession
	}
	r.joinLocked(s, room)
	s.lastSeen = r.now()
	return nil
}

func (r *Registry) Leave(sessionID, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return ErrUnknownSession
	}
	r.leaveLocked(s, room)
	s.lastSeen = r.now()
	return nil
}

func (r *Registry) Touch(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.lastSeen = r.now()
	}
}

func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		r.removeLocked(s)
		r.notifyLocked()
	}
}

// Expire drops sessions idle longer than the idle timeout and returns how
// many were removed.
func (r *Registry) Expire() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.idle)
	n := 0
	for _, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			r.removeLocked(s)
			n++
		}
	}
	if n > 0 {
		r.notifyLocked()
		r.log.Info().Int("expired", n).Msg("expired idle sessions")
	}
	return n
}

// Run expires idle sessions periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Expire()
		}
	}
}

func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		r.removeLocked(s)
	}
	r.closed = true
	r.notifyLocked()
}

func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Members lists the session ids in room, sorted.
func (r *Registry) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rooms[room]))
	for id := range r.rooms[room] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Rooms(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(s.rooms))
	for room := range s.rooms {
		out = append(out, room)
	}
	sort.Strings(out)
	return out
}

// Publish delivers an event to every session in room. Slow sessions whose
// buffer is full miss the frame.
func (r *Registry) Publish(_ context.Context, room string, event model.EventType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Envelope{
		ID:        uuid.NewString(),
		Event:     event,
		Room:      room,
		Data:      data,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}
	dropped := 0
	for id := range r.rooms[room] {
		select {
		case r.sessions[id].send <- frame:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		r.log.Warn().Str("room", room).Int("dropped", dropped).Msg("slow sessions skipped")
	}
	return nil
}

func (r *Registry) joinLocked(s *Session, room string) {
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[room] = members
	}
	members[s.ID] = struct{}{}
	s.rooms[room] = struct{}{}
}

func (r *Registry) leaveLocked(s *Session, room string) {
	delete(s.rooms, room)
	if members, ok := r.rooms[room]; ok {
		delete(members, s.ID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

func (r *Registry) removeLocked(s *Session) {
	for room := range s.rooms {
		r.leaveLocked(s, room)
	}
	delete(r.sessions, s.ID)
	close(s.send)
}

func (r *Registry) notifyLocked() {
	if r.onSessions != nil {
		r.onSessions(len(r.sessions))
	}
}

func validRoom(room string) bool {
	if room == GlobalRoom {
		return true
	}
	for _, prefix := range []string{"workload_", "user_", "project_"} {
		if strings.HasPrefix(room, prefix) && len(room) > len(prefix) {
			return true
		}
	}
	return false
}
