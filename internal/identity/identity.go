// Package identity answers who is acting and what they may write.
package identity

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/roksva123/kinerja-planner/internal/model"
	"github.com/roksva123/kinerja-planner/internal/repository"
)

const (
	EntityTask     = "Task"
	EntityTimeline = "TaskTimeline"
)

type ctxKey struct{}

// WithUser stores the acting user id on ctx.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func UserFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (model.User, error)
}

type Service struct {
	users      UserStore
	writeRoles map[string]bool
	log        zerolog.Logger
}

func NewService(users UserStore, writeRoles []string, log zerolog.Logger) *Service {
	roles := make(map[string]bool, len(writeRoles))
	for _, r := range writeRoles {
		roles[r] = true
	}
	return &Service{users: users, writeRoles: roles, log: log.With().Str("component", "identity").Logger()}
}

func (s *Service) CurrentUser(ctx context.Context) (string, bool) {
	return UserFromContext(ctx)
}

// ResolveUser reports whether id names a known user. Lookup failures count
// as unknown.
func (s *Service) ResolveUser(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	_, err := s.users.GetUser(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Warn().Err(err).Str("user", id).Msg("user lookup failed")
	}
	return err == nil
}

func (s *Service) CanWrite(ctx context.Context, entity, userID string) bool {
	if entity != EntityTask && entity != EntityTimeline {
		return false
	}
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Err(err).Str("user", userID).Msg("user lookup failed")
		}
		return false
	}
	return s.writeRoles[u.Role]
}
