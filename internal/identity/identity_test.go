package identity

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roksva123/kinerja-planner/internal/model"
	"github.com/roksva123/kinerja-planner/internal/repository/memory"
)

func TestCanWriteByRole(t *testing.T) {
	store := memory.New()
	store.PutUser(model.User{ID: "boss", Role: "manager"})
	store.PutUser(model.User{ID: "dev", Role: "member"})
	svc := NewService(store, []string{"admin", "manager"}, zerolog.Nop())
	ctx := context.Background()

	assert.True(t, svc.CanWrite(ctx, EntityTask, "boss"))
	assert.True(t, svc.CanWrite(ctx, EntityTimeline, "boss"))
	assert.False(t, svc.CanWrite(ctx, EntityTask, "dev"))
	assert.False(t, svc.CanWrite(ctx, EntityTask, "nobody"))
	assert.False(t, svc.CanWrite(ctx, "Employee", "boss"))
}

func TestResolveUser(t *testing.T) {
	store := memory.New()
	store.PutUser(model.User{ID: "u1", Role: "member"})
	svc := NewService(store, nil, zerolog.Nop())

	assert.True(t, svc.ResolveUser(context.Background(), "u1"))
	assert.False(t, svc.ResolveUser(context.Background(), "u2"))
	assert.False(t, svc.ResolveUser(context.Background(), ""))
}

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserFromContext(WithUser(context.Background(), "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", id)
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := IssueToken("secret", "u1", "planner", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "planner", claims.Role)

	_, err = ParseToken("other", tok)
	assert.Error(t, err)

	expired, err := IssueToken("secret", "u1", "planner", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.Error(t, err)
}
