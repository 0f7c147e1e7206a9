package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roksva123/kinerja-planner/internal/model"
)

func TestServerSession(t *testing.T) {
	reg := NewRegistry(Options{}, zerolog.Nop())
	defer reg.Close()
	srv := NewServer(reg, nil, zerolog.Nop())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.Serve(w, r, "u1")
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Action: "join", Room: "workload_Ops"}))
	var ack ackMessage
	require.NoError(t, wsjson.Read(ctx, conn, &ack))
	assert.True(t, ack.OK)
	assert.Contains(t, ack.Rooms, "workload_Ops")

	require.NoError(t, reg.Publish(ctx, "workload_Ops", model.EventTaskMoved, map[string]string{"task_id": "T1"}))
	var env Envelope
	require.NoError(t, wsjson.Read(ctx, conn, &env))
	assert.Equal(t, model.EventTaskMoved, env.Event)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Action: "dance"}))
	require.NoError(t, wsjson.Read(ctx, conn, &ack))
	assert.False(t, ack.OK)

	conn.Close(websocket.StatusNormalClosure, "")
	assert.Eventually(t, func() bool { return reg.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
