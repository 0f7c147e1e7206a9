package realtime

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
)

const writeTimeout = 10 * time.Second

// ClientMessage is what a client may send over the socket.
type ClientMessage struct {
	Action string `json:"action"`
	Room   string `json:"room,omitempty"`
}

type ackMessage struct {
	Action string   `json:"action"`
	OK     bool     `json:"ok"`
	Error  string   `json:"error,omitempty"`
	Rooms  []string `json:"rooms,omitempty"`
}

// Server upgrades HTTP requests into registry sessions.
type Server struct {
	registry       *Registry
	originPatterns []string
	log            zerolog.Logger
}

func NewServer(reg *Registry, originPatterns []string, log zerolog.Logger) *Server {
	return &Server{registry: reg, originPatterns: originPatterns, log: log.With().Str("component", "ws").Logger()}
}

// Serve runs the session for userID until the client disconnects.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	sess, err := s.registry.Register(userID)
	if err != nil {
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	defer s.registry.Remove(sess.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(ctx, conn, sess)
	}()

	s.readLoop(ctx, conn, sess)
	cancel()
	<-done
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, sess *Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-sess.Send():
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "session closed")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				s.log.Debug().Err(err).Str("session", sess.ID).Msg("write failed")
				return
			}
		}
	}
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, sess *Session) {
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				s.log.Debug().Err(err).Str("session", sess.ID).Msg("read failed")
			}
			return
		}
		s.registry.Touch(sess.ID)

		ack := ackMessage{Action: msg.Action, OK: true}
		switch msg.Action {
		case "join":
			err := s.registry.Join(sess.ID, msg.Room)
			if err != nil {
				ack.OK, ack.Error = false, err.Error()
			}
		case "leave":
			err := s.registry.Leave(sess.ID, msg.Room)
			if err != nil {
				ack.OK, ack.Error = false, err.Error()
			}
		case "ping":
		default:
			ack.OK, ack.Error = false, "unknown action"
		}
		ack.Rooms = s.registry.Rooms(sess.ID)

		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := wsjson.Write(wctx, conn, ack)
		cancel()
		if err != nil {
			return
		}
	}
}
