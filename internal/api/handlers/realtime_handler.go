package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roksva123/kinerja-planner/internal/api/middleware"
	"github.com/roksva123/kinerja-planner/internal/realtime"
)

type RealtimeHandler struct {
	Server *realtime.Server
}

func NewRealtimeHandler(server *realtime.Server) *RealtimeHandler {
	return &RealtimeHandler{Server: server}
}

// GET /ws upgrades to a websocket session for the authenticated user.
func (h *RealtimeHandler) Connect(c *gin.Context) {
	user := middleware.UserID(c)
	if user == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return
	}
	h.Server.Serve(c.Writer, c.Request, user)
}
