package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sql.DB and the cache backends.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	DB       Pinger
	Cache    Pinger
	Sessions func() int
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	res := HealthResponse{Status: "ok", Database: "skipped", Cache: "skipped"}
	if h.DB != nil {
		res.Database = "ok"
		if err := h.DB.PingContext(ctx); err != nil {
			res.Database = "down"
			res.Status = "degraded"
		}
	}
	if h.Cache != nil {
		res.Cache = "ok"
		if err := h.Cache.PingContext(ctx); err != nil {
			res.Cache = "down"
		}
	}
	if h.Sessions != nil {
		res.Sessions = h.Sessions()
	}

	status := http.StatusOK
	if res.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, res)
}
