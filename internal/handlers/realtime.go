package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/hvacquote/internal/realtime"
	"github.com/charlesng35/hvacquote/pkg/errors"
	"github.com/charlesng35/hvacquote/pkg/response"
)

// RealtimeHandler upgrades HTTP connections into WebSocket status streams.
type RealtimeHandler struct {
	hub *realtime.Hub
}

// NewRealtimeHandler constructs a realtime handler.
func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Stream subscribes the caller to the comma separated `streams` query parameter, defaulting
// to every stream.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	streams := []string{realtime.StreamNetwork, realtime.StreamCache}
	if raw := strings.TrimSpace(c.Query("streams")); raw != "" {
		streams = strings.Split(raw, ",")
	}

	h.hub.Serve(streams, c.Writer, c.Request)
}
