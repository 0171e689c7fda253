package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseguide-backend/internal/http/response"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
	"github.com/yungbote/courseguide-backend/internal/realtime"
)

const streamBuffer = 16

type RealtimeHandler struct {
	log       *logger.Logger
	hub       *realtime.Hub
	heartbeat time.Duration
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub) *RealtimeHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &RealtimeHandler{
		log:       log.With("handler", "RealtimeHandler"),
		hub:       hub,
		heartbeat: 15 * time.Second,
	}
}

// Stream serves GET /api/course-guide/stream?userId= as server-sent events
// until the client goes away.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	userID, ok := authorizeUser(c, c.Query("userId"))
	if !ok {
		return
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		response.RespondMessage(c, http.StatusBadRequest, "Missing userId")
		return
	}
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.RespondMessage(c, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	events := make(chan realtime.Event, streamBuffer)
	unsubscribe := h.hub.Subscribe(userID, func(ev realtime.Event) {
		select {
		case events <- ev:
		default:
			h.log.Warn("dropping change event; stream buffer full", "user_id", userID)
		}
	})
	defer unsubscribe()

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	h.log.Debug("change feed stream open", "user_id", userID)
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("change feed stream closed", "user_id", userID, "err", ctx.Err())
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-events:
			raw, err := json.Marshal(ev)
			if err != nil {
				h.log.Warn("failed to marshal change event", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, raw)
			flusher.Flush()
		}
	}
}
