package handler

import (
	"net/http"
	"time"

	"greenidle/internal/service"
	"greenidle/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// statusPushInterval how often the websocket feed re-sends counters
const statusPushInterval = 5 * time.Second

// StatusHandler serves the public network counters
type StatusHandler struct {
	statusService *service.StatusService
	upgrader      websocket.Upgrader
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(statusService *service.StatusService) *StatusHandler {
	return &StatusHandler{
		statusService: statusService,
		upgrader: websocket.Upgrader{
			// The status feed is public read-only data, same as GET /status
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Status returns aggregate counters and the machine list
// @Summary Network status
// @Tags status
// @Produce json
// @Success 200 {object} model.StatusResponse
// @Router /status [get]
func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.statusService.Snapshot(c.Request.Context()))
}

// Stream pushes the status snapshot over a websocket until the client
// disconnects. Dashboards use this instead of polling GET /status.
func (h *StatusHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WarnCtx(c.Request.Context(), "websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	ticker := time.NewTicker(statusPushInterval)
	defer ticker.Stop()

	// First snapshot immediately, then on every tick.
	for {
		if err := conn.WriteJSON(h.statusService.Snapshot(ctx)); err != nil {
			logger.DebugCtx(ctx, "status stream closed: %v", err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
