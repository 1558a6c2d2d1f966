package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"plant_telemetry/internal/engine"
	"plant_telemetry/internal/service"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Live plant view
// @Description  Upgrades to a WebSocket and pushes the plant view whenever one of its version counters changes.
// @Tags         plants
// @Param        plant_id     query  int     true   "Plant ID"
// @Param        token        query  string  false  "Bearer token (alternative to the Authorization header)"
// @Param        interval     query  string  false  "Check interval, e.g. 500ms (max 10s)"
// @Param        interval_ms  query  int     false  "Check interval in milliseconds"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	userID, err := h.wsUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	plantID, err := strconv.ParseInt(c.Query("plant_id"), 10, 64)
	if err != nil || plantID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidPlantID})
		return
	}
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	stream := viewStream{userID: userID, plantID: plantID}

	// Send initial view immediately.
	if err := h.sendView(ctx, conn, &stream); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "plant_id", plantID, "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendView(ctx, conn, &stream); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "plant_id", plantID, "err", err)
				}
				return
			}
		}
	}
}

// wsUser authenticates the upgrade request from the Authorization header or
// the token query parameter.
func (h *Handler) wsUser(c *gin.Context) (int, error) {
	token := c.Query("token")
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return 0, errors.New("invalid Authorization header format")
		}
		token = parts[1]
	}
	if token == "" {
		return 0, errors.New("missing token")
	}
	id, err := h.services.ParseToken(token)
	if err != nil {
		return 0, errors.New("invalid or expired token")
	}
	return id, nil
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// viewStream remembers what was last pushed to one connection.
type viewStream struct {
	userID   int
	plantID  int64
	sent     bool
	epoch    uint64
	versions engine.Versions
}

// changed reports whether v differs from what was last sent.
func (s *viewStream) changed(v engine.PlantView) bool {
	return !s.sent || v.Epoch != s.epoch || v.Versions != s.versions
}

// sendView writes the plant view when it changed since the last write. A
// plant that no longer exists ends the stream with an error envelope.
func (h *Handler) sendView(ctx context.Context, conn *websocket.Conn, s *viewStream) error {
	v, err := h.services.Monitoring.PlantView(ctx, s.userID, s.plantID)
	if err != nil {
		if h.log != nil {
			h.log.Infow("ws_get_view_failed", "plant_id", s.plantID, "err", err)
		}
		msg := errLoadView
		if errors.Is(err, service.ErrPlantNotFound) {
			msg = errPlantNotFound
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(wsEnvelope{Type: "error", Error: msg})
		return err
	}
	if !s.changed(v) {
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(wsEnvelope{Type: "view", Data: v}); err != nil {
		return err
	}
	s.sent, s.epoch, s.versions = true, v.Epoch, v.Versions
	return nil
}
