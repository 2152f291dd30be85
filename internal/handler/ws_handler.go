package handler

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-gateway/internal/middleware"
	ws "github.com/unisphere/exam-gateway/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams attempt snapshots to the browser and accepts
// select/navigate/submit actions over the same connection. The countdown the
// student sees is pushed from here every second; it is a view of the
// controller's clock, never a second clock.
type WSHandler struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/attempts/:attempt_id/stream
func (h *WSHandler) AttemptStream(c *gin.Context) {
	ctrl := middleware.GetAttempt(c)
	if ctrl == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attempt not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("attempt_id", ctrl.ID()).Logger()
	wsLog.Info().Msg("Attempt stream connected")

	// gorilla/websocket allows one concurrent writer; the pusher goroutine
	// and the action loop share this mutex.
	var writeMu sync.Mutex
	write := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return ws.WriteTyped(conn, v)
	}

	// Snapshot pusher: one frame per second until the attempt is terminal
	// or the connection dies.
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				snap := ctrl.Snapshot()
				if err := write(ws.SnapshotResponse{Event: ws.EventSnapshot, Snapshot: snap}); err != nil {
					return
				}
				if snap.State.Terminal() {
					return
				}
			}
		}
	}()

	// Initial frame so the client renders without waiting a second.
	_ = write(ws.SnapshotResponse{Event: ws.EventSnapshot, Snapshot: ctrl.Snapshot()})

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			_ = write(ws.PongResponse{Event: ws.EventPong})

		case ws.ActionSelect:
			if err := ctrl.SelectOption(msg.QuestionID, msg.OptionID); err != nil {
				_ = write(ws.ErrorResponse{Event: ws.EventError, Error: err.Error()})
				continue
			}
			_ = write(ws.SnapshotResponse{Event: ws.EventSnapshot, Snapshot: ctrl.Snapshot()})

		case ws.ActionNavigate:
			switch msg.Move {
			case "next":
				ctrl.Next()
			case "previous":
				ctrl.Previous()
			case "jump":
				ctrl.MoveTo(msg.Index)
			}
			_ = write(ws.SnapshotResponse{Event: ws.EventSnapshot, Snapshot: ctrl.Snapshot()})

		case ws.ActionSubmit:
			if err := ctrl.Submit(c.Request.Context()); err != nil {
				_ = write(ws.ErrorResponse{Event: ws.EventError, Error: err.Error()})
				continue
			}
			_ = write(ws.SnapshotResponse{Event: ws.EventSnapshot, Snapshot: ctrl.Snapshot()})

		default:
			_ = write(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action"})
		}
	}
}
