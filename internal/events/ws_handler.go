package events

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"typst-relay/internal/httpx/response"
	"typst-relay/internal/logger"
)

const (
	// MaxConcurrentConnections is the maximum number of simultaneous status streams
	MaxConcurrentConnections = 16

	// WriteTimeout is the timeout for writing one event
	WriteTimeout = 5 * time.Second
)

// WSHandler streams hub events over a websocket.
type WSHandler struct {
	hub            *Hub
	originPatterns []string
	activeConns    int32
	log            zerolog.Logger
}

// NewWSHandler creates a status stream handler. originPatterns are host
// patterns accepted in the Origin header.
func NewWSHandler(hub *Hub, originPatterns []string) *WSHandler {
	return &WSHandler{
		hub:            hub,
		originPatterns: originPatterns,
		log:            logger.WithComponent("WS"),
	}
}

// Handle handles GET /ws/status.
func (h *WSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if atomic.LoadInt32(&h.activeConns) >= MaxConcurrentConnections {
		response.TooManyConnections(w)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	atomic.AddInt32(&h.activeConns, 1)
	defer atomic.AddInt32(&h.activeConns, -1)

	// The client never sends anything; CloseRead handles control frames and
	// cancels ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())

	connectionID, stream, cancel := h.hub.Subscribe()
	defer cancel()

	if err := h.send(ctx, conn, Event{
		ID:           uuid.NewString(),
		Type:         TypeReady,
		Time:         time.Now().UTC(),
		ConnectionID: connectionID,
	}); err != nil {
		h.log.Debug().Err(err).Msg("websocket write failed")
		return
	}
	h.log.Debug().Str("connection", connectionID).Msg("status stream opened")

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-stream:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := h.send(ctx, conn, e); err != nil {
				h.log.Debug().Err(err).Str("connection", connectionID).Msg("websocket write failed")
				return
			}
		}
	}
}

func (h *WSHandler) send(ctx context.Context, conn *websocket.Conn, e Event) error {
	writeCtx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, e)
}

// ActiveConnections returns the number of open status streams
func (h *WSHandler) ActiveConnections() int {
	return int(atomic.LoadInt32(&h.activeConns))
}

// Shutdown closes the hub and waits for streams to drain or ctx to expire.
func (h *WSHandler) Shutdown(ctx context.Context) {
	h.hub.Close()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if atomic.LoadInt32(&h.activeConns) == 0 {
			h.log.Info().Msg("All status streams closed")
			return
		}
		select {
		case <-ctx.Done():
			h.log.Warn().Int32("active", atomic.LoadInt32(&h.activeConns)).Msg("Shutdown timeout, status streams still open")
			return
		case <-ticker.C:
		}
	}
}
