package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"typst-relay/internal/logger"
)

func TestWSHandler_StreamsReadyThenEvents(t *testing.T) {
	logger.Discard()
	hub := NewHub(8)
	h := NewWSHandler(hub, []string{"*"})
	server := httptest.NewServer(http.HandlerFunc(h.Handle))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	var ready Event
	if err := wsjson.Read(ctx, conn, &ready); err != nil {
		t.Fatalf("read ready: %v", err)
	}
	if ready.Type != TypeReady || ready.ConnectionID == "" {
		t.Fatalf("unexpected ready event: %+v", ready)
	}

	waitFor(t, func() bool { return hub.Subscribers() == 1 })
	hub.CommandStarted("inv-1", "compile_typst")

	var started Event
	if err := wsjson.Read(ctx, conn, &started); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if started.Type != TypeCommandStarted || started.Command != "compile_typst" {
		t.Fatalf("unexpected event: %+v", started)
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		h.Shutdown(shutdownCtx)
	}()

	_, _, err = conn.Read(ctx)
	if status := websocket.CloseStatus(err); status != websocket.StatusGoingAway {
		t.Fatalf("expected going-away close, got %v (%v)", status, err)
	}

	<-shutdownDone
	waitFor(t, func() bool { return h.ActiveConnections() == 0 })
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	logger.Discard()
	h := NewWSHandler(NewHub(1), []string{"localhost:*"})
	server := httptest.NewServer(http.HandlerFunc(h.Handle))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	header := http.Header{"Origin": {"https://evil.example"}}
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(server.URL, "http"), &websocket.DialOptions{HTTPHeader: header})
	if err == nil {
		t.Fatal("expected handshake to be rejected")
	}
	if resp != nil && resp.StatusCode != 403 {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
