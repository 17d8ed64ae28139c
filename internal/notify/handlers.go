package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

const (
	heartbeatInterval = 30 * time.Second
	writeDeadline     = 60 * time.Second
)

// SSEHandler streams a project's events as Server-Sent Events.
type SSEHandler struct {
	hub    *Hub
	logger *slog.Logger
}

// NewSSEHandler creates an SSE handler.
func NewSSEHandler(hub *Hub, logger *slog.Logger) *SSEHandler {
	return &SSEHandler{hub: hub, logger: logger}
}

// Serve streams events for slug until the client goes away or the hub stops.
// The caller validates slug.
func (h *SSEHandler) Serve(w http.ResponseWriter, r *http.Request, slug string) {
	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("failed to flush headers", "error", err)
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sub, err := h.hub.Subscribe(slug)
	if err != nil {
		h.logger.Error("failed to attach listener", "slug", slug, "error", err)
		return
	}
	defer h.hub.Unsubscribe(sub)

	logger := h.logger.With("slug", slug, "subscriber_id", sub.ID)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			if err := h.send(w, rc, event); err != nil {
				logger.Info("client disconnected during send")
				return
			}
		case <-ticker.C:
			if err := h.send(w, rc, Heartbeat()); err != nil {
				logger.Info("client disconnected during heartbeat")
				return
			}
		case <-sub.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *SSEHandler) send(w http.ResponseWriter, rc *http.ResponseController, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}
	if err := rc.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		h.logger.Debug("failed to set write deadline", "error", err)
	}
	return nil
}

// clientMessage is what WebSocket clients send. Only ping is understood.
type clientMessage struct {
	Type string `json:"type"`
}

// WebSocketHandler serves a project's events over a WebSocket. Clients may send
// {"type":"ping"} and get {"type":"pong"} back.
type WebSocketHandler struct {
	hub    *Hub
	logger *slog.Logger
}

// NewWebSocketHandler creates a WebSocket handler.
func NewWebSocketHandler(hub *Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// Serve upgrades the request and pumps events for slug. The caller validates slug.
// Origin checks are left to the CORS layer.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request, slug string) {
	srv := websocket.Server{
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler:   func(conn *websocket.Conn) { h.pump(conn, slug) },
	}
	srv.ServeHTTP(w, r)
}

func (h *WebSocketHandler) pump(conn *websocket.Conn, slug string) {
	defer conn.Close()

	sub, err := h.hub.Subscribe(slug)
	if err != nil {
		h.logger.Error("failed to attach listener", "slug", slug, "error", err)
		return
	}
	defer h.hub.Unsubscribe(sub)

	logger := h.logger.With("slug", slug, "subscriber_id", sub.ID)

	var writeMu sync.Mutex
	send := func(event Event) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		return websocket.JSON.Send(conn, event)
	}

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			var msg clientMessage
			if err := websocket.JSON.Receive(conn, &msg); err != nil {
				return
			}
			if msg.Type == "ping" {
				if err := send(Pong()); err != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			if err := send(event); err != nil {
				logger.Info("websocket send failed", "error", err)
				return
			}
		case <-sub.Done:
			return
		case <-readDone:
			logger.Debug("websocket closed by client")
			return
		}
	}
}
