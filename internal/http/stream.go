package httpx

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/splax/synthteams/internal/domain"
	"github.com/splax/synthteams/internal/service/simulator"
	"github.com/splax/synthteams/internal/web/components"
	"github.com/splax/synthteams/internal/ws"
)

// LogPublisher renders each snapshot once and fans it out over the hub:
// HTML fragments for the event stream, JSON for websocket clients.
type LogPublisher struct {
	hub    *ws.Hub
	logger *slog.Logger
}

// NewLogPublisher returns a simulator publisher backed by hub.
func NewLogPublisher(hub *ws.Hub, logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{hub: hub, logger: logger.With("component", "log_publisher")}
}

// Publish implements simulator.Publisher.
func (p *LogPublisher) Publish(snapshot domain.Snapshot) {
	fragment, err := renderLogFragment(snapshot)
	if err != nil {
		p.logger.Error("render log fragment failed", "error", err)
	} else {
		p.hub.Broadcast(ws.TopicLogHTML, fragment)
	}
	payload, err := simulator.MarshalSnapshot(snapshot)
	if err != nil {
		p.logger.Error("marshal snapshot failed", "error", err)
		return
	}
	p.hub.Broadcast(ws.TopicLogJSON, payload)
}

func renderLogFragment(snapshot domain.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := components.LogEntries(snapshot).Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	client := ws.NewSSEClient(w, "log", r.opts.StreamWriteTimeout, r.logger)
	defer client.Close()
	initial, err := renderLogFragment(r.log.Snapshot())
	if err != nil {
		r.logger.Error("render log fragment failed", "error", err)
		return
	}
	if err := client.Send(initial); err != nil {
		return
	}
	r.hub.Register(ws.TopicLogHTML, client)
	r.metrics.streamDelta("sse", 1)
	defer func() {
		r.hub.Unregister(ws.TopicLogHTML, client)
		r.metrics.streamDelta("sse", -1)
	}()

	idleLimit := 3 * r.opts.StreamHeartbeat
	ticker := time.NewTicker(r.opts.StreamHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-client.Done():
			return
		case now := <-ticker.C:
			if client.Idle(idleLimit, now) {
				r.logger.Info("evicting idle stream client", "last_activity", client.LastActivity())
				return
			}
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

func (r *Router) handleWS(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	payload, err := simulator.MarshalSnapshot(r.log.Snapshot())
	if err == nil {
		err = client.Send(payload)
	}
	if err != nil {
		client.Close()
		return
	}
	r.hub.Register(ws.TopicLogJSON, client)
	r.metrics.streamDelta("ws", 1)
	go func() {
		defer func() {
			r.hub.Unregister(ws.TopicLogJSON, client)
			r.metrics.streamDelta("ws", -1)
		}()
		client.ReadLoop()
	}()
}
