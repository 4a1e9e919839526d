// Package httpx serves the landing page, its form endpoints, the subscribe
// API and the live log streams.
package httpx

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splax/synthteams/internal/choice"
	"github.com/splax/synthteams/internal/domain"
	"github.com/splax/synthteams/internal/service/simulator"
	"github.com/splax/synthteams/internal/service/viewstate"
	"github.com/splax/synthteams/internal/web/static"
	"github.com/splax/synthteams/internal/ws"
)

// LogSource exposes the running deployment log.
type LogSource interface {
	Snapshot() domain.Snapshot
	Train() simulator.TrainResult
}

// SubscriptionService stores waitlist emails.
type SubscriptionService interface {
	Subscribe(ctx context.Context, email string) (*domain.Subscription, error)
}

// Options tunes sessions, streams and rate limits.
type Options struct {
	SessionSecret      string
	SessionCookie      string
	SessionTTL         time.Duration
	SecureCookies      bool
	StreamHeartbeat    time.Duration
	StreamWriteTimeout time.Duration
	SubscribeLimit     Limit
	TrainLimit         Limit
	// TrustProxy lets X-Forwarded-For and X-Real-IP replace RemoteAddr.
	// Enable it only behind a proxy that overwrites those headers.
	TrustProxy bool
	LineCount  int
}

func (o Options) withDefaults() Options {
	if o.SessionCookie == "" {
		o.SessionCookie = "synth_session"
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = 24 * time.Hour
	}
	if o.StreamHeartbeat <= 0 {
		o.StreamHeartbeat = 15 * time.Second
	}
	if o.StreamWriteTimeout <= 0 {
		o.StreamWriteTimeout = 10 * time.Second
	}
	if o.LineCount < 0 {
		o.LineCount = 0
	}
	return o
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux      chi.Router
	logger   *slog.Logger
	log      LogSource
	subs     SubscriptionService
	views    viewstate.Store
	hub      *ws.Hub
	limiter  RateLimiter
	dbHealth func(context.Context) error
	upgrader websocket.Upgrader
	chooser  choice.Chooser
	opts     Options
	metrics  *siteMetrics
}

const (
	healthCheckTimeout = 2 * time.Second
	maxBodyBytes       = 1 << 20
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, logSrc LogSource, subs SubscriptionService, views viewstate.Store, hub *ws.Hub, limiter RateLimiter, dbHealth func(context.Context) error, opts Options) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		mux:    chi.NewRouter(),
		logger: logger.With("component", "http"),
		log:    logSrc,
		subs:   subs,
		views:  views,
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		dbHealth: dbHealth,
		chooser:  choice.New(0),
		opts:     opts.withDefaults(),
		metrics:  loadMetrics(),
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter(0)
	}
	if r.views == nil {
		r.views = viewstate.NewMemoryStore(r.opts.SessionTTL)
	}
	if r.hub == nil {
		r.hub = ws.NewHub()
	}
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
	if r.views != nil {
		r.views.Close()
	}
}

func (r *Router) register() {
	if r.opts.TrustProxy {
		r.mux.Use(middleware.RealIP)
	}
	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.Recoverer)
	r.mux.Use(r.audit)

	r.mux.Get("/", r.handleIndex)
	r.mux.Post("/prompt", r.handlePrompt)
	r.mux.Post("/waitlist", r.guard(actionSubscribe, r.opts.SubscribeLimit, r.handleWaitlist))
	r.mux.Post("/api/subscribe", r.guard(actionSubscribe, r.opts.SubscribeLimit, r.handleSubscribe))
	r.mux.Post("/api/train", r.guard(actionTrain, r.opts.TrainLimit, r.handleTrain))
	r.mux.Get("/api/log", r.handleLog)
	r.mux.Get("/events", r.handleEvents)
	r.mux.Get("/ws", r.handleWS)
	r.mux.Get("/healthz", r.handleHealthz)
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static.FS()))))

	r.mux.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.mux.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	components["streams"] = map[string]any{"clients": r.hub.Clients()}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		visit := &visit{}
		start := time.Now()
		next.ServeHTTP(recorder, req.WithContext(context.WithValue(req.Context(), visitKey{}, visit)))

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		route := req.URL.Path
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		r.metrics.observeRequest(req.Method, route, status, duration)

		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"route", route,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
			"ip", remoteHost(req),
		}
		if session := r.auditSession(req, visit); session != "" {
			fields = append(fields, "session_id", session)
		}
		if reqID := middleware.GetReqID(req.Context()); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		case strings.HasPrefix(route, "/static/"), route == "/metrics":
			r.logger.Debug("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		if sr.status == 0 {
			sr.status = http.StatusSwitchingProtocols
		}
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}
