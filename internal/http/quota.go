package httpx

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limit caps how many times one visitor may perform an action per window.
type Limit struct {
	Hits   int
	Window time.Duration
}

// Enabled reports whether the limit is enforced.
func (l Limit) Enabled() bool {
	return l.Hits > 0
}

func (l Limit) window() time.Duration {
	if l.Window <= 0 {
		return time.Minute
	}
	return l.Window
}

// Verdict is the limiter's answer for a single hit.
type Verdict struct {
	Allowed bool
	Used    int
	ResetAt time.Time
}

// RateLimiter counts hits per bucket in fixed windows.
type RateLimiter interface {
	Hit(ctx context.Context, bucket string, limit Limit) (Verdict, error)
	Close()
}

// Visitor actions guarded by quotas. Both subscribe entry points share one
// budget since both store an email.
const (
	actionSubscribe = "subscribe"
	actionTrain     = "train"
)

type window struct {
	used    int
	resetAt time.Time
}

// MemoryRateLimiter keeps windows in process memory and sweeps expired ones.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	clock   func() time.Time
	windows map[string]window
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryRateLimiter starts a limiter that forgets expired windows every sweep.
func NewMemoryRateLimiter(sweep time.Duration) *MemoryRateLimiter {
	if sweep <= 0 {
		sweep = 5 * time.Minute
	}
	m := &MemoryRateLimiter{
		clock:   time.Now,
		windows: make(map[string]window),
		stop:    make(chan struct{}),
	}
	go func() {
		ticker := time.NewTicker(sweep)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
	return m
}

// Hit records one attempt against bucket.
func (m *MemoryRateLimiter) Hit(_ context.Context, bucket string, limit Limit) (Verdict, error) {
	if !limit.Enabled() {
		return Verdict{Allowed: true}, nil
	}
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.windows[bucket]
	if !now.Before(w.resetAt) {
		w = window{resetAt: now.Add(limit.window())}
	}
	if w.used >= limit.Hits {
		return Verdict{Used: w.used, ResetAt: w.resetAt}, nil
	}
	w.used++
	m.windows[bucket] = w
	return Verdict{Allowed: true, Used: w.used, ResetAt: w.resetAt}, nil
}

func (m *MemoryRateLimiter) sweep() {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	for bucket, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, bucket)
		}
	}
}

// Close stops the sweeper.
func (m *MemoryRateLimiter) Close() {
	m.once.Do(func() { close(m.stop) })
}

// guard wraps next with the quota for action. Buckets are keyed by the
// client address, which only reflects forwarding headers when the router
// trusts its proxy.
func (r *Router) guard(action string, limit Limit, next http.HandlerFunc) http.HandlerFunc {
	if !limit.Enabled() || r.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, req *http.Request) {
		bucket := action + ":" + remoteHost(req)
		verdict, err := r.limiter.Hit(req.Context(), bucket, limit)
		if err != nil {
			r.metrics.observeQuota(action, "error")
			r.logger.Warn("quota check failed, allowing request", "action", action, "error", err)
			next(w, req)
			return
		}
		setQuotaHeaders(w.Header(), limit, verdict)
		if !verdict.Allowed {
			r.metrics.observeQuota(action, "limited")
			retry := int(math.Ceil(time.Until(verdict.ResetAt).Seconds()))
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		r.metrics.observeQuota(action, "allowed")
		next(w, req)
	}
}

func setQuotaHeaders(h http.Header, limit Limit, v Verdict) {
	remaining := limit.Hits - v.Used
	if remaining < 0 {
		remaining = 0
	}
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Hits))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !v.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(v.ResetAt.Unix(), 10))
	}
}

// remoteHost returns the host part of RemoteAddr. With TrustProxy set,
// middleware.RealIP has already rewritten RemoteAddr from the forwarding
// headers.
func remoteHost(req *http.Request) string {
	addr := strings.TrimSpace(req.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}
