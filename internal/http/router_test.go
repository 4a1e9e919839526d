package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splax/synthteams/internal/domain"
	"github.com/splax/synthteams/internal/repository/sqlite"
	"github.com/splax/synthteams/internal/service/simulator"
	"github.com/splax/synthteams/internal/service/subscription"
	"github.com/splax/synthteams/internal/ws"
)

type logStub struct {
	mu       sync.Mutex
	snapshot domain.Snapshot
	results  []simulator.TrainResult
	trains   int
}

func (l *logStub) Snapshot() domain.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot
}

func (l *logStub) Train() simulator.TrainResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trains++
	if len(l.results) == 0 {
		return simulator.TrainStarted
	}
	result := l.results[0]
	l.results = l.results[1:]
	return result
}

type subsStub struct {
	err    error
	emails []string
}

func (s *subsStub) Subscribe(ctx context.Context, email string) (*domain.Subscription, error) {
	if err := subscription.Validate(email); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	s.emails = append(s.emails, email)
	return &domain.Subscription{ID: int64(len(s.emails)), Email: email}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Generation: 3,
		Entries: []domain.Entry{{
			ID:          1,
			AgentName:   "Customer Support Agent",
			Steps:       []string{"Initializing neural pathways..."},
			CurrentStep: 0,
		}},
	}
}

func newTestRouter(t *testing.T, logSrc LogSource, subs SubscriptionService, opts Options) (*Router, *ws.Hub) {
	t.Helper()
	if opts.SessionSecret == "" {
		opts.SessionSecret = "test-secret"
	}
	hub := ws.NewHub()
	r := NewRouter(quietLogger(), logSrc, subs, nil, hub, nil, nil, opts)
	t.Cleanup(func() {
		r.Close()
		hub.Close()
	})
	return r, hub
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	subs := &subsStub{}
	r, _ := newTestRouter(t, &logStub{}, subs, Options{})

	for _, body := range []string{`{"email":"notanemail"}`, `{}`, `{"email":null}`, `{"email":"   "}`} {
		rec := postJSON(t, r, "/api/subscribe", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"Invalid email address"}`, rec.Body.String(), body)
	}
	assert.Empty(t, subs.emails)
}

func TestSubscribeStoresOnceThenFailsOnDuplicate(t *testing.T) {
	repo, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	svc := subscription.New(repo, quietLogger())
	r, _ := newTestRouter(t, &logStub{}, svc, Options{})

	rec := postJSON(t, r, "/api/subscribe", `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Subscription successful"}`, rec.Body.String())

	rec = postJSON(t, r, "/api/subscribe", `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to subscribe"}`, rec.Body.String())

	var count int
	require.NoError(t, repo.DB().QueryRow(`SELECT COUNT(*) FROM subscriptions WHERE email = ?`, "a@b.co").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSubscribeCollapsesFailures(t *testing.T) {
	r, _ := newTestRouter(t, &logStub{}, &subsStub{err: errors.New("db down")}, Options{})

	rec := postJSON(t, r, "/api/subscribe", `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to subscribe"}`, rec.Body.String())

	for _, body := range []string{`not json`, `{"email":42}`, ``} {
		rec = postJSON(t, r, "/api/subscribe", body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, body)
		assert.JSONEq(t, `{"error":"Failed to subscribe"}`, rec.Body.String(), body)
	}
}

func TestSubscribeRateLimited(t *testing.T) {
	r, _ := newTestRouter(t, &logStub{}, &subsStub{}, Options{SubscribeLimit: Limit{Hits: 1}})

	rec := postJSON(t, r, "/api/subscribe", `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = postJSON(t, r, "/api/subscribe", `{"email":"c@d.co"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func postFrom(t *testing.T, h http.Handler, remote, forwarded, body string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(body))
	req.RemoteAddr = remote
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestSubscribeQuotaIgnoresForwardedForByDefault(t *testing.T) {
	r, _ := newTestRouter(t, &logStub{}, &subsStub{}, Options{SubscribeLimit: Limit{Hits: 1, Window: time.Hour}})

	var codes []int
	for _, fwd := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		codes = append(codes, postFrom(t, r, "10.0.0.7:5123", fwd, `{"email":"a@b.co"}`))
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestSubscribeQuotaUsesForwardedForBehindTrustedProxy(t *testing.T) {
	r, _ := newTestRouter(t, &logStub{}, &subsStub{}, Options{SubscribeLimit: Limit{Hits: 1, Window: time.Hour}, TrustProxy: true})

	assert.Equal(t, http.StatusOK, postFrom(t, r, "10.0.0.1:80", "1.1.1.1", `{"email":"a@b.co"}`))
	assert.Equal(t, http.StatusOK, postFrom(t, r, "10.0.0.1:80", "2.2.2.2", `{"email":"a@b.co"}`))
	assert.Equal(t, http.StatusTooManyRequests, postFrom(t, r, "10.0.0.1:80", "1.1.1.1", `{"email":"a@b.co"}`))
}

func TestWaitlistFormSharesSubscribeQuota(t *testing.T) {
	subs := &subsStub{}
	r, _ := newTestRouter(t, &logStub{}, subs, Options{
		SubscribeLimit: Limit{Hits: 1, Window: time.Hour},
		TrainLimit:     Limit{Hits: 1, Window: time.Hour},
	})

	assert.Equal(t, http.StatusOK, postFrom(t, r, "10.0.0.9:1", "", `{"email":"a@b.co"}`))

	req := httptest.NewRequest(http.MethodPost, "/waitlist", strings.NewReader("email=c%40d.co"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "10.0.0.9:2"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	trainReq := httptest.NewRequest(http.MethodPost, "/api/train", nil)
	trainReq.RemoteAddr = "10.0.0.9:3"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, trainReq)
	assert.Equal(t, http.StatusOK, rec.Code, "train has its own budget")
}

func TestTrainEndpoint(t *testing.T) {
	logSrc := &logStub{results: []simulator.TrainResult{simulator.TrainStarted, simulator.TrainQueued, simulator.TrainDropped}}
	r, _ := newTestRouter(t, logSrc, &subsStub{}, Options{})

	rec := postJSON(t, r, "/api/train", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"started"}`, rec.Body.String())

	rec = postJSON(t, r, "/api/train", "")
	assert.JSONEq(t, `{"result":"queued"}`, rec.Body.String())

	rec = postJSON(t, r, "/api/train", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"result":"dropped"}`, rec.Body.String())
	assert.Equal(t, 3, logSrc.trains)
}

func TestLogEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, &logStub{snapshot: sampleSnapshot()}, &subsStub{}, Options{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/log", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Generation uint64 `json:"generation"`
		Entries    []struct {
			AgentName string `json:"agent_name"`
			Phase     string `json:"phase"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint64(3), body.Generation)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "Customer Support Agent", body.Entries[0].AgentName)
	assert.Equal(t, "revealing", body.Entries[0].Phase)
}

func TestHealthz(t *testing.T) {
	hub := ws.NewHub()
	defer hub.Close()
	healthy := NewRouter(quietLogger(), &logStub{}, &subsStub{}, nil, hub, nil, func(context.Context) error { return nil }, Options{SessionSecret: "s"})
	defer healthy.Close()
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	down := NewRouter(quietLogger(), &logStub{}, &subsStub{}, nil, hub, nil, func(context.Context) error { return errors.New("refused") }, Options{SessionSecret: "s"})
	defer down.Close()
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "refused")
}

func TestStaticAssetsAndNotFound(t *testing.T) {
	r, _ := newTestRouter(t, &logStub{}, &subsStub{}, Options{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".terminal-window")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/subscribe", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestFormFlowWithoutScript(t *testing.T) {
	subs := &subsStub{}
	r, _ := newTestRouter(t, &logStub{snapshot: sampleSnapshot()}, subs, Options{LineCount: 5})
	srv := httptest.NewServer(r)
	defer srv.Close()
	client := newBrowser(t)

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	page := readBody(t, resp)
	assert.Contains(t, page, "Agents Training Log")
	assert.Contains(t, page, "Customer Support Agent")
	assert.NotContains(t, page, "type your email to join the waitlist")
	assert.Equal(t, 5, strings.Count(page, `class="line"`))

	resp, err = client.PostForm(srv.URL+"/waitlist", url.Values{"email": {"early@b.co"}})
	require.NoError(t, err)
	readBody(t, resp)
	assert.Empty(t, subs.emails, "waitlist is not visible yet")

	resp, err = client.PostForm(srv.URL+"/prompt", url.Values{"job_description": {""}})
	require.NoError(t, err)
	assert.NotContains(t, readBody(t, resp), "type your email to join the waitlist")

	resp, err = client.PostForm(srv.URL+"/prompt", url.Values{"job_description": {"backend engineer"}})
	require.NoError(t, err)
	page = readBody(t, resp)
	assert.Contains(t, page, "type your email to join the waitlist")
	assert.Contains(t, page, `value="backend engineer"`)

	resp, err = client.PostForm(srv.URL+"/waitlist", url.Values{"email": {"bad"}})
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "Invalid email address")

	resp, err = client.PostForm(srv.URL+"/waitlist", url.Values{"email": {"x@y.co"}})
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "Subscription successful")
	assert.Equal(t, []string{"x@y.co"}, subs.emails)
}

func TestTamperedSessionCookieIsReplaced(t *testing.T) {
	r, _ := newTestRouter(t, &logStub{}, &subsStub{}, Options{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "synth_session", Value: "garbage"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "garbage", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func readEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var event string
	var data []string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event == "" && len(data) == 0 {
				continue
			}
			return event, strings.Join(data, "\n")
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
}

func TestEventsStreamPushesLogFragments(t *testing.T) {
	logSrc := &logStub{snapshot: sampleSnapshot()}
	r, hub := newTestRouter(t, logSrc, &subsStub{}, Options{StreamHeartbeat: time.Hour})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, data := readEvent(t, reader)
	assert.Equal(t, "log", event)
	assert.Contains(t, data, `id="agents-log"`)
	assert.Contains(t, data, "Customer Support Agent")

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	next := sampleSnapshot()
	next.Generation = 4
	next.Entries[0].AgentName = "Security Analyst Agent"
	NewLogPublisher(hub, quietLogger()).Publish(next)

	event, data = readEvent(t, reader)
	assert.Equal(t, "log", event)
	assert.Contains(t, data, "Security Analyst Agent")
	assert.Contains(t, data, `data-generation="4"`)
}

func TestWebsocketStreamsSnapshots(t *testing.T) {
	r, hub := newTestRouter(t, &logStub{snapshot: sampleSnapshot()}, &subsStub{}, Options{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"generation":3`)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	next := sampleSnapshot()
	next.Generation = 9
	NewLogPublisher(hub, quietLogger()).Publish(next)

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"generation":9`)
}

func TestMemoryRateLimiterWindow(t *testing.T) {
	rl := NewMemoryRateLimiter(time.Hour)
	defer rl.Close()
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	rl.clock = func() time.Time { return base }
	ctx := context.Background()
	limit := Limit{Hits: 2, Window: time.Minute}

	hit := func(bucket string) bool {
		v, err := rl.Hit(ctx, bucket, limit)
		require.NoError(t, err)
		return v.Allowed
	}
	assert.True(t, hit("train:a"))
	assert.True(t, hit("train:a"))
	assert.False(t, hit("train:a"))
	assert.True(t, hit("train:b"))

	base = base.Add(time.Minute)
	assert.True(t, hit("train:a"), "window reopens at its reset time")

	v, err := rl.Hit(ctx, "train:c", Limit{})
	require.NoError(t, err)
	assert.True(t, v.Allowed)

	base = base.Add(time.Hour)
	rl.sweep()
	assert.Empty(t, rl.windows)
}

func TestAuditLogsSessionID(t *testing.T) {
	var buf safeBuffer
	hub := ws.NewHub()
	defer hub.Close()
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	r := NewRouter(logger, &logStub{}, &subsStub{}, nil, hub, nil, nil, Options{SessionSecret: "s"})
	defer r.Close()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/log", nil)
	req.AddCookie(cookies[0])
	r.ServeHTTP(httptest.NewRecorder(), req)

	var sessions []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] != "http_request" {
			continue
		}
		id, _ := entry["session_id"].(string)
		sessions = append(sessions, id)
	}
	require.Len(t, sessions, 2)
	assert.NotEmpty(t, sessions[0])
	assert.Equal(t, sessions[0], sessions[1])
}

type safeBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
