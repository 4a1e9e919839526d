package ws

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// SSEClient streams Server-Sent Events over an HTTP response writer.
type SSEClient struct {
	mu        sync.Mutex
	writer    http.ResponseWriter
	rc        *http.ResponseController
	log       *slog.Logger
	event     string
	writeWait time.Duration
	closed    bool

	last     atomic.Int64
	done     chan struct{}
	doneOnce sync.Once
}

// NewSSEClient builds an SSE client. When event is non-empty every frame
// carries it as the event name. Each write must finish within writeWait.
func NewSSEClient(w http.ResponseWriter, event string, writeWait time.Duration, logger *slog.Logger) *SSEClient {
	if logger == nil {
		logger = slog.Default()
	}
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	c := &SSEClient{
		writer:    w,
		rc:        http.NewResponseController(w),
		log:       logger,
		event:     event,
		writeWait: writeWait,
		done:      make(chan struct{}),
	}
	c.last.Store(time.Now().UnixNano())
	return c
}

// Send emits one event. Multi-line payloads become multiple data lines.
func (c *SSEClient) Send(payload []byte) error {
	var buf bytes.Buffer
	if c.event != "" {
		fmt.Fprintf(&buf, "event: %s\n", c.event)
	}
	for _, line := range bytes.Split(bytes.ReplaceAll(payload, []byte("\r\n"), []byte("\n")), []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	return c.write(buf.Bytes(), "sse send failed")
}

// Heartbeat emits a comment frame to keep the connection alive. It is skipped
// while another write is in flight.
func (c *SSEClient) Heartbeat() error {
	if !c.mu.TryLock() {
		return nil
	}
	defer c.mu.Unlock()
	return c.writeLocked([]byte(": ping\n\n"), "sse heartbeat failed")
}

func (c *SSEClient) write(frame []byte, failure string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(frame, failure)
}

func (c *SSEClient) writeLocked(frame []byte, failure string) error {
	if c.closed {
		return io.EOF
	}
	if err := c.rc.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		c.fail(failure, err)
		return err
	}
	if _, err := c.writer.Write(frame); err != nil {
		c.fail(failure, err)
		return err
	}
	if err := c.rc.Flush(); err != nil {
		c.fail(failure, err)
		return err
	}
	c.last.Store(time.Now().UnixNano())
	return nil
}

func (c *SSEClient) fail(msg string, err error) {
	c.closed = true
	c.signal()
	c.log.Warn(msg, "error", err)
}

func (c *SSEClient) signal() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Close marks the stream as closed. It waits for an in-flight write, which is
// bounded by the write deadline, and clears the deadline so the connection
// can be reused.
func (c *SSEClient) Close() {
	c.signal()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.rc.SetWriteDeadline(time.Time{})
}

// Done is closed once the stream is closed.
func (c *SSEClient) Done() <-chan struct{} {
	return c.done
}

// LastActivity reports the timestamp of the most recent successful write.
func (c *SSEClient) LastActivity() time.Time {
	return time.Unix(0, c.last.Load())
}

// Idle reports whether nothing was written for longer than d.
func (c *SSEClient) Idle(d time.Duration, now time.Time) bool {
	return now.Sub(c.LastActivity()) > d
}
