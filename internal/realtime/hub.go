// Package realtime streams progress deltas to connected clients over WebSocket.
package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/learnly/internal/metrics"
	"github.com/p-n-ai/learnly/internal/progress"
)

const (
	defaultBuffer = 16
	writeTimeout  = 5 * time.Second
)

// Hub fans deltas out to every stream open for a learner. Publish never
// blocks: a subscriber whose buffer is full misses the delta.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*subscriber]struct{}
	buffer  int
	origins []string
}

type subscriber struct {
	ch chan progress.Delta
}

// Option configures a Hub.
type Option func(*Hub)

// WithBuffer sets the per-subscriber queue length.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithOriginPatterns allows cross-origin browser connections from the given hosts.
func WithOriginPatterns(patterns ...string) Option {
	return func(h *Hub) {
		h.origins = patterns
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		buffer: defaultBuffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish queues d for every stream of learnerID.
func (h *Hub) Publish(learnerID string, d progress.Delta) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[learnerID] {
		select {
		case s.ch <- d:
		default:
			slog.Warn("realtime subscriber is behind, dropping delta", "learner_id", learnerID)
		}
	}
}

// Subscribers returns the number of open streams for learnerID.
func (h *Hub) Subscribers(learnerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[learnerID])
}

func (h *Hub) subscribe(learnerID string) *subscriber {
	s := &subscriber{ch: make(chan progress.Delta, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[learnerID] == nil {
		h.subs[learnerID] = make(map[*subscriber]struct{})
	}
	h.subs[learnerID][s] = struct{}{}
	metrics.RealtimeConnections.Inc()
	return s
}

func (h *Hub) unsubscribe(learnerID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[learnerID], s)
	if len(h.subs[learnerID]) == 0 {
		delete(h.subs, learnerID)
	}
	metrics.RealtimeConnections.Dec()
}

// Serve upgrades the request and streams learnerID's deltas as JSON messages
// until the client goes away. Client messages are ignored.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, learnerID string) error {
	// Streams outlive the server's WriteTimeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	s := h.subscribe(learnerID)
	defer h.unsubscribe(learnerID, s)
	slog.Debug("realtime stream opened", "learner_id", learnerID)

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return nil
		case d := <-s.ch:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, d)
			cancel()
			if err != nil {
				if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) != -1 {
					return nil
				}
				return err
			}
		}
	}
}
