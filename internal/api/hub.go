package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/overtime/internal/engine"
)

const (
	writeWait     = 5 * time.Second
	recentNotices = 50
)

// StreamMessage is one websocket frame.
type StreamMessage struct {
	Snapshot      engine.Snapshot       `json:"snapshot"`
	Notifications []engine.Notification `json:"notifications,omitempty"`
}

// Hub holds the latest published snapshot and fans it out to websocket
// subscribers. Publish is called from the simulation goroutine; everything
// else runs on HTTP goroutines.
type Hub struct {
	mu          sync.Mutex
	latest      engine.Snapshot
	published   bool
	dirty       bool
	unsent      []engine.Notification
	recent      []engine.Notification
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// ErrUnknownSubscriber is returned by Send after the subscriber is gone.
var ErrUnknownSubscriber = errors.New("unknown subscriber")

// write serializes text frames to the connection.
func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[uint64]*subscriber)}
}

// Publish stores the tick's snapshot and notifications.
func (h *Hub) Publish(snap engine.Snapshot, notes []engine.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = snap
	h.published = true
	h.dirty = true
	h.unsent = append(h.unsent, notes...)
	h.recent = append(h.recent, notes...)
	if over := len(h.recent) - recentNotices; over > 0 {
		h.recent = append([]engine.Notification(nil), h.recent[over:]...)
	}
}

// Latest returns the most recent snapshot.
func (h *Hub) Latest() (engine.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.published
}

// Recent returns the last notifications, oldest first.
func (h *Hub) Recent() []engine.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]engine.Notification(nil), h.recent...)
}

// Subscribe registers a websocket connection and returns its id.
func (h *Hub) Subscribe(conn *websocket.Conn) uint64 {
	id := h.nextID.Add(1)
	h.mu.Lock()
	h.subscribers[id] = &subscriber{conn: conn}
	h.mu.Unlock()
	return id
}

// Send writes one text frame to a single subscriber.
func (h *Hub) Send(id uint64, data []byte) error {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	h.mu.Unlock()
	if !ok {
		return ErrUnknownSubscriber
	}
	return sub.write(data)
}

// Unsubscribe removes and closes a connection.
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	delete(h.subscribers, id)
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Broadcast sends the latest snapshot and unsent notifications to every
// subscriber if anything was published since the last broadcast.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	if !h.dirty {
		h.mu.Unlock()
		return
	}
	msg := StreamMessage{Snapshot: h.latest, Notifications: h.unsent}
	h.unsent = nil
	h.dirty = false
	subs := make(map[uint64]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	if len(subs) == 0 {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal stream message", "error", err)
		return
	}
	for id, sub := range subs {
		if err := sub.write(data); err != nil {
			slog.Debug("stream write failed, dropping subscriber", "id", id, "error", err)
			h.Unsubscribe(id)
		}
	}
}

// Run broadcasts every interval until ctx is cancelled.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.Broadcast()
		}
	}
}
