package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/overtime/internal/engine"
	"github.com/talgya/overtime/internal/persistence"
)

type sink struct {
	mu   sync.Mutex
	got  []engine.Input
	full bool
}

func (k *sink) Enqueue(in engine.Input) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.full {
		return false
	}
	k.got = append(k.got, in)
	return true
}

func (k *sink) inputs() []engine.Input {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]engine.Input(nil), k.got...)
}

func newTestServer(t *testing.T, srv *Server) *httptest.Server {
	t.Helper()
	if srv.Hub == nil {
		srv.Hub = NewHub()
	}
	if srv.Inputs == nil {
		srv.Inputs = &sink{}
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.limiter.Close()
	})
	return ts
}

func TestStatus_BeforeAndAfterPublish(t *testing.T) {
	hub := NewHub()
	ts := newTestServer(t, &Server{Hub: hub})

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	hub.Publish(engine.Snapshot{Session: "abc", Tick: 42, Phase: engine.PhasePlay}, nil)

	resp, err = http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "abc", body["session"])
	assert.EqualValues(t, 42, body["tick"])
	assert.Equal(t, "play", body["phase"])
}

func TestInput_Queued(t *testing.T) {
	k := &sink{}
	ts := newTestServer(t, &Server{Inputs: k})

	resp, err := http.Post(ts.URL+"/api/v1/input", "application/json",
		strings.NewReader(`{"action":"Move","intents":{"up":true}}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "move", body["queued"])

	got := k.inputs()
	require.Len(t, got, 1)
	assert.Equal(t, engine.ActionMove, got[0].Action)
	assert.True(t, got[0].Intents.Up)
}

func TestInput_Rejections(t *testing.T) {
	k := &sink{}
	ts := newTestServer(t, &Server{Inputs: k})

	cases := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"unknown action", http.MethodPost, `{"action":"dance"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, `{`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+"/api/v1/input", strings.NewReader(tc.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
	assert.Empty(t, k.inputs())
}

func TestInput_QueueFull(t *testing.T) {
	ts := newTestServer(t, &Server{Inputs: &sink{full: true}})

	resp, err := http.Post(ts.URL+"/api/v1/input", "application/json", strings.NewReader(`{"action":"pause"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestInput_RateLimited(t *testing.T) {
	ts := newTestServer(t, &Server{InputsPerMin: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Post(ts.URL+"/api/v1/input", "application/json", strings.NewReader(`{"action":"pause"}`))
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests {
			assert.NotEmpty(t, resp.Header.Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusAccepted, http.StatusAccepted, http.StatusTooManyRequests}, codes)
}

func TestEvents_RecentNotifications(t *testing.T) {
	hub := NewHub()
	ts := newTestServer(t, &Server{Hub: hub})

	for i := 0; i < recentNotices+5; i++ {
		hub.Publish(engine.Snapshot{}, []engine.Notification{{Tick: uint64(i), Kind: engine.NotifyBump}})
	}

	resp, err := http.Get(ts.URL + "/api/v1/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	var notes []engine.Notification
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&notes))
	require.Len(t, notes, recentNotices)
	assert.EqualValues(t, 5, notes[0].Tick)
}

func TestCheckpoints(t *testing.T) {
	ts := newTestServer(t, &Server{})
	resp, err := http.Get(ts.URL + "/api/v1/checkpoints")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Record(persistence.Checkpoint{Session: "s", Reason: "hired", Tick: 3, CreatedAt: 1}))
	require.NoError(t, db.Record(persistence.Checkpoint{Session: "s", Reason: "purchase", Tick: 9, CreatedAt: 2}))

	ts = newTestServer(t, &Server{DB: db})
	resp, err = http.Get(ts.URL + "/api/v1/checkpoints?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()

	var cps []persistence.Checkpoint
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cps))
	require.Len(t, cps, 1)
	assert.Equal(t, "purchase", cps[0].Reason)

	bad, err := http.Get(ts.URL + "/api/v1/checkpoints?limit=zero")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, &Server{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/input", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func dialStream(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readStream(t *testing.T, conn *websocket.Conn) StreamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var raw struct {
		Snapshot struct {
			Tick uint64 `json:"tick"`
		} `json:"snapshot"`
		Notifications []engine.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	return StreamMessage{Snapshot: engine.Snapshot{Tick: raw.Snapshot.Tick}, Notifications: raw.Notifications}
}

func TestStream_BroadcastsAndAcceptsInput(t *testing.T) {
	hub := NewHub()
	k := &sink{}
	hub.Publish(engine.Snapshot{Tick: 1}, nil)
	ts := newTestServer(t, &Server{Hub: hub, Inputs: k})

	conn := dialStream(t, ts)
	first := readStream(t, conn)
	assert.EqualValues(t, 1, first.Snapshot.Tick)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(engine.Snapshot{Tick: 2}, []engine.Notification{{Tick: 2, Kind: engine.NotifyPhone}})
	hub.Publish(engine.Snapshot{Tick: 3}, []engine.Notification{{Tick: 3, Kind: engine.NotifyBump}})
	hub.Broadcast()

	msg := readStream(t, conn)
	assert.EqualValues(t, 3, msg.Snapshot.Tick)
	require.Len(t, msg.Notifications, 2)
	assert.Equal(t, engine.NotifyPhone, msg.Notifications[0].Kind)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"answer_phone"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"nope"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"submit","text":"reboot"}`)))
	require.Eventually(t, func() bool { return len(k.inputs()) == 2 }, time.Second, 10*time.Millisecond)

	got := k.inputs()
	assert.Equal(t, engine.ActionAnswerPhone, got[0].Action)
	assert.Equal(t, "reboot", got[1].Text)
}

func TestStream_DisconnectUnsubscribes(t *testing.T) {
	hub := NewHub()
	ts := newTestServer(t, &Server{Hub: hub})

	conn := dialStream(t, ts)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_SendUnknownSubscriber(t *testing.T) {
	hub := NewHub()
	assert.ErrorIs(t, hub.Send(42, []byte(`{}`)), ErrUnknownSubscriber)

	hub.Unsubscribe(42) // No-op for unknown ids.
	assert.Zero(t, hub.Subscribers())
}

func TestHub_BroadcastOnlyWhenDirty(t *testing.T) {
	hub := NewHub()
	hub.Broadcast() // Nothing published, no subscribers.

	hub.Publish(engine.Snapshot{Tick: 5}, nil)
	hub.Broadcast()
	hub.Broadcast()

	snap, ok := hub.Latest()
	require.True(t, ok)
	assert.EqualValues(t, 5, snap.Tick)
	assert.False(t, hub.dirty)
	assert.Empty(t, hub.unsent)
}
