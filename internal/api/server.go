// Package api serves the running session over HTTP.
// GET endpoints observe the latest published snapshot; POST /api/v1/input
// and the websocket stream queue player commands for the next tick.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/overtime/internal/agents"
	"github.com/talgya/overtime/internal/engine"
	"github.com/talgya/overtime/internal/persistence"
)

const maxInputBody = 8 << 10

// InputSink accepts player commands. *engine.Session satisfies it.
type InputSink interface {
	Enqueue(engine.Input) bool
}

// Server serves the session state over HTTP.
type Server struct {
	Hub          *Hub
	Inputs       InputSink
	DB           *persistence.DB // Optional; enables /api/v1/checkpoints
	Port         int
	InputsPerMin int

	limiter  *RateLimiter
	upgrader websocket.Upgrader
}

// inputRequest is the wire form of a player command.
type inputRequest struct {
	Action  string         `json:"action"`
	Text    string         `json:"text"`
	Intents agents.Intents `json:"intents"`
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	if s.limiter == nil {
		rate := s.InputsPerMin
		if rate <= 0 {
			rate = 1200
		}
		s.limiter = NewRateLimiter(rate, time.Minute)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/checkpoints", s.handleCheckpoints)
	mux.HandleFunc("/api/v1/input", RateLimitMiddleware(s.limiter, s.handleInput))
	mux.HandleFunc("/api/v1/stream", s.handleStream)
	return corsMiddleware(mux)
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.limiter.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set OVERTIME_CORS_ORIGINS to a comma-separated list of extra origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("OVERTIME_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, ok := s.Hub.Latest()
	if !ok {
		http.Error(w, "session not started", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.Hub.Recent())
}

func (s *Server) handleCheckpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "persistence disabled", http.StatusNotFound)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			http.Error(w, "limit must be 1-200", http.StatusBadRequest)
			return
		}
		limit = n
	}
	cps, err := s.DB.RecentCheckpoints(limit)
	if err != nil {
		slog.Error("checkpoint query failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if cps == nil {
		cps = []persistence.Checkpoint{}
	}
	writeJSON(w, cps)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req inputRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInputBody)).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	in, err := req.input()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.Inputs.Enqueue(in) {
		http.Error(w, "input queue full", http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]string{"queued": string(in.Action)})
}

func (req inputRequest) input() (engine.Input, error) {
	action, ok := engine.ParseAction(req.Action)
	if !ok {
		return engine.Input{}, fmt.Errorf("unknown action %q", req.Action)
	}
	return engine.Input{Action: action, Text: req.Text, Intents: req.Intents}, nil
}

// handleStream upgrades to a websocket. The client receives the latest
// snapshot immediately and every broadcast after that; text frames it sends
// are decoded as inputs.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}
	id := s.Hub.Subscribe(conn)
	defer s.Hub.Unsubscribe(id)

	if snap, ok := s.Hub.Latest(); ok {
		data, err := json.Marshal(StreamMessage{Snapshot: snap})
		if err == nil {
			if err := s.Hub.Send(id, data); err != nil {
				return
			}
		}
	}

	ip := clientIP(r)
	conn.SetReadLimit(maxInputBody)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if !s.limiter.Allow(ip) {
			continue
		}
		var req inputRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			slog.Debug("ignoring malformed stream input", "error", err)
			continue
		}
		in, err := req.input()
		if err != nil {
			slog.Debug("ignoring stream input", "error", err)
			continue
		}
		s.Inputs.Enqueue(in)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
