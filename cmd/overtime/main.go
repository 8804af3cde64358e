// Command overtime runs the workplace survival simulation and serves it over
// HTTP and websocket.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/talgya/overtime/internal/api"
	"github.com/talgya/overtime/internal/config"
	"github.com/talgya/overtime/internal/content"
	"github.com/talgya/overtime/internal/economy"
	"github.com/talgya/overtime/internal/engine"
	"github.com/talgya/overtime/internal/llm"
	"github.com/talgya/overtime/internal/persistence"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	// ── Config ────────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0755)
	db, err := persistence.Open(cfg.Storage.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	store := persistence.NewAsync(db, cfg.Storage.Queue)
	defer store.Close()
	slog.Info("database opened", "path", cfg.Storage.Path)

	career := engine.LoadCareer(ctx, store)
	if career.Shifts > 0 {
		slog.Info("career restored",
			"shifts", career.Shifts,
			"best", economy.FormatMoney(career.BestBalance),
			"burnouts", career.Burnouts,
		)
	}

	// ── Reasoning ────────────────────────────────────────────────────
	var reasoner engine.Reasoner
	if client := llm.NewClient(cfg.APIKey, cfg.LLM); client.Enabled() {
		reasoner = llm.NewService(client)
		slog.Info("LLM client enabled", "model", cfg.LLM.Model)
	} else {
		reasoner = llm.NewOffline()
		slog.Warn("ANTHROPIC_API_KEY not set, using offline reasoning")
	}

	// ── Session ──────────────────────────────────────────────────────
	sess := engine.NewSession(engine.Deps{
		Reasoner: reasoner,
		Content:  content.NewClient(cfg.Content.URL),
		Store:    store,
	}, engine.Options{
		Rules:         cfg.Economy,
		Move:          cfg.Movement,
		World:         cfg.World,
		PhoneInterval: cfg.Phone.Interval,
		Timeout:       cfg.LLM.Timeout,
		Seed:          cfg.Sim.Seed,
		Prologue:      cfg.Sim.Prologue,
		Career:        career,
	})
	defer sess.Close()

	// ── API ──────────────────────────────────────────────────────────
	hub := api.NewHub()
	go hub.Run(ctx, cfg.API.StreamInterval)

	server := &api.Server{
		Hub:          hub,
		Inputs:       sess,
		DB:           db,
		Port:         cfg.API.Port,
		InputsPerMin: cfg.API.InputsPerMin,
	}
	go func() {
		if err := server.Start(ctx); err != nil {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// ── Engine ───────────────────────────────────────────────────────
	publishEvery := uint64(time.Duration(cfg.Sim.TickRate) * cfg.API.StreamInterval / time.Second)
	if publishEvery == 0 {
		publishEvery = 1
	}

	eng := engine.NewEngine(cfg.Sim.TickRate)
	eng.OnTick = func(tick uint64) {
		sess.Tick(tick)
		notes := sess.Drain()
		if len(notes) > 0 || tick%publishEvery == 0 {
			hub.Publish(sess.Snapshot(), notes)
		}
	}

	slog.Info("Starting simulation... (Ctrl+C to stop)", "session", sess.ID, "tick_rate", cfg.Sim.TickRate)
	eng.Run(ctx)

	slog.Info("shutdown complete", "phase", sess.Phase(), "outcome", sess.Outcome())
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
