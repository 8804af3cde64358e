// Command autopilot plays a running overtime session through its HTTP API.
// It observes the status endpoint, decides on one input by fixed rules, and
// posts it back, until the session ends.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/overtime/internal/autopilot"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	apiURL := envOrDefault("OVERTIME_API_URL", "http://localhost:8080")
	intervalMs := envIntOrDefault("AUTOPILOT_INTERVAL_MS", 150)
	interval := time.Duration(intervalMs) * time.Millisecond

	slog.Info("overtime autopilot starting", "api_url", apiURL, "interval", interval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pilot := autopilot.New(apiURL)

	readyCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	if err := pilot.WaitReady(readyCtx); err != nil {
		slog.Error("overtime API did not become ready", "error", err)
		os.Exit(1)
	}

	pilot.Run(ctx, interval)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}
