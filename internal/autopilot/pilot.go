package autopilot

import (
	"context"
	"log/slog"
	"time"

	"github.com/talgya/overtime/internal/agents"
	"github.com/talgya/overtime/internal/engine"
)

// Pilot runs observe, decide, act cycles against one server.
type Pilot struct {
	Observer *Observer
	Actor    *Actor

	held   agents.Intents
	cycles int
	acted  int
}

// New creates a pilot for the API at baseURL.
func New(baseURL string) *Pilot {
	return &Pilot{Observer: NewObserver(baseURL), Actor: NewActor(baseURL)}
}

// Cycle executes one observe, decide, act cycle and reports whether the
// session is over.
func (p *Pilot) Cycle() (done bool, err error) {
	p.cycles++
	v, err := p.Observer.Observe()
	if err != nil {
		return false, err
	}

	d := Decide(v, p.held)
	if d.Done {
		slog.Info("session over", "outcome", v.Outcome, "money", v.MoneyLabel, "clock", v.Clock)
		return true, nil
	}
	if d.Input == nil {
		return false, nil
	}

	if err := p.Actor.Act(*d.Input); err != nil {
		return false, err
	}
	p.acted++
	if d.Input.Action == engine.ActionMove {
		p.held = d.Input.Intents
	}
	slog.Debug("pilot acted", "tick", v.Tick, "phase", v.Phase, "action", d.Input.Action, "rationale", d.Rationale)
	return false, nil
}

// Run cycles every interval until the session ends or ctx is cancelled.
// Failed cycles are logged and retried on the next interval.
func (p *Pilot) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("pilot stopped", "cycles", p.cycles, "actions", p.acted)
			return
		case <-ticker.C:
			done, err := p.Cycle()
			if err != nil {
				slog.Warn("pilot cycle failed", "error", err)
				continue
			}
			if done {
				slog.Info("pilot finished", "cycles", p.cycles, "actions", p.acted)
				return
			}
		}
	}
}

// WaitReady polls the status endpoint with exponential backoff until it
// responds or ctx is cancelled.
func (p *Pilot) WaitReady(ctx context.Context) error {
	backoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	for {
		if _, err := p.Observer.Observe(); err == nil {
			slog.Info("overtime API is ready")
			return nil
		}
		slog.Info("overtime not ready, retrying...", "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
