package engine

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/talgya/overtime/internal/economy"
	"github.com/talgya/overtime/internal/llm"
	"github.com/talgya/overtime/internal/persistence"
)

// Save keys.
const (
	KeySession = "session"
	KeyCareer  = "career"
)

// Career is the cross-session record.
type Career struct {
	Shifts      int `json:"shifts"`
	BestBalance int `json:"best_balance"`
	Burnouts    int `json:"burnouts"`
}

func (c *Career) recordShift(money int) {
	c.Shifts++
	if money > c.BestBalance {
		c.BestBalance = money
	}
}

// LoadCareer reads the career record. A missing or unreadable record yields
// an empty one.
func LoadCareer(ctx context.Context, store Store) Career {
	var c Career
	if store == nil {
		return c
	}
	blob, ok, err := store.Load(ctx, KeyCareer)
	if err != nil {
		slog.Debug("career load failed", "error", err)
		return c
	}
	if !ok {
		return c
	}
	if err := json.Unmarshal(blob, &c); err != nil {
		slog.Debug("career record unreadable", "error", err)
		return Career{}
	}
	return c
}

// savedSession is the checkpoint blob.
type savedSession struct {
	Session   string             `json:"session"`
	Reason    string             `json:"reason"`
	Tick      uint64             `json:"tick"`
	Company   llm.CompanyProfile `json:"company"`
	Resources economy.Resources  `json:"resources"`
}

// checkpoint saves the resource state. Failures never reach the session.
func (s *Session) checkpoint(reason string) {
	if s.deps.Store == nil {
		return
	}
	blob, err := json.Marshal(savedSession{
		Session:   s.ID.String(),
		Reason:    reason,
		Tick:      s.tick,
		Company:   s.company,
		Resources: s.resources,
	})
	if err != nil {
		slog.Debug("checkpoint encode failed", "error", err)
		return
	}
	s.deps.Store.Save(KeySession, blob)
	s.deps.Store.Record(persistence.Checkpoint{
		Session:      s.ID.String(),
		Reason:       reason,
		Tick:         s.tick,
		Stress:       s.resources.Stress,
		Money:        s.resources.Money,
		ShiftElapsed: s.resources.ShiftElapsed,
	})
}

func (s *Session) saveCareer() {
	if s.deps.Store == nil {
		return
	}
	blob, err := json.Marshal(s.career)
	if err != nil {
		slog.Debug("career encode failed", "error", err)
		return
	}
	s.deps.Store.Save(KeyCareer, blob)
}
