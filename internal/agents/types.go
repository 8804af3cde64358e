// Package agents provides the per-tick simulation of people on a floor:
// NPC wandering and easing, and player movement, collision and stairs.
package agents

import (
	"github.com/talgya/overtime/internal/world"
)

// MoveConfig tunes movement and easing.
type MoveConfig struct {
	MoveDelay        uint64  `yaml:"move_delay_ticks"`         // Ticks between player steps
	BoostedMoveDelay uint64  `yaml:"boosted_move_delay_ticks"` // Same, while a speed boost is active
	BoostDuration    int     `yaml:"boost_duration_ticks"`
	WanderChance     float64 `yaml:"wander_chance"` // Per-tick step probability once idle long enough
	NPCEase          float64 `yaml:"npc_ease"`
	PlayerEase       float64 `yaml:"player_ease"`
}

// DefaultMoveConfig returns the standard movement tuning.
func DefaultMoveConfig() MoveConfig {
	return MoveConfig{
		MoveDelay:        8,
		BoostedMoveDelay: 4,
		BoostDuration:    1800,
		WanderChance:     0.02,
		NPCEase:          0.1,
		PlayerEase:       0.2,
	}
}

// Player is the employee controlled by the user.
type Player struct {
	Pos          world.Point `json:"pos"`
	Floor        int         `json:"floor"`
	Render       world.Vec   `json:"render"`
	LastMoveTick uint64      `json:"last_move_tick"`
	BoostTicks   int         `json:"boost_ticks"` // Remaining speed-boost ticks
}

// NewPlayer places a player at the lobby entrance.
func NewPlayer(b *world.Building) *Player {
	p := &Player{}
	if lobby := b.Floor(0); lobby != nil {
		p.Pos = lobby.Spawns.Down
	}
	p.Render = world.VecOf(p.Pos)
	return p
}

// Boosted reports whether a speed boost is active.
func (p *Player) Boosted() bool {
	return p.BoostTicks > 0
}

// Boost starts or refreshes a speed boost.
func (p *Player) Boost(ticks int) {
	if ticks > p.BoostTicks {
		p.BoostTicks = ticks
	}
}

// Ease moves the render position toward the grid cell and burns down any
// active boost. It runs every tick regardless of the move delay.
func (p *Player) Ease(cfg MoveConfig) {
	p.Render = p.Render.Ease(p.Pos, cfg.PlayerEase)
	if p.BoostTicks > 0 {
		p.BoostTicks--
	}
}

// Intents holds the directions currently requested by the input layer.
type Intents struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Direction resolves held intents to one step, preferring up, then down,
// then left, then right.
func (in Intents) Direction() (world.Point, bool) {
	switch {
	case in.Up:
		return world.Up, true
	case in.Down:
		return world.Down, true
	case in.Left:
		return world.Left, true
	case in.Right:
		return world.Right, true
	}
	return world.Point{}, false
}
