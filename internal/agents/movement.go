package agents

import (
	"github.com/talgya/overtime/internal/world"
)

// MoveOutcome classifies what a movement attempt did.
type MoveOutcome uint8

const (
	MoveNone        MoveOutcome = iota // No intent, or still inside the move delay
	MoveStep                           // Player moved one cell
	MoveBump                           // Destination is not walkable
	MoveInteract                       // Destination holds an NPC
	MoveFloorChange                    // Player took the stairs
)

func (o MoveOutcome) String() string {
	switch o {
	case MoveStep:
		return "step"
	case MoveBump:
		return "bump"
	case MoveInteract:
		return "interact"
	case MoveFloorChange:
		return "floor_change"
	default:
		return "none"
	}
}

// MoveResult reports a movement attempt.
type MoveResult struct {
	Outcome MoveOutcome
	NPC     *world.NPC // Set for MoveInteract
	From    int        // Floor index before the move
	To      int        // Floor index after the move
}

// MovePlayer resolves at most one queued intent, gated by the move delay.
// Every decision is made on grid cells; the render position plays no part.
func MovePlayer(b *world.Building, p *Player, in Intents, tick uint64, cfg MoveConfig) MoveResult {
	res := MoveResult{From: p.Floor, To: p.Floor}

	delay := cfg.MoveDelay
	if p.Boosted() {
		delay = cfg.BoostedMoveDelay
	}
	if p.LastMoveTick != 0 && tick-p.LastMoveTick < delay {
		return res
	}

	dir, ok := in.Direction()
	if !ok {
		return res
	}
	f := b.Floor(p.Floor)
	if f == nil {
		return res
	}
	p.LastMoveTick = tick

	dest := p.Pos.Add(dir)
	if n := f.NPCAt(dest); n != nil {
		res.Outcome = MoveInteract
		res.NPC = n
		return res
	}

	tile := f.Tile(dest)
	if !tile.Walkable() {
		res.Outcome = MoveBump
		return res
	}

	switch tile {
	case world.TileStairsUp:
		if next := b.Floor(p.Floor + 1); next != nil {
			relocate(p, next, next.Spawns.Down)
			res.Outcome = MoveFloorChange
			res.To = next.Index
			return res
		}
	case world.TileStairsDown:
		if prev := b.Floor(p.Floor - 1); prev != nil {
			relocate(p, prev, prev.Spawns.Up)
			res.Outcome = MoveFloorChange
			res.To = prev.Index
			return res
		}
	}

	p.Pos = dest
	res.Outcome = MoveStep
	return res
}

// relocate teleports the player; the render position snaps so the sprite
// does not slide across floors.
func relocate(p *Player, f *world.Floor, at world.Point) {
	p.Floor = f.Index
	p.Pos = at
	p.Render = world.VecOf(at)
}
