// NPC behavior: stationary roles hold their cell, wanderers idle for a while
// and then occasionally take a single step in a random direction.
package agents

import (
	"math/rand"

	"github.com/talgya/overtime/internal/world"
)

// StepNPCs advances every NPC on f by one tick. player is the player's cell
// on this floor; wanderers never step onto it.
func StepNPCs(f *world.Floor, player world.Point, rng *rand.Rand, cfg MoveConfig) {
	for _, n := range f.NPCs {
		if n.Stationary() {
			n.Render = world.VecOf(n.Pos)
			continue
		}
		wander(f, n, player, rng, cfg)
		n.Render = n.Render.Ease(n.Pos, cfg.NPCEase)
	}
}

// wander counts the idle timer and, once past the threshold, rolls for a
// step. The timer resets after every attempt whether or not it succeeded.
func wander(f *world.Floor, n *world.NPC, player world.Point, rng *rand.Rand, cfg MoveConfig) {
	n.MoveTimer++
	if n.MoveTimer <= world.WanderThreshold {
		return
	}
	if rng.Float64() >= cfg.WanderChance {
		return
	}
	n.MoveTimer = 0

	dest := n.Pos.Add(world.Cardinals[rng.Intn(len(world.Cardinals))])
	if CanWanderTo(f, dest, player) {
		n.Pos = dest
	}
}

// CanWanderTo reports whether a wandering NPC may step onto dest: an open
// tile, clear of the player, other NPCs and the stair landings.
func CanWanderTo(f *world.Floor, dest, player world.Point) bool {
	if f.Tile(dest) != world.TileOpen {
		return false
	}
	if dest == player || f.Landing(dest) {
		return false
	}
	return f.NPCAt(dest) == nil
}
