package autopilot

import (
	"github.com/talgya/overtime/internal/agents"
	"github.com/talgya/overtime/internal/engine"
	"github.com/talgya/overtime/internal/world"
)

// Decision is the outcome of one cycle. A nil Input means wait.
type Decision struct {
	Input     *engine.Input
	Rationale string
	Done      bool // The session is over
}

var interviewAnswers = []string{
	"I stay calm, write everything down, and fix the most urgent thing first.",
	"My last manager said I was the reason the servers stayed up at night.",
	"I would ask clarifying questions and then quietly solve it before lunch.",
}

var ticketFixes = []string{
	"I restored your file from last night's backup and pinned it to your desktop.",
	"I cleared the stuck queue, restarted the service, and confirmed it works from your account.",
	"I rolled back the bad update, reapplied your settings, and left a note explaining the change.",
}

// Decide picks the next input for the observed state. held is the movement
// currently held by the pilot; moves that would not change it are skipped.
func Decide(v *View, held agents.Intents) Decision {
	if v.Pending {
		return Decision{Rationale: "waiting on evaluation"}
	}

	switch v.Phase {
	case "prologue", "interview_feedback", "interview_result":
		return act(engine.Input{Action: engine.ActionAcknowledge}, "advance")
	case "interview_input":
		i := 0
		if v.Interview != nil {
			i = v.Interview.Index
		}
		return act(engine.Input{Action: engine.ActionSubmit, Text: pick(interviewAnswers, i)}, "answer question")
	case "typing_task":
		attempts := 0
		if v.Task != nil {
			attempts = v.Task.Attempts
		}
		return act(engine.Input{Action: engine.ActionSubmit, Text: pick(ticketFixes, attempts)}, "submit fix")
	case "gameover":
		return Decision{Rationale: "session over: " + v.Outcome, Done: true}
	case "play":
		return decidePlay(v, held)
	}
	return Decision{Rationale: "nothing to do in " + v.Phase}
}

func decidePlay(v *View, held agents.Intents) Decision {
	switch {
	case v.Paused:
		return act(engine.Input{Action: engine.ActionPause}, "resume")
	case v.Shop != nil && v.Shop.Open:
		return act(engine.Input{Action: engine.ActionShopClose}, "close shop")
	case v.Phone != nil && v.Phone.Ringing:
		return act(engine.Input{Action: engine.ActionAnswerPhone}, "answer phone")
	}

	var want agents.Intents
	reason := "idle"
	if v.Phone != nil && v.Phone.Active && v.Player != nil && v.Floor != nil {
		if dir, ok := nextStep(v); ok {
			want = intentsFor(dir)
			reason = "walk to ticket"
		}
	}
	if want == held {
		return Decision{Rationale: reason}
	}
	return act(engine.Input{Action: engine.ActionMove, Intents: want}, reason)
}

// nextStep returns the first step toward the phone's target: the stairs when
// it is on another floor, otherwise the caller.
func nextStep(v *View) (world.Point, bool) {
	target := v.Phone.Floor
	switch {
	case target > v.Player.Floor:
		return route(v.Floor, v.Player.Pos, func(p world.Point) bool { return tileAt(v.Floor, p) == "stairs_up" })
	case target < v.Player.Floor:
		return route(v.Floor, v.Player.Pos, func(p world.Point) bool { return tileAt(v.Floor, p) == "stairs_down" })
	}
	for _, n := range v.Floor.NPCs {
		if n.ID == v.Phone.NPCID {
			goal := n.Pos
			return route(v.Floor, v.Player.Pos, func(p world.Point) bool { return p == goal })
		}
	}
	return world.Point{}, false
}

var directions = [...]world.Point{world.Up, world.Down, world.Left, world.Right}

// route runs a breadth-first search over open, unoccupied cells and
// returns the first step of the shortest path to a goal cell.
func route(f *FloorInfo, from world.Point, goal func(world.Point) bool) (world.Point, bool) {
	occupied := make(map[world.Point]bool, len(f.NPCs))
	for _, n := range f.NPCs {
		occupied[n.Pos] = true
	}

	first := map[world.Point]world.Point{from: {}}
	queue := []world.Point{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range directions {
			next := cur.Add(d)
			if _, seen := first[next]; seen {
				continue
			}
			step := first[cur]
			if cur == from {
				step = d
			}
			if goal(next) {
				return step, true
			}
			// Stairs only count as goals; stepping on one mid-route changes floor.
			if occupied[next] || tileAt(f, next) != "open" {
				continue
			}
			first[next] = step
			queue = append(queue, next)
		}
	}
	return world.Point{}, false
}

func tileAt(f *FloorInfo, p world.Point) string {
	if p.Y < 0 || p.Y >= len(f.Tiles) || p.X < 0 || p.X >= len(f.Tiles[p.Y]) {
		return "wall"
	}
	return f.Tiles[p.Y][p.X]
}

func intentsFor(d world.Point) agents.Intents {
	return agents.Intents{
		Up:    d == world.Up,
		Down:  d == world.Down,
		Left:  d == world.Left,
		Right: d == world.Right,
	}
}

func act(in engine.Input, reason string) Decision {
	return Decision{Input: &in, Rationale: reason}
}

func pick(pool []string, i int) string {
	if i < 0 {
		i = -i
	}
	return pool[i%len(pool)]
}
