package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/talgya/overtime/internal/world"
)

// Clock abstracts wall time for the scheduler.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock is deterministic and test-friendly.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Scheduler fires on a fixed wall-clock interval, independent of the tick
// counter.
type Scheduler struct {
	clock    Clock
	interval time.Duration
	next     time.Time
}

// NewScheduler creates a scheduler whose first firing is one interval away.
func NewScheduler(clock Clock, interval time.Duration) *Scheduler {
	sc := &Scheduler{clock: clock, interval: interval}
	sc.Reset()
	return sc
}

// Reset restarts the interval from now.
func (sc *Scheduler) Reset() {
	sc.next = sc.clock.Now().Add(sc.interval)
}

// Due reports whether an interval boundary has passed and, if so, arms the
// next one. Missed intervals collapse into a single firing.
func (sc *Scheduler) Due() bool {
	now := sc.clock.Now()
	if now.Before(sc.next) {
		return false
	}
	sc.next = now.Add(sc.interval)
	return true
}

// PhoneEvent is the urgent call announcing a ticket.
type PhoneEvent struct {
	NPCID     int    `json:"npc_id"`
	NPCName   string `json:"npc_name"`
	Floor     int    `json:"floor"`
	FloorName string `json:"floor_name"`
	Ringing   bool   `json:"ringing"`
	Active    bool   `json:"active"`
	Message   string `json:"message"`
}

// pickTarget chooses uniformly among idle wanderers on office floors.
func pickTarget(b *world.Building, rng *rand.Rand) (*world.NPC, *world.Floor) {
	type candidate struct {
		npc   *world.NPC
		floor *world.Floor
	}
	var eligible []candidate
	for _, f := range b.Offices() {
		for _, n := range f.NPCs {
			if n.Role == world.RoleWanderer && n.Task == nil {
				eligible = append(eligible, candidate{n, f})
			}
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}
	c := eligible[rng.Intn(len(eligible))]
	return c.npc, c.floor
}
