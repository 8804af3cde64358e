package engine

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/overtime/internal/agents"
	"github.com/talgya/overtime/internal/llm"
	"github.com/talgya/overtime/internal/world"
)

func TestPrologueToInterview(t *testing.T) {
	opts := testOptions()
	opts.Prologue = []string{"one", "two"}
	fx := newFixture(t, opts)
	s := fx.s

	step(s)
	assert.Equal(t, PhasePrologue, s.Phase())
	assert.Equal(t, "one", s.Snapshot().Prologue)

	do(s, Input{Action: ActionAcknowledge})
	assert.Equal(t, "two", s.Snapshot().Prologue)

	do(s, Input{Action: ActionAcknowledge})
	assert.Equal(t, PhaseConnectingCall, s.Phase())
	assert.True(t, s.Pending())

	pump(t, s)
	assert.Equal(t, PhaseInterviewInput, s.Phase())
	snap := s.Snapshot()
	assert.Equal(t, "Initech", snap.Company.Name)
	require.NotNil(t, snap.Interview)
	assert.Equal(t, "Q1", snap.Interview.Question)
	assert.Equal(t, 6, snap.Interview.Total)
}

func TestPrologueShowsCareer(t *testing.T) {
	opts := testOptions()
	opts.Career = Career{Shifts: 3, BestBalance: 1250}
	fx := newFixture(t, opts)

	last := fx.s.prologue[len(fx.s.prologue)-1]
	assert.Contains(t, last, "3")
	assert.Contains(t, last, "$1,250")
}

func TestInterviewGate(t *testing.T) {
	for total := 1; total <= 6; total++ {
		for score := 0; score <= total; score++ {
			want := float64(score) >= math.Ceil(float64(total)/2)
			assert.Equal(t, want, InterviewPassed(score, total), "score %d of %d", score, total)
		}
	}
}

func TestInterviewPassHires(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.reasoner.interviews = []bool{true, false, true, false, true, false}
	fx.connect(t)
	fx.interview(t)

	snap := fx.s.Snapshot()
	assert.Equal(t, 3, snap.Interview.Score)
	assert.True(t, snap.Interview.Passed)

	do(fx.s, Input{Action: ActionAcknowledge})
	require.Equal(t, PhasePlay, fx.s.Phase())
	assert.Equal(t, fx.s.opts.Rules.SigningBonus, fx.s.Resources().Money)
	assert.Zero(t, fx.s.Resources().Stress)
	assert.Len(t, fx.s.building.Floors, 4)
	assert.Equal(t, []string{"hired"}, fx.store.reasons())
	assert.Contains(t, fx.store.blobs, KeySession)
}

func TestInterviewFailRejects(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.reasoner.interviews = []bool{true, true}
	fx.connect(t)
	fx.interview(t)

	do(fx.s, Input{Action: ActionAcknowledge})
	assert.Equal(t, PhaseGameOver, fx.s.Phase())
	assert.Equal(t, OutcomeRejected, fx.s.Outcome())
	assert.Nil(t, fx.s.building)

	do(fx.s, Input{Action: ActionAcknowledge})
	assert.Equal(t, PhaseGameOver, fx.s.Phase())
}

func TestSubmitIgnoredWhilePending(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.connect(t)

	fx.reasoner.gate = make(chan struct{})
	do(fx.s, Input{Action: ActionSubmit, Text: "first"})
	do(fx.s, Input{Action: ActionSubmit, Text: "second"})
	do(fx.s, Input{Action: ActionAcknowledge})
	assert.Equal(t, PhaseInterviewInput, fx.s.Phase())
	assert.True(t, fx.s.Pending())

	close(fx.reasoner.gate)
	pump(t, fx.s)
	assert.Equal(t, PhaseInterviewFeedback, fx.s.Phase())
	assert.Equal(t, 1, fx.reasoner.count("judge_interview"))
	require.Len(t, fx.s.interview, 1)
	assert.Equal(t, "first", fx.s.interview[0].Answer)
}

func TestBlankSubmitIgnored(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.connect(t)

	do(fx.s, Input{Action: ActionSubmit, Text: "   "})
	assert.False(t, fx.s.Pending())
	assert.Equal(t, PhaseInterviewInput, fx.s.Phase())
}

func TestTimeoutUsesFallback(t *testing.T) {
	opts := testOptions()
	opts.Timeout = 20 * time.Millisecond
	fx := newFixture(t, opts)
	fx.connect(t)

	fx.reasoner.gate = make(chan struct{})
	defer close(fx.reasoner.gate)
	do(fx.s, Input{Action: ActionSubmit, Text: "hello there"})
	pump(t, fx.s)

	assert.Equal(t, PhaseInterviewFeedback, fx.s.Phase())
	assert.Equal(t, llm.FailedInterviewVerdict().Reply, fx.s.Snapshot().Interview.Feedback)
	assert.Zero(t, fx.s.score)
}

func TestInvalidTransitionsIgnored(t *testing.T) {
	fx := newFixture(t, testOptions())
	s := fx.s

	for _, a := range []Action{ActionSubmit, ActionAnswerPhone, ActionCancel, ActionAbandon, ActionShopBuy, ActionPause} {
		do(s, Input{Action: a, Text: "x"})
		assert.Equal(t, PhasePrologue, s.Phase(), "action %s", a)
		assert.False(t, s.Pending())
	}
	assert.Empty(t, s.Drain())
}

func TestBumpIntoWall(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s

	lobby := s.building.Floor(0)
	require.Equal(t, world.TileWall, lobby.Tile(s.player.Pos.Add(world.Down)))
	before := s.player.Pos

	do(s, Input{Action: ActionMove, Intents: agents.Intents{Down: true}})
	notes := s.Drain()

	assert.Equal(t, before, s.player.Pos)
	assert.Equal(t, 1, countKind(notes, NotifyBump))
}

func TestStairsUpChangesFloor(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s

	lobby := s.building.Floor(0)
	stairs, ok := lobby.Find(world.TileStairsUp)
	require.True(t, ok)
	s.player.Pos = stairs.Add(world.Down)
	require.Nil(t, lobby.NPCAt(stairs))

	do(s, Input{Action: ActionMove, Intents: agents.Intents{Up: true}})
	notes := s.Drain()

	assert.Equal(t, 1, s.player.Floor)
	assert.Equal(t, s.building.Floor(1).Spawns.Down, s.player.Pos)
	require.Equal(t, 1, countKind(notes, NotifyFloorChange))
	assert.Equal(t, world.CafeteriaName, notes[0].Message)
}

func TestSchedulerRingsOnce(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s

	step(s)
	assert.Nil(t, s.phone)

	fx.clock.Advance(40 * time.Second)
	step(s)
	require.NotNil(t, s.phone)
	assert.True(t, s.phone.Ringing)
	first := *s.phone

	fx.clock.Advance(40 * time.Second)
	step(s)
	assert.Equal(t, first, *s.phone)
	assert.Equal(t, 1, attachedTickets(s.building))
	assert.Equal(t, 1, countKind(s.Drain(), NotifyPhone))

	n, f := s.building.FindNPC(first.NPCID)
	require.NotNil(t, n)
	assert.Equal(t, world.FloorOffice, f.Kind)
	assert.Equal(t, world.RoleTaskBearer, n.CurrentRole())
}

func TestSchedulerIdleWhilePausedOrShopping(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s

	do(s, Input{Action: ActionPause})
	fx.clock.Advance(time.Minute)
	step(s)
	assert.Nil(t, s.phone)

	// Unpausing with the shop open lets the interval elapse without a call.
	s.shop.Open = true
	do(s, Input{Action: ActionPause})
	assert.False(t, s.paused)
	assert.Nil(t, s.phone)

	do(s, Input{Action: ActionShopClose})
	assert.Nil(t, s.phone)
	fx.clock.Advance(time.Minute)
	step(s)
	assert.NotNil(t, s.phone)
}

func TestSchedulerWithoutEligibleNPCs(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.reasoner.company.Departments = nil
	fx.hire(t)
	s := fx.s
	require.Empty(t, s.building.Offices())

	fx.clock.Advance(time.Minute)
	step(s)
	assert.Nil(t, s.phone)
}

func TestAnswerPhoneStopsEscalation(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s
	rules := s.opts.Rules

	fx.clock.Advance(time.Minute)
	step(s)
	require.NotNil(t, s.phone)

	before := s.Resources().Stress
	step(s)
	assert.InDelta(t, rules.PhoneStressRate, s.Resources().Stress-before, 1e-9)

	do(s, Input{Action: ActionAnswerPhone})
	assert.True(t, s.phone.Active)
	assert.False(t, s.phone.Ringing)
	assert.Contains(t, s.phone.Message, s.phone.NPCName)

	before = s.Resources().Stress
	step(s)
	assert.InDelta(t, 0, s.Resources().Stress-before, 1e-9)
}

func TestTicketFiveFailuresSingleTerminalPenalty(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s
	rules := s.opts.Rules

	n := fx.openTicket(t)
	assert.Equal(t, "Clerk", n.Task.Role)
	before := s.Resources().Stress

	var notes []Notification
	for i := 0; i < rules.TaskAttempts; i++ {
		require.Equal(t, PhaseTypingTask, s.Phase(), "attempt %d", i)
		do(s, Input{Action: ActionSubmit, Text: "turn it off and on"})
		pump(t, s)
		notes = append(notes, s.Drain()...)
	}

	assert.Equal(t, PhasePlay, s.Phase())
	assert.Nil(t, n.Task)
	assert.Equal(t, 1, countKind(notes, NotifyTaskFail))
	want := float64(rules.TaskAttempts-1)*rules.AttemptPenalty + rules.TerminalPenalty
	assert.InDelta(t, want, s.Resources().Stress-before, 1e-9)
	assert.Equal(t, rules.TaskAttempts, countKind(notes, NotifyStressGain))
	assert.Equal(t, 5, fx.reasoner.count("judge_ticket"))
}

func TestTicketSuccess(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s
	rules := s.opts.Rules
	s.resources.Stress = 50

	n := fx.openTicket(t)
	fx.reasoner.tickets = []bool{false, true}

	do(s, Input{Action: ActionSubmit, Text: "reboot"})
	pump(t, s)
	assert.Equal(t, PhaseTypingTask, s.Phase())
	assert.Equal(t, rules.TaskAttempts-1, n.Task.Attempts)
	assert.Len(t, s.thread, 1)

	money := s.Resources().Money
	do(s, Input{Action: ActionSubmit, Text: "restore from backup"})
	pump(t, s)

	assert.Equal(t, PhasePlay, s.Phase())
	assert.Nil(t, n.Task)
	assert.Equal(t, money+rules.TaskReward, s.Resources().Money)
	assert.InDelta(t, 50+rules.AttemptPenalty-rules.TaskRelief, s.Resources().Stress, 1e-9)
	assert.Contains(t, kinds(s.Drain()), NotifyTaskSuccess)
	assert.Equal(t, []string{"hired", "task_success"}, fx.store.reasons())
}

func TestAbandonTicket(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s

	n := fx.openTicket(t)
	before := s.Resources().Stress
	do(s, Input{Action: ActionAbandon})

	assert.Equal(t, PhasePlay, s.Phase())
	assert.Nil(t, n.Task)
	assert.InDelta(t, s.opts.Rules.TerminalPenalty, s.Resources().Stress-before, 1e-9)
}

func TestPenaltyBurnoutDuringTicket(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s
	fx.openTicket(t)
	s.resources.Stress = s.opts.Rules.MaxStress - 1

	do(s, Input{Action: ActionSubmit, Text: "no"})
	pump(t, s)

	assert.Equal(t, PhaseGameOver, s.Phase())
	assert.Equal(t, OutcomeBurnout, s.Outcome())
	assert.Equal(t, s.opts.Rules.MaxStress, s.Resources().Stress)
}

func TestLateResultDiscarded(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s

	f := s.building.Offices()[0]
	n := f.NPCs[0]
	require.True(t, n.Attach(world.NewTicket(f.Name, 5)))

	fx.reasoner.gate = make(chan struct{})
	fx.approach(f, n)
	require.Equal(t, PhaseLoadingTask, s.Phase())

	do(s, Input{Action: ActionCancel})
	assert.Equal(t, PhasePlay, s.Phase())
	assert.True(t, s.Pending())

	// A second ticket cannot start while the first request is in flight.
	s.player.LastMoveTick = 0
	fx.approach(f, n)
	assert.Equal(t, PhasePlay, s.Phase())
	assert.Equal(t, 1, fx.reasoner.count("complaint"))

	close(fx.reasoner.gate)
	pump(t, s)
	assert.Equal(t, PhasePlay, s.Phase())
	assert.False(t, n.Task.Loaded())

	// With the stale request gone the ticket can be reopened.
	s.player.LastMoveTick = 0
	fx.approach(f, n)
	assert.Equal(t, PhaseLoadingTask, s.Phase())
	pump(t, s)
	assert.Equal(t, PhaseTypingTask, s.Phase())
	assert.True(t, n.Task.Loaded())
}

func TestCancelKeepsTicketLive(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s

	fx.clock.Advance(40 * time.Second)
	step(s)
	require.NotNil(t, s.phone)
	require.True(t, s.answerPhone())
	n, f := s.building.FindNPC(s.phone.NPCID)
	require.NotNil(t, n)

	fx.reasoner.gate = make(chan struct{})
	fx.approach(f, n)
	require.Equal(t, PhaseLoadingTask, s.Phase())
	assert.Nil(t, s.phone)

	do(s, Input{Action: ActionCancel})
	require.Equal(t, PhasePlay, s.Phase())
	require.NotNil(t, s.phone)
	assert.Equal(t, n.ID, s.phone.NPCID)
	assert.True(t, s.phone.Active)
	assert.False(t, s.phone.Ringing)

	close(fx.reasoner.gate)
	pump(t, s)

	fx.clock.Advance(time.Minute)
	step(s)
	assert.Equal(t, 1, attachedTickets(s.building))
	assert.Equal(t, n.ID, s.phone.NPCID)
	assert.False(t, s.phone.Ringing)

	s.player.LastMoveTick = 0
	fx.approach(f, n)
	require.Equal(t, PhaseLoadingTask, s.Phase())
	pump(t, s)
	assert.Equal(t, PhaseTypingTask, s.Phase())
	assert.Equal(t, 1, attachedTickets(s.building))
}

func TestBurnout(t *testing.T) {
	opts := testOptions()
	opts.Rules.BaseStressRate = 1
	fx := newFixture(t, opts)
	fx.hire(t)
	s := fx.s
	s.resources.Stress = opts.Rules.MaxStress - 1.5

	step(s)
	assert.Equal(t, PhasePlay, s.Phase())
	step(s)
	assert.Equal(t, PhaseGameOver, s.Phase())
	assert.Equal(t, OutcomeBurnout, s.Outcome())
	assert.Contains(t, kinds(s.Drain()), NotifyBurnout)

	var c Career
	require.NoError(t, json.Unmarshal(fx.store.blobs[KeyCareer], &c))
	assert.Equal(t, 1, c.Burnouts)
}

func TestShiftComplete(t *testing.T) {
	opts := testOptions()
	opts.Rules.ShiftTicks = 10
	fx := newFixture(t, opts)
	fx.hire(t)
	s := fx.s

	for s.Resources().ShiftElapsed < 9 {
		step(s)
	}
	assert.Equal(t, PhasePlay, s.Phase())
	step(s)
	assert.Equal(t, PhaseGameOver, s.Phase())
	assert.Equal(t, OutcomeShiftComplete, s.Outcome())
	assert.Equal(t, []string{"hired", "shift_end"}, fx.store.reasons())

	c := LoadCareer(t.Context(), fx.store)
	assert.Equal(t, 1, c.Shifts)
	assert.Equal(t, opts.Rules.SigningBonus, c.BestBalance)

	step(s)
	assert.Equal(t, uint64(10), s.Resources().ShiftElapsed)
}

func TestPauseFreezesPlay(t *testing.T) {
	opts := testOptions()
	opts.Rules.BaseStressRate = 0.5
	fx := newFixture(t, opts)
	fx.hire(t)
	s := fx.s

	do(s, Input{Action: ActionPause})
	res := s.Resources()
	for i := 0; i < 20; i++ {
		step(s)
	}
	assert.Equal(t, res, s.Resources())
	assert.True(t, s.Snapshot().Paused)
}

func TestShopPurchase(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s

	caf := s.building.Floor(1)
	var vendor *world.NPC
	for _, n := range caf.NPCs {
		if n.Role == world.RoleVendor {
			vendor = n
		}
	}
	require.NotNil(t, vendor)
	fx.approach(caf, vendor)
	step(s)
	require.True(t, s.shop.Open)

	// Energy drink grants a speed boost.
	do(s, Input{Action: ActionShopNext})
	do(s, Input{Action: ActionShopNext})
	money := s.Resources().Money
	do(s, Input{Action: ActionShopBuy})

	assert.Equal(t, money-90, s.Resources().Money)
	assert.True(t, s.player.Boosted())
	assert.Contains(t, kinds(s.Drain()), NotifyPurchaseAccepted)
	assert.Equal(t, []string{"hired", "purchase"}, fx.store.reasons())
}

func TestShopRejectsUnaffordable(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s

	s.shop.Open = true
	s.shop.Selected = 3
	s.resources.Money = 100
	s.resources.Stress = 40
	before := s.Resources()

	do(s, Input{Action: ActionShopBuy})
	notes := s.Drain()

	assert.Equal(t, before.Money, s.Resources().Money)
	assert.Equal(t, before.Stress, s.Resources().Stress)
	require.Equal(t, 1, countKind(notes, NotifyPurchaseRejected))
	assert.Equal(t, []string{"hired"}, fx.store.reasons())
}

func TestResourceBoundsHold(t *testing.T) {
	opts := testOptions()
	opts.Rules.BaseStressRate = 0.05
	opts.PhoneInterval = time.Second
	fx := newFixture(t, opts)
	fx.hire(t)
	s := fx.s
	rng := rand.New(rand.NewSource(3))

	actions := []Action{ActionMove, ActionMove, ActionMove, ActionAnswerPhone, ActionCancel, ActionShopBuy, ActionShopNext, ActionShopClose}
	for i := 0; i < 3000 && s.Phase() != PhaseGameOver; i++ {
		in := Input{Action: actions[rng.Intn(len(actions))]}
		in.Intents = agents.Intents{Up: rng.Intn(4) == 0, Down: rng.Intn(4) == 0, Left: rng.Intn(4) == 0, Right: rng.Intn(4) == 0}
		s.Enqueue(in)
		if s.Phase() == PhaseTypingTask {
			s.Enqueue(Input{Action: ActionAbandon})
		}
		fx.clock.Advance(100 * time.Millisecond)
		step(s)
		if s.Phase() == PhaseLoadingTask {
			pump(t, s)
		}

		r := s.Resources()
		require.GreaterOrEqual(t, r.Stress, 0.0)
		require.LessOrEqual(t, r.Stress, opts.Rules.MaxStress)
		require.GreaterOrEqual(t, r.Money, 0)
		require.LessOrEqual(t, attachedTickets(s.building), 1)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	fx := newFixture(t, testOptions())
	fx.hire(t)
	s := fx.s

	snap := s.Snapshot()
	require.NotNil(t, snap.Floor)
	require.NotNil(t, snap.Player)
	assert.Equal(t, world.LobbyName, snap.Floor.Name)
	assert.Len(t, snap.Floors, 4)
	assert.Equal(t, "$500", snap.MoneyLabel)
	assert.Equal(t, "9:00 AM", snap.Clock)

	snap.Player.Pos = world.Point{X: 99, Y: 99}
	snap.Floor.Tiles[0][0] = world.TileOpen
	snap.Shop.Items[0].Cost = 0
	assert.NotEqual(t, snap.Player.Pos, s.player.Pos)
	assert.Equal(t, world.TileWall, s.building.Floor(0).Tile(world.Point{}))
	assert.NotZero(t, s.shop.Items[0].Cost)

	_, err := json.Marshal(snap)
	assert.NoError(t, err)
}

func attachedTickets(b *world.Building) int {
	c := 0
	for _, f := range b.Floors {
		for _, n := range f.NPCs {
			if n.Task != nil {
				c++
			}
		}
	}
	return c
}
