package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/overtime/internal/agents"
	"github.com/talgya/overtime/internal/economy"
	"github.com/talgya/overtime/internal/llm"
	"github.com/talgya/overtime/internal/world"
)

var receptionistLines = []string{
	"Sign in, badge on, smile. The elevator has been broken since 2011.",
	"Cafeteria is one floor up. Departments are above that.",
	"If the phone rings, answer it. Trust me.",
}

var wandererLines = []string{
	"Have you seen my stapler?",
	"Another meeting that could have been an email.",
	"The coffee upstairs is better. Don't tell the vendor.",
	"Is it Friday yet?",
	"I've been on hold with IT for forty minutes.",
}

// stepPlay runs one PLAY tick: movement, agents, resources, then the
// scheduler.
func (s *Session) stepPlay() {
	if !s.shop.Open {
		s.movePlayer()
		if s.phase != PhasePlay {
			return
		}
	}
	s.stepAmbient()

	if s.resources.Accrue(s.phoneRinging(), s.opts.Rules) {
		s.gameOver(OutcomeBurnout)
		return
	}
	if s.resources.TickShift(s.opts.Rules) {
		s.gameOver(OutcomeShiftComplete)
		return
	}
	s.schedule()
}

// stepAmbient moves NPCs on the player's floor and eases the player.
func (s *Session) stepAmbient() {
	if f := s.building.Floor(s.player.Floor); f != nil {
		agents.StepNPCs(f, s.player.Pos, s.rng, s.opts.Move)
	}
	s.player.Ease(s.opts.Move)
}

func (s *Session) movePlayer() {
	res := agents.MovePlayer(s.building, s.player, s.intents, s.tick, s.opts.Move)
	switch res.Outcome {
	case agents.MoveBump:
		s.notify(NotifyBump, "")
	case agents.MoveFloorChange:
		s.notify(NotifyFloorChange, s.building.Floor(res.To).Name)
	case agents.MoveInteract:
		s.interact(res.NPC)
	case agents.MoveNone, agents.MoveStep:
	}
}

func (s *Session) interact(n *world.NPC) {
	switch n.CurrentRole() {
	case world.RoleTaskBearer:
		s.startTask(n)
	case world.RoleVendor:
		s.shop.Open = true
		s.shop.Selected = 0
	case world.RoleReceptionist:
		s.notify(NotifyChatter, fmt.Sprintf("%s: %s", n.Name, receptionistLines[s.rng.Intn(len(receptionistLines))]))
	case world.RoleWanderer:
		s.notify(NotifyChatter, fmt.Sprintf("%s: %s", n.Name, wandererLines[s.rng.Intn(len(wandererLines))]))
	}
}

func (s *Session) phoneRinging() bool {
	return s.phone != nil && s.phone.Ringing
}

// schedule rings the phone when the interval has elapsed and the player is
// free to take a call.
func (s *Session) schedule() {
	if !s.scheduler.Due() {
		return
	}
	if s.phase != PhasePlay || s.phone != nil || s.paused || s.shop.Open {
		return
	}
	n, f := pickTarget(s.building, s.rng)
	if n == nil {
		return
	}
	n.Attach(world.NewTicket(f.Name, s.opts.Rules.TaskAttempts))
	s.phone = &PhoneEvent{
		NPCID:     n.ID,
		NPCName:   n.Name,
		Floor:     f.Index,
		FloorName: f.Name,
		Ringing:   true,
		Message:   "The phone is ringing.",
	}
	s.notify(NotifyPhone, s.phone.Message)
	slog.Debug("phone ringing", "npc", n.Name, "floor", f.Name)
}

func (s *Session) answerPhone() bool {
	if s.phase != PhasePlay || s.phone == nil || !s.phone.Ringing {
		return false
	}
	s.phone.Ringing = false
	s.phone.Active = true
	s.phone.Message = fmt.Sprintf("%s on %s needs help. Go see them.", s.phone.NPCName, s.phone.FloorName)
	s.notify(NotifyPhone, s.phone.Message)
	return true
}

// startTask opens the ticket minigame with n.
func (s *Session) startTask(n *world.NPC) {
	if s.pending != nil {
		s.notify(NotifyChatter, fmt.Sprintf("%s: Hang on, I'm still on the other line.", n.Name))
		return
	}
	s.taskNPC = n
	s.thread = nil
	s.phone = nil
	s.phase = PhaseLoadingTask

	if n.Task.Loaded() {
		s.phase = PhaseTypingTask
		return
	}

	p, dept, reasoner := s.company, n.Task.Department, s.deps.Reasoner
	s.dispatch(RequestComplaint,
		func(ctx context.Context) (any, error) {
			return reasoner.TicketComplaint(ctx, p, dept)
		},
		func() any { return llm.FallbackComplaint(dept) },
	)
}

func (s *Session) onComplaint(c llm.Complaint) {
	t := s.taskNPC.Task
	t.Role = c.Role
	t.Text = c.Text
	s.complaint = c
	s.phase = PhaseTypingTask
}

func (s *Session) cancelTask() bool {
	if s.phase != PhaseLoadingTask {
		return false
	}
	s.phone = s.activeCall(s.taskNPC)
	s.taskNPC = nil
	s.phase = PhasePlay
	return true
}

// activeCall rebuilds the answered call for a ticket that is still open, so
// the scheduler stays idle until the ticket is resolved.
func (s *Session) activeCall(n *world.NPC) *PhoneEvent {
	if n == nil || n.Task == nil {
		return nil
	}
	_, f := s.building.FindNPC(n.ID)
	if f == nil {
		return nil
	}
	return &PhoneEvent{
		NPCID:     n.ID,
		NPCName:   n.Name,
		Floor:     f.Index,
		FloorName: f.Name,
		Active:    true,
		Message:   fmt.Sprintf("%s on %s is still waiting on you.", n.Name, f.Name),
	}
}

func (s *Session) submitTicket(answer string) bool {
	p, c, thread := s.company, s.complaint, append([]llm.Exchange(nil), s.thread...)
	reasoner := s.deps.Reasoner
	ok := s.dispatch(RequestJudgeTicket,
		func(ctx context.Context) (any, error) {
			return reasoner.JudgeTicket(ctx, p, c, thread, answer)
		},
		func() any { return llm.FailedTicketVerdict() },
	)
	if ok {
		s.answer = answer
	}
	return ok
}

func (s *Session) onTicketVerdict(v llm.Verdict) {
	rules := s.opts.Rules
	t := s.taskNPC.Task

	if v.Pass {
		s.resources.Earn(rules.TaskReward)
		s.resources.AddStress(-rules.TaskRelief, rules.MaxStress)
		s.notify(NotifyTaskSuccess, fmt.Sprintf("%s Earned %s.", v.Reply, economy.FormatMoney(rules.TaskReward)))
		s.endTask()
		s.checkpoint("task_success")
		return
	}

	t.Attempts--
	if t.Attempts <= 0 {
		s.failTask(v.Reply)
		return
	}
	s.thread = append(s.thread, llm.Exchange{Prompt: s.complaint.Text, Answer: s.answer, Reply: v.Reply})
	s.answer = ""
	s.penalize(rules.AttemptPenalty, fmt.Sprintf("%s (%d attempts left)", v.Reply, t.Attempts))
}

func (s *Session) abandonTask() bool {
	if s.phase != PhaseTypingTask || s.pending != nil {
		return false
	}
	s.failTask("You walk away from the ticket.")
	return true
}

// failTask force-fails the ticket with the terminal penalty only.
func (s *Session) failTask(reply string) {
	s.notify(NotifyTaskFail, reply)
	s.endTask()
	s.penalize(s.opts.Rules.TerminalPenalty, "The ticket escalated to your manager.")
}

func (s *Session) endTask() {
	if s.taskNPC != nil {
		s.taskNPC.Detach()
	}
	s.taskNPC = nil
	s.thread = nil
	s.answer = ""
	s.complaint = llm.Complaint{}
	s.phase = PhasePlay
}

// penalize adds stress and ends the session if it burns the player out.
func (s *Session) penalize(amount float64, msg string) {
	applied := s.resources.AddStress(amount, s.opts.Rules.MaxStress)
	s.notes = append(s.notes, Notification{Tick: s.tick, Kind: NotifyStressGain, Message: msg, Amount: applied})
	if s.resources.BurnedOut(s.opts.Rules) {
		s.gameOver(OutcomeBurnout)
	}
}

func (s *Session) shopAction(a Action) bool {
	if s.phase != PhasePlay || !s.shop.Open {
		return false
	}
	switch a {
	case ActionShopNext:
		s.shop.Next()
	case ActionShopPrev:
		s.shop.Prev()
	case ActionShopClose:
		s.shop.Open = false
	case ActionShopBuy:
		s.buy()
	}
	return true
}

func (s *Session) buy() {
	p := s.shop.Buy(&s.resources, s.opts.Rules)
	if !p.Accepted {
		s.notify(NotifyPurchaseRejected, p.Message())
		return
	}
	if p.Item.SpeedBoost {
		s.player.Boost(s.opts.Move.BoostDuration)
	}
	s.notify(NotifyPurchaseAccepted, p.Message())
	s.checkpoint("purchase")
}
