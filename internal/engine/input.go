package engine

import (
	"log/slog"
	"strings"

	"github.com/talgya/overtime/internal/agents"
)

// Action is a player command from the presentation layer.
type Action string

const (
	ActionAcknowledge Action = "acknowledge"
	ActionSubmit      Action = "submit"
	ActionMove        Action = "move" // Replaces the held direction intents
	ActionAnswerPhone Action = "answer_phone"
	ActionCancel      Action = "cancel"
	ActionAbandon     Action = "abandon"
	ActionShopNext    Action = "shop_next"
	ActionShopPrev    Action = "shop_prev"
	ActionShopBuy     Action = "shop_buy"
	ActionShopClose   Action = "shop_close"
	ActionPause       Action = "pause"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionAcknowledge, ActionSubmit, ActionMove, ActionAnswerPhone, ActionCancel,
		ActionAbandon, ActionShopNext, ActionShopPrev, ActionShopBuy, ActionShopClose, ActionPause:
		return a, true
	}
	return "", false
}

// Input is one queued player command.
type Input struct {
	Action  Action         `json:"action"`
	Text    string         `json:"text,omitempty"`
	Intents agents.Intents `json:"intents"`
}

// Enqueue queues an input for the next tick. It is safe for concurrent use
// and reports false when the queue is full.
func (s *Session) Enqueue(in Input) bool {
	select {
	case s.inputs <- in:
		return true
	default:
		return false
	}
}

func (s *Session) applyInputs() {
	for {
		select {
		case in := <-s.inputs:
			s.handle(in)
		default:
			return
		}
	}
}

// handle applies one input. Inputs outside their valid phase are ignored.
func (s *Session) handle(in Input) {
	ok := false
	switch in.Action {
	case ActionAcknowledge:
		ok = s.acknowledge()
	case ActionSubmit:
		ok = s.submit(in.Text)
	case ActionMove:
		s.intents = in.Intents
		ok = true
	case ActionAnswerPhone:
		ok = s.answerPhone()
	case ActionCancel:
		ok = s.cancelTask()
	case ActionAbandon:
		ok = s.abandonTask()
	case ActionShopNext, ActionShopPrev, ActionShopBuy, ActionShopClose:
		ok = s.shopAction(in.Action)
	case ActionPause:
		ok = s.togglePause()
	}
	if !ok {
		slog.Debug("input ignored", "action", in.Action, "phase", s.phase, "pending", s.pending != nil)
	}
}

func (s *Session) acknowledge() bool {
	switch s.phase {
	case PhasePrologue:
		s.advancePrologue()
		return true
	case PhaseInterviewFeedback:
		s.nextQuestion()
		return true
	case PhaseInterviewResult:
		s.concludeInterview()
		return true
	case PhaseConnectingCall, PhaseInterviewInput, PhasePlay, PhaseLoadingTask, PhaseTypingTask, PhaseGameOver:
	}
	return false
}

func (s *Session) submit(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	switch s.phase {
	case PhaseInterviewInput:
		return s.submitInterview(text)
	case PhaseTypingTask:
		return s.submitTicket(text)
	case PhasePrologue, PhaseConnectingCall, PhaseInterviewFeedback, PhaseInterviewResult,
		PhasePlay, PhaseLoadingTask, PhaseGameOver:
	}
	return false
}

func (s *Session) togglePause() bool {
	if s.phase != PhasePlay {
		return false
	}
	s.paused = !s.paused
	slog.Debug("pause toggled", "paused", s.paused)
	return true
}
