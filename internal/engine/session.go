// Package engine provides the tick loop and the session state machine that
// composes world generation, agents, resources and remote evaluation.
package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/overtime/internal/agents"
	"github.com/talgya/overtime/internal/content"
	"github.com/talgya/overtime/internal/economy"
	"github.com/talgya/overtime/internal/llm"
	"github.com/talgya/overtime/internal/persistence"
	"github.com/talgya/overtime/internal/world"
)

// Reasoner generates and judges content.
type Reasoner interface {
	CompanyProfile(ctx context.Context, title, text string) (llm.CompanyProfile, error)
	InterviewQuestions(ctx context.Context, p llm.CompanyProfile) ([]llm.Question, error)
	JudgeInterview(ctx context.Context, p llm.CompanyProfile, history []llm.Exchange, question, answer string) (llm.Verdict, error)
	TicketComplaint(ctx context.Context, p llm.CompanyProfile, department string) (llm.Complaint, error)
	JudgeTicket(ctx context.Context, p llm.CompanyProfile, c llm.Complaint, thread []llm.Exchange, answer string) (llm.Verdict, error)
}

// ContentSource supplies the article that seeds generation.
type ContentSource interface {
	Next(ctx context.Context) (content.Article, error)
}

// Store persists checkpoints. Save and Record must not block.
type Store interface {
	Save(key string, blob []byte)
	Record(c persistence.Checkpoint)
	Load(ctx context.Context, key string) ([]byte, bool, error)
}

// Options tunes a session.
type Options struct {
	Rules         economy.Rules
	Move          agents.MoveConfig
	World         world.GenConfig
	PhoneInterval time.Duration
	Timeout       time.Duration // Per evaluation request
	Seed          int64         // 0 = random
	Prologue      []string      // Empty = default script
	Career        Career        // Loaded before the session starts
}

// Deps are the session's collaborators.
type Deps struct {
	Reasoner Reasoner
	Content  ContentSource
	Store    Store // May be nil
	Clock    Clock // Nil = RealClock
}

// inputQueue bounds actions buffered between ticks.
const inputQueue = 256

// Session is the simulation context for one run, from the prologue to game
// over. All methods except Enqueue must be called from the simulation
// goroutine.
type Session struct {
	ID uuid.UUID

	opts      Options
	deps      Deps
	gateway   *Gateway
	scheduler *Scheduler
	rng       *rand.Rand
	inputs    chan Input

	tick    uint64
	phase   Phase
	outcome Outcome
	paused  bool
	pending *request

	// Prologue and interview.
	prologue    []string
	prologueIdx int
	article     content.Article
	company     llm.CompanyProfile
	questions   []llm.Question
	question    *world.Task // Current interview question
	questionIdx int
	interview   []llm.Exchange
	score       int
	feedback    string

	// Play.
	building  *world.Building
	player    *agents.Player
	intents   agents.Intents
	resources economy.Resources
	shop      *economy.Shop
	phone     *PhoneEvent

	// Ticket minigame.
	taskNPC   *world.NPC
	complaint llm.Complaint
	thread    []llm.Exchange
	answer    string

	career Career
	notes  []Notification
}

// NewSession creates a session in the prologue.
func NewSession(deps Deps, opts Options) *Session {
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.PhoneInterval <= 0 {
		opts.PhoneInterval = 40 * time.Second
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Session{
		ID:        uuid.New(),
		opts:      opts,
		deps:      deps,
		gateway:   NewGateway(opts.Timeout, 16),
		scheduler: NewScheduler(deps.Clock, opts.PhoneInterval),
		rng:       rand.New(rand.NewSource(seed)),
		inputs:    make(chan Input, inputQueue),
		phase:     PhasePrologue,
		shop:      economy.NewShop(),
		career:    opts.Career,
	}
	s.prologue = prologueLines(opts.Prologue, opts.Career)

	slog.Info("session started", "id", s.ID, "seed", seed)
	return s
}

// Close abandons in-flight requests.
func (s *Session) Close() {
	s.gateway.Close()
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Outcome returns how the session ended, or OutcomeNone.
func (s *Session) Outcome() Outcome { return s.outcome }

// Pending reports whether an evaluation request is outstanding.
func (s *Session) Pending() bool { return s.pending != nil }

// Resources returns a copy of the resource state.
func (s *Session) Resources() economy.Resources { return s.resources }

// Tick advances the session by one step: queued inputs, then completed
// requests, then the simulation.
func (s *Session) Tick(tick uint64) {
	s.tick = tick
	s.applyInputs()
	s.drainResults()

	switch s.phase {
	case PhasePlay:
		if !s.paused {
			s.stepPlay()
		}
	case PhaseLoadingTask, PhaseTypingTask:
		s.stepAmbient()
	case PhasePrologue, PhaseConnectingCall, PhaseInterviewInput,
		PhaseInterviewFeedback, PhaseInterviewResult, PhaseGameOver:
	}
}

// dispatch starts the one outstanding request. It reports false when a
// request is already pending.
func (s *Session) dispatch(kind RequestKind, call func(context.Context) (any, error), fallback func() any) bool {
	if s.pending != nil {
		slog.Debug("request ignored, one already pending", "kind", kind, "pending", s.pending.Kind)
		return false
	}
	id := s.gateway.Dispatch(kind, s.phase, call, fallback)
	s.pending = &request{ID: id, Kind: kind, Phase: s.phase}
	return true
}

// drainResults applies completed requests. A result is applied only when it
// answers the pending request and the session is still in the phase that
// issued it.
func (s *Session) drainResults() {
	for {
		r, ok := s.gateway.Poll()
		if !ok {
			return
		}
		if s.pending == nil || r.ID != s.pending.ID {
			slog.Debug("stale result discarded", "kind", r.Kind, "id", r.ID)
			continue
		}
		s.pending = nil
		if s.phase != r.Phase {
			slog.Debug("late result discarded", "kind", r.Kind, "issued_in", r.Phase, "phase", s.phase)
			continue
		}
		s.apply(r)
	}
}

func (s *Session) apply(r Result) {
	switch r.Kind {
	case RequestBootstrap:
		s.onBootstrap(r.Value.(bootstrap))
	case RequestJudgeInterview:
		s.onInterviewVerdict(r.Value.(llm.Verdict))
	case RequestComplaint:
		s.onComplaint(r.Value.(llm.Complaint))
	case RequestJudgeTicket:
		s.onTicketVerdict(r.Value.(llm.Verdict))
	}
}

func (s *Session) gameOver(o Outcome) {
	s.phase = PhaseGameOver
	s.outcome = o
	s.phone = nil
	s.shop.Open = false

	switch o {
	case OutcomeBurnout:
		s.notify(NotifyBurnout, "You burned out.")
		s.career.Burnouts++
		s.saveCareer()
	case OutcomeShiftComplete:
		s.notify(NotifyShiftComplete, "Shift complete. You survived.")
		s.career.recordShift(s.resources.Money)
		s.checkpoint("shift_end")
		s.saveCareer()
	case OutcomeRejected, OutcomeNone:
	}
	slog.Info("session over",
		"outcome", o,
		"money", economy.FormatMoney(s.resources.Money),
		"stress", s.resources.Stress,
		"tick", s.tick,
	)
}
