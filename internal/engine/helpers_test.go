package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talgya/overtime/internal/agents"
	"github.com/talgya/overtime/internal/content"
	"github.com/talgya/overtime/internal/economy"
	"github.com/talgya/overtime/internal/llm"
	"github.com/talgya/overtime/internal/persistence"
	"github.com/talgya/overtime/internal/world"
)

// scriptedReasoner returns canned answers. Verdict scripts are consumed in
// order; an exhausted script fails. A non-nil gate holds every call until
// it is closed.
type scriptedReasoner struct {
	mu         sync.Mutex
	company    llm.CompanyProfile
	questions  []llm.Question
	interviews []bool
	tickets    []bool
	gate       chan struct{}
	calls      map[string]int
}

func newScripted() *scriptedReasoner {
	return &scriptedReasoner{
		company: llm.CompanyProfile{Name: "Initech", Theme: llm.ThemeCorporate, Departments: []string{"Sales", "HR"}},
		questions: []llm.Question{
			{Text: "Q1"}, {Text: "Q2"}, {Text: "Q3"}, {Text: "Q4"}, {Text: "Q5"}, {Text: "Q6"},
		},
		calls: make(map[string]int),
	}
}

func (r *scriptedReasoner) wait(ctx context.Context, name string) error {
	r.mu.Lock()
	r.calls[name]++
	gate := r.gate
	r.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *scriptedReasoner) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func (r *scriptedReasoner) next(script *[]bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(*script) == 0 {
		return false
	}
	v := (*script)[0]
	*script = (*script)[1:]
	return v
}

func (r *scriptedReasoner) CompanyProfile(ctx context.Context, _, _ string) (llm.CompanyProfile, error) {
	if err := r.wait(ctx, "company"); err != nil {
		return llm.CompanyProfile{}, err
	}
	return r.company, nil
}

func (r *scriptedReasoner) InterviewQuestions(ctx context.Context, _ llm.CompanyProfile) ([]llm.Question, error) {
	if err := r.wait(ctx, "questions"); err != nil {
		return nil, err
	}
	return r.questions, nil
}

func (r *scriptedReasoner) JudgeInterview(ctx context.Context, _ llm.CompanyProfile, _ []llm.Exchange, _, _ string) (llm.Verdict, error) {
	if err := r.wait(ctx, "judge_interview"); err != nil {
		return llm.Verdict{}, err
	}
	return llm.Verdict{Pass: r.next(&r.interviews), Reply: "ok"}, nil
}

func (r *scriptedReasoner) TicketComplaint(ctx context.Context, _ llm.CompanyProfile, dept string) (llm.Complaint, error) {
	if err := r.wait(ctx, "complaint"); err != nil {
		return llm.Complaint{}, err
	}
	return llm.Complaint{Role: "Clerk", Text: "Broken in " + dept}, nil
}

func (r *scriptedReasoner) JudgeTicket(ctx context.Context, _ llm.CompanyProfile, _ llm.Complaint, _ []llm.Exchange, _ string) (llm.Verdict, error) {
	if err := r.wait(ctx, "judge_ticket"); err != nil {
		return llm.Verdict{}, err
	}
	return llm.Verdict{Pass: r.next(&r.tickets), Reply: "hm"}, nil
}

type staticContent struct{}

func (staticContent) Next(context.Context) (content.Article, error) {
	return content.Article{Title: "Staplers", Text: "Staplers join paper."}, nil
}

type memStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	records []persistence.Checkpoint
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (m *memStore) Save(key string, blob []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = blob
}

func (m *memStore) Record(c persistence.Checkpoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, c)
}

func (m *memStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	return b, ok, nil
}

func (m *memStore) reasons() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.records {
		out = append(out, r.Reason)
	}
	return out
}

type fixture struct {
	s        *Session
	reasoner *scriptedReasoner
	store    *memStore
	clock    *FakeClock
}

func testOptions() Options {
	rules := economy.DefaultRules()
	rules.BaseStressRate = 0
	return Options{
		Rules:         rules,
		Move:          agents.DefaultMoveConfig(),
		World:         world.DefaultGenConfig(),
		PhoneInterval: 40 * time.Second,
		Timeout:       time.Second,
		Seed:          7,
		Prologue:      []string{"It is Monday."},
	}
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	fx := &fixture{
		reasoner: newScripted(),
		store:    newMemStore(),
		clock:    NewFakeClock(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)),
	}
	fx.s = NewSession(Deps{
		Reasoner: fx.reasoner,
		Content:  staticContent{},
		Store:    fx.store,
		Clock:    fx.clock,
	}, opts)
	t.Cleanup(fx.s.Close)
	return fx
}

func step(s *Session) {
	s.Tick(s.tick + 1)
}

func do(s *Session, in Input) {
	s.Enqueue(in)
	step(s)
}

// pump ticks until the outstanding request has been applied or discarded.
func pump(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for s.Pending() {
		require.True(t, time.Now().Before(deadline), "request never resolved")
		time.Sleep(time.Millisecond)
		step(s)
	}
}

// connect runs the prologue and the connecting call.
func (fx *fixture) connect(t *testing.T) {
	t.Helper()
	for fx.s.Phase() == PhasePrologue {
		do(fx.s, Input{Action: ActionAcknowledge})
	}
	require.Equal(t, PhaseConnectingCall, fx.s.Phase())
	pump(t, fx.s)
	require.Equal(t, PhaseInterviewInput, fx.s.Phase())
}

// interview answers every question and acknowledges each reply.
func (fx *fixture) interview(t *testing.T) {
	t.Helper()
	for fx.s.Phase() == PhaseInterviewInput {
		do(fx.s, Input{Action: ActionSubmit, Text: "an answer"})
		pump(t, fx.s)
		require.Equal(t, PhaseInterviewFeedback, fx.s.Phase())
		do(fx.s, Input{Action: ActionAcknowledge})
	}
	require.Equal(t, PhaseInterviewResult, fx.s.Phase())
}

// hire plays through to PLAY with a passing interview.
func (fx *fixture) hire(t *testing.T) {
	t.Helper()
	fx.reasoner.interviews = []bool{true, true, true, true, true, true}
	fx.connect(t)
	fx.interview(t)
	do(fx.s, Input{Action: ActionAcknowledge})
	require.Equal(t, PhasePlay, fx.s.Phase())
	fx.s.Drain()
}

// approach puts the player beside n and steps into it.
func (fx *fixture) approach(f *world.Floor, n *world.NPC) {
	p := fx.s.player
	p.Floor = f.Index
	p.Pos = n.Pos.Add(world.Left)
	p.LastMoveTick = 0
	do(fx.s, Input{Action: ActionMove, Intents: agents.Intents{Right: true}})
	fx.s.Enqueue(Input{Action: ActionMove})
}

// openTicket attaches a ticket to an office NPC and opens it.
func (fx *fixture) openTicket(t *testing.T) *world.NPC {
	t.Helper()
	f := fx.s.building.Offices()[0]
	n := f.NPCs[0]
	require.True(t, n.Attach(world.NewTicket(f.Name, fx.s.opts.Rules.TaskAttempts)))

	fx.approach(f, n)
	require.Equal(t, PhaseLoadingTask, fx.s.Phase())
	pump(t, fx.s)
	require.Equal(t, PhaseTypingTask, fx.s.Phase())
	fx.s.Drain()
	return n
}

func kinds(notes []Notification) []NotificationKind {
	var out []NotificationKind
	for _, n := range notes {
		out = append(out, n.Kind)
	}
	return out
}

func countKind(notes []Notification, k NotificationKind) int {
	c := 0
	for _, n := range notes {
		if n.Kind == k {
			c++
		}
	}
	return c
}
