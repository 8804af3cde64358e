package engine

import (
	"github.com/talgya/overtime/internal/agents"
	"github.com/talgya/overtime/internal/economy"
	"github.com/talgya/overtime/internal/llm"
	"github.com/talgya/overtime/internal/world"
)

// Snapshot is a read-only copy of the session for the presentation layer.
// It shares no memory with the live session.
type Snapshot struct {
	Session string  `json:"session"`
	Tick    uint64  `json:"tick"`
	Phase   Phase   `json:"phase"`
	Outcome Outcome `json:"outcome"`
	Paused  bool    `json:"paused"`
	Pending bool    `json:"pending"`

	Prologue  string             `json:"prologue,omitempty"`
	Company   llm.CompanyProfile `json:"company"`
	Interview *InterviewView     `json:"interview,omitempty"`

	Resources      economy.Resources `json:"resources"`
	MaxStress      float64           `json:"max_stress"`
	MoneyLabel     string            `json:"money_label"`
	Clock          string            `json:"clock"`
	ShiftRemaining uint64            `json:"shift_remaining"`

	Floors []string       `json:"floors,omitempty"`
	Floor  *FloorView     `json:"floor,omitempty"` // The player's floor
	Player *agents.Player `json:"player,omitempty"`
	Phone  *PhoneEvent    `json:"phone,omitempty"`
	Shop   *economy.Shop  `json:"shop,omitempty"`
	Task   *TaskView      `json:"task,omitempty"`

	Career Career `json:"career"`
}

// InterviewView is the interview progress.
type InterviewView struct {
	Question string `json:"question,omitempty"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback,omitempty"`
	Passed   bool   `json:"passed"`
}

// FloorView is one floor's layout and occupants.
type FloorView struct {
	Index  int                `json:"index"`
	Name   string             `json:"name"`
	Kind   string             `json:"kind"`
	Tiles  [][]world.TileKind `json:"tiles"`
	NPCs   []NPCView          `json:"npcs"`
	Spawns world.Spawns       `json:"spawns"`
}

// NPCView is an NPC's presentation state.
type NPCView struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	Role       string           `json:"role"`
	Pos        world.Point      `json:"pos"`
	Render     world.Vec        `json:"render"`
	Appearance world.Appearance `json:"appearance"`
}

// TaskView is the ticket being worked on.
type TaskView struct {
	NPC        string `json:"npc"`
	Department string `json:"department"`
	Role       string `json:"role,omitempty"`
	Text       string `json:"text,omitempty"`
	Attempts   int    `json:"attempts"`
}

// Snapshot copies the state the presentation layer reads.
func (s *Session) Snapshot() Snapshot {
	rules := s.opts.Rules
	snap := Snapshot{
		Session:        s.ID.String(),
		Tick:           s.tick,
		Phase:          s.phase,
		Outcome:        s.outcome,
		Paused:         s.paused,
		Pending:        s.pending != nil,
		Company:        s.company,
		Resources:      s.resources,
		MaxStress:      rules.MaxStress,
		MoneyLabel:     economy.FormatMoney(s.resources.Money),
		Clock:          ShiftTime(s.resources.ShiftElapsed, rules.ShiftTicks),
		ShiftRemaining: s.resources.ShiftRemaining(rules),
		Career:         s.career,
	}
	snap.Company.Departments = append([]string(nil), s.company.Departments...)

	switch s.phase {
	case PhasePrologue:
		if s.prologueIdx < len(s.prologue) {
			snap.Prologue = s.prologue[s.prologueIdx]
		}
	case PhaseInterviewInput, PhaseInterviewFeedback, PhaseInterviewResult:
		iv := &InterviewView{
			Index:    s.questionIdx,
			Total:    len(s.questions),
			Score:    s.score,
			Feedback: s.feedback,
			Passed:   InterviewPassed(s.score, len(s.questions)),
		}
		if s.question != nil {
			iv.Question = s.question.Text
		}
		snap.Interview = iv
	case PhaseConnectingCall, PhasePlay, PhaseLoadingTask, PhaseTypingTask, PhaseGameOver:
	}

	if s.building != nil && s.player != nil {
		for _, f := range s.building.Floors {
			snap.Floors = append(snap.Floors, f.Name)
		}
		snap.Floor = floorView(s.building.Floor(s.player.Floor))
		p := *s.player
		snap.Player = &p
		shop := *s.shop
		shop.Items = append([]economy.Item(nil), s.shop.Items...)
		snap.Shop = &shop
	}
	if s.phone != nil {
		ph := *s.phone
		snap.Phone = &ph
	}
	if s.taskNPC != nil && s.taskNPC.Task != nil {
		t := s.taskNPC.Task
		snap.Task = &TaskView{
			NPC:        s.taskNPC.Name,
			Department: t.Department,
			Role:       t.Role,
			Text:       t.Text,
			Attempts:   t.Attempts,
		}
	}
	return snap
}

func floorView(f *world.Floor) *FloorView {
	if f == nil {
		return nil
	}
	v := &FloorView{
		Index:  f.Index,
		Name:   f.Name,
		Kind:   f.Kind.String(),
		Tiles:  f.Rows(),
		Spawns: f.Spawns,
		NPCs:   make([]NPCView, 0, len(f.NPCs)),
	}
	for _, n := range f.NPCs {
		v.NPCs = append(v.NPCs, NPCView{
			ID:         n.ID,
			Name:       n.Name,
			Role:       n.CurrentRole().String(),
			Pos:        n.Pos,
			Render:     n.Render,
			Appearance: n.Appearance,
		})
	}
	return v
}
