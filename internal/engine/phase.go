package engine

// Phase is the top-level state of a session.
type Phase uint8

const (
	PhasePrologue Phase = iota
	PhaseConnectingCall
	PhaseInterviewInput
	PhaseInterviewFeedback
	PhaseInterviewResult
	PhasePlay
	PhaseLoadingTask
	PhaseTypingTask
	PhaseGameOver
)

var phaseNames = [...]string{
	PhasePrologue:          "prologue",
	PhaseConnectingCall:    "connecting_call",
	PhaseInterviewInput:    "interview_input",
	PhaseInterviewFeedback: "interview_feedback",
	PhaseInterviewResult:   "interview_result",
	PhasePlay:              "play",
	PhaseLoadingTask:       "loading_task",
	PhaseTypingTask:        "typing_task",
	PhaseGameOver:          "gameover",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Outcome is how a session ended.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeBurnout
	OutcomeShiftComplete
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBurnout:
		return "burnout"
	case OutcomeShiftComplete:
		return "shift_complete"
	case OutcomeRejected:
		return "rejected"
	default:
		return "none"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
