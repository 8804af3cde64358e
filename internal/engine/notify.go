package engine

// NotificationKind classifies a discrete event for the presentation layer.
type NotificationKind string

const (
	NotifyBump             NotificationKind = "bump"
	NotifyFloorChange      NotificationKind = "floor_change"
	NotifyPurchaseAccepted NotificationKind = "purchase_accepted"
	NotifyPurchaseRejected NotificationKind = "purchase_rejected"
	NotifyStressGain       NotificationKind = "stress_gain"
	NotifyTaskSuccess      NotificationKind = "task_success"
	NotifyTaskFail         NotificationKind = "task_fail"
	NotifyBurnout          NotificationKind = "burnout"
	NotifyPhone            NotificationKind = "phone"
	NotifyChatter          NotificationKind = "chatter"
	NotifyShiftComplete    NotificationKind = "shift_complete"
)

// Notification is emitted once by the session and drained by the publisher.
type Notification struct {
	Tick    uint64           `json:"tick"`
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message,omitempty"`
	Amount  float64          `json:"amount,omitempty"` // Stress applied, for stress_gain
}

func (s *Session) notify(kind NotificationKind, msg string) {
	s.notes = append(s.notes, Notification{Tick: s.tick, Kind: kind, Message: msg})
}

// Drain returns and clears the notifications emitted since the last call.
func (s *Session) Drain() []Notification {
	out := s.notes
	s.notes = nil
	return out
}
