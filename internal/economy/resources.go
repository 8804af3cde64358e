// Package economy provides the player's resource model (stress, money, shift
// clock) and the cafeteria shop.
package economy

import (
	"github.com/dustin/go-humanize"
)

// Rules holds the balance constants of the resource model.
type Rules struct {
	MaxStress       float64 `yaml:"max_stress"`
	BaseStressRate  float64 `yaml:"base_stress_rate"`  // Per PLAY tick
	PhoneStressRate float64 `yaml:"phone_stress_rate"` // Extra per tick while the phone rings unanswered
	ShiftTicks      uint64  `yaml:"shift_ticks"`
	SigningBonus    int     `yaml:"signing_bonus"`
	TaskReward      int     `yaml:"task_reward"`
	TaskRelief      float64 `yaml:"task_relief"`
	AttemptPenalty  float64 `yaml:"attempt_penalty"`
	TerminalPenalty float64 `yaml:"terminal_penalty"`
	TaskAttempts    int     `yaml:"task_attempts"`
}

// DefaultRules returns the standard balance.
func DefaultRules() Rules {
	return Rules{
		MaxStress:       100,
		BaseStressRate:  0.003,
		PhoneStressRate: 0.03,
		ShiftTicks:      60 * 60 * 5, // Five minutes at 60 ticks per second
		SigningBonus:    500,
		TaskReward:      200,
		TaskRelief:      20,
		AttemptPenalty:  5,
		TerminalPenalty: 25,
		TaskAttempts:    5,
	}
}

// Resources is the player's bounded economy for one shift.
// Stress stays within [0, MaxStress] and Money never drops below zero.
type Resources struct {
	Stress       float64 `json:"stress"`
	Money        int     `json:"money"`
	ShiftElapsed uint64  `json:"shift_elapsed"`
}

// AddStress applies delta, clamped to [0, max], and returns the change that
// actually took effect.
func (r *Resources) AddStress(delta, max float64) float64 {
	before := r.Stress
	r.Stress += delta
	if r.Stress < 0 {
		r.Stress = 0
	}
	if r.Stress > max {
		r.Stress = max
	}
	return r.Stress - before
}

// Accrue applies one tick of stress: the base rate, plus the phone rate while
// an urgent call is ringing. It reports whether the player burned out.
func (r *Resources) Accrue(phoneRinging bool, rules Rules) bool {
	delta := rules.BaseStressRate
	if phoneRinging {
		delta += rules.PhoneStressRate
	}
	r.AddStress(delta, rules.MaxStress)
	return r.BurnedOut(rules)
}

// BurnedOut reports whether stress has reached the maximum.
func (r *Resources) BurnedOut(rules Rules) bool {
	return r.Stress >= rules.MaxStress
}

// TickShift advances the shift clock and reports whether the shift is over.
func (r *Resources) TickShift(rules Rules) bool {
	r.ShiftElapsed++
	return r.ShiftElapsed >= rules.ShiftTicks
}

// ShiftRemaining returns the ticks left in the shift.
func (r *Resources) ShiftRemaining(rules Rules) uint64 {
	if r.ShiftElapsed >= rules.ShiftTicks {
		return 0
	}
	return rules.ShiftTicks - r.ShiftElapsed
}

// Earn adds income. Negative amounts are ignored; money only goes down
// through Spend.
func (r *Resources) Earn(amount int) {
	if amount > 0 {
		r.Money += amount
	}
}

// Spend deducts cost if the player can afford it.
func (r *Resources) Spend(cost int) bool {
	if cost < 0 || cost > r.Money {
		return false
	}
	r.Money -= cost
	return true
}

// FormatMoney renders an amount for display, e.g. "$1,250".
func FormatMoney(amount int) string {
	return "$" + humanize.Comma(int64(amount))
}
