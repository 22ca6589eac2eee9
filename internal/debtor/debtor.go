// Package debtor implements the hidden ground-truth model: per-debtor
// financial and psychological dynamics, and the stochastic resolution of a
// visit attempt into a monetary outcome. Policies never read this state;
// they observe outcomes only.
package debtor

import "errors"

// ErrStateInvariant marks a broken model invariant (negative funds or debt).
// It indicates a bug in the ground-truth model itself; the surrounding
// episode is aborted, never retried.
var ErrStateInvariant = errors.New("state invariant violation")

// FinancialState is derived from the funds/income ratio. Never stored.
type FinancialState string

const (
	Fresh    FinancialState = "FRESH"
	Normal   FinancialState = "NORMAL"
	Depleted FinancialState = "DEPLETED"
)

// MindState is derived from accumulated visit pressure. Never stored.
type MindState string

const (
	Calm      MindState = "CALM"
	Pressured MindState = "PRESSURED"
)

// Debtor is one unit of bandit selection. MoneyOwed, CurrentFunds and
// Pressure are hidden ground truth; the bandit layer sees only realized
// visit outcomes.
type Debtor struct {
	ID            int
	Archetype     Archetype
	InitialDebt   float64
	MoneyOwed     float64
	MonthlyIncome float64
	// SalaryDate is the day of month (1..28) funds reset to MonthlyIncome.
	// Zero disables the salary credit.
	SalaryDate   int
	CurrentFunds float64
	Pressure     float64
	// AwayDays > 0 forces NOT_HOME for the remainder of an
	// out-of-station spell.
	AwayDays int

	visitedToday bool
}

// Settled reports whether the debt is fully recovered. Settled debtors are
// excluded from candidate selection for the rest of the episode.
func (d *Debtor) Settled() bool {
	return d.MoneyOwed <= 0
}

// FinancialState derives the financial state from current funds. Pure.
func (d *Debtor) FinancialState(p Params) FinancialState {
	ratio := d.CurrentFunds / d.MonthlyIncome
	switch {
	case ratio >= p.FreshRatio:
		return Fresh
	case ratio < p.DepletedRatio:
		return Depleted
	default:
		return Normal
	}
}

// MindState derives the psychological state from pressure. Pure.
func (d *Debtor) MindState(p Params) MindState {
	if d.Pressure >= p.PressureThreshold {
		return Pressured
	}
	return Calm
}

// checkInvariants verifies funds and debt are non-negative.
func (d *Debtor) checkInvariants() error {
	if d.CurrentFunds < 0 {
		return errors.Join(ErrStateInvariant, errors.New("current funds below zero"))
	}
	if d.MoneyOwed < 0 {
		return errors.Join(ErrStateInvariant, errors.New("money owed below zero"))
	}
	return nil
}

// OutcomeKind classifies a resolved visit.
type OutcomeKind string

const (
	NotHome   OutcomeKind = "not_home"
	NoPayment OutcomeKind = "no_payment"
	Paid      OutcomeKind = "paid"
)

// Outcome is the observable result of one visit attempt. Amount is zero
// unless Kind is Paid.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Amount float64     `json:"amount,omitempty"`
}

// Reward is the monetary reward the bandit layer observes.
func (o Outcome) Reward() float64 {
	if o.Kind == Paid {
		return o.Amount
	}
	return 0
}
