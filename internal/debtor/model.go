package debtor

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Params are the behavioral constants of the ground-truth model. They come
// from scenario configuration, with per-run jitter applied by the
// experiment layer.
type Params struct {
	BaseSuccessRate float64

	AmountPctMean   float64
	AmountPctStddev float64

	PressureStep      float64
	PressureDecay     float64
	PressureThreshold float64

	FreshRatio    float64
	DepletedRatio float64

	DailyExpensePct    float64
	DailyExpenseJitter float64

	OutOfStationProb    float64
	OutOfStationDaysMax int

	DepletedDampener float64
	PressuredBoost   float64
}

// Payment fractions are clipped rather than resampled; the tails of the
// Normal are not meaningful here.
const (
	minAmountFraction = 0.05
	maxAmountFraction = 0.80
)

// Model owns the hidden dynamics for one episode's population. Not safe for
// concurrent use; every episode gets its own Model and rng.
type Model struct {
	Params Params
	rng    *rand.Rand
}

// NewModel creates a ground-truth model with its own random stream.
func NewModel(p Params, rng *rand.Rand) *Model {
	return &Model{Params: p, rng: rng}
}

// AdvanceDay applies one day of hidden dynamics: salary credit, sampled
// daily expense, pressure decay when unvisited, and out-of-station spells.
// Call exactly once per debtor per simulated day, after all visits.
func (m *Model) AdvanceDay(d *Debtor, day int) error {
	p := m.Params

	if d.SalaryDate > 0 && dayOfMonth(day) == d.SalaryDate {
		d.CurrentFunds = d.MonthlyIncome
	} else {
		expense := d.MonthlyIncome * p.DailyExpensePct
		if p.DailyExpenseJitter > 0 {
			n := distuv.Normal{Mu: 1, Sigma: p.DailyExpenseJitter, Src: m.rng}
			expense *= math.Max(0, n.Rand())
		}
		d.CurrentFunds = math.Max(0, d.CurrentFunds-expense)
	}

	if !d.visitedToday {
		d.Pressure *= 1 - p.PressureDecay
	}
	d.visitedToday = false

	switch {
	case d.AwayDays > 0:
		d.AwayDays--
	case p.OutOfStationProb > 0 && m.rng.Float64() < p.OutOfStationProb:
		d.AwayDays = 1 + m.rng.IntN(max(1, p.OutOfStationDaysMax))
	}

	return d.checkInvariants()
}

// ResolveVisit turns a visit attempt at the given hour into an outcome via
// three short-circuiting stochastic gates: availability, willingness,
// amount. Every attempt raises pressure regardless of outcome.
func (m *Model) ResolveVisit(d *Debtor, hour int) (Outcome, error) {
	p := m.Params

	d.Pressure += p.PressureStep
	d.visitedToday = true

	// Gate 1: is anyone home?
	home := d.AwayDays == 0 && m.rng.Float64() < d.Archetype.Availability(hour)
	if !home {
		return Outcome{Kind: NotHome}, nil
	}

	// Gate 2: willing to pay today?
	fs := d.FinancialState(p)
	ms := d.MindState(p)
	prob := math.Min(1, p.BaseSuccessRate*willingnessModifier(fs, ms))
	if m.rng.Float64() >= prob {
		return Outcome{Kind: NoPayment}, nil
	}

	// Gate 3: how much?
	n := distuv.Normal{Mu: p.AmountPctMean, Sigma: p.AmountPctStddev, Src: m.rng}
	fraction := clamp(n.Rand(), minAmountFraction, maxAmountFraction)
	amount := fraction * d.MoneyOwed
	if fs == Depleted {
		amount *= p.DepletedDampener
	}
	if ms == Pressured {
		amount *= p.PressuredBoost
	}
	amount = math.Min(amount, math.Min(d.CurrentFunds, d.MoneyOwed))
	if amount <= 0 {
		// Willing but broke.
		return Outcome{Kind: NoPayment}, nil
	}

	d.CurrentFunds -= amount
	d.MoneyOwed -= amount
	// Residues below one cent count as settled.
	if d.MoneyOwed < 0.01 {
		d.MoneyOwed = 0
	}
	return Outcome{Kind: Paid, Amount: amount}, d.checkInvariants()
}

// willingnessModifier scales the base success rate by derived state. A
// pressured debtor is more likely to pay; a depleted one rarely can.
func willingnessModifier(fs FinancialState, ms MindState) float64 {
	mod := map[FinancialState]float64{
		Fresh:    1.0,
		Normal:   0.7,
		Depleted: 0.2,
	}[fs]
	if ms == Pressured {
		mod *= 1.25
	}
	return mod
}

func dayOfMonth(day int) int {
	return (day-1)%30 + 1
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
