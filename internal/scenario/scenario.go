// Package scenario defines the simulation configuration surface: debtor
// population shape, collector schedules, behavioral constants of the hidden
// ground-truth model, travel parameters, and experiment settings. Scenarios
// are loaded from YAML and validated before any run starts.
package scenario

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks a scenario that fails validation. Harness startup
// wraps every validation failure with this sentinel and refuses to run;
// bad parameters are never silently clamped.
var ErrConfiguration = errors.New("configuration error")

// Scenario is the complete configuration for one simulated district.
type Scenario struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`

	// Days is the episode horizon in simulated days.
	Days int `yaml:"days" json:"days"`
	// Seed is the base random seed; per-run seeds derive from it.
	Seed uint64 `yaml:"seed" json:"seed"`

	Debtors    Debtors     `yaml:"debtors" json:"debtors"`
	Collectors []Collector `yaml:"collectors" json:"collectors"`
	Behavior   Behavior    `yaml:"behavior" json:"behavior"`
	Travel     Travel      `yaml:"travel" json:"travel"`
	Experiment Experiment  `yaml:"experiment" json:"experiment"`
}

// Debtors describes how the debtor population is generated per episode.
type Debtors struct {
	Count        int     `yaml:"count" json:"count"`
	DebtMin      float64 `yaml:"debt_min" json:"debt_min"`
	DebtMax      float64 `yaml:"debt_max" json:"debt_max"`
	IncomeMean   float64 `yaml:"income_mean" json:"income_mean"`
	IncomeStddev float64 `yaml:"income_stddev" json:"income_stddev"`
	// IncomeJitter widens the per-run redraw of IncomeMean, so each
	// experiment repetition sees a fresh economic profile.
	IncomeJitter float64 `yaml:"income_jitter" json:"income_jitter"`
	// AreaKM is the side of the square the debtor homes scatter over.
	AreaKM float64 `yaml:"area_km" json:"area_km"`
}

// Collector is one field collector's schedule.
type Collector struct {
	ID        string `yaml:"id" json:"id"`
	StartHour int    `yaml:"start_hour" json:"start_hour"`
	EndHour   int    `yaml:"end_hour" json:"end_hour"`
}

// Behavior holds the constants of the hidden debtor model. The exact
// functional forms (thresholds, decay rates) are tuning knobs, not
// hard-coded assumptions.
type Behavior struct {
	BaseSuccessRate   float64 `yaml:"base_success_rate" json:"base_success_rate"`
	SuccessRateJitter float64 `yaml:"success_rate_jitter" json:"success_rate_jitter"`

	// Payment amount: fraction of remaining debt, clipped Normal.
	AmountPctMean   float64 `yaml:"amount_pct_mean" json:"amount_pct_mean"`
	AmountPctStddev float64 `yaml:"amount_pct_stddev" json:"amount_pct_stddev"`

	// Pressure dynamics.
	PressureStep      float64 `yaml:"pressure_step" json:"pressure_step"`
	PressureDecay     float64 `yaml:"pressure_decay" json:"pressure_decay"`
	PressureThreshold float64 `yaml:"pressure_threshold" json:"pressure_threshold"`

	// Financial state thresholds as funds/income ratios.
	FreshRatio    float64 `yaml:"fresh_ratio" json:"fresh_ratio"`
	DepletedRatio float64 `yaml:"depleted_ratio" json:"depleted_ratio"`

	// Daily spending as a fraction of monthly income.
	DailyExpensePct    float64 `yaml:"daily_expense_pct" json:"daily_expense_pct"`
	DailyExpenseJitter float64 `yaml:"daily_expense_jitter" json:"daily_expense_jitter"`

	// Out-of-station spells force NOT_HOME for their whole duration.
	OutOfStationProb    float64 `yaml:"out_of_station_prob" json:"out_of_station_prob"`
	OutOfStationDaysMax int     `yaml:"out_of_station_days_max" json:"out_of_station_days_max"`

	// Outcome-amount modifiers by derived state.
	DepletedDampener float64 `yaml:"depleted_dampener" json:"depleted_dampener"`
	PressuredBoost   float64 `yaml:"pressured_boost" json:"pressured_boost"`
}

// Travel holds routing and visit-duration parameters.
type Travel struct {
	SpeedKMH         float64 `yaml:"speed_kmh" json:"speed_kmh"`
	VisitMeanMin     float64 `yaml:"visit_mean_minutes" json:"visit_mean_minutes"`
	VisitStddevMin   float64 `yaml:"visit_stddev_minutes" json:"visit_stddev_minutes"`
	DailyTravelCapMin float64 `yaml:"daily_travel_cap_minutes" json:"daily_travel_cap_minutes"`
}

// Experiment holds Monte Carlo harness settings.
type Experiment struct {
	Runs     int      `yaml:"runs" json:"runs"`
	Policies []string `yaml:"policies" json:"policies"`
	UCBC     float64  `yaml:"ucb_c" json:"ucb_c"`
	// ScaledThompson scales the alpha increment by normalized reward
	// magnitude instead of the flat +1.
	ScaledThompson bool `yaml:"scaled_thompson" json:"scaled_thompson"`
}

// Validate checks the scenario for degenerate parameters. All failures wrap
// ErrConfiguration.
func (s *Scenario) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...)
	}

	if s.Days <= 0 {
		return fail("days must be positive, got %d", s.Days)
	}
	if s.Debtors.Count <= 0 {
		return fail("debtor count must be positive, got %d", s.Debtors.Count)
	}
	if s.Debtors.DebtMin <= 0 || s.Debtors.DebtMax < s.Debtors.DebtMin {
		return fail("debt range [%g, %g] is invalid", s.Debtors.DebtMin, s.Debtors.DebtMax)
	}
	if s.Debtors.IncomeMean <= 0 {
		return fail("income mean must be positive, got %g", s.Debtors.IncomeMean)
	}
	if s.Debtors.AreaKM <= 0 {
		return fail("area must be positive, got %g", s.Debtors.AreaKM)
	}
	if len(s.Collectors) == 0 {
		return fail("at least one collector is required")
	}
	for _, c := range s.Collectors {
		if c.ID == "" {
			return fail("collector with empty id")
		}
		if c.StartHour < 0 || c.EndHour > 24 || c.EndHour <= c.StartHour {
			return fail("collector %s window [%d, %d) is malformed", c.ID, c.StartHour, c.EndHour)
		}
	}

	b := s.Behavior
	if b.BaseSuccessRate <= 0 || b.BaseSuccessRate > 1 {
		return fail("base success rate %g outside (0, 1]", b.BaseSuccessRate)
	}
	if b.AmountPctMean <= 0 || b.AmountPctMean > 1 {
		return fail("amount pct mean %g outside (0, 1]", b.AmountPctMean)
	}
	if b.AmountPctStddev < 0 {
		return fail("amount pct stddev must be non-negative, got %g", b.AmountPctStddev)
	}
	if b.PressureStep < 0 || b.PressureDecay < 0 || b.PressureDecay > 1 {
		return fail("pressure step %g / decay %g out of range", b.PressureStep, b.PressureDecay)
	}
	if b.PressureThreshold <= 0 {
		return fail("pressure threshold must be positive, got %g", b.PressureThreshold)
	}
	if b.DepletedRatio < 0 || b.FreshRatio <= b.DepletedRatio {
		return fail("financial thresholds fresh=%g depleted=%g are not ordered", b.FreshRatio, b.DepletedRatio)
	}
	if b.DailyExpensePct < 0 || b.DailyExpensePct > 1 {
		return fail("daily expense pct %g outside [0, 1]", b.DailyExpensePct)
	}
	if b.OutOfStationProb < 0 || b.OutOfStationProb > 1 {
		return fail("out-of-station probability %g outside [0, 1]", b.OutOfStationProb)
	}
	if b.DepletedDampener < 0 || b.DepletedDampener > 1 {
		return fail("depleted dampener %g outside [0, 1]", b.DepletedDampener)
	}
	if b.PressuredBoost < 1 {
		return fail("pressured boost %g must be >= 1", b.PressuredBoost)
	}

	if s.Travel.SpeedKMH <= 0 {
		return fail("travel speed must be positive, got %g", s.Travel.SpeedKMH)
	}
	if s.Travel.VisitMeanMin <= 0 {
		return fail("visit mean minutes must be positive, got %g", s.Travel.VisitMeanMin)
	}

	if s.Experiment.Runs <= 0 {
		return fail("experiment runs must be positive, got %d", s.Experiment.Runs)
	}
	if s.Experiment.UCBC <= 0 {
		return fail("ucb exploration constant must be positive, got %g", s.Experiment.UCBC)
	}
	return nil
}
