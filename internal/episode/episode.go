// Package episode drives one simulated run: a fixed calendar of days, each
// day a bounded number of visit slots per collector, filled by the bandit
// policy and resolved by the hidden ground-truth model. Days are strictly
// sequential; nothing inside an episode is concurrent.
package episode

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"collectsim/internal/debtor"
	"collectsim/internal/logging"
	"collectsim/internal/policy"
	"collectsim/internal/route"
	"collectsim/internal/scenario"
)

// State is the episode lifecycle: INIT -> RUNNING -> DONE.
type State int

const (
	StateInit State = iota
	StateRunning
	StateDone
)

// Visit is one immutable entry of the append-only visit log.
type Visit struct {
	Day         int            `json:"day"`
	Hour        int            `json:"hour"`
	CollectorID string         `json:"collector_id"`
	DebtorID    int            `json:"debtor_id"`
	Outcome     debtor.Outcome `json:"outcome"`
}

// Config assembles one episode. IncomeMean and SuccessRate carry the run's
// sampled economic profile; zero values fall back to the scenario.
type Config struct {
	Scenario *scenario.Scenario
	Policy   policy.Policy
	Seed     uint64

	IncomeMean  float64
	SuccessRate float64

	// External is an optional routing-service hook; failures degrade to
	// the geometric estimate.
	External route.ExternalFunc

	// Days overrides the scenario horizon when positive.
	Days int
}

// Summary is what survives an episode; the episode itself is discarded
// after extraction.
type Summary struct {
	EpisodeID string  `json:"episode_id"`
	Scenario  string  `json:"scenario"`
	Policy    string  `json:"policy"`
	Seed      uint64  `json:"seed"`
	Days      int     `json:"days"`

	InitialDebt       float64 `json:"initial_debt"`
	Collected         float64 `json:"collected"`
	CollectedFraction float64 `json:"collected_fraction"`

	Visits   int `json:"visits"`
	Contacts int `json:"contacts"`
	Payments int `json:"payments"`

	// DailyCumulative[d-1] is the total collected by end of day d.
	DailyCumulative []float64 `json:"daily_cumulative"`
	// DayTo50/DayTo80 are 0 when the threshold was never reached.
	DayTo50 int `json:"day_to_50"`
	DayTo80 int `json:"day_to_80"`

	// SettleDay maps debtor id to the day its debt reached zero.
	SettleDay map[int]int `json:"settle_day"`

	DegradedLookups int `json:"degraded_lookups,omitempty"`
}

// Episode owns all debtor and visit records for its lifetime.
type Episode struct {
	id         string
	seed       uint64
	sc         *scenario.Scenario
	days       int
	pol        policy.Policy
	model      *debtor.Model
	debtors    []*debtor.Debtor
	homes      []route.Point
	estimator  *route.Estimator
	rng        *rand.Rand
	visitDur   distuv.Normal

	state     State
	visits    []Visit
	collected float64
	settleDay map[int]int
	// visitedToday guards against a debtor receiving two visits on the
	// same day from different collectors.
	visitedToday map[int]bool
}

// New builds an episode from a validated scenario.
func New(cfg Config) (*Episode, error) {
	if cfg.Scenario == nil {
		return nil, fmt.Errorf("%w: scenario is required", scenario.ErrConfiguration)
	}
	if err := cfg.Scenario.Validate(); err != nil {
		return nil, err
	}
	if cfg.Policy == nil {
		return nil, fmt.Errorf("%w: policy is required", scenario.ErrConfiguration)
	}

	sc := cfg.Scenario
	incomeMean := cfg.IncomeMean
	if incomeMean <= 0 {
		incomeMean = sc.Debtors.IncomeMean
	}
	successRate := cfg.SuccessRate
	if successRate <= 0 {
		successRate = sc.Behavior.BaseSuccessRate
	}
	days := cfg.Days
	if days <= 0 {
		days = sc.Days
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, 0x9e3779b97f4a7c15))
	debtors, homes := generatePopulation(sc, incomeMean, rng)

	return &Episode{
		id:        uuid.NewString(),
		seed:      cfg.Seed,
		sc:        sc,
		days:      days,
		pol:       cfg.Policy,
		model:     debtor.NewModel(modelParams(sc.Behavior, successRate), rng),
		debtors:   debtors,
		homes:     homes,
		estimator: route.NewEstimator(sc.Travel.SpeedKMH, cfg.External),
		rng:       rng,
		visitDur: distuv.Normal{
			Mu:    sc.Travel.VisitMeanMin,
			Sigma: sc.Travel.VisitStddevMin,
			Src:   rng,
		},
		state:        StateInit,
		settleDay:    make(map[int]int),
		visitedToday: make(map[int]bool),
	}, nil
}

// State returns the lifecycle state.
func (e *Episode) State() State { return e.state }

// Visits returns the append-only visit log.
func (e *Episode) Visits() []Visit { return e.visits }

// Run executes the episode to completion and extracts its summary. A state
// invariant violation aborts the run with an error.
func (e *Episode) Run(ctx context.Context) (*Summary, error) {
	logger := logging.New("episode")
	e.state = StateRunning

	daily := make([]float64, 0, e.days)
	lastDay := 0

	for day := 1; day <= e.days; day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.allSettled() {
			break
		}
		lastDay = day
		clear(e.visitedToday)

		for _, col := range e.sc.Collectors {
			if err := e.runCollectorDay(day, col, logger); err != nil {
				e.state = StateDone
				return nil, err
			}
		}

		for _, d := range e.debtors {
			if err := e.model.AdvanceDay(d, day); err != nil {
				e.state = StateDone
				return nil, fmt.Errorf("episode %s day %d debtor %d: %w", e.id, day, d.ID, err)
			}
		}
		daily = append(daily, e.collected)
	}

	e.state = StateDone
	return e.summarize(lastDay, daily), nil
}

// runCollectorDay plans the collector's route over eligible debtors and
// lets the policy fill each feasible slot.
func (e *Episode) runCollectorDay(day int, col scenario.Collector, logger *slog.Logger) error {
	for _, hour := range e.planSlots(col) {
		candidates := e.eligible()
		chosen, ok := e.pol.SelectNext(candidates)
		if !ok {
			// Degenerate candidate set: the slot is skipped, not an error.
			logger.Debug("no eligible debtors for slot", "day", day, "collector", col.ID, "hour", hour)
			continue
		}

		d := e.debtors[chosen-1]
		out, err := e.model.ResolveVisit(d, hour)
		if err != nil {
			e.state = StateDone
			return fmt.Errorf("episode %s day %d debtor %d: %w", e.id, day, chosen, err)
		}

		e.pol.Update(chosen, out.Reward())
		e.visits = append(e.visits, Visit{
			Day: day, Hour: hour, CollectorID: col.ID, DebtorID: chosen, Outcome: out,
		})
		e.visitedToday[chosen] = true
		e.collected += out.Reward()

		if d.Settled() {
			e.settleDay[chosen] = day
		}
	}
	return nil
}

// planSlots walks the day's route and returns the visiting hour of every
// slot that fits the collector's window and the daily travel cap.
func (e *Episode) planSlots(col scenario.Collector) []int {
	eligible := e.eligible()
	if len(eligible) == 0 {
		return nil
	}
	stops := make([]route.Point, len(eligible))
	for i, id := range eligible {
		stops[i] = e.homes[id-1]
	}

	order := route.BuildRoute(e.estimator, districtCenter, stops)

	var slots []int
	clock := float64(col.StartHour) * 60
	end := float64(col.EndHour) * 60
	travel := 0.0
	cur := districtCenter

	for _, idx := range order {
		leg := e.estimator.Estimate(cur, stops[idx])
		visit := math.Max(10, e.visitDur.Rand())
		if travel+leg > e.sc.Travel.DailyTravelCapMin {
			break
		}
		if clock+leg+visit > end {
			break
		}
		clock += leg
		slots = append(slots, int(clock)/60)
		clock += visit
		travel += leg
		cur = stops[idx]
	}
	return slots
}

// eligible returns ids of unsettled debtors not yet visited today, in
// ascending id order.
func (e *Episode) eligible() []int {
	var ids []int
	for _, d := range e.debtors {
		if !d.Settled() && !e.visitedToday[d.ID] {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

func (e *Episode) allSettled() bool {
	for _, d := range e.debtors {
		if !d.Settled() {
			return false
		}
	}
	return true
}

func (e *Episode) summarize(lastDay int, daily []float64) *Summary {
	s := &Summary{
		EpisodeID:       e.id,
		Scenario:        e.sc.Name,
		Policy:          e.pol.Name(),
		Seed:            e.seed,
		Days:            lastDay,
		Collected:       e.collected,
		DailyCumulative: daily,
		SettleDay:       e.settleDay,
		DegradedLookups: e.estimator.DegradedCount(),
	}
	for _, d := range e.debtors {
		s.InitialDebt += d.InitialDebt
	}
	if s.InitialDebt > 0 {
		s.CollectedFraction = s.Collected / s.InitialDebt
	}
	for _, v := range e.visits {
		s.Visits++
		if v.Outcome.Kind != debtor.NotHome {
			s.Contacts++
		}
		if v.Outcome.Kind == debtor.Paid {
			s.Payments++
		}
	}
	s.DayTo50 = dayToFraction(daily, s.InitialDebt, 0.5)
	s.DayTo80 = dayToFraction(daily, s.InitialDebt, 0.8)
	return s
}

// dayToFraction returns the first 1-based day the cumulative series
// reached the given fraction of the total, or 0 if never.
func dayToFraction(daily []float64, total, fraction float64) int {
	if total <= 0 {
		return 0
	}
	target := total * fraction
	for i, v := range daily {
		if v >= target {
			return i + 1
		}
	}
	return 0
}
