// Package experiment is the Monte Carlo harness: it repeats independent
// episodes per policy, each with a freshly sampled economic profile and its
// own seed, aggregates per-run summaries, and compares policies with a
// two-sample significance test.
package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"collectsim/internal/episode"
	"collectsim/internal/logging"
	"collectsim/internal/policy"
	"collectsim/internal/route"
	"collectsim/internal/scenario"
)

// SignificanceLevel is the decision threshold for the comparison verdict.
const SignificanceLevel = 0.05

// Options configures one experiment. Zero values fall back to the
// scenario's experiment section.
type Options struct {
	Policies []string
	Runs     int
	Parallel int
	BaseSeed uint64
	// External is an optional routing-service hook passed through to
	// every episode.
	External route.ExternalFunc
}

// profile is the per-run redraw of the economy: a fresh income level and a
// jittered success rate, so no two repetitions share ground truth.
type profile struct {
	incomeMean  float64
	successRate float64
}

// PolicyResult aggregates all runs of one policy.
type PolicyResult struct {
	Policy string             `json:"policy"`
	Runs   []*episode.Summary `json:"runs"`
	Stats  SummaryStats       `json:"stats"`
}

// SummaryStats are the reduced per-policy statistics. The reduction is
// associative and commutative: completion order of parallel runs cannot
// affect it because runs are stored by index first.
type SummaryStats struct {
	MeanCollected       float64 `json:"mean_collected"`
	MeanFraction        float64 `json:"mean_fraction"`
	StddevFraction      float64 `json:"stddev_fraction"`
	MeanVisits          float64 `json:"mean_visits"`
	Reached50           int     `json:"reached_50"`
	Reached80           int     `json:"reached_80"`
	MeanDayTo50         float64 `json:"mean_day_to_50"`
	MeanDayTo80         float64 `json:"mean_day_to_80"`
}

// Comparison is the statistical verdict for one policy pair.
type Comparison struct {
	PolicyA string `json:"policy_a"`
	PolicyB string `json:"policy_b"`

	// Collected-fraction tests drive the verdict.
	Welch       TTest  `json:"welch"`
	MannWhitney UTest  `json:"mann_whitney"`
	EffectSize  float64 `json:"effect_size"`

	// Secondary: speed of recovery.
	DayTo80Welch TTest `json:"day_to_80_welch"`

	Significant bool   `json:"significant"`
	Preferred   string `json:"preferred,omitempty"`
	Verdict     string `json:"verdict"`
}

// Report is the harness output, written once at completion.
type Report struct {
	ID        string    `json:"id"`
	Scenario  string    `json:"scenario"`
	Runs      int       `json:"runs"`
	BaseSeed  uint64    `json:"base_seed"`
	StartedAt time.Time `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`

	Policies    []PolicyResult `json:"policies"`
	Comparisons []Comparison   `json:"comparisons"`
}

// Run executes the full experiment. Each (policy, run) pair owns its
// population, visit log and arm state; nothing mutable crosses run
// boundaries, so repetitions fan out over a bounded worker pool.
func Run(ctx context.Context, sc *scenario.Scenario, opts Options) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	policies := opts.Policies
	if len(policies) == 0 {
		policies = sc.Experiment.Policies
	}
	if len(policies) == 0 {
		return nil, fmt.Errorf("%w: no policies to compare", scenario.ErrConfiguration)
	}
	runs := opts.Runs
	if runs <= 0 {
		runs = sc.Experiment.Runs
	}
	parallel := opts.Parallel
	if parallel < 1 {
		parallel = 1
	}
	baseSeed := opts.BaseSeed
	if baseSeed == 0 {
		baseSeed = sc.Seed
	}

	logger := logging.New("harness")
	logger.Info("starting experiment",
		"scenario", sc.Name, "policies", policies, "runs", runs, "parallel", parallel)

	report := &Report{
		ID:        uuid.NewString(),
		Scenario:  sc.Name,
		Runs:      runs,
		BaseSeed:  baseSeed,
		StartedAt: time.Now(),
	}

	results := make([][]*episode.Summary, len(policies))
	for pi := range policies {
		results[pi] = make([]*episode.Summary, runs)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for pi, name := range policies {
		for ri := 0; ri < runs; ri++ {
			g.Go(func() error {
				sum, err := runOne(gctx, sc, name, runSeed(baseSeed, pi, ri), opts.External)
				if err != nil {
					return fmt.Errorf("policy %s run %d: %w", name, ri, err)
				}
				results[pi][ri] = sum
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for pi, name := range policies {
		report.Policies = append(report.Policies, PolicyResult{
			Policy: name,
			Runs:   results[pi],
			Stats:  reduce(results[pi], sc.Days),
		})
	}

	for i := 0; i < len(policies); i++ {
		for j := i + 1; j < len(policies); j++ {
			report.Comparisons = append(report.Comparisons,
				compare(&report.Policies[i], &report.Policies[j], sc.Days))
		}
	}

	report.Elapsed = time.Since(report.StartedAt)
	logger.Info("experiment complete",
		"episodes", runs*len(policies), "elapsed", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

// runOne executes a single episode with a fresh policy instance and a
// freshly sampled economic profile.
func runOne(ctx context.Context, sc *scenario.Scenario, name string, seed uint64, external route.ExternalFunc) (*episode.Summary, error) {
	rng := rand.New(rand.NewPCG(seed, 0xda3e39cb94b95bdb))
	prof := sampleProfile(sc, rng)

	pol, err := policy.New(name, policy.Config{
		UCBC:           sc.Experiment.UCBC,
		ScaledThompson: sc.Experiment.ScaledThompson,
		RewardScale:    sc.Debtors.DebtMax,
	}, rng)
	if err != nil {
		return nil, err
	}

	ep, err := episode.New(episode.Config{
		Scenario:    sc,
		Policy:      pol,
		Seed:        seed,
		IncomeMean:  prof.incomeMean,
		SuccessRate: prof.successRate,
		External:    external,
	})
	if err != nil {
		return nil, err
	}
	return ep.Run(ctx)
}

// sampleProfile redraws the economic parameters for one repetition.
func sampleProfile(sc *scenario.Scenario, rng *rand.Rand) profile {
	incomeMean := sc.Debtors.IncomeMean
	if j := sc.Debtors.IncomeJitter; j > 0 {
		incomeMean *= 1 + j*(2*rng.Float64()-1)
	}
	successRate := sc.Behavior.BaseSuccessRate
	if j := sc.Behavior.SuccessRateJitter; j > 0 {
		successRate += j * (2*rng.Float64() - 1)
	}
	successRate = math.Min(1, math.Max(0.01, successRate))
	return profile{incomeMean: incomeMean, successRate: successRate}
}

// runSeed derives a per-(policy, run) seed from the base seed. Two
// policies never share a stream even when comparing a policy against
// itself, and a rerun with the same base seed reproduces every episode
// regardless of worker scheduling.
func runSeed(base uint64, policyIdx, runIdx int) uint64 {
	z := base + uint64(policyIdx+1)*0x9e3779b97f4a7c15 + uint64(runIdx)*0xbf58476d1ce4e5b9
	// splitmix64 finalizer.
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func reduce(runs []*episode.Summary, horizon int) SummaryStats {
	var s SummaryStats
	if len(runs) == 0 {
		return s
	}
	fractions := make([]float64, 0, len(runs))
	for _, r := range runs {
		s.MeanCollected += r.Collected
		s.MeanVisits += float64(r.Visits)
		fractions = append(fractions, r.CollectedFraction)
		if r.DayTo50 > 0 {
			s.Reached50++
			s.MeanDayTo50 += float64(r.DayTo50)
		} else {
			s.MeanDayTo50 += float64(horizon + 1)
		}
		if r.DayTo80 > 0 {
			s.Reached80++
			s.MeanDayTo80 += float64(r.DayTo80)
		} else {
			s.MeanDayTo80 += float64(horizon + 1)
		}
	}
	n := float64(len(runs))
	s.MeanCollected /= n
	s.MeanVisits /= n
	s.MeanDayTo50 /= n
	s.MeanDayTo80 /= n
	s.MeanFraction = stat.Mean(fractions, nil)
	if len(fractions) > 1 {
		s.StddevFraction = math.Sqrt(stat.Variance(fractions, nil))
	}
	return s
}

// compare runs the significance tests for one policy pair. Days-to-80%
// treats unreached runs as horizon+1 so slow and failed recoveries both
// count against a policy.
func compare(a, b *PolicyResult, horizon int) Comparison {
	fa, fb := fractions(a.Runs), fractions(b.Runs)
	da, db := daysTo80(a.Runs, horizon), daysTo80(b.Runs, horizon)

	c := Comparison{
		PolicyA:      a.Policy,
		PolicyB:      b.Policy,
		Welch:        WelchTTest(fa, fb),
		MannWhitney:  MannWhitneyU(fa, fb),
		EffectSize:   CohenD(fa, fb),
		DayTo80Welch: WelchTTest(da, db),
	}
	if c.Welch.P >= SignificanceLevel {
		c.Verdict = "no statistically significant difference"
		return c
	}
	c.Significant = true
	c.Preferred = a.Policy
	if b.Stats.MeanFraction > a.Stats.MeanFraction {
		c.Preferred = b.Policy
	}
	c.Verdict = fmt.Sprintf("%s preferred (p=%.4f, d=%.2f)", c.Preferred, c.Welch.P, c.EffectSize)
	return c
}

func fractions(runs []*episode.Summary) []float64 {
	out := make([]float64, len(runs))
	for i, r := range runs {
		out[i] = r.CollectedFraction
	}
	return out
}

func daysTo80(runs []*episode.Summary, horizon int) []float64 {
	out := make([]float64, len(runs))
	for i, r := range runs {
		if r.DayTo80 > 0 {
			out[i] = float64(r.DayTo80)
		} else {
			out[i] = float64(horizon + 1)
		}
	}
	return out
}

