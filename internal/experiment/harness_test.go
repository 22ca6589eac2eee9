package experiment

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"collectsim/internal/episode"
	"collectsim/internal/scenario"
)

func smokeScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.Load("smoke")
	if err != nil {
		t.Fatalf("loading smoke scenario: %v", err)
	}
	return sc
}

func TestRunShape(t *testing.T) {
	sc := smokeScenario(t)
	rep, err := Run(context.Background(), sc, Options{
		Policies: []string{"ucb", "thompson"},
		Runs:     6,
		Parallel: 2,
		BaseSeed: 42,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.ID == "" {
		t.Error("report has no id")
	}
	if len(rep.Policies) != 2 {
		t.Fatalf("got %d policy results, want 2", len(rep.Policies))
	}
	for _, pr := range rep.Policies {
		if len(pr.Runs) != 6 {
			t.Errorf("policy %s: got %d runs, want 6", pr.Policy, len(pr.Runs))
		}
		for i, sum := range pr.Runs {
			if sum == nil {
				t.Fatalf("policy %s run %d missing", pr.Policy, i)
			}
			if sum.CollectedFraction < 0 || sum.CollectedFraction > 1 {
				t.Errorf("policy %s run %d: fraction %v out of range", pr.Policy, i, sum.CollectedFraction)
			}
		}
	}
	if len(rep.Comparisons) != 1 {
		t.Fatalf("got %d comparisons, want 1", len(rep.Comparisons))
	}
	c := rep.Comparisons[0]
	if c.PolicyA != "ucb" || c.PolicyB != "thompson" {
		t.Errorf("comparison pair = (%s, %s), want (ucb, thompson)", c.PolicyA, c.PolicyB)
	}
	if c.Welch.P < 0 || c.Welch.P > 1 {
		t.Errorf("welch p = %v, not a probability", c.Welch.P)
	}
	if c.Verdict == "" {
		t.Error("comparison has no verdict")
	}
}

func TestRunReproducibleAcrossParallelism(t *testing.T) {
	sc := smokeScenario(t)
	opts := Options{Policies: []string{"ucb", "greedy"}, Runs: 8, BaseSeed: 7}

	opts.Parallel = 1
	serial, err := Run(context.Background(), sc, opts)
	if err != nil {
		t.Fatalf("serial run: %v", err)
	}
	opts.Parallel = 4
	parallel, err := Run(context.Background(), sc, opts)
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}

	ignore := cmpopts.IgnoreFields(episode.Summary{}, "EpisodeID")
	for pi := range serial.Policies {
		if diff := cmp.Diff(serial.Policies[pi].Runs, parallel.Policies[pi].Runs, ignore); diff != "" {
			t.Errorf("policy %s differs across parallelism (-serial +parallel):\n%s",
				serial.Policies[pi].Policy, diff)
		}
	}
}

func TestRunPerRunSeedsDiffer(t *testing.T) {
	sc := smokeScenario(t)
	rep, err := Run(context.Background(), sc, Options{
		Policies: []string{"ucb"}, Runs: 5, Parallel: 1, BaseSeed: 99,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	seen := map[uint64]bool{}
	for _, sum := range rep.Policies[0].Runs {
		if seen[sum.Seed] {
			t.Errorf("seed %d reused across runs", sum.Seed)
		}
		seen[sum.Seed] = true
	}
}

func TestRunSelfComparisonProducesValidStats(t *testing.T) {
	// Same policy on both sides: arms must still evolve independently and
	// the tests must return a real probability, not NaN from degenerate
	// identical samples.
	sc := smokeScenario(t)
	rep, err := Run(context.Background(), sc, Options{
		Policies: []string{"ucb", "ucb"}, Runs: 10, Parallel: 2, BaseSeed: 5,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	c := rep.Comparisons[0]
	if c.Welch.P < 0 || c.Welch.P > 1 {
		t.Errorf("welch p = %v, not a probability", c.Welch.P)
	}
	diff := cmp.Diff(rep.Policies[0].Runs, rep.Policies[1].Runs,
		cmpopts.IgnoreFields(episode.Summary{}, "EpisodeID"))
	if diff == "" {
		t.Error("both policy slots produced identical episodes; per-policy seeds are not independent")
	}
}

func TestRunRejectsEmptyPolicyList(t *testing.T) {
	sc := smokeScenario(t)
	sc.Experiment.Policies = nil
	if _, err := Run(context.Background(), sc, Options{Runs: 2}); err == nil {
		t.Fatal("expected error for empty policy list")
	}
}

func TestRunContextCancellation(t *testing.T) {
	sc := smokeScenario(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, sc, Options{Policies: []string{"ucb"}, Runs: 4}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestRunSeedDerivation(t *testing.T) {
	seen := map[uint64]bool{}
	for pi := 0; pi < 4; pi++ {
		for ri := 0; ri < 64; ri++ {
			s := runSeed(1234, pi, ri)
			if seen[s] {
				t.Fatalf("collision at policy %d run %d", pi, ri)
			}
			seen[s] = true
		}
	}
	if runSeed(1, 0, 0) == runSeed(2, 0, 0) {
		t.Error("base seed change did not change derived seed")
	}
}

func TestReduce(t *testing.T) {
	runs := []*episode.Summary{
		{Collected: 100, CollectedFraction: 0.5, Visits: 10, DayTo50: 4, DayTo80: 0},
		{Collected: 200, CollectedFraction: 0.9, Visits: 12, DayTo50: 3, DayTo80: 7},
	}
	s := reduce(runs, 10)
	if s.MeanCollected != 150 {
		t.Errorf("MeanCollected = %v, want 150", s.MeanCollected)
	}
	if s.MeanFraction != 0.7 {
		t.Errorf("MeanFraction = %v, want 0.7", s.MeanFraction)
	}
	if s.Reached50 != 2 || s.Reached80 != 1 {
		t.Errorf("reached counts = (%d, %d), want (2, 1)", s.Reached50, s.Reached80)
	}
	// Unreached day-to-80 counts as horizon+1.
	if s.MeanDayTo80 != 9 {
		t.Errorf("MeanDayTo80 = %v, want 9", s.MeanDayTo80)
	}
}

func TestCompareVerdicts(t *testing.T) {
	mk := func(name string, fracs []float64) *PolicyResult {
		runs := make([]*episode.Summary, len(fracs))
		for i, f := range fracs {
			runs[i] = &episode.Summary{CollectedFraction: f, DayTo80: 5}
		}
		return &PolicyResult{Policy: name, Runs: runs, Stats: reduce(runs, 30)}
	}

	strong := mk("a", []float64{0.90, 0.91, 0.89, 0.92, 0.90, 0.91, 0.88, 0.90})
	weak := mk("b", []float64{0.40, 0.42, 0.41, 0.39, 0.40, 0.43, 0.38, 0.41})
	c := compare(strong, weak, 30)
	if !c.Significant {
		t.Fatalf("widely separated samples not significant: p=%v", c.Welch.P)
	}
	if c.Preferred != "a" {
		t.Errorf("preferred = %s, want a", c.Preferred)
	}
	if c.EffectSize <= 0 {
		t.Errorf("effect size = %v, want positive", c.EffectSize)
	}

	same := compare(strong, strong, 30)
	if same.Significant {
		t.Error("identical samples reported significant")
	}
	if same.Verdict != "no statistically significant difference" {
		t.Errorf("verdict = %q", same.Verdict)
	}
}
