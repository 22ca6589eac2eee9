package policy

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestFactory(t *testing.T) {
	cfg := Config{UCBC: 2.0}
	for _, name := range []string{"ucb", "thompson", "greedy"} {
		p, err := New(name, cfg, newRNG(1))
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Name() = %q, want %q", p.Name(), name)
		}
	}
	if _, err := New("oracle", cfg, newRNG(1)); err == nil {
		t.Error("expected error for unknown policy name")
	}
}

func TestEmptyCandidateSet(t *testing.T) {
	cfg := Config{UCBC: 2.0}
	for _, name := range []string{"ucb", "thompson", "greedy"} {
		p, _ := New(name, cfg, newRNG(1))
		if _, ok := p.SelectNext(nil); ok {
			t.Errorf("%s: SelectNext(nil) returned ok", name)
		}
	}
}

// An unvisited arm must outrank any visited arm, whatever the visited
// arm's average reward.
func TestUCBForcedExploration(t *testing.T) {
	u := NewUCB(2.0)
	for i := 0; i < 5; i++ {
		u.Update(2, 50000) // very high average
	}

	if got := u.Score(1); !math.IsInf(got, 1) {
		t.Errorf("unvisited score = %f, want +Inf", got)
	}
	if got, ok := u.SelectNext([]int{1, 2}); !ok || got != 1 {
		t.Errorf("SelectNext = %d, want the unvisited arm 1", got)
	}
	// Input order must not matter.
	if got, ok := u.SelectNext([]int{2, 1}); !ok || got != 1 {
		t.Errorf("SelectNext (reversed input) = %d, want 1", got)
	}
}

func TestUCBTieBreakLowestID(t *testing.T) {
	u := NewUCB(2.0)
	// Three unvisited arms all score +Inf.
	if got, _ := u.SelectNext([]int{9, 3, 7}); got != 3 {
		t.Errorf("tie-break pick = %d, want 3", got)
	}
}

func TestUCBScoreGrowsWithNeglect(t *testing.T) {
	u := NewUCB(2.0)
	u.Update(1, 100)
	u.Update(2, 100)
	before := u.Score(2)
	// More visits elsewhere raise total count, lifting arm 2's bonus.
	for i := 0; i < 20; i++ {
		u.Update(1, 100)
	}
	if after := u.Score(2); after <= before {
		t.Errorf("score did not grow with neglect: %f -> %f", before, after)
	}
}

func TestUCBExploitsAfterExploration(t *testing.T) {
	u := NewUCB(2.0)
	// Arm 1 pays well, arm 2 pays nothing; both heavily sampled.
	for i := 0; i < 50; i++ {
		u.Update(1, 1000)
		u.Update(2, 0)
	}
	if got, _ := u.SelectNext([]int{1, 2}); got != 1 {
		t.Errorf("SelectNext = %d, want the paying arm 1", got)
	}
}

func TestThompsonPosteriorAccounting(t *testing.T) {
	th := NewThompson(Config{}, newRNG(2))
	rewards := []float64{100, 0, 0, 250, 0}
	for _, r := range rewards {
		th.Update(7, r)
	}

	arm := th.Arms()[7]
	if arm.Visits != len(rewards) {
		t.Fatalf("visits = %d, want %d", arm.Visits, len(rewards))
	}
	// alpha+beta = 2 (init) + one increment per outcome.
	if got := arm.Alpha + arm.Beta; got != float64(2+len(rewards)) {
		t.Errorf("alpha+beta = %f, want %d", got, 2+len(rewards))
	}
	if arm.Alpha != 3 { // two payments
		t.Errorf("alpha = %f, want 3", arm.Alpha)
	}
	if arm.Beta != 5 { // three misses + init
		t.Errorf("beta = %f, want 5", arm.Beta)
	}
}

func TestThompsonConvergesToBetterArm(t *testing.T) {
	th := NewThompson(Config{}, newRNG(3))
	// Arm 1: pays 9 of 10. Arm 2: pays 1 of 10.
	for i := 0; i < 10; i++ {
		if i != 0 {
			th.Update(1, 100)
		} else {
			th.Update(1, 0)
		}
		if i == 0 {
			th.Update(2, 100)
		} else {
			th.Update(2, 0)
		}
	}

	wins := 0
	for i := 0; i < 200; i++ {
		if got, _ := th.SelectNext([]int{1, 2}); got == 1 {
			wins++
		}
	}
	if wins < 150 {
		t.Errorf("better arm picked %d/200 times, want clear majority", wins)
	}
}

func TestThompsonScaledMode(t *testing.T) {
	th := NewThompson(Config{ScaledThompson: true, RewardScale: 1000}, newRNG(4))
	th.Update(1, 500)
	arm := th.Arms()[1]
	if arm.Alpha != 1.5 {
		t.Errorf("scaled alpha = %f, want 1.5", arm.Alpha)
	}
	th.Update(1, 5000) // above scale, clamps to +1
	if arm = th.Arms()[1]; arm.Alpha != 2.5 {
		t.Errorf("scaled alpha = %f, want 2.5", arm.Alpha)
	}
}

func TestGreedyLocksOntoPayingArm(t *testing.T) {
	g := NewGreedy()
	g.Update(3, 500)
	g.Update(5, 100)
	if got, _ := g.SelectNext([]int{3, 5, 8}); got != 3 {
		t.Errorf("SelectNext = %d, want 3", got)
	}
}

// Replaying the same outcome log through a fresh policy must reproduce
// identical arm state: Update has no live randomness.
func TestReplayIdempotence(t *testing.T) {
	type event struct {
		id     int
		reward float64
	}
	log := []event{
		{1, 0}, {2, 340}, {1, 120}, {3, 0}, {2, 0}, {1, 0}, {3, 885},
	}

	cfg := Config{UCBC: 2.0}
	for _, name := range []string{"ucb", "thompson", "greedy"} {
		t.Run(name, func(t *testing.T) {
			a, _ := New(name, cfg, newRNG(10))
			b, _ := New(name, cfg, newRNG(99)) // different rng must not matter
			for _, e := range log {
				a.Update(e.id, e.reward)
			}
			for _, e := range log {
				b.Update(e.id, e.reward)
			}
			if diff := cmp.Diff(a.Arms(), b.Arms()); diff != "" {
				t.Errorf("replayed arm state differs (-a +b):\n%s", diff)
			}
		})
	}
}
