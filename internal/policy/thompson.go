package policy

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Thompson implements Thompson Sampling over per-arm Beta beliefs. Each
// selection draws one sample from every candidate's Beta(alpha, beta) and
// plays the argmax; payments advance alpha, everything else advances beta.
// Both parameters start at 1.0 (uniform belief) and only ever grow, so the
// Beta sampler never sees a non-positive parameter.
type Thompson struct {
	alpha map[int]float64
	beta  map[int]float64
	// visits tracks update count per arm independently of the scaled
	// alpha mode.
	visits map[int]int
	reward map[int]float64

	scaled      bool
	rewardScale float64
	rng         *rand.Rand
}

// NewThompson creates a Thompson Sampling policy. cfg.RewardScale is only
// consulted in scaled mode; a non-positive scale falls back to flat +1
// increments.
func NewThompson(cfg Config, rng *rand.Rand) *Thompson {
	return &Thompson{
		alpha:       make(map[int]float64),
		beta:        make(map[int]float64),
		visits:      make(map[int]int),
		reward:      make(map[int]float64),
		scaled:      cfg.ScaledThompson && cfg.RewardScale > 0,
		rewardScale: cfg.RewardScale,
		rng:         rng,
	}
}

func (t *Thompson) Name() string { return "thompson" }

func (t *Thompson) params(id int) (float64, float64) {
	a, b := t.alpha[id], t.beta[id]
	if a == 0 {
		a = 1
	}
	if b == 0 {
		b = 1
	}
	return a, b
}

func (t *Thompson) SelectNext(candidates []int) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	best, bestSample := 0, math.Inf(-1)
	for _, id := range sortedCopy(candidates) {
		a, b := t.params(id)
		sample := distuv.Beta{Alpha: a, Beta: b, Src: t.rng}.Rand()
		if sample > bestSample {
			best, bestSample = id, sample
		}
	}
	return best, true
}

func (t *Thompson) Update(id int, reward float64) {
	a, b := t.params(id)
	if reward > 0 {
		inc := 1.0
		if t.scaled {
			inc = math.Min(1, reward/t.rewardScale)
		}
		t.alpha[id] = a + inc
		t.beta[id] = b
	} else {
		t.alpha[id] = a
		t.beta[id] = b + 1
	}
	t.visits[id]++
	t.reward[id] += reward
}

func (t *Thompson) Arms() map[int]Arm {
	out := make(map[int]Arm, len(t.visits))
	for id, n := range t.visits {
		a, b := t.params(id)
		out[id] = Arm{Visits: n, TotalReward: t.reward[id], Alpha: a, Beta: b}
	}
	return out
}
