// Package policy implements the adaptive selection strategies. A policy
// observes only realized visit rewards, never the hidden debtor state,
// and decides which debtor fills the next visit slot.
package policy

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// Policy selects the next arm from an eligible candidate set and learns
// from observed rewards. Ineligible debtors (settled, unreachable) are
// filtered out before SelectNext; they are excluded, not zero-scored.
type Policy interface {
	// Name identifies the strategy ("ucb", "thompson", "greedy").
	Name() string
	// SelectNext picks one id from candidates. ok is false when the
	// candidate set is empty (the caller skips the slot).
	SelectNext(candidates []int) (id int, ok bool)
	// Update records the observed monetary reward for one resolved visit
	// (zero when no payment happened).
	Update(id int, reward float64)
	// Arms returns a snapshot of per-arm learning state.
	Arms() map[int]Arm
}

// Arm is the externally visible learning state for one debtor.
type Arm struct {
	Visits      int
	TotalReward float64
	// Alpha and Beta are populated by Thompson Sampling only.
	Alpha float64
	Beta  float64
}

// Config carries policy tuning constants from the scenario.
type Config struct {
	UCBC float64
	// ScaledThompson scales the alpha increment by normalized reward
	// magnitude; off by default so alpha+beta stays 2 + visit count.
	ScaledThompson bool
	// RewardScale normalizes rewards for the scaled Thompson mode,
	// typically the largest initial debt in the population.
	RewardScale float64
}

// New builds a policy by name. The rng is owned by the policy instance;
// deterministic policies ignore it.
func New(name string, cfg Config, rng *rand.Rand) (Policy, error) {
	switch name {
	case "ucb":
		return NewUCB(cfg.UCBC), nil
	case "thompson":
		return NewThompson(cfg, rng), nil
	case "greedy":
		return NewGreedy(), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (available: ucb, thompson, greedy)", name)
	}
}

// sortedCopy returns the candidates in ascending id order, so argmax scans
// resolve ties toward the lowest id regardless of input order.
func sortedCopy(candidates []int) []int {
	out := make([]int, len(candidates))
	copy(out, candidates)
	sort.Ints(out)
	return out
}
