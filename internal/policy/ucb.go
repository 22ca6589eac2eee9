package policy

import "math"

// UCB implements Upper Confidence Bound arm selection: mean observed reward
// plus an exploration bonus that shrinks as an arm accumulates visits.
// Unvisited arms score +Inf, which forces one exploration pass over the
// whole candidate set before any exploitation.
type UCB struct {
	c           float64
	totalReward map[int]float64
	visitCount  map[int]int
	totalVisits int
}

// NewUCB creates a UCB policy with exploration constant c.
func NewUCB(c float64) *UCB {
	return &UCB{
		c:           c,
		totalReward: make(map[int]float64),
		visitCount:  make(map[int]int),
	}
}

func (u *UCB) Name() string { return "ucb" }

// Score returns the UCB score for one arm. Exposed for tests.
func (u *UCB) Score(id int) float64 {
	n := u.visitCount[id]
	if n == 0 {
		return math.Inf(1)
	}
	mean := u.totalReward[id] / float64(n)
	return mean + math.Sqrt(u.c*math.Log(float64(u.totalVisits))/float64(n))
}

func (u *UCB) SelectNext(candidates []int) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	best, bestScore := 0, math.Inf(-1)
	for _, id := range sortedCopy(candidates) {
		if s := u.Score(id); s > bestScore {
			best, bestScore = id, s
		}
	}
	return best, true
}

func (u *UCB) Update(id int, reward float64) {
	u.totalReward[id] += reward
	u.visitCount[id]++
	u.totalVisits++
}

func (u *UCB) Arms() map[int]Arm {
	out := make(map[int]Arm, len(u.visitCount))
	for id, n := range u.visitCount {
		out[id] = Arm{Visits: n, TotalReward: u.totalReward[id]}
	}
	return out
}
