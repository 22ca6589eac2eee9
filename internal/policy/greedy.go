package policy

// Greedy is the pure-exploitation control: always play the arm with the
// highest observed mean reward. Unvisited arms count as mean zero, so it
// tends to lock onto the first paying debtor it stumbles into. Useful as a
// baseline when validating that the learning policies actually learn.
type Greedy struct {
	totalReward map[int]float64
	visitCount  map[int]int
}

func NewGreedy() *Greedy {
	return &Greedy{
		totalReward: make(map[int]float64),
		visitCount:  make(map[int]int),
	}
}

func (g *Greedy) Name() string { return "greedy" }

func (g *Greedy) SelectNext(candidates []int) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	best, bestMean := 0, -1.0
	for _, id := range sortedCopy(candidates) {
		mean := 0.0
		if n := g.visitCount[id]; n > 0 {
			mean = g.totalReward[id] / float64(n)
		}
		if mean > bestMean {
			best, bestMean = id, mean
		}
	}
	return best, true
}

func (g *Greedy) Update(id int, reward float64) {
	g.totalReward[id] += reward
	g.visitCount[id]++
}

func (g *Greedy) Arms() map[int]Arm {
	out := make(map[int]Arm, len(g.visitCount))
	for id, n := range g.visitCount {
		out[id] = Arm{Visits: n, TotalReward: g.totalReward[id]}
	}
	return out
}
