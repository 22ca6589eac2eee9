package route

// BuildRoute orders the stops for one collector-day: nearest-neighbor
// construction from the start point, then 2-opt improvement. Returns stop
// indices into stops. Deterministic for identical input.
func BuildRoute(e *Estimator, start Point, stops []Point) []int {
	if len(stops) == 0 {
		return nil
	}

	order := nearestNeighbor(e, start, stops)
	return twoOpt(e, start, stops, order)
}

func nearestNeighbor(e *Estimator, start Point, stops []Point) []int {
	n := len(stops)
	visited := make([]bool, n)
	order := make([]int, 0, n)
	cur := start
	for len(order) < n {
		best, bestCost := -1, 0.0
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			cost := e.Estimate(cur, stops[i])
			if best == -1 || cost < bestCost {
				best, bestCost = i, cost
			}
		}
		visited[best] = true
		order = append(order, best)
		cur = stops[best]
	}
	return order
}

// twoOpt reverses route segments while any reversal shortens total
// duration. Open tour: the collector does not return to base.
func twoOpt(e *Estimator, start Point, stops []Point, order []int) []int {
	improved := true
	for improved {
		improved = false
		for i := 0; i < len(order)-1; i++ {
			for j := i + 1; j < len(order); j++ {
				if delta(e, start, stops, order, i, j) < -1e-9 {
					reverse(order, i, j)
					improved = true
				}
			}
		}
	}
	return order
}

// delta computes the duration change from reversing order[i..j].
func delta(e *Estimator, start Point, stops []Point, order []int, i, j int) float64 {
	prev := start
	if i > 0 {
		prev = stops[order[i-1]]
	}

	before := e.Estimate(prev, stops[order[i]])
	after := e.Estimate(prev, stops[order[j]])
	if j < len(order)-1 {
		next := stops[order[j+1]]
		before += e.Estimate(stops[order[j]], next)
		after += e.Estimate(stops[order[i]], next)
	}
	return after - before
}

func reverse(order []int, i, j int) {
	for i < j {
		order[i], order[j] = order[j], order[i]
		i++
		j--
	}
}

// TotalDuration sums the leg durations of a route starting at start.
func TotalDuration(e *Estimator, start Point, stops []Point, order []int) float64 {
	total := 0.0
	cur := start
	for _, idx := range order {
		total += e.Estimate(cur, stops[idx])
		cur = stops[idx]
	}
	return total
}
