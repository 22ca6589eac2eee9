package experiment

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TTest is the outcome of a two-sample Welch's t-test.
type TTest struct {
	T  float64 `json:"t"`
	DF float64 `json:"df"`
	P  float64 `json:"p"`
}

// WelchTTest compares the means of two independent samples without assuming
// equal variances (Welch-Satterthwaite degrees of freedom).
func WelchTTest(x, y []float64) TTest {
	nx, ny := float64(len(x)), float64(len(y))
	if nx < 2 || ny < 2 {
		return TTest{P: 1}
	}
	mx, my := stat.Mean(x, nil), stat.Mean(y, nil)
	vx, vy := stat.Variance(x, nil), stat.Variance(y, nil)

	se2 := vx/nx + vy/ny
	if se2 == 0 {
		// Degenerate samples: identical constants.
		if mx == my {
			return TTest{P: 1}
		}
		return TTest{T: math.Inf(sign(mx - my)), DF: nx + ny - 2, P: 0}
	}

	t := (mx - my) / math.Sqrt(se2)
	df := se2 * se2 / (vx*vx/(nx*nx*(nx-1)) + vy*vy/(ny*ny*(ny-1)))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))
	return TTest{T: t, DF: df, P: p}
}

// UTest is the outcome of a Mann-Whitney U test (normal approximation with
// tie correction).
type UTest struct {
	U float64 `json:"u"`
	Z float64 `json:"z"`
	P float64 `json:"p"`
}

// MannWhitneyU is the rank-based alternative to the t-test; robust to the
// skewed recovery distributions short horizons produce.
func MannWhitneyU(x, y []float64) UTest {
	nx, ny := float64(len(x)), float64(len(y))
	if nx == 0 || ny == 0 {
		return UTest{P: 1}
	}

	ranks, tieTerm := rankAll(x, y)
	rx := 0.0
	for i := range x {
		rx += ranks[i]
	}
	u := rx - nx*(nx+1)/2

	n := nx + ny
	mu := nx * ny / 2
	variance := nx * ny / 12 * ((n + 1) - tieTerm/(n*(n-1)))
	if variance <= 0 {
		return UTest{U: u, P: 1}
	}
	z := (u - mu) / math.Sqrt(variance)
	p := 2 * distuv.UnitNormal.CDF(-math.Abs(z))
	return UTest{U: u, Z: z, P: p}
}

// rankAll assigns mid-ranks to the pooled sample and returns per-element
// ranks (x first, then y) plus the tie correction term sum(t^3 - t).
func rankAll(x, y []float64) ([]float64, float64) {
	type obs struct {
		v   float64
		idx int
	}
	pooled := make([]obs, 0, len(x)+len(y))
	for i, v := range x {
		pooled = append(pooled, obs{v, i})
	}
	for i, v := range y {
		pooled = append(pooled, obs{v, len(x) + i})
	}
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].v < pooled[j].v })

	ranks := make([]float64, len(pooled))
	tieTerm := 0.0
	for i := 0; i < len(pooled); {
		j := i
		for j < len(pooled) && pooled[j].v == pooled[i].v {
			j++
		}
		// Mid-rank for the tie group [i, j).
		mid := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[pooled[k].idx] = mid
		}
		t := float64(j - i)
		tieTerm += t*t*t - t
		i = j
	}
	return ranks, tieTerm
}

// CohenD is the standardized mean difference with pooled variance.
func CohenD(x, y []float64) float64 {
	nx, ny := float64(len(x)), float64(len(y))
	if nx < 2 || ny < 2 {
		return 0
	}
	vx, vy := stat.Variance(x, nil), stat.Variance(y, nil)
	pooled := ((nx-1)*vx + (ny-1)*vy) / (nx + ny - 2)
	if pooled == 0 {
		return 0
	}
	return (stat.Mean(x, nil) - stat.Mean(y, nil)) / math.Sqrt(pooled)
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}
