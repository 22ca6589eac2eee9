package experiment

import (
	"math"
	"testing"
)

func almost(t *testing.T, got, want, tol float64, label string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v (tol %v)", label, got, want, tol)
	}
}

func TestWelchTTestKnownValues(t *testing.T) {
	// Classic two-sample example with unequal variances.
	a := []float64{27.5, 21.0, 19.0, 23.6, 17.0, 17.9, 16.9, 20.1, 21.9, 22.6, 23.1, 19.6, 19.0, 21.7, 21.4}
	b := []float64{27.1, 22.0, 20.8, 23.4, 23.4, 23.5, 25.8, 22.0, 24.8, 20.2, 21.9, 22.1, 22.9, 30.5}

	res := WelchTTest(a, b)
	almost(t, res.T, -2.7078, 0.001, "t statistic")
	almost(t, res.DF, 26.95, 0.05, "degrees of freedom")
	almost(t, res.P, 0.0116, 0.001, "p value")
}

func TestWelchTTestIdenticalSamples(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	res := WelchTTest(a, a)
	almost(t, res.T, 0, 1e-12, "t statistic")
	almost(t, res.P, 1, 1e-9, "p value")
}

func TestWelchTTestSymmetry(t *testing.T) {
	a := []float64{0.1, 0.4, 0.35, 0.8, 0.2}
	b := []float64{0.5, 0.6, 0.9, 0.7, 0.55}
	ab := WelchTTest(a, b)
	ba := WelchTTest(b, a)
	almost(t, ab.T, -ba.T, 1e-12, "t antisymmetry")
	almost(t, ab.P, ba.P, 1e-12, "p symmetry")
}

func TestWelchTTestDegenerate(t *testing.T) {
	tests := []struct {
		name  string
		a, b  []float64
		wantP float64
	}{
		{"too few", []float64{1}, []float64{2, 3}, 1},
		{"empty", nil, []float64{2, 3}, 1},
		{"zero variance equal means", []float64{5, 5, 5}, []float64{5, 5, 5}, 1},
		{"zero variance different means", []float64{5, 5, 5}, []float64{7, 7, 7}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := WelchTTest(tc.a, tc.b)
			almost(t, res.P, tc.wantP, 1e-12, "p value")
		})
	}
}

func TestMannWhitneyClearSeparation(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	b := []float64{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	res := MannWhitneyU(a, b)
	almost(t, res.U, 0, 1e-12, "U statistic")
	if res.P > 0.001 {
		t.Errorf("p = %v, want < 0.001 for fully separated samples", res.P)
	}
}

func TestMannWhitneyNoDifference(t *testing.T) {
	a := []float64{1, 3, 5, 7, 9, 11, 13, 15}
	b := []float64{2, 4, 6, 8, 10, 12, 14, 16}
	res := MannWhitneyU(a, b)
	if res.P < 0.3 {
		t.Errorf("p = %v, want large for interleaved samples", res.P)
	}
}

func TestMannWhitneyTies(t *testing.T) {
	// Heavy ties exercise the mid-rank and variance correction paths.
	a := []float64{1, 1, 1, 2, 2, 3, 3, 3}
	b := []float64{1, 2, 2, 2, 3, 3, 4, 4}
	res := MannWhitneyU(a, b)
	if math.IsNaN(res.P) || res.P < 0 || res.P > 1 {
		t.Fatalf("p = %v, want a valid probability", res.P)
	}
}

func TestCohenD(t *testing.T) {
	a := []float64{2, 4, 7, 3, 7, 35, 38, 4}
	b := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	d := CohenD(a, b)
	if d <= 0 {
		t.Errorf("d = %v, want positive when mean(a) > mean(b)", d)
	}
	// Shifting both samples by a constant leaves d unchanged.
	shift := func(xs []float64) []float64 {
		out := make([]float64, len(xs))
		for i, x := range xs {
			out[i] = x + 100
		}
		return out
	}
	almost(t, CohenD(shift(a), shift(b)), d, 1e-12, "shift invariance")
}

func TestCohenDUnitEffect(t *testing.T) {
	// Two tight samples one pooled-stddev apart.
	a := []float64{9, 10, 11}
	b := []float64{10, 11, 12}
	almost(t, CohenD(a, b), -1, 1e-9, "unit effect")
}
