package route

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Point
		wantKM float64
		tolKM  float64
	}{
		{"same point", Point{52.52, 13.40}, Point{52.52, 13.40}, 0, 0.001},
		// One degree of latitude is ~111 km.
		{"one degree north", Point{52.0, 13.0}, Point{53.0, 13.0}, 111.2, 1.0},
		{"berlin to hamburg", Point{52.5200, 13.4050}, Point{53.5511, 9.9937}, 255.0, 5.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.a, tt.b)
			if math.Abs(got-tt.wantKM) > tt.tolKM {
				t.Errorf("Haversine = %f km, want %f±%f", got, tt.wantKM, tt.tolKM)
			}
		})
	}
}

func TestEstimateGeometric(t *testing.T) {
	e := NewEstimator(60, nil) // 60 km/h => 1 km per minute
	a, b := Point{52.0, 13.0}, Point{53.0, 13.0}
	got := e.Estimate(a, b)
	if math.Abs(got-Haversine(a, b)) > 0.5 {
		t.Errorf("duration = %f min, want ~%f at 60 km/h", got, Haversine(a, b))
	}
}

func TestEstimateMemoizes(t *testing.T) {
	calls := 0
	e := NewEstimator(30, func(_, _ Point) (float64, error) {
		calls++
		return 42, nil
	})
	a, b := Point{52.0, 13.0}, Point{52.1, 13.1}

	first := e.Estimate(a, b)
	second := e.Estimate(a, b)
	if first != 42 || second != 42 {
		t.Errorf("estimates = %f, %f, want external value 42", first, second)
	}
	if calls != 1 {
		t.Errorf("external called %d times, want 1 (memoized)", calls)
	}
}

func TestEstimateFallsBackOnExternalFailure(t *testing.T) {
	e := NewEstimator(60, func(_, _ Point) (float64, error) {
		return 0, errors.New("routing service unreachable")
	})
	a, b := Point{52.0, 13.0}, Point{53.0, 13.0}

	got := e.Estimate(a, b)
	want := Haversine(a, b) // 60 km/h
	if math.Abs(got-want) > 0.5 {
		t.Errorf("fallback duration = %f, want geometric ~%f", got, want)
	}
	if e.DegradedCount() != 1 {
		t.Errorf("degraded count = %d, want 1", e.DegradedCount())
	}
}

func TestBuildRouteVisitsEveryStopOnce(t *testing.T) {
	e := NewEstimator(30, nil)
	start := Point{52.50, 13.40}
	stops := []Point{
		{52.52, 13.41}, {52.48, 13.35}, {52.55, 13.50}, {52.51, 13.38}, {52.46, 13.44},
	}

	order := BuildRoute(e, start, stops)
	if len(order) != len(stops) {
		t.Fatalf("route has %d stops, want %d", len(order), len(stops))
	}
	seen := make(map[int]bool)
	for _, idx := range order {
		if seen[idx] {
			t.Fatalf("stop %d visited twice", idx)
		}
		seen[idx] = true
	}
}

func TestBuildRouteDeterministic(t *testing.T) {
	stops := []Point{
		{52.52, 13.41}, {52.48, 13.35}, {52.55, 13.50}, {52.51, 13.38},
	}
	start := Point{52.50, 13.40}

	a := BuildRoute(NewEstimator(30, nil), start, stops)
	b := BuildRoute(NewEstimator(30, nil), start, stops)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("routes differ between runs:\n%s", diff)
	}
}

func TestTwoOptImprovesCrossedRoute(t *testing.T) {
	e := NewEstimator(30, nil)
	start := Point{0, 0}
	// Four stops on a line; a naive visit order would zig-zag.
	stops := []Point{
		{0, 0.04}, {0, 0.01}, {0, 0.03}, {0, 0.02},
	}

	order := BuildRoute(e, start, stops)
	optimal := TotalDuration(e, start, stops, []int{1, 3, 2, 0})
	got := TotalDuration(e, start, stops, order)
	if got > optimal+1e-6 {
		t.Errorf("route duration %f, want optimal %f", got, optimal)
	}
}

func TestBuildRouteEmpty(t *testing.T) {
	if got := BuildRoute(NewEstimator(30, nil), Point{}, nil); got != nil {
		t.Errorf("BuildRoute(empty) = %v, want nil", got)
	}
}
