package debtor

// Archetype determines a debtor's at-home availability curve. The curve is a
// pure function table from hour of day to probability of being home, so the
// model stays data-driven instead of branching per archetype at call sites.
type Archetype string

const (
	OfficeWorker Archetype = "office_worker"
	Homemaker    Archetype = "homemaker"
	ShiftWorker  Archetype = "shift_worker"
)

// Archetypes lists all known archetypes in deterministic order.
var Archetypes = []Archetype{OfficeWorker, Homemaker, ShiftWorker}

// availabilityCurves maps archetype -> 24 hourly at-home probabilities.
var availabilityCurves = map[Archetype][24]float64{
	// Gone during office hours, reliably home in the evening.
	OfficeWorker: buildCurve(0.95, map[int]float64{
		8: 0.40, 9: 0.10, 10: 0.05, 11: 0.05, 12: 0.05, 13: 0.05,
		14: 0.05, 15: 0.05, 16: 0.10, 17: 0.25, 18: 0.55, 19: 0.80,
	}),
	// Mostly home with a midday errand dip.
	Homemaker: buildCurve(0.90, map[int]float64{
		10: 0.70, 11: 0.60, 12: 0.55, 13: 0.60, 14: 0.70, 17: 0.75,
	}),
	// Sleeps mornings, works nights.
	ShiftWorker: buildCurve(0.30, map[int]float64{
		9: 0.70, 10: 0.75, 11: 0.80, 12: 0.80, 13: 0.75, 14: 0.70,
		15: 0.60, 21: 0.10, 22: 0.05, 23: 0.05, 0: 0.05, 1: 0.05,
	}),
}

func buildCurve(base float64, overrides map[int]float64) [24]float64 {
	var curve [24]float64
	for h := 0; h < 24; h++ {
		curve[h] = base
	}
	for h, p := range overrides {
		curve[h] = p
	}
	return curve
}

// Availability returns the probability of the archetype being home at the
// given hour. Hours outside [0, 24) wrap around.
func (a Archetype) Availability(hour int) float64 {
	curve, ok := availabilityCurves[a]
	if !ok {
		return 0
	}
	return curve[((hour%24)+24)%24]
}

// Valid reports whether the archetype is one of the known variants.
func (a Archetype) Valid() bool {
	_, ok := availabilityCurves[a]
	return ok
}
