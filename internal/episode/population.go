package episode

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"collectsim/internal/debtor"
	"collectsim/internal/route"
	"collectsim/internal/scenario"
)

// District center the debtor homes scatter around. Arbitrary fixed origin;
// only relative distances matter.
var districtCenter = route.Point{Lat: 52.52, Lon: 13.405}

// generatePopulation builds one episode's debtor population from the
// scenario shape and the run's economic profile.
func generatePopulation(sc *scenario.Scenario, incomeMean float64, rng *rand.Rand) ([]*debtor.Debtor, []route.Point) {
	n := sc.Debtors.Count
	debtors := make([]*debtor.Debtor, 0, n)
	homes := make([]route.Point, 0, n)

	income := distuv.Normal{Mu: incomeMean, Sigma: sc.Debtors.IncomeStddev, Src: rng}

	for i := 0; i < n; i++ {
		debt := sc.Debtors.DebtMin + rng.Float64()*(sc.Debtors.DebtMax-sc.Debtors.DebtMin)
		monthly := math.Max(incomeMean*0.2, income.Rand())

		debtors = append(debtors, &debtor.Debtor{
			ID:            i + 1,
			Archetype:     debtor.Archetypes[rng.IntN(len(debtor.Archetypes))],
			InitialDebt:   debt,
			MoneyOwed:     debt,
			MonthlyIncome: monthly,
			SalaryDate:    1 + rng.IntN(28),
			// Somewhere between payday and broke.
			CurrentFunds: monthly * (0.3 + 0.7*rng.Float64()),
		})
		homes = append(homes, scatter(sc.Debtors.AreaKM, rng))
	}
	return debtors, homes
}

// scatter places a home uniformly in a square of side areaKM centered on
// the district center.
func scatter(areaKM float64, rng *rand.Rand) route.Point {
	dLatKM := (rng.Float64() - 0.5) * areaKM
	dLonKM := (rng.Float64() - 0.5) * areaKM
	return route.Point{
		Lat: districtCenter.Lat + dLatKM/111.0,
		Lon: districtCenter.Lon + dLonKM/(111.0*math.Cos(districtCenter.Lat*math.Pi/180)),
	}
}

// modelParams maps scenario behavior constants (plus the run's jittered
// success rate) into ground-truth model parameters.
func modelParams(b scenario.Behavior, successRate float64) debtor.Params {
	return debtor.Params{
		BaseSuccessRate:     successRate,
		AmountPctMean:       b.AmountPctMean,
		AmountPctStddev:     b.AmountPctStddev,
		PressureStep:        b.PressureStep,
		PressureDecay:       b.PressureDecay,
		PressureThreshold:   b.PressureThreshold,
		FreshRatio:          b.FreshRatio,
		DepletedRatio:       b.DepletedRatio,
		DailyExpensePct:     b.DailyExpensePct,
		DailyExpenseJitter:  b.DailyExpenseJitter,
		OutOfStationProb:    b.OutOfStationProb,
		OutOfStationDaysMax: b.OutOfStationDaysMax,
		DepletedDampener:    b.DepletedDampener,
		PressuredBoost:      b.PressuredBoost,
	}
}
