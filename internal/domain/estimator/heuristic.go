package estimator

import (
	"math"

	"github.com/okian/medcost/internal/domain/insurance"
)

// Heuristic constants. The step order in Simulate is significant: the smoker
// multiplier applies before the additive children term.
const (
	baseCost           = 3000.0
	costPerYear        = 50.0
	obeseCostPerPoint  = 200.0
	underweightPerUnit = 100.0
	smokerMultiplier   = 2.5
	costPerChild       = 500.0
	maleMultiplier     = 1.1
	minimumCost        = 1000.0
)

var regionMultipliers = map[insurance.Region]float64{
	insurance.RegionNorth: 1.0,
	insurance.RegionSouth: 0.95,
	insurance.RegionEast:  1.05,
	insurance.RegionWest:  1.02,
}

// RegionMultiplier returns the cost factor for r; unknown regions are neutral.
func RegionMultiplier(r insurance.Region) float64 {
	if m, ok := regionMultipliers[r]; ok {
		return m
	}
	return 1.0
}

// Simulate is the fallback cost heuristic. It is total over valid records
// and always returns a whole number no lower than 1000.
func Simulate(rec insurance.InputRecord) float64 {
	cost := baseCost
	cost += float64(rec.Age) * costPerYear

	switch {
	case rec.BMI > insurance.BMIObese:
		cost += (rec.BMI - insurance.BMIObese) * obeseCostPerPoint
	case rec.BMI < insurance.BMIUnderweight:
		cost += (insurance.BMIUnderweight - rec.BMI) * underweightPerUnit
	}

	if rec.Smoker {
		cost *= smokerMultiplier
	}

	cost += float64(rec.Children) * costPerChild

	if rec.Sex.Bool() {
		cost *= maleMultiplier
	}

	cost *= RegionMultiplier(rec.Region)

	// Ties round to even.
	return math.Max(minimumCost, math.RoundToEven(cost))
}
