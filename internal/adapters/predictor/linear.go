package predictor

import (
	"context"

	"github.com/okian/medcost/internal/domain/estimator"
)

// LinearModel predicts intercept + sum(coefficient * feature) + region offset,
// clipped to an optional floor.
type LinearModel struct {
	intercept     float64
	coefficients  Coefficients
	regionOffsets map[string]float64
	floor         *float64
}

// NewLinearModel builds a linear model from a descriptor.
func NewLinearModel(d Descriptor) *LinearModel {
	offsets := make(map[string]float64, len(d.RegionOffsets))
	for region, v := range d.RegionOffsets {
		offsets[region] = v
	}
	return &LinearModel{
		intercept:     d.Intercept,
		coefficients:  d.Coefficients,
		regionOffsets: offsets,
		floor:         d.Floor,
	}
}

// Predict implements estimator.Predictor.
func (m *LinearModel) Predict(ctx context.Context, f estimator.Features) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c := m.coefficients
	v := m.intercept +
		c.Age*f.Age +
		c.Sex*indicator(f.Sex) +
		c.BMI*f.BMI +
		c.Children*f.Children +
		c.Smoker*indicator(f.Smoker) +
		m.regionOffsets[f.Region]
	if m.floor != nil && v < *m.floor {
		v = *m.floor
	}
	return v, nil
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
