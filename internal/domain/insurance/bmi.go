package insurance

// BMI thresholds used both for display and by the cost heuristic.
const (
	BMIUnderweight = 18.5
	BMIOverweight  = 25.0
	BMIObese       = 30.0
)

// ComputeBMI derives body-mass index from weight in kilograms and height in
// centimeters. It returns 0 when height is not positive.
func ComputeBMI(weightKG, heightCM float64) float64 {
	if heightCM <= 0 {
		return 0
	}
	m := heightCM / 100
	return weightKG / (m * m)
}

// BMICategory is the WHO band a BMI falls into.
type BMICategory string

const (
	BMICategoryUnderweight BMICategory = "underweight"
	BMICategoryNormal      BMICategory = "normal"
	BMICategoryOverweight  BMICategory = "overweight"
	BMICategoryObese       BMICategory = "obese"
)

// CategorizeBMI maps a BMI to its band. Lower bounds are inclusive.
func CategorizeBMI(bmi float64) BMICategory {
	switch {
	case bmi < BMIUnderweight:
		return BMICategoryUnderweight
	case bmi < BMIOverweight:
		return BMICategoryNormal
	case bmi < BMIObese:
		return BMICategoryOverweight
	default:
		return BMICategoryObese
	}
}

// Label is the french wording shown next to the computed BMI.
func (c BMICategory) Label() string {
	switch c {
	case BMICategoryUnderweight:
		return "Poids insuffisant"
	case BMICategoryNormal:
		return "Poids normal"
	case BMICategoryOverweight:
		return "Surpoids"
	case BMICategoryObese:
		return "Obésité"
	}
	return string(c)
}

// Severity is the display status class: normal, warning or danger.
func (c BMICategory) Severity() string {
	switch c {
	case BMICategoryNormal:
		return "normal"
	case BMICategoryObese:
		return "danger"
	default:
		return "warning"
	}
}
