package site

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/medcost/internal/domain/estimator"
)

// FormatCost renders a cost the way the result box shows it: two decimals
// for a model prediction, none for a simulated estimate, thousands grouped
// with commas and the currency symbol appended.
func FormatCost(cost float64, provenance estimator.Provenance, currency string) string {
	places := int32(2)
	if provenance == estimator.ProvenanceSimulated {
		places = 0
	}
	s := groupThousands(decimal.NewFromFloat(cost).StringFixed(places))
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// FormatBMI renders a BMI with one decimal.
func FormatBMI(bmi float64) string {
	return decimal.NewFromFloat(bmi).StringFixed(1)
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}
