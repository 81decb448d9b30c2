package site

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/medcost/internal/domain/insurance"
)

// formValues holds what the user typed so the form can be re-rendered.
type formValues struct {
	Age      string
	Sex      string
	HeightCM string
	WeightKG string
	BMI      string
	Smoker   string
	Children string
	Region   string
}

// defaultForm mirrors the initial values of the collection UI.
func defaultForm() formValues {
	return formValues{
		Age:      "35",
		Sex:      "male",
		HeightCM: "170",
		WeightKG: "70",
		Smoker:   "false",
		Children: "0",
		Region:   string(insurance.RegionNorth),
	}
}

// parseForm reads the posted form. Absent fields stay nil so validation
// reports them; malformed numbers are reported directly.
func parseForm(r *http.Request) (insurance.Submission, formValues, []insurance.FieldError) {
	fv := formValues{
		Age:      strings.TrimSpace(r.PostFormValue("age")),
		Sex:      strings.TrimSpace(r.PostFormValue("sex")),
		HeightCM: strings.TrimSpace(r.PostFormValue("height_cm")),
		WeightKG: strings.TrimSpace(r.PostFormValue("weight_kg")),
		BMI:      strings.TrimSpace(r.PostFormValue("bmi")),
		Smoker:   strings.TrimSpace(r.PostFormValue("smoker")),
		Children: strings.TrimSpace(r.PostFormValue("children")),
		Region:   strings.TrimSpace(r.PostFormValue("region")),
	}

	var (
		sub  insurance.Submission
		errs []insurance.FieldError
	)
	bad := func(field, reason string) {
		errs = append(errs, insurance.FieldError{Field: field, Reason: reason})
	}

	if fv.Age != "" {
		if v, err := strconv.Atoi(fv.Age); err == nil {
			sub.Age = &v
		} else {
			bad("age", "must be a whole number")
		}
	}
	if fv.Children != "" {
		if v, err := strconv.Atoi(fv.Children); err == nil {
			sub.Children = &v
		} else {
			bad("children", "must be a whole number")
		}
	}
	sub.HeightCM = parseFloat(fv.HeightCM, "height_cm", bad)
	sub.WeightKG = parseFloat(fv.WeightKG, "weight_kg", bad)
	sub.BMI = parseFloat(fv.BMI, "bmi", bad)

	if fv.Smoker != "" {
		if v, ok := parseYesNo(fv.Smoker); ok {
			sub.Smoker = &v
		} else {
			bad("smoker", "must be yes or no")
		}
	}
	if fv.Sex != "" {
		s := fv.Sex
		sub.Sex = &s
	}
	if fv.Region != "" {
		s := fv.Region
		sub.Region = &s
	}
	return sub, fv, errs
}

func parseFloat(raw, field string, bad func(field, reason string)) *float64 {
	if raw == "" {
		return nil
	}
	v, err := parseDecimal(raw)
	if err != nil {
		bad(field, "must be a number")
		return nil
	}
	return &v
}

// parseDecimal accepts both "22.5" and the French "22,5".
func parseDecimal(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
}

func parseYesNo(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "oui", "1", "on":
		return true, true
	case "false", "no", "non", "0", "off":
		return false, true
	}
	return false, false
}
