// Package insurance defines the applicant record consumed by cost estimation
// and the rules that turn collected form values into a valid record.
package insurance

import (
	"fmt"
	"math"
	"strings"
)

// Domain bounds for a record, independent of what a particular form accepts.
const (
	MinAge = 0
	MaxAge = 120
)

// Sex is the applicant's sex. The zero value is unset and never valid.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

// ParseSex accepts english and french labels, case-insensitively.
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "homme", "h":
		return SexMale, nil
	case "female", "f", "femme":
		return SexFemale, nil
	}
	return SexUnknown, fmt.Errorf("unknown sex %q", s)
}

// Bool encodes sex the way the regression model was trained: male=true.
func (s Sex) Bool() bool { return s == SexMale }

func (s Sex) String() string {
	switch s {
	case SexMale:
		return "male"
	case SexFemale:
		return "female"
	default:
		return "unknown"
	}
}

// Region is a coarse residence area. Unrecognized values are carried as-is.
type Region string

const (
	RegionNorth Region = "north"
	RegionSouth Region = "south"
	RegionEast  Region = "east"
	RegionWest  Region = "west"
)

// Regions lists the known regions in display order.
var Regions = []Region{RegionNorth, RegionSouth, RegionEast, RegionWest}

var regionAliases = map[string]Region{
	"north": RegionNorth, "nord": RegionNorth, "n": RegionNorth,
	"south": RegionSouth, "sud": RegionSouth, "s": RegionSouth,
	"east": RegionEast, "est": RegionEast, "e": RegionEast,
	"west": RegionWest, "ouest": RegionWest, "o": RegionWest, "w": RegionWest,
}

// ParseRegion normalizes known english and french labels. Anything else is
// returned trimmed but otherwise untouched, so callers decide whether an
// unknown region is acceptable.
func ParseRegion(s string) Region {
	trimmed := strings.TrimSpace(s)
	if r, ok := regionAliases[strings.ToLower(trimmed)]; ok {
		return r
	}
	return Region(trimmed)
}

// Known reports whether r is one of the four recognized regions.
func (r Region) Known() bool {
	switch r {
	case RegionNorth, RegionSouth, RegionEast, RegionWest:
		return true
	}
	return false
}

// Label returns the french label shown by the form.
func (r Region) Label() string {
	switch r {
	case RegionNorth:
		return "Nord"
	case RegionSouth:
		return "Sud"
	case RegionEast:
		return "Est"
	case RegionWest:
		return "Ouest"
	}
	return string(r)
}

// InputRecord is one applicant. Build it through Validator.Record or fill it
// directly and call Validate.
type InputRecord struct {
	Age      int     `json:"age"`
	Sex      Sex     `json:"-"`
	BMI      float64 `json:"bmi"`
	Children int     `json:"children"`
	Smoker   bool    `json:"smoker"`
	Region   Region  `json:"region"`
}

// Validate checks the record against the domain bounds. It does not require
// the region to be known: the estimator treats unknown regions as neutral.
func (r InputRecord) Validate() error {
	var fields []FieldError
	if r.Age < MinAge || r.Age > MaxAge {
		fields = append(fields, FieldError{Field: "age", Reason: fmt.Sprintf("must be between %d and %d", MinAge, MaxAge)})
	}
	if r.Sex != SexMale && r.Sex != SexFemale {
		fields = append(fields, FieldError{Field: "sex", Reason: "is required"})
	}
	if math.IsNaN(r.BMI) || math.IsInf(r.BMI, 0) || r.BMI <= 0 {
		fields = append(fields, FieldError{Field: "bmi", Reason: "must be a positive number"})
	}
	if r.Children < 0 {
		fields = append(fields, FieldError{Field: "children", Reason: "must not be negative"})
	}
	if strings.TrimSpace(string(r.Region)) == "" {
		fields = append(fields, FieldError{Field: "region", Reason: "is required"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
