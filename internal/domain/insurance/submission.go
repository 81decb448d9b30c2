package insurance

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form bounds applied by default, matching the collection UI.
const (
	DefaultMinAge      = 18
	DefaultMaxAge      = 100
	DefaultMaxChildren = 10
)

// Submission holds values as collected from a form or API call. Pointer
// fields distinguish "absent" from a zero value; an absent field is always a
// validation failure and never defaulted.
type Submission struct {
	Age      *int     `json:"age" validate:"required"`
	Sex      *string  `json:"sex" validate:"required,sex"`
	BMI      *float64 `json:"bmi,omitempty" validate:"required_without_all=HeightCM WeightKG,omitempty,gt=0,lte=100"`
	HeightCM *float64 `json:"height_cm,omitempty" validate:"required_without=BMI,omitempty,gte=140,lte=220"`
	WeightKG *float64 `json:"weight_kg,omitempty" validate:"required_without=BMI,omitempty,gte=40,lte=200"`
	Children *int     `json:"children" validate:"required,gte=0"`
	Smoker   *bool    `json:"smoker" validate:"required"`
	Region   *string  `json:"region" validate:"required,region"`
}

// ValidationRule registers one custom tag on the underlying validator.
type ValidationRule struct {
	Rule func(v *validator.Validate)
}

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func sexValidator(fl validator.FieldLevel) bool {
	_, err := ParseSex(fl.Field().String())
	return err == nil
}

func regionValidator(fl validator.FieldLevel) bool {
	return ParseRegion(fl.Field().String()).Known()
}

// NewSubmissionValidationRules returns the custom tags used by Submission.
func NewSubmissionValidationRules() []ValidationRule {
	return []ValidationRule{
		{Rule: registerFn("sex", sexValidator)},
		{Rule: registerFn("region", regionValidator)},
	}
}

// Validator turns a Submission into an InputRecord.
type Validator struct {
	validate    *validator.Validate
	minAge      int
	maxAge      int
	maxChildren int
}

// Option configures a Validator.
type Option func(*Validator)

// WithAgeRange narrows the accepted age range. Bounds outside the domain
// range are clamped to it.
func WithAgeRange(minAge, maxAge int) Option {
	return func(v *Validator) {
		if minAge < MinAge {
			minAge = MinAge
		}
		if maxAge > MaxAge {
			maxAge = MaxAge
		}
		if minAge <= maxAge {
			v.minAge = minAge
			v.maxAge = maxAge
		}
	}
}

// WithMaxChildren sets the upper bound for the number of children.
func WithMaxChildren(n int) Option {
	return func(v *Validator) {
		if n >= 0 {
			v.maxChildren = n
		}
	}
}

// NewValidator builds a Validator with the form defaults.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		validate:    validator.New(),
		minAge:      DefaultMinAge,
		maxAge:      DefaultMaxAge,
		maxChildren: DefaultMaxChildren,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	for _, rule := range NewSubmissionValidationRules() {
		rule.Rule(v.validate)
	}
	v.validate.RegisterStructValidation(v.boundsValidation, Submission{})
	return v
}

// AgeRange returns the accepted age bounds.
func (v *Validator) AgeRange() (int, int) { return v.minAge, v.maxAge }

// MaxChildren returns the accepted upper bound for children.
func (v *Validator) MaxChildren() int { return v.maxChildren }

func (v *Validator) boundsValidation(sl validator.StructLevel) {
	s, ok := sl.Current().Interface().(Submission)
	if !ok {
		return
	}
	if s.Age != nil && (*s.Age < v.minAge || *s.Age > v.maxAge) {
		sl.ReportError(*s.Age, "age", "Age", "age_range", fmt.Sprintf("%d-%d", v.minAge, v.maxAge))
	}
	if s.Children != nil && *s.Children > v.maxChildren {
		sl.ReportError(*s.Children, "children", "Children", "lte", fmt.Sprint(v.maxChildren))
	}
}

// Record validates s and builds the InputRecord. BMI is taken as given when
// present, otherwise derived from height and weight.
func (v *Validator) Record(s Submission) (InputRecord, error) {
	if err := v.validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return InputRecord{}, translate(verrs)
		}
		return InputRecord{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	sex, _ := ParseSex(*s.Sex)
	bmi := 0.0
	if s.BMI != nil {
		bmi = *s.BMI
	} else {
		bmi = ComputeBMI(*s.WeightKG, *s.HeightCM)
	}

	rec := InputRecord{
		Age:      *s.Age,
		Sex:      sex,
		BMI:      bmi,
		Children: *s.Children,
		Smoker:   *s.Smoker,
		Region:   ParseRegion(*s.Region),
	}
	return rec, rec.Validate()
}

func translate(verrs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Reason: reason(fe)})
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "required_without_all":
		return "is required"
	case "sex":
		return "must be male or female"
	case "region":
		return "must be one of north, south, east, west"
	case "age_range":
		return "must be between " + strings.Replace(fe.Param(), "-", " and ", 1)
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}
