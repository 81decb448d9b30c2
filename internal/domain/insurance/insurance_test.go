package insurance_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/medcost/internal/domain/insurance"
	. "github.com/smartystreets/goconvey/convey"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
func stringPtr(v string) *string  { return &v }

func completeSubmission() insurance.Submission {
	return insurance.Submission{
		Age:      intPtr(35),
		Sex:      stringPtr("Homme"),
		HeightCM: floatPtr(170),
		WeightKG: floatPtr(70),
		Children: intPtr(0),
		Smoker:   boolPtr(false),
		Region:   stringPtr("Nord"),
	}
}

func TestParseSexAndRegion(t *testing.T) {
	Convey("Given collected labels", t, func() {
		Convey("When parsing sex labels", func() {
			male, err := insurance.ParseSex("Homme")
			So(err, ShouldBeNil)
			So(male, ShouldEqual, insurance.SexMale)
			So(male.Bool(), ShouldBeTrue)

			female, err := insurance.ParseSex(" female ")
			So(err, ShouldBeNil)
			So(female.Bool(), ShouldBeFalse)

			_, err = insurance.ParseSex("other")
			So(err, ShouldNotBeNil)
		})

		Convey("When parsing region labels", func() {
			So(insurance.ParseRegion("Ouest"), ShouldEqual, insurance.RegionWest)
			So(insurance.ParseRegion("SOUTH"), ShouldEqual, insurance.RegionSouth)
			So(insurance.ParseRegion("Atlantis"), ShouldEqual, insurance.Region("Atlantis"))
			So(insurance.ParseRegion("Atlantis").Known(), ShouldBeFalse)
			So(insurance.RegionEast.Label(), ShouldEqual, "Est")
		})
	})
}

func TestBMI(t *testing.T) {
	Convey("Given height and weight", t, func() {
		Convey("Then BMI is weight over squared height in meters", func() {
			So(insurance.ComputeBMI(70, 170), ShouldAlmostEqual, 24.2214, 0.0001)
			So(insurance.ComputeBMI(70, 0), ShouldEqual, 0)
		})

		Convey("Then categories use inclusive lower bounds", func() {
			So(insurance.CategorizeBMI(18.4), ShouldEqual, insurance.BMICategoryUnderweight)
			So(insurance.CategorizeBMI(18.5), ShouldEqual, insurance.BMICategoryNormal)
			So(insurance.CategorizeBMI(25), ShouldEqual, insurance.BMICategoryOverweight)
			So(insurance.CategorizeBMI(30), ShouldEqual, insurance.BMICategoryObese)
			So(insurance.BMICategoryObese.Severity(), ShouldEqual, "danger")
			So(insurance.BMICategoryNormal.Label(), ShouldEqual, "Poids normal")
		})
	})
}

func TestInputRecord_Validate(t *testing.T) {
	Convey("Given an input record", t, func() {
		rec := insurance.InputRecord{Age: 40, Sex: insurance.SexFemale, BMI: 22, Children: 1, Region: insurance.RegionEast}

		Convey("When every field is in domain", func() {
			So(rec.Validate(), ShouldBeNil)
		})

		Convey("When the region is unknown but present", func() {
			rec.Region = "atlantis"
			So(rec.Validate(), ShouldBeNil)
		})

		Convey("When the record is the zero value", func() {
			err := insurance.InputRecord{}.Validate()
			So(errors.Is(err, insurance.ErrInvalidRecord), ShouldBeTrue)

			var verr *insurance.ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(verr.Has("sex"), ShouldBeTrue)
			So(verr.Has("bmi"), ShouldBeTrue)
			So(verr.Has("region"), ShouldBeTrue)
			So(verr.Has("age"), ShouldBeFalse)
		})

		Convey("When values are out of domain", func() {
			rec.Age = 121
			rec.Children = -1
			rec.BMI = math.NaN()
			var verr *insurance.ValidationError
			So(errors.As(rec.Validate(), &verr), ShouldBeTrue)
			So(verr.Has("age"), ShouldBeTrue)
			So(verr.Has("children"), ShouldBeTrue)
			So(verr.Has("bmi"), ShouldBeTrue)
		})
	})
}

func TestValidator_Record(t *testing.T) {
	Convey("Given a validator with form defaults", t, func() {
		v := insurance.NewValidator()

		Convey("When the submission is complete", func() {
			rec, err := v.Record(completeSubmission())

			Convey("Then the record is built with a derived BMI", func() {
				So(err, ShouldBeNil)
				So(rec.Age, ShouldEqual, 35)
				So(rec.Sex, ShouldEqual, insurance.SexMale)
				So(rec.BMI, ShouldAlmostEqual, 24.2214, 0.0001)
				So(rec.Region, ShouldEqual, insurance.RegionNorth)
				So(rec.Smoker, ShouldBeFalse)
			})
		})

		Convey("When BMI is given directly", func() {
			s := completeSubmission()
			s.HeightCM, s.WeightKG = nil, nil
			s.BMI = floatPtr(31.5)
			rec, err := v.Record(s)
			So(err, ShouldBeNil)
			So(rec.BMI, ShouldEqual, 31.5)
		})

		Convey("When zero values are explicitly supplied", func() {
			s := completeSubmission()
			s.Children = intPtr(0)
			s.Smoker = boolPtr(false)
			_, err := v.Record(s)
			So(err, ShouldBeNil)
		})

		Convey("When fields are missing", func() {
			s := completeSubmission()
			s.Smoker = nil
			s.Region = nil
			s.WeightKG = nil
			_, err := v.Record(s)

			Convey("Then each missing field is reported, never defaulted", func() {
				var verr *insurance.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Has("smoker"), ShouldBeTrue)
				So(verr.Has("region"), ShouldBeTrue)
				So(verr.Has("weight_kg"), ShouldBeTrue)
				So(verr.Has("age"), ShouldBeFalse)
			})
		})

		Convey("When no BMI source is supplied at all", func() {
			s := completeSubmission()
			s.HeightCM, s.WeightKG = nil, nil
			var verr *insurance.ValidationError
			So(errors.As(mustFail(v, s), &verr), ShouldBeTrue)
			So(verr.Has("bmi"), ShouldBeTrue)
		})

		Convey("When the age is outside the form range", func() {
			s := completeSubmission()
			s.Age = intPtr(17)
			var verr *insurance.ValidationError
			So(errors.As(mustFail(v, s), &verr), ShouldBeTrue)
			So(verr.Has("age"), ShouldBeTrue)
			So(verr.Error(), ShouldContainSubstring, "between 18 and 100")
		})

		Convey("When labels are unknown", func() {
			s := completeSubmission()
			s.Sex = stringPtr("x")
			s.Region = stringPtr("atlantis")
			var verr *insurance.ValidationError
			So(errors.As(mustFail(v, s), &verr), ShouldBeTrue)
			So(verr.Has("sex"), ShouldBeTrue)
			So(verr.Has("region"), ShouldBeTrue)
		})

		Convey("When there are too many children", func() {
			s := completeSubmission()
			s.Children = intPtr(11)
			var verr *insurance.ValidationError
			So(errors.As(mustFail(v, s), &verr), ShouldBeTrue)
			So(verr.Has("children"), ShouldBeTrue)
		})
	})

	Convey("Given a validator with a widened age range", t, func() {
		v := insurance.NewValidator(insurance.WithAgeRange(-5, 200), insurance.WithMaxChildren(20))

		Convey("Then bounds are clamped to the domain", func() {
			minAge, maxAge := v.AgeRange()
			So(minAge, ShouldEqual, insurance.MinAge)
			So(maxAge, ShouldEqual, insurance.MaxAge)
			So(v.MaxChildren(), ShouldEqual, 20)

			s := completeSubmission()
			s.Age = intPtr(0)
			_, err := v.Record(s)
			So(err, ShouldBeNil)
		})
	})
}

func mustFail(v *insurance.Validator, s insurance.Submission) error {
	_, err := v.Record(s)
	So(err, ShouldNotBeNil)
	So(errors.Is(err, insurance.ErrInvalidRecord), ShouldBeTrue)
	return err
}
