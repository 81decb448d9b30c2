package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func runCLI(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := execute(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestEstimateCommand(t *testing.T) {
	base := []string{"--age", "35", "--sex", "male", "--bmi", "22", "--children", "0", "--smoker=false", "--region", "north", "--model", ""}

	Convey("Given no model", t, func() {
		Convey("When a complete applicant is given", func() {
			code, out, _ := runCLI(base...)

			Convey("Then the simulated estimate is printed", func() {
				So(code, ShouldEqual, exitOK)
				So(out, ShouldContainSubstring, "cost:       5225")
				So(out, ShouldContainSubstring, "provenance: simulated")
				So(out, ShouldContainSubstring, "22.0 (normal)")
			})
		})

		Convey("When JSON output is requested for a smoker", func() {
			code, out, _ := runCLI(append(base, "--smoker", "--json")...)
			var got map[string]any
			So(json.Unmarshal([]byte(out), &got), ShouldBeNil)

			Convey("Then the document carries the estimate", func() {
				So(code, ShouldEqual, exitOK)
				So(got["cost"], ShouldEqual, 13063)
				So(got["provenance"], ShouldEqual, "simulated")
				So(got["bmi_category"], ShouldEqual, "normal")
			})
		})

		Convey("When height and weight replace the BMI", func() {
			code, out, _ := runCLI("--age", "35", "--sex", "homme", "--height", "170", "--weight", "70",
				"--children", "0", "--smoker=false", "--region", "nord", "--model", "")
			So(code, ShouldEqual, exitOK)
			So(out, ShouldContainSubstring, "24.2 (normal)")
		})

		Convey("When the region is missing", func() {
			code, _, errOut := runCLI("--age", "35", "--sex", "male", "--bmi", "22", "--children", "0", "--smoker=false", "--model", "")

			Convey("Then validation fails with exit code 1", func() {
				So(code, ShouldEqual, exitInvalid)
				So(errOut, ShouldContainSubstring, "region")
			})
		})

		Convey("When the smoker flag is omitted", func() {
			code, out, errOut := runCLI("--age", "35", "--sex", "male", "--bmi", "22", "--children", "0", "--region", "north", "--model", "")

			Convey("Then validation fails instead of assuming a non-smoker", func() {
				So(code, ShouldEqual, exitInvalid)
				So(errOut, ShouldContainSubstring, "smoker is required")
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When a flag is malformed", func() {
			code, _, _ := runCLI("--age", "old")
			So(code, ShouldEqual, exitInvalid)
		})
	})

	Convey("Given a remote predictor that fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		args := append(append([]string{}, base...), "--predictor-url", srv.URL)

		Convey("When fallback on error is off", func() {
			code, _, errOut := runCLI(args...)

			Convey("Then the exit code is 2", func() {
				So(code, ShouldEqual, exitPredictor)
				So(errOut, ShouldContainSubstring, "predictor")
			})
		})

		Convey("When fallback on error is on", func() {
			code, out, _ := runCLI(append(args, "--fallback-on-error")...)

			Convey("Then the heuristic answers and reports why", func() {
				So(code, ShouldEqual, exitOK)
				So(out, ShouldContainSubstring, "provenance: simulated")
				So(out, ShouldContainSubstring, "fallback:")
			})
		})

		Convey("When the fallback is forced", func() {
			code, out, _ := runCLI(append(args, "--fallback")...)
			So(code, ShouldEqual, exitOK)
			So(out, ShouldContainSubstring, "cost:       5225")
		})
	})

	Convey("Given a remote predictor that answers", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"predictions":[4321.5]}`))
		}))
		defer srv.Close()

		code, out, _ := runCLI(append(append([]string{}, base...), "--predictor-url", srv.URL)...)

		Convey("Then the model-based cost is printed with two decimals", func() {
			So(code, ShouldEqual, exitOK)
			So(out, ShouldContainSubstring, "cost:       4321.50")
			So(out, ShouldContainSubstring, "provenance: model-based")
		})
	})
}
