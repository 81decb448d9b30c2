package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/okian/medcost/internal/adapters/predictor"
	app "github.com/okian/medcost/internal/app"
	"github.com/okian/medcost/internal/domain/estimator"
	"github.com/okian/medcost/internal/domain/insurance"
	"github.com/okian/medcost/pkg/logger"
)

// Exit codes.
const (
	exitOK         = 0
	exitInvalid    = 1
	exitPredictor  = 2
	exitInternal   = 3
	defaultTimeout = 2 * time.Second
)

type flags struct {
	age             int
	sex             string
	bmi             float64
	height          float64
	weight          float64
	children        int
	smoker          bool
	region          string
	model           string
	predictorURL    string
	timeout         time.Duration
	fallback        bool
	fallbackOnError bool
	json            bool
	verbose         bool
}

type output struct {
	ID             string                `json:"id"`
	Cost           float64               `json:"cost"`
	Provenance     estimator.Provenance  `json:"provenance"`
	FallbackReason string                `json:"fallback_reason,omitempty"`
	BMI            float64               `json:"bmi"`
	BMICategory    insurance.BMICategory `json:"bmi_category"`
}

// execute runs the command and maps the outcome to a process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, "error:", err)

	switch estimator.Kind(err) {
	case estimator.KindValidation:
		return exitInvalid
	case estimator.KindPredictor:
		return exitPredictor
	}
	var flagErr *flagError
	if errors.As(err, &flagErr) {
		return exitInvalid
	}
	return exitInternal
}

type flagError struct{ err error }

func (e *flagError) Error() string { return e.err.Error() }
func (e *flagError) Unwrap() error { return e.err }

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "estimate",
		Short:         "Estimate the annual health-insurance cost of one applicant",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f, stdout, stderr)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &flagError{err: err}
	})

	fs := cmd.Flags()
	fs.IntVar(&f.age, "age", 0, "age in years")
	fs.StringVar(&f.sex, "sex", "", "male or female")
	fs.Float64Var(&f.bmi, "bmi", 0, "body mass index; derived from --height and --weight when omitted")
	fs.Float64Var(&f.height, "height", 0, "height in centimetres")
	fs.Float64Var(&f.weight, "weight", 0, "weight in kilograms")
	fs.IntVar(&f.children, "children", 0, "number of dependent children")
	fs.BoolVar(&f.smoker, "smoker", false, "applicant smokes (true or false, required)")
	fs.StringVar(&f.region, "region", "", "north, south, east or west")
	fs.StringVar(&f.model, "model", "modele.yaml", "model descriptor file")
	fs.StringVar(&f.predictorURL, "predictor-url", "", "remote scoring endpoint; overrides --model")
	fs.DurationVar(&f.timeout, "timeout", defaultTimeout, "remote predictor timeout")
	fs.BoolVar(&f.fallback, "fallback", false, "skip the model and use the heuristic")
	fs.BoolVar(&f.fallbackOnError, "fallback-on-error", false, "use the heuristic when the predictor fails")
	fs.BoolVar(&f.json, "json", false, "print the estimate as JSON")
	fs.BoolVar(&f.verbose, "verbose", false, "log predictor activity to stderr")
	return cmd
}

func run(cmd *cobra.Command, f flags, stdout, stderr io.Writer) error {
	ctx := cmd.Context()

	l := logger.Nop()
	if f.verbose {
		l = logger.New(stderr, logger.Options{Format: logger.FormatText, Level: slog.LevelDebug})
	}

	svc := app.New(
		app.WithLogger(l),
		app.WithResource(predictor.Open(f.model, f.predictorURL, f.timeout, predictor.WithResourceLogger(l.Named("predictor")))),
		app.WithFallbackOnError(f.fallbackOnError),
	)

	est, err := svc.Estimate(ctx, submission(cmd, f), app.EstimateOptions{ForceFallback: f.fallback})
	if err != nil {
		return err
	}
	return report(stdout, est, f.json)
}

// submission keeps only the flags given on the command line so that a
// missing field is reported rather than defaulted.
func submission(cmd *cobra.Command, f flags) insurance.Submission {
	set := cmd.Flags().Changed
	var s insurance.Submission
	if set("age") {
		s.Age = &f.age
	}
	if set("sex") {
		s.Sex = &f.sex
	}
	if set("bmi") {
		s.BMI = &f.bmi
	}
	if set("height") {
		s.HeightCM = &f.height
	}
	if set("weight") {
		s.WeightKG = &f.weight
	}
	if set("children") {
		s.Children = &f.children
	}
	if set("smoker") {
		s.Smoker = &f.smoker
	}
	if set("region") {
		s.Region = &f.region
	}
	return s
}

func report(w io.Writer, est app.Estimation, asJSON bool) error {
	res := est.Result
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(output{
			ID:             est.ID,
			Cost:           res.Cost,
			Provenance:     res.Provenance,
			FallbackReason: res.FallbackReason,
			BMI:            est.Record.BMI,
			BMICategory:    est.BMICategory,
		})
	}

	places := int32(2)
	if res.Provenance == estimator.ProvenanceSimulated {
		places = 0
	}
	fmt.Fprintf(w, "cost:       %s\n", decimal.NewFromFloat(res.Cost).StringFixed(places))
	fmt.Fprintf(w, "provenance: %s\n", res.Provenance)
	fmt.Fprintf(w, "bmi:        %s (%s)\n", decimal.NewFromFloat(est.Record.BMI).StringFixed(1), est.BMICategory)
	if res.FallbackReason != "" {
		fmt.Fprintf(w, "fallback:   %s\n", res.FallbackReason)
	}
	return nil
}
