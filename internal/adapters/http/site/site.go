// Package site serves the browser form that collects an applicant's data
// and shows the estimated annual cost.
package site

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	service "github.com/okian/medcost/internal/app"
	"github.com/okian/medcost/internal/domain/estimator"
	"github.com/okian/medcost/internal/domain/insurance"
	"github.com/okian/medcost/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("site page render failed")
)

const maxFormBytes = 64 << 10

// Dependencies is what the form needs from the application service.
type Dependencies interface {
	Estimate(ctx context.Context, sub insurance.Submission, opts service.EstimateOptions) (service.Estimation, error)
	Validator() *insurance.Validator
}

// Handler renders the form and its result page.
type Handler struct {
	deps     Dependencies
	currency string
	log      logger.Logger
	page     *template.Template
}

// Option configures a Handler.
type Option func(*Handler)

// WithCurrency sets the symbol appended to displayed costs.
func WithCurrency(symbol string) Option {
	return func(h *Handler) { h.currency = symbol }
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHandler parses the embedded templates and builds a Handler.
func NewHandler(deps Dependencies, opts ...Option) *Handler {
	h := &Handler{
		deps:     deps,
		currency: "$",
		log:      logger.Nop(),
		page:     template.Must(template.ParseFS(siteFS, "templates/index.html")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register attaches the form, its submission endpoint and the static assets.
func Register(_ context.Context, r chi.Router, deps Dependencies, opts ...Option) {
	if r == nil {
		panic("router is nil")
	}
	if deps == nil {
		panic("site dependencies are nil")
	}

	h := NewHandler(deps, opts...)
	r.Get("/", h.HandleForm)
	r.Post("/", h.HandleSubmit)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type summaryRow struct {
	Label string
	Value string
}

type resultView struct {
	Cost           string
	Simulated      bool
	FallbackReason string
	Summary        []summaryRow
}

type bmiView struct {
	Value    string
	Label    string
	Severity string
}

type pageData struct {
	Form        formValues
	MinAge      int
	MaxAge      int
	MaxChildren int
	Sexes       []option
	Regions     []option
	SmokerYes   bool
	BMI         *bmiView
	Result      *resultView
	FieldErrors []insurance.FieldError
	Failure     string
}

// HandleForm handles GET / and shows the empty form with default values.
func (h *Handler) HandleForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.newPage(defaultForm()))
}

// HandleSubmit handles POST / and renders the estimate below the form.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		page := h.newPage(defaultForm())
		page.Failure = err.Error()
		h.render(w, r, http.StatusBadRequest, page)
		return
	}

	sub, fv, parseErrs := parseForm(r)
	page := h.newPage(fv)
	if len(parseErrs) > 0 {
		page.FieldErrors = parseErrs
		h.render(w, r, http.StatusBadRequest, page)
		return
	}

	est, err := h.deps.Estimate(r.Context(), sub, service.EstimateOptions{})
	if err != nil {
		status := http.StatusInternalServerError
		var verr *insurance.ValidationError
		switch {
		case errors.As(err, &verr):
			status = http.StatusBadRequest
			page.FieldErrors = verr.Fields
		case estimator.Kind(err) == estimator.KindPredictor:
			status = http.StatusBadGateway
			page.Failure = err.Error()
		default:
			page.Failure = err.Error()
		}
		h.log.Warn(r.Context(), "form estimate failed", logger.Error(err), logger.Int("status", status))
		h.render(w, r, status, page)
		return
	}

	page.BMI = newBMIView(est.Record.BMI)
	page.Result = &resultView{
		Cost:           FormatCost(est.Result.Cost, est.Result.Provenance, h.currency),
		Simulated:      est.Result.Provenance == estimator.ProvenanceSimulated,
		FallbackReason: est.Result.FallbackReason,
		Summary:        summarize(est.Record, fv),
	}
	h.render(w, r, http.StatusOK, page)
}

func (h *Handler) newPage(fv formValues) pageData {
	minAge, maxAge := h.deps.Validator().AgeRange()
	page := pageData{
		Form:        fv,
		MinAge:      minAge,
		MaxAge:      maxAge,
		MaxChildren: h.deps.Validator().MaxChildren(),
		SmokerYes:   isYes(fv.Smoker),
	}

	sex, _ := insurance.ParseSex(fv.Sex)
	page.Sexes = []option{
		{Value: "male", Label: "Homme", Selected: sex != insurance.SexFemale},
		{Value: "female", Label: "Femme", Selected: sex == insurance.SexFemale},
	}
	region := insurance.ParseRegion(fv.Region)
	for _, reg := range insurance.Regions {
		page.Regions = append(page.Regions, option{Value: string(reg), Label: reg.Label(), Selected: reg == region})
	}

	if bmi, ok := previewBMI(fv); ok {
		page.BMI = newBMIView(bmi)
	}
	return page
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page pageData) {
	var buf bytes.Buffer
	if err := h.page.ExecuteTemplate(&buf, "index.html", page); err != nil {
		h.log.Error(r.Context(), "render page", logger.Error(errors.Join(ErrRender, err)))
		http.Error(w, ErrRender.Error(), http.StatusInternalServerError)
		return
	}
	render.Status(r, status)
	render.HTML(w, r, buf.String())
}

func newBMIView(bmi float64) *bmiView {
	cat := insurance.CategorizeBMI(bmi)
	return &bmiView{Value: FormatBMI(bmi), Label: cat.Label(), Severity: cat.Severity()}
}

// previewBMI derives the BMI shown next to the height and weight inputs.
func previewBMI(fv formValues) (float64, bool) {
	if fv.BMI != "" {
		v, err := parseDecimal(fv.BMI)
		return v, err == nil && v > 0
	}
	h, herr := parseDecimal(fv.HeightCM)
	wt, werr := parseDecimal(fv.WeightKG)
	if herr != nil || werr != nil || h <= 0 || wt <= 0 {
		return 0, false
	}
	return insurance.ComputeBMI(wt, h), true
}

func summarize(rec insurance.InputRecord, fv formValues) []summaryRow {
	sex := "Homme"
	if rec.Sex == insurance.SexFemale {
		sex = "Femme"
	}
	smoker := "Non"
	if rec.Smoker {
		smoker = "Oui"
	}

	rows := []summaryRow{
		{Label: "Âge", Value: strconv.Itoa(rec.Age) + " ans"},
		{Label: "Sexe", Value: sex},
	}
	if fv.BMI == "" {
		rows = append(rows,
			summaryRow{Label: "Taille", Value: fv.HeightCM + " cm"},
			summaryRow{Label: "Poids", Value: fv.WeightKG + " kg"},
		)
	}
	return append(rows,
		summaryRow{Label: "IMC", Value: FormatBMI(rec.BMI)},
		summaryRow{Label: "Fumeur", Value: smoker},
		summaryRow{Label: "Enfants", Value: strconv.Itoa(rec.Children)},
		summaryRow{Label: "Région", Value: rec.Region.Label()},
	)
}

func isYes(s string) bool {
	v, ok := parseYesNo(s)
	return ok && v
}
