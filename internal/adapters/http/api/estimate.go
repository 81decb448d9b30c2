package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"

	service "github.com/okian/medcost/internal/app"
	"github.com/okian/medcost/internal/domain/estimator"
	"github.com/okian/medcost/internal/domain/insurance"
)

const maxBodyBytes = 1 << 20

// Estimation modes accepted in the request body.
const (
	modeAuto     = "auto"
	modeFallback = "fallback"
)

// estimateRequest mirrors the OpenAPI schema for POST /api/v1/estimate.
type estimateRequest struct {
	insurance.Submission
	Mode            string `json:"mode,omitempty"`
	FallbackOnError *bool  `json:"fallback_on_error,omitempty"`
}

func (e estimateRequest) options() (service.EstimateOptions, error) {
	opts := service.EstimateOptions{FallbackOnError: e.FallbackOnError}
	switch e.Mode {
	case "", modeAuto:
	case modeFallback:
		opts.ForceFallback = true
	default:
		return opts, fmt.Errorf("unknown mode %q; use auto or fallback", e.Mode)
	}
	return opts, nil
}

type recordView struct {
	Age      int     `json:"age"`
	Sex      string  `json:"sex"`
	BMI      float64 `json:"bmi"`
	Children int     `json:"children"`
	Smoker   bool    `json:"smoker"`
	Region   string  `json:"region"`
}

type estimateResponse struct {
	ID             string                `json:"id"`
	Cost           float64               `json:"cost"`
	Provenance     estimator.Provenance  `json:"provenance"`
	FallbackReason string                `json:"fallback_reason,omitempty"`
	BMI            float64               `json:"bmi"`
	BMICategory    insurance.BMICategory `json:"bmi_category"`
	Record         recordView            `json:"record"`
	CreatedAt      time.Time             `json:"created_at"`
}

func newEstimateResponse(e service.Estimation) estimateResponse {
	rec := e.Record
	return estimateResponse{
		ID:             e.ID,
		Cost:           e.Result.Cost,
		Provenance:     e.Result.Provenance,
		FallbackReason: e.Result.FallbackReason,
		BMI:            rec.BMI,
		BMICategory:    e.BMICategory,
		Record: recordView{
			Age:      rec.Age,
			Sex:      rec.Sex.String(),
			BMI:      rec.BMI,
			Children: rec.Children,
			Smoker:   rec.Smoker,
			Region:   string(rec.Region),
		},
		CreatedAt: e.CreatedAt,
	}
}

// EstimateHandler handles estimate requests.
type EstimateHandler struct {
	deps EstimateDependencies
}

// NewEstimateHandler creates a new estimate handler.
func NewEstimateHandler(deps EstimateDependencies) *EstimateHandler {
	return &EstimateHandler{deps: deps}
}

// HandleEstimate handles POST /api/v1/estimate requests.
func (h *EstimateHandler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_estimate"

	var req estimateRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	opts, err := req.options()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	est, err := h.deps.Estimate(r.Context(), req.Submission, opts)
	if err != nil {
		status, resp := estimateFailure(op, err)
		writeJSON(w, r, status, resp)
		return
	}
	writeJSON(w, r, http.StatusOK, newEstimateResponse(est))
}

// estimateFailure maps an estimation error to its status and body.
func estimateFailure(op string, err error) (int, errorResponse) {
	var verr *insurance.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorResponse{Code: "invalid_record", Message: verr.Error(), Details: verr.Fields}
	case errors.Is(err, insurance.ErrInvalidRecord):
		return http.StatusBadRequest, errorResponse{Code: "invalid_record", Message: err.Error()}
	case errors.Is(err, estimator.ErrPredictor):
		return http.StatusBadGateway, errorResponse{Code: "predictor_error", Message: Wrap(op, err).Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Code: "internal_error", Message: Wrap(op, err).Error()}
	}
}
