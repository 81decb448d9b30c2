package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	service "github.com/okian/medcost/internal/app"
	"github.com/okian/medcost/internal/domain/insurance"
)

// BatchDependencies estimates several submissions in one call.
type BatchDependencies interface {
	EstimateBatch(ctx context.Context, subs []insurance.Submission, opts service.EstimateOptions) ([]service.BatchItem, error)
}

type batchRequest struct {
	Records         []insurance.Submission `json:"records"`
	Mode            string                 `json:"mode,omitempty"`
	FallbackOnError *bool                  `json:"fallback_on_error,omitempty"`
}

type batchItemResponse struct {
	Index    int               `json:"index"`
	Estimate *estimateResponse `json:"estimate,omitempty"`
	Error    *errorResponse    `json:"error,omitempty"`
}

type batchResponse struct {
	Items     []batchItemResponse `json:"items"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

// BatchHandler handles batch estimate requests.
type BatchHandler struct {
	deps BatchDependencies
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps BatchDependencies) *BatchHandler {
	return &BatchHandler{deps: deps}
}

// HandleBatch handles POST /api/v1/estimate/batch requests. Records fail
// independently; the response is 200 whenever the batch itself is accepted.
func (h *BatchHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_estimate_batch"

	var req batchRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	opts, err := estimateRequest{Mode: req.Mode, FallbackOnError: req.FallbackOnError}.options()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	items, err := h.deps.EstimateBatch(r.Context(), req.Records, opts)
	if err != nil {
		if errors.Is(err, service.ErrEmptyBatch) || errors.Is(err, service.ErrBatchTooLarge) {
			writeError(w, r, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	resp := batchResponse{Items: make([]batchItemResponse, len(items))}
	for i, item := range items {
		out := batchItemResponse{Index: item.Index}
		if item.Err != nil {
			_, body := estimateFailure(op, item.Err)
			out.Error = &body
			resp.Failed++
		} else {
			est := newEstimateResponse(item.Estimation)
			out.Estimate = &est
			resp.Succeeded++
		}
		resp.Items[i] = out
	}
	writeJSON(w, r, http.StatusOK, resp)
}
