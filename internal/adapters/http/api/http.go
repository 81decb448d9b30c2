// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/okian/medcost/internal/adapters/predictor"
	service "github.com/okian/medcost/internal/app"
	"github.com/okian/medcost/internal/domain/insurance"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EstimateDependencies
	BatchDependencies
	ModelDependencies
	StatsProvider
}

// EstimateDependencies produces estimates from submissions.
type EstimateDependencies interface {
	Estimate(ctx context.Context, sub insurance.Submission, opts service.EstimateOptions) (service.Estimation, error)
}

// ModelDependencies exposes the predictor resource.
type ModelDependencies interface {
	ModelStatus() predictor.Status
	ReloadModel(ctx context.Context) (predictor.Status, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	estimateHandler *EstimateHandler
	batchHandler    *BatchHandler
	modelHandler    *ModelHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		estimateHandler: NewEstimateHandler(deps),
		batchHandler:    NewBatchHandler(deps),
		modelHandler:    NewModelHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/estimate", s.estimateHandler.HandleEstimate)
		r.Post("/estimate/batch", s.batchHandler.HandleBatch)
		r.Get("/model", s.modelHandler.HandleStatus)
		r.Post("/model/reload", s.modelHandler.HandleReload)
	})
}

type errorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details []insurance.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, r, status, errorResponse{Code: code, Message: msg})
}
