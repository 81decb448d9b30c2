package api

import (
	"net/http"
)

// ModelHandler reports and reloads the predictor resource.
type ModelHandler struct {
	deps ModelDependencies
}

// NewModelHandler creates a new model handler.
func NewModelHandler(deps ModelDependencies) *ModelHandler {
	return &ModelHandler{deps: deps}
}

// HandleStatus handles GET /api/v1/model requests.
func (h *ModelHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.deps.ModelStatus())
}

// HandleReload handles POST /api/v1/model/reload requests. A failed reload
// answers 503 with the resulting status so callers see the load error.
func (h *ModelHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.ReloadModel(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusServiceUnavailable, st)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}
