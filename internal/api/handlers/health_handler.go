package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zhiyxn/linuxdo-cf-oauth/internal/api/types"
)

type HealthHandler struct {
	credentialsConfigured bool
}

// NewHealthHandler reports not-ready while no client secret source is set,
// since every token request would be refused.
func NewHealthHandler(credentialsConfigured bool) *HealthHandler {
	return &HealthHandler{credentialsConfigured: credentialsConfigured}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: map[string]string{"status": "ok"}})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if !h.credentialsConfigured {
		writeJSON(w, http.StatusServiceUnavailable, types.APIResponse{
			Success: false,
			Error:   &types.APIError{Code: "not_ready", Message: "no client credentials configured"},
		})
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: map[string]string{"status": "ready"}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
