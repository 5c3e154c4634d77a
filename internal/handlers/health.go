package handlers

import (
	"net/http"

	common "github.com/bobmcallan/tahlil-portal/internal/common"
	"github.com/bobmcallan/tahlil-portal/internal/config"
)

// HealthHandler reports that the portal process is serving. It does not
// probe the analysis backend; see ServerHealthHandler.
type HealthHandler struct {
	logger *common.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(logger *common.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "tahlil-portal",
		"version": config.GetVersion(),
	})
}
