package handlers

import (
	"context"
	"net/http"
	"time"

	common "github.com/bobmcallan/tahlil-portal/internal/common"
)

// HealthChecker probes the analysis backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ServerHealthHandler reports whether the analysis backend is reachable.
type ServerHealthHandler struct {
	logger  *common.Logger
	checker HealthChecker
}

// NewServerHealthHandler creates a new server health handler.
func NewServerHealthHandler(logger *common.Logger, checker HealthChecker) *ServerHealthHandler {
	return &ServerHealthHandler{logger: logger, checker: checker}
}

// ServeHTTP handles GET /api/server-health.
func (h *ServerHealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.checker.Health(ctx); err != nil {
		if h.logger != nil {
			h.logger.Warn().Str("error", err.Error()).Msg("analysis backend health check failed")
		}
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
