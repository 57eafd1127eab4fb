package handlers

import (
	"context"
	"net/http"
	"time"

	"agentdev-backend/pkg/common"
	"agentdev-backend/pkg/utils"

	"go.uber.org/zap"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ServiceInfo describes the running service
type ServiceInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Status      string `json:"status"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthHandler serves the root and health endpoints
type HealthHandler struct {
	info    ServiceInfo
	store   HealthChecker
	timeout time.Duration
	clock   utils.Clock
	logger  *zap.Logger
}

// NewHealthHandler creates a health handler. A nil store is reported healthy.
func NewHealthHandler(name, version, environment string, store HealthChecker, clock utils.Clock, logger *zap.Logger) *HealthHandler {
	if clock == nil {
		clock = utils.SystemClock
	}
	return &HealthHandler{
		info: ServiceInfo{
			Name:        name,
			Version:     version,
			Environment: environment,
			Status:      "healthy",
		},
		store:   store,
		timeout: 3 * time.Second,
		clock:   clock,
		logger:  logger,
	}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.info)
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: h.clock(),
		Services: map[string]string{
			"dynamodb": "healthy",
			"api":      "healthy",
		},
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		if err := h.store.HealthCheck(ctx); err != nil {
			h.logger.Error("Health check failed", zap.Error(err))
			resp.Status = "unhealthy"
			resp.Services["dynamodb"] = "unhealthy"
			common.RespondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	common.RespondJSON(w, http.StatusOK, resp)
}
