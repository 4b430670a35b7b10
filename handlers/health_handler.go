package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/storefront-api/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Storage   string            `json:"storage,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db      Pinger
	storage string
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db is nil for the in-memory store.
func NewHealthHandler(db Pinger, storage string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		storage: storage,
		logger:  logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only; always 200 while the process serves requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Storage:   h.storage,
	})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	switch {
	case h.db == nil:
		checks["database"] = "not configured"
	default:
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Warn("database health check failed",
				zap.String("request_id", requestID(r)),
				zap.Error(err))
			checks["database"] = "unhealthy"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["database"] = "healthy"
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Storage:   h.storage,
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
