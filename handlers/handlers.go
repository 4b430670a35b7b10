package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/storefront-api/middleware"
	"github.com/upb/storefront-api/utils"
	"go.uber.org/zap"
)

func requestID(r *http.Request) string {
	return middleware.GetRequestIDFromContext(r.Context())
}

// pathID parses the {id} URL parameter
func pathID(r *http.Request) (uuid.UUID, error) {
	return utils.ParseUUID(chi.URLParam(r, "id"), "id")
}

// decode reads and validates the request body, answering 400 itself on failure
func decode(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		logger.Warn("request rejected",
			zap.String("request_id", requestID(r)),
			zap.Error(err))
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

func writeOK(w http.ResponseWriter, data interface{}, logger *zap.Logger) {
	if err := utils.WriteOK(w, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

func writeCreated(w http.ResponseWriter, data interface{}, logger *zap.Logger) {
	if err := utils.WriteCreated(w, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
