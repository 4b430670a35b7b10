package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/storefront-api/services"
	"github.com/upb/storefront-api/utils"
	"go.uber.org/zap"
)

var statusByType = map[services.ErrorType]int{
	services.ErrorTypeNotFound:     http.StatusNotFound,
	services.ErrorTypeValidation:   http.StatusBadRequest,
	services.ErrorTypeUnauthorized: http.StatusUnauthorized,
	services.ErrorTypeForbidden:    http.StatusForbidden,
	services.ErrorTypeConflict:     http.StatusConflict,
}

// StatusFor returns the HTTP status for err
func StatusFor(err error) int {
	if status, ok := statusByType[services.GetErrorType(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleServiceError maps domain errors to HTTP responses.
// Internal and unclassified errors are logged and answered with a generic message.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	if utils.IsValidationError(err) {
		HandleValidationError(w, err, logger)
		return
	}

	status := StatusFor(err)
	message := services.GetErrorMessage(err)
	details := services.GetErrorDetails(err)

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request cancelled", zap.Error(err))
		status = http.StatusServiceUnavailable
		message = "Request cancelled"
		details = nil
	case status == http.StatusInternalServerError:
		logger.Error("internal server error",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		message = "An internal error occurred"
		details = nil
	default:
		logger.Debug("handled service error",
			zap.Int("status", status),
			zap.String("message", message),
			zap.Any("details", details))
	}

	var writeErr error
	if status == http.StatusUnauthorized {
		writeErr = utils.WriteUnauthorized(w, message)
	} else {
		writeErr = utils.WriteError(w, status, message, details)
	}
	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var details map[string]interface{}
	if fields := utils.GetValidationFields(err); len(fields) > 0 {
		details = make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
	}

	if err := utils.WriteBadRequest(w, err.Error(), details); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
