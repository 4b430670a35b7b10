package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/storefront-api/services"
	"github.com/upb/storefront-api/utils"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedError   string
		expectedMessage string
	}{
		{"not found error", services.ErrOrderNotFound, http.StatusNotFound, "not_found", "order not found"},
		{"validation error", services.ErrEmptyOrder, http.StatusBadRequest, "bad_request", "order must contain at least one cart item"},
		{"unauthorized error", services.ErrTokenExpired, http.StatusUnauthorized, "unauthorized", "authentication token expired"},
		{"forbidden error", services.ErrNotOwner, http.StatusForbidden, "forbidden", "resource belongs to another user"},
		{"conflict error", services.ErrDuplicateEmail, http.StatusConflict, "conflict", "email already exists"},
		{"internal error hides message", services.ErrOrderIntegrity, http.StatusInternalServerError, "internal_error", "An internal error occurred"},
		{"unknown error", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal_error", "An internal error occurred"},
		{"wrapped internal", services.WrapInternal("failed to load order", errors.New("boom")), http.StatusInternalServerError, "internal_error", "An internal error occurred"},
		{"cancelled request", context.Canceled, http.StatusServiceUnavailable, "service_unavailable", "Request cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedError, response.Error)
			assert.Equal(t, tt.expectedMessage, response.Message)
		})
	}
}

func TestHandleServiceErrorUnauthorizedChallenge(t *testing.T) {
	w := httptest.NewRecorder()
	HandleServiceError(w, services.ErrMissingToken, zap.NewNop())

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestHandleServiceErrorWithDetails(t *testing.T) {
	err := services.ErrForeignCartItem.WithDetail("cart_item_id", "abc").WithDetail("order_id", "def")

	w := httptest.NewRecorder()
	HandleServiceError(w, err, zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "abc", response.Details["cart_item_id"])
	assert.Equal(t, "def", response.Details["order_id"])
}

func TestHandleServiceErrorNil(t *testing.T) {
	w := httptest.NewRecorder()

	HandleServiceError(w, nil, zap.NewNop())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandleValidationError(t *testing.T) {
	logger := zap.NewNop()

	t.Run("field errors", func(t *testing.T) {
		err := &utils.ValidationError{
			Message: "Validation failed",
			Fields: map[string]string{
				"email":              "email is required",
				"cartItems[0].price": "price must be greater than 0",
			},
		}

		w := httptest.NewRecorder()
		HandleServiceError(w, err, logger)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "bad_request", response.Error)
		assert.Equal(t, "Validation failed", response.Message)
		assert.Equal(t, "email is required", response.Details["email"])
		assert.Equal(t, "price must be greater than 0", response.Details["cartItems[0].price"])
	})

	t.Run("generic error", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleValidationError(w, errors.New("generic validation error"), logger)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "generic validation error", response.Message)
		assert.Nil(t, response.Details)
	})
}
