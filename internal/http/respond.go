package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/contact"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError converts domain outcomes to HTTP status codes. Anything
// unrecognized is logged and reported as an internal error.
func handleError(w http.ResponseWriter, log *zap.Logger, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		httpStatus = http.StatusBadRequest
		code = "invalid_argument"
	case errors.Is(err, domain.ErrNotFound):
		httpStatus = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, domain.ErrUnauthorized):
		httpStatus = http.StatusUnauthorized
		code = "unauthorized"
	case errors.Is(err, domain.ErrUnsupportedOperation):
		httpStatus = http.StatusMethodNotAllowed
		code = "unsupported_operation"
	case errors.Is(err, domain.ErrEmptyCart):
		httpStatus = http.StatusConflict
		code = "empty_cart"
	case errors.Is(err, domain.ErrConflict):
		httpStatus = http.StatusConflict
		code = "already_exists"
	case errors.Is(err, contact.ErrRelay):
		httpStatus = http.StatusBadGateway
		code = "relay_failed"
	case errors.Is(err, domain.ErrPersistence):
		httpStatus = http.StatusServiceUnavailable
		code = "persistence_error"
	default:
		log.Error("unhandled request error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}

// decodeJSON reads the request body into dst and answers 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
