package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/auth"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/logger"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/repository"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, apiError{
		Error:   code,
		Message: message,
		Details: details,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body", map[string]any{"error": err.Error()})
		return false
	}

	if err := dec.Decode(&struct{}{}); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body", map[string]any{"error": "extra data after json"})
		return false
	}

	return true
}

// writeServiceError maps service and repository errors onto HTTP status
// codes. resource names the thing a bare ErrNotFound refers to.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, resource string) {
	switch {
	case errors.Is(err, service.ErrDataMissing):
		writeError(w, http.StatusBadRequest, "data_missing", "data missing", nil)
	case errors.Is(err, service.ErrSignatureMismatch):
		writeError(w, http.StatusBadRequest, "verification_failed", "payment verification failed", nil)
	case errors.Is(err, service.ErrPriceMismatch):
		writeError(w, http.StatusBadRequest, "price_mismatch", err.Error(), nil)
	case errors.Is(err, service.ErrAmountMismatch):
		writeError(w, http.StatusBadRequest, "amount_mismatch", err.Error(), nil)
	case errors.Is(err, repository.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", nil)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", "user not found", nil)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", resource+" not found", nil)
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicate", err.Error(), nil)
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, service.ErrGateway):
		logger.FromContext(r.Context(), log).Warn("payment gateway failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, "gateway_error", "payment gateway unavailable", nil)
	default:
		logger.FromContext(r.Context(), log).Error("request failed",
			zap.String("resource", resource),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, resource string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid "+resource+" id", nil)
		return 0, false
	}
	return id, true
}

func parsePage(q url.Values) (models.PageRequest, error) {
	var p models.PageRequest
	var err error
	if v := q.Get("page"); v != "" {
		if p.Page, err = strconv.Atoi(v); err != nil {
			return p, errors.New("page must be an integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if p.Limit, err = strconv.Atoi(v); err != nil {
			return p, errors.New("limit must be an integer")
		}
	}
	return p.Normalize(), nil
}

// principal returns the caller set by Authenticate. Routes that call it
// are always mounted behind that middleware.
func principal(r *http.Request) *auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}
