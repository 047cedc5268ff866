package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"school-management-platform/internal/domain"
	"school-management-platform/internal/usecase"
)

type errorResponse struct {
	Error   string `json:"error"`
	Current *int   `json:"current,omitempty"`
	Limit   *int   `json:"limit,omitempty"`
}

// writeDomainError maps domain sentinels onto HTTP statuses. Unknown
// errors stay opaque 500s so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	var qe *usecase.QuotaError
	if errors.As(err, &qe) {
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error:   "quota exceeded for " + string(qe.Kind),
			Current: &qe.Current,
			Limit:   &qe.Limit,
		})
		return
	}

	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrEntitlementDenied):
		status, msg = http.StatusForbidden, "plan does not include this feature"
	case errors.Is(err, domain.ErrQuotaExceeded):
		status, msg = http.StatusForbidden, "quota exceeded"
	case errors.Is(err, domain.ErrMalformedSubmission):
		status, msg = http.StatusBadRequest, "malformed submission"
	case errors.Is(err, domain.ErrEmptyQuiz):
		status, msg = http.StatusBadRequest, "quiz has no questions"
	case errors.Is(err, domain.ErrQuizNotPublished):
		status, msg = http.StatusBadRequest, "quiz is not published"
	case errors.Is(err, domain.ErrDuplicateSubmission):
		status, msg = http.StatusConflict, "submission already recorded"
	case errors.Is(err, domain.ErrAlreadyExists):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, domain.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, "too many attempts, slow down"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoSubscription):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrInvalidArgument):
		status, msg = http.StatusBadRequest, "invalid request"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
