package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/quizmaster/quizmaster/internal/i18n"
	"github.com/quizmaster/quizmaster/internal/model"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors to HTTP statuses and localized messages.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  i18n.Td(ctx, "ValidationFailed", map[string]any{"Fields": strings.Join(verr.Fields, ", ")}),
			Fields: verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, model.ErrDuplicateEmail):
		writeJSON(w, http.StatusConflict, errorResponse{Error: i18n.T(ctx, "DuplicateEmail")})
	case errors.Is(err, model.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: i18n.T(ctx, "InvalidCredentials")})
	case errors.Is(err, model.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: i18n.T(ctx, "NotLoggedIn")})
	case errors.Is(err, model.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: i18n.T(ctx, "QuizNotFound")})
	case errors.Is(err, model.ErrAttemptNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: i18n.T(ctx, "AttemptNotFound")})
	case errors.Is(err, model.ErrAttemptCompleted):
		writeJSON(w, http.StatusConflict, errorResponse{Error: i18n.T(ctx, "AttemptCompleted")})
	case errors.Is(err, model.ErrAttemptInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Error: i18n.T(ctx, "AttemptInProgress")})
	case errors.Is(err, model.ErrNotAnswered):
		writeJSON(w, http.StatusConflict, errorResponse{Error: i18n.T(ctx, "NotAnswered")})
	case errors.Is(err, model.ErrInvalidOption):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: i18n.T(ctx, "InvalidOption")})
	case errors.Is(err, model.ErrInvalidIndex):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: i18n.T(ctx, "InvalidIndex")})
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: i18n.T(ctx, "InternalError")})
	}
}

// decodeBody parses a JSON request body into dst.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: i18n.T(r.Context(), "InvalidRequestBody")})
		return false
	}
	return true
}
