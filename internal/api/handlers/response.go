package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/healthassist/backend/internal/application/services"
	"github.com/healthassist/backend/internal/infrastructure/observability"
	apperrors "github.com/healthassist/backend/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		observability.GetLogger().Error().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an error returned by a service to its HTTP response.
func respondWithAppError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		respondWithJSON(w, http.StatusBadRequest, errorBody(appErr.Message, appErr.Kind))
	case apperrors.ErrorTypeUnavailable:
		body := errorBody(appErr.Message, appErr.Kind)
		var dirErr *services.DirectoryError
		if errors.As(err, &dirErr) {
			body["error"] = dirErr.Status
			body["details"] = dirErr.Message
		}
		respondWithJSON(w, http.StatusServiceUnavailable, body)
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func errorBody(message, kind string) map[string]string {
	body := map[string]string{"error": message}
	if kind != "" {
		body["kind"] = kind
	}
	return body
}
