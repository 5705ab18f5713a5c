package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthassist/backend/internal/application/services"
	apperrors "github.com/healthassist/backend/pkg/errors"
)

func TestRespondWithAppError(t *testing.T) {
	dirErr := &services.DirectoryError{Status: "OVER_QUERY_LIMIT", Message: "quota exceeded"}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name:       "validation",
			err:        apperrors.NewValidationError("location is required").WithKind(services.KindMissingLocation),
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]string{"error": "location is required", "kind": services.KindMissingLocation},
		},
		{
			name:       "directory unavailable",
			err:        fmt.Errorf("search: %w", apperrors.NewUnavailableError("directory unavailable", dirErr).WithKind(services.KindDirectoryUnavailable)),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"error": "OVER_QUERY_LIMIT", "details": "quota exceeded", "kind": services.KindDirectoryUnavailable},
		},
		{
			name:       "internal",
			err:        apperrors.NewInternalError("failed to query search events", errors.New("conn refused")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]string{"error": "internal server error"},
		},
		{
			name:       "unknown type",
			err:        &apperrors.AppError{Type: "TEAPOT", Message: "short and stout"},
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]string{"error": "internal server error"},
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]string{"error": "internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondWithAppError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
