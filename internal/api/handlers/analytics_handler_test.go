package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthassist/backend/internal/api/handlers"
	"github.com/healthassist/backend/internal/domain/entities"
	apperrors "github.com/healthassist/backend/pkg/errors"
)

type stubZeroResultLister struct {
	limits []int
	events []*entities.SearchEvent
	err    error
}

func (s *stubZeroResultLister) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	s.limits = append(s.limits, limit)
	return s.events, s.err
}

func TestGetZeroResultQueries_DefaultLimit(t *testing.T) {
	lister := &stubZeroResultLister{events: []*entities.SearchEvent{{
		ID:        "evt-1",
		Query:     "pediatric neurologist",
		Outcome:   entities.SearchOutcomeEmpty,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}}
	handler := handlers.NewAnalyticsHandler(lister)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/zero-result-queries", nil)
	w := httptest.NewRecorder()
	handler.GetZeroResultQueries(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{100}, lister.limits)

	body := decodeBody(t, w)
	assert.Equal(t, 1.0, body["count"])
	queries := body["queries"].([]interface{})
	require.Len(t, queries, 1)
	assert.Equal(t, "pediatric neurologist", queries[0].(map[string]interface{})["query"])
}

func TestGetZeroResultQueries_InvalidLimit(t *testing.T) {
	lister := &stubZeroResultLister{}
	handler := handlers.NewAnalyticsHandler(lister)

	for _, q := range []string{"0", "-3", "abc", "5000"} {
		req := httptest.NewRequest(http.MethodGet, "/api/analytics/zero-result-queries?limit="+q, nil)
		w := httptest.NewRecorder()
		handler.GetZeroResultQueries(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
	assert.Empty(t, lister.limits)
}

func TestGetZeroResultQueries_RepositoryError(t *testing.T) {
	lister := &stubZeroResultLister{err: apperrors.NewInternalError("failed to query search events", assert.AnError)}
	handler := handlers.NewAnalyticsHandler(lister)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/zero-result-queries?limit=10", nil)
	w := httptest.NewRecorder()
	handler.GetZeroResultQueries(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, []int{10}, lister.limits)
}
