package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/healthassist/backend/internal/domain/entities"
	"github.com/healthassist/backend/internal/domain/repositories"
	"github.com/healthassist/backend/internal/infrastructure/observability"
)

const defaultZeroResultLimit = 100

// SearchAnalyticsService records provider searches for later review.
type SearchAnalyticsService struct {
	repo    repositories.SearchAnalyticsRepository
	timeout time.Duration
	now     func() time.Time
}

// NewSearchAnalyticsService creates a new search analytics service
func NewSearchAnalyticsService(repo repositories.SearchAnalyticsRepository) *SearchAnalyticsService {
	return &SearchAnalyticsService{
		repo:    repo,
		timeout: 5 * time.Second,
		now:     time.Now,
	}
}

// TrackSearch stores the event in the background so the request is never blocked.
func (s *SearchAnalyticsService) TrackSearch(ctx context.Context, event *entities.SearchEvent) {
	if s.repo == nil || event == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}

	logger := observability.LoggerFromContext(ctx)
	go func() {
		// The request context is usually cancelled by the time this runs.
		bgCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.repo.LogEvent(bgCtx, event); err != nil {
			logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to log search event")
		}
	}()
}

// GetZeroResultQueries lists the most recent searches that returned nothing.
func (s *SearchAnalyticsService) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = defaultZeroResultLimit
	}
	if s.repo == nil {
		return []*entities.SearchEvent{}, nil
	}
	return s.repo.GetZeroResultQueries(ctx, limit)
}
