package repositories

import (
	"context"

	"github.com/healthassist/backend/internal/domain/entities"
)

// SearchAnalyticsRepository stores provider search events.
type SearchAnalyticsRepository interface {
	LogEvent(ctx context.Context, event *entities.SearchEvent) error
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
}
