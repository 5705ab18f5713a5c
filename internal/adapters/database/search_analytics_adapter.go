package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"github.com/healthassist/backend/internal/domain/entities"
	"github.com/healthassist/backend/internal/domain/repositories"
	"github.com/healthassist/backend/internal/infrastructure/clients/postgres"
	"github.com/healthassist/backend/internal/infrastructure/observability"
	apperrors "github.com/healthassist/backend/pkg/errors"
)

const searchEventsTable = "search_events"

const searchEventsSchema = `
CREATE TABLE IF NOT EXISTS search_events (
	id             UUID PRIMARY KEY,
	query          TEXT NOT NULL DEFAULT '',
	outcome        TEXT NOT NULL,
	result_count   INTEGER NOT NULL,
	latency_ms     INTEGER NOT NULL,
	user_latitude  DOUBLE PRECISION NOT NULL,
	user_longitude DOUBLE PRECISION NOT NULL,
	request_id     TEXT,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_search_events_zero_results
	ON search_events (created_at DESC) WHERE result_count = 0;
`

// SearchAnalyticsAdapter persists search events in Postgres.
type SearchAnalyticsAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	sqlx    *sqlx.DB
	metrics *observability.Metrics
}

// searchEventRow mirrors a search_events row; request_id is nullable.
type searchEventRow struct {
	ID            string         `db:"id"`
	Query         string         `db:"query"`
	Outcome       string         `db:"outcome"`
	ResultCount   int            `db:"result_count"`
	LatencyMs     int            `db:"latency_ms"`
	UserLatitude  float64        `db:"user_latitude"`
	UserLongitude float64        `db:"user_longitude"`
	RequestID     sql.NullString `db:"request_id"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (r searchEventRow) toEntity() *entities.SearchEvent {
	return &entities.SearchEvent{
		ID:            r.ID,
		Query:         r.Query,
		Outcome:       entities.SearchOutcome(r.Outcome),
		ResultCount:   r.ResultCount,
		LatencyMs:     r.LatencyMs,
		UserLatitude:  r.UserLatitude,
		UserLongitude: r.UserLongitude,
		RequestID:     r.RequestID.String,
		CreatedAt:     r.CreatedAt,
	}
}

// NewSearchAnalyticsAdapter creates a new search analytics adapter
func NewSearchAnalyticsAdapter(client *postgres.Client) *SearchAnalyticsAdapter {
	return &SearchAnalyticsAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		sqlx:   sqlx.NewDb(client.DB(), "postgres"),
	}
}

var _ repositories.SearchAnalyticsRepository = (*SearchAnalyticsAdapter)(nil)

// SetMetrics enables query duration metrics.
func (a *SearchAnalyticsAdapter) SetMetrics(metrics *observability.Metrics) {
	a.metrics = metrics
}

// EnsureSchema creates the search_events table when missing.
func (a *SearchAnalyticsAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, searchEventsSchema); err != nil {
		return apperrors.NewInternalError("failed to create search_events schema", err)
	}
	return nil
}

// LogEvent inserts a search event.
func (a *SearchAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "search_events.insert", time.Since(start)) }()

	record := goqu.Record{
		"id":             event.ID,
		"query":          event.Query,
		"outcome":        string(event.Outcome),
		"result_count":   event.ResultCount,
		"latency_ms":     event.LatencyMs,
		"user_latitude":  event.UserLatitude,
		"user_longitude": event.UserLongitude,
		"request_id":     sql.NullString{String: event.RequestID, Valid: event.RequestID != ""},
		"created_at":     event.CreatedAt,
	}

	query, args, err := a.db.Insert(searchEventsTable).Rows(record).Prepared(true).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build search event insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}
	return nil
}

// GetZeroResultQueries returns the newest events that produced no results.
func (a *SearchAnalyticsAdapter) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "search_events.zero_results", time.Since(start)) }()

	query, args, err := a.db.Select(
		"id", "query", "outcome", "result_count", "latency_ms",
		"user_latitude", "user_longitude", "request_id", "created_at",
	).From(searchEventsTable).
		Where(goqu.Ex{"result_count": 0}).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build zero result query", err)
	}

	var rows []searchEventRow
	if err := a.sqlx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result queries", err)
	}

	events := make([]*entities.SearchEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEntity())
	}

	return events, nil
}
