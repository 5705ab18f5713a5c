package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/healthassist/backend/internal/domain/entities"
	"github.com/healthassist/backend/internal/domain/providers"
	"github.com/healthassist/backend/internal/infrastructure/observability"
	apperrors "github.com/healthassist/backend/pkg/errors"
	"github.com/healthassist/backend/pkg/geo"
)

// Error kinds surfaced by ProviderLocator.Search.
const (
	KindMissingLocation      = "MISSING_LOCATION"
	KindDirectoryUnavailable = "DIRECTORY_UNAVAILABLE"
)

// StatusUnreachable is the status reported when the directory could not be reached at all.
const StatusUnreachable = "UNREACHABLE"

// DirectoryError carries the upstream status and message of a failed directory lookup.
type DirectoryError struct {
	Status  string
	Message string
	Err     error
}

func (e *DirectoryError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider directory returned %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("provider directory returned %s", e.Status)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// LocatorConfig holds the fixed parameters of every nearby search.
type LocatorConfig struct {
	RadiusMeters     int
	Category         string
	MaxDistanceMiles float64
}

// DefaultLocatorConfig searches doctors within 80 km and keeps those within 50 miles.
func DefaultLocatorConfig() LocatorConfig {
	return LocatorConfig{
		RadiusMeters:     80000,
		Category:         "doctor",
		MaxDistanceMiles: 50,
	}
}

// SearchRequest is the input of a nearby provider search. Location is required.
type SearchRequest struct {
	Query    string
	Location *geo.Point
	Filters  []entities.SearchFilter
	Limit    int
}

// SearchTracker receives one event per finished search.
type SearchTracker interface {
	TrackSearch(ctx context.Context, event *entities.SearchEvent)
}

// ProviderLocator finds healthcare providers near a user and ranks them by distance.
type ProviderLocator struct {
	directory providers.ProviderDirectory
	cfg       LocatorConfig
	tracker   SearchTracker
	metrics   *observability.Metrics
}

// NewProviderLocator creates a locator over the given directory.
func NewProviderLocator(directory providers.ProviderDirectory, cfg LocatorConfig) *ProviderLocator {
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = DefaultLocatorConfig().RadiusMeters
	}
	if cfg.Category == "" {
		cfg.Category = DefaultLocatorConfig().Category
	}
	if cfg.MaxDistanceMiles <= 0 {
		cfg.MaxDistanceMiles = DefaultLocatorConfig().MaxDistanceMiles
	}
	return &ProviderLocator{directory: directory, cfg: cfg}
}

// SetTracker sets the analytics tracker notified after each search.
func (l *ProviderLocator) SetTracker(tracker SearchTracker) {
	l.tracker = tracker
}

// SetMetrics sets the metrics recorder.
func (l *ProviderLocator) SetMetrics(metrics *observability.Metrics) {
	l.metrics = metrics
}

// Search looks up providers around req.Location and returns those within the
// distance cutoff, nearest first. A zero-result lookup yields an empty slice.
func (l *ProviderLocator) Search(ctx context.Context, req SearchRequest) ([]entities.RankedProvider, error) {
	ctx, span := observability.StartSpan(ctx, "ProviderLocator.Search")
	defer span.End()

	start := time.Now()
	query := strings.TrimSpace(req.Query)
	logger := observability.LoggerFromContext(ctx)
	logger.Info().Str("query", query).Msg("provider search received")

	if req.Location == nil {
		err := missingLocation("location coordinates are required")
		l.finish(ctx, req, query, entities.SearchOutcomeMissingLocation, 0, start, 0)
		observability.RecordError(span, err)
		return nil, err
	}
	if err := geo.Validate(*req.Location); err != nil {
		appErr := missingLocation("valid location coordinates are required")
		appErr.Err = err
		l.finish(ctx, req, query, entities.SearchOutcomeMissingLocation, 0, start, 0)
		observability.RecordError(span, appErr)
		return nil, appErr
	}

	observability.SetSpanAttributes(span,
		attribute.String("search.query", query),
		attribute.Float64("search.lat", req.Location.Latitude),
		attribute.Float64("search.lng", req.Location.Longitude),
	)

	lookupStart := time.Now()
	result, err := l.directory.NearbySearch(ctx, providers.NearbyQuery{
		Origin:       *req.Location,
		RadiusMeters: l.cfg.RadiusMeters,
		Category:     l.cfg.Category,
		Keyword:      query,
	})
	lookupLatency := time.Since(lookupStart)

	if err != nil {
		logger.Error().Err(err).Msg("provider directory unreachable")
		appErr := directoryUnavailable(&DirectoryError{Status: StatusUnreachable, Message: err.Error(), Err: err})
		l.finish(ctx, req, query, entities.SearchOutcomeUnavailable, 0, start, lookupLatency)
		observability.RecordError(span, appErr)
		return nil, appErr
	}

	logger.Info().Str("status", string(result.Status)).Int("candidates", len(result.Candidates)).Msg("provider directory responded")

	switch result.Status {
	case providers.DirectoryStatusOK:
	case providers.DirectoryStatusZeroResults:
		l.finish(ctx, req, query, entities.SearchOutcomeEmpty, 0, start, lookupLatency)
		return []entities.RankedProvider{}, nil
	default:
		logger.Error().Str("status", string(result.Status)).Str("error_message", result.ErrorMessage).Msg("provider directory error")
		appErr := directoryUnavailable(&DirectoryError{Status: string(result.Status), Message: result.ErrorMessage})
		l.finish(ctx, req, query, entities.SearchOutcomeUnavailable, 0, start, lookupLatency)
		observability.RecordError(span, appErr)
		return nil, appErr
	}

	ranked, dropped := RankCandidates(*req.Location, result.Candidates, l.cfg.MaxDistanceMiles)
	observability.RecordDroppedCandidates(ctx, l.metrics, "missing_location", dropped.MissingLocation)
	observability.RecordDroppedCandidates(ctx, l.metrics, "invalid_coordinates", dropped.InvalidCoordinates)
	observability.RecordDroppedCandidates(ctx, l.metrics, "too_far", dropped.TooFar)
	if dropped.InvalidCoordinates > 0 {
		logger.Warn().Int("count", dropped.InvalidCoordinates).Msg("skipped candidates with unusable coordinates")
	}

	ranked = ApplyFilters(ranked, req.Filters)
	if req.Limit > 0 && len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	outcome := entities.SearchOutcomeOK
	if len(ranked) == 0 {
		outcome = entities.SearchOutcomeEmpty
	}
	logger.Info().Int("results", len(ranked)).Float64("max_miles", l.cfg.MaxDistanceMiles).Msg("provider search completed")
	l.finish(ctx, req, query, outcome, len(ranked), start, lookupLatency)

	return ranked, nil
}

// DropCounts tallies candidates removed while ranking, by reason.
type DropCounts struct {
	MissingLocation    int
	InvalidCoordinates int
	TooFar             int
}

// RankCandidates computes the distance from origin to every located candidate,
// drops those beyond maxMiles and returns the rest nearest first. Distances are
// rounded to one decimal before the cutoff is applied; ties keep directory order.
func RankCandidates(origin geo.Point, candidates []entities.ProviderCandidate, maxMiles float64) ([]entities.RankedProvider, DropCounts) {
	var dropped DropCounts
	ranked := make([]entities.RankedProvider, 0, len(candidates))

	for _, c := range candidates {
		if c.Location == nil {
			dropped.MissingLocation++
			continue
		}
		miles, err := geo.HaversineMiles(origin, *c.Location)
		if err != nil {
			dropped.InvalidCoordinates++
			continue
		}
		miles = geo.RoundTo(miles, 1)
		if !(miles <= maxMiles) {
			dropped.TooFar++
			continue
		}
		ranked = append(ranked, entities.NewRankedProvider(c, miles))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceMiles < ranked[j].DistanceMiles
	})
	return ranked, dropped
}

func (l *ProviderLocator) finish(ctx context.Context, req SearchRequest, query string, outcome entities.SearchOutcome, count int, start time.Time, lookupLatency time.Duration) {
	observability.RecordSearch(ctx, l.metrics, string(outcome), lookupLatency)
	if l.tracker == nil {
		return
	}

	event := &entities.SearchEvent{
		Query:       query,
		Outcome:     outcome,
		ResultCount: count,
		LatencyMs:   int(time.Since(start).Milliseconds()),
		RequestID:   observability.RequestIDFromContext(ctx),
	}
	if req.Location != nil {
		event.UserLatitude = req.Location.Latitude
		event.UserLongitude = req.Location.Longitude
	}
	l.tracker.TrackSearch(ctx, event)
}

func missingLocation(message string) *apperrors.AppError {
	return apperrors.NewValidationError(message).WithKind(KindMissingLocation)
}

func directoryUnavailable(err *DirectoryError) *apperrors.AppError {
	return apperrors.NewUnavailableError("provider directory unavailable", err).WithKind(KindDirectoryUnavailable)
}
