package directory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/healthassist/backend/internal/domain/entities"
	"github.com/healthassist/backend/internal/domain/providers"
	"github.com/healthassist/backend/internal/infrastructure/observability"
	"github.com/healthassist/backend/pkg/geo"
)

const (
	googleNearbySearchURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	defaultHTTPTimeout    = 8 * time.Second
	defaultCacheTTL       = 10 * time.Minute
	cacheKeyPrefix        = "places:v1:nearby:"
)

// Options tune a GooglePlacesDirectory. Zero values select production defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Cache      providers.CacheProvider
	CacheTTL   time.Duration
	Breaker    *gobreaker.CircuitBreaker
	Metrics    *observability.Metrics
}

// GooglePlacesDirectory implements ProviderDirectory with the Google Places Nearby Search API.
type GooglePlacesDirectory struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      providers.CacheProvider
	cacheTTL   time.Duration
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
}

var _ providers.ProviderDirectory = (*GooglePlacesDirectory)(nil)

// NewGooglePlacesDirectory creates a Places-backed directory. The API key is required for lookups.
func NewGooglePlacesDirectory(apiKey string, opts Options) *GooglePlacesDirectory {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = googleNearbySearchURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &GooglePlacesDirectory{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		cache:      opts.Cache,
		cacheTTL:   ttl,
		breaker:    opts.Breaker,
		metrics:    opts.Metrics,
	}
}

// NewBreaker builds the circuit breaker guarding directory calls. It opens after
// consecutiveFailures transport failures in a row and half-opens after openTimeout.
// Requests abandoned by the caller are not counted against the directory.
func NewBreaker(consecutiveFailures uint32, openTimeout time.Duration) *gobreaker.CircuitBreaker {
	if consecutiveFailures == 0 {
		consecutiveFailures = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "places-directory",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GetLogger().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

// NearbySearch performs a single Nearby Search round trip. Pagination tokens are ignored.
func (g *GooglePlacesDirectory) NearbySearch(ctx context.Context, query providers.NearbyQuery) (*providers.DirectoryResult, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("places api key is required")
	}

	logger := observability.LoggerFromContext(ctx)
	cacheKey := buildCacheKey(query)

	if cached, ok := g.readCache(ctx, cacheKey); ok {
		logger.Debug().Str("cache_key", cacheKey).Msg("places nearby search served from cache")
		return cached, nil
	}

	payload, err := g.execute(ctx, query)
	if err != nil {
		return nil, err
	}

	result := &providers.DirectoryResult{
		Status:       providers.DirectoryStatus(payload.Status),
		ErrorMessage: payload.ErrorMessage,
	}
	if result.Status == providers.DirectoryStatusOK {
		result.Candidates = decodeCandidates(ctx, payload.Results)
	}

	if result.Status == providers.DirectoryStatusOK || result.Status == providers.DirectoryStatusZeroResults {
		g.writeCache(ctx, cacheKey, result)
	}

	return result, nil
}

func (g *GooglePlacesDirectory) execute(ctx context.Context, query providers.NearbyQuery) (*googleNearbyResponse, error) {
	if g.breaker == nil {
		return g.doNearbyRequest(ctx, query)
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.doNearbyRequest(ctx, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("places directory temporarily disabled: %w", err)
		}
		return nil, err
	}
	return out.(*googleNearbyResponse), nil
}

func (g *GooglePlacesDirectory) doNearbyRequest(ctx context.Context, query providers.NearbyQuery) (*googleNearbyResponse, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", query.Origin.Latitude, query.Origin.Longitude))
	params.Set("radius", strconv.Itoa(query.RadiusMeters))
	if query.Category != "" {
		params.Set("type", query.Category)
	}
	if keyword := strings.TrimSpace(query.Keyword); keyword != "" {
		params.Set("keyword", keyword)
	}
	params.Set("key", g.apiKey)

	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build places nearby search request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places nearby search request failed: %w", redactKey(err, g.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("places nearby search returned status %d", resp.StatusCode)
	}

	var payload googleNearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode places nearby search response: %w", err)
	}
	if payload.Status == "" {
		return nil, fmt.Errorf("places nearby search response has no status")
	}

	return &payload, nil
}

// decodeCandidates decodes each entry on its own so one malformed entry cannot
// spoil the rest of the page.
func decodeCandidates(ctx context.Context, raw []json.RawMessage) []entities.ProviderCandidate {
	logger := observability.LoggerFromContext(ctx)
	candidates := make([]entities.ProviderCandidate, 0, len(raw))
	for i, item := range raw {
		var place googlePlace
		if err := json.Unmarshal(item, &place); err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("skipping malformed places entry")
			continue
		}
		candidates = append(candidates, place.toCandidate())
	}
	return candidates
}

func (g *GooglePlacesDirectory) readCache(ctx context.Context, key string) (*providers.DirectoryResult, bool) {
	if g.cache == nil {
		return nil, false
	}
	cached, err := g.cache.Get(ctx, key)
	if err != nil || len(cached) == 0 {
		if g.metrics != nil {
			observability.RecordCacheMiss(ctx, g.metrics, cacheKeyPrefix)
		}
		return nil, false
	}
	var result providers.DirectoryResult
	if err := json.Unmarshal(cached, &result); err != nil {
		return nil, false
	}
	if g.metrics != nil {
		observability.RecordCacheHit(ctx, g.metrics, cacheKeyPrefix)
	}
	return &result, true
}

func (g *GooglePlacesDirectory) writeCache(ctx context.Context, key string, result *providers.DirectoryResult) {
	if g.cache == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, payload, g.cacheTTL); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to cache places response")
	}
}

func buildCacheKey(query providers.NearbyQuery) string {
	raw := fmt.Sprintf("%.5f,%.5f|%d|%s|%s",
		query.Origin.Latitude,
		query.Origin.Longitude,
		query.RadiusMeters,
		strings.ToLower(query.Category),
		strings.ToLower(strings.TrimSpace(query.Keyword)),
	)
	sum := sha256.Sum256([]byte(raw))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// redactKey keeps the API key out of url.Error messages, which embed the request URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	redacted := &redactedError{msg: strings.ReplaceAll(err.Error(), key, "REDACTED")}
	switch {
	case errors.Is(err, context.Canceled):
		redacted.cause = context.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		redacted.cause = context.DeadlineExceeded
	}
	return redacted
}

// redactedError keeps only the context cause of the original error; the rest
// of its chain still carries the request URL.
type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.cause }

type googleNearbyResponse struct {
	Status        string            `json:"status"`
	ErrorMessage  string            `json:"error_message,omitempty"`
	NextPageToken string            `json:"next_page_token,omitempty"`
	Results       []json.RawMessage `json:"results"`
}

type googlePlace struct {
	PlaceID          string          `json:"place_id"`
	Name             string          `json:"name"`
	Vicinity         string          `json:"vicinity"`
	FormattedAddress string          `json:"formatted_address"`
	Rating           *float64        `json:"rating"`
	Types            []string        `json:"types"`
	OpeningHours     json.RawMessage `json:"opening_hours"`
	Geometry         *googleGeometry `json:"geometry"`
}

type googleGeometry struct {
	Location *googleLocation `json:"location"`
}

type googleLocation struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (p googlePlace) toCandidate() entities.ProviderCandidate {
	candidate := entities.ProviderCandidate{
		ExternalID:       p.PlaceID,
		Name:             p.Name,
		Vicinity:         p.Vicinity,
		FormattedAddress: p.FormattedAddress,
		Rating:           p.Rating,
		Types:            p.Types,
	}
	if len(p.OpeningHours) > 0 && string(p.OpeningHours) != "null" {
		candidate.OpeningHours = p.OpeningHours
	}
	if p.Geometry != nil && p.Geometry.Location != nil &&
		p.Geometry.Location.Lat != nil && p.Geometry.Location.Lng != nil {
		candidate.Location = &geo.Point{
			Latitude:  *p.Geometry.Location.Lat,
			Longitude: *p.Geometry.Location.Lng,
		}
	}
	return candidate
}
