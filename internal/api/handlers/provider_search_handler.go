package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/healthassist/backend/internal/application/services"
	"github.com/healthassist/backend/internal/domain/entities"
	"github.com/healthassist/backend/pkg/geo"
)

const maxSearchBodyBytes = 1 << 16

// ProviderSearcher is the search operation exposed over HTTP.
type ProviderSearcher interface {
	Search(ctx context.Context, req services.SearchRequest) ([]entities.RankedProvider, error)
}

// ProviderSearchHandler serves "find providers near me".
type ProviderSearchHandler struct {
	searcher ProviderSearcher
}

// NewProviderSearchHandler creates a new provider search handler
func NewProviderSearchHandler(searcher ProviderSearcher) *ProviderSearchHandler {
	return &ProviderSearchHandler{searcher: searcher}
}

type findDoctorRequest struct {
	Query    string           `json:"query"`
	Location *locationPayload `json:"location"`
	Filters  *filtersPayload  `json:"filters"`
	Limit    int              `json:"limit"`
}

// Coordinates are kept raw so that a non-numeric value reads as a missing
// location instead of failing the whole body.
type locationPayload struct {
	Lat json.RawMessage `json:"lat"`
	Lng json.RawMessage `json:"lng"`
}

type filtersPayload struct {
	MinRating      *float64 `json:"min_rating"`
	MaxDistance    *float64 `json:"max_distance"`
	OpenNow        bool     `json:"open_now"`
	Kind           string   `json:"kind"`
	Specialization string   `json:"specialization"`
}

type searchResponse struct {
	Results []entities.RankedProvider `json:"results"`
}

// FindDoctor handles POST /api/clinic-finder/find-doctor/
func (h *ProviderSearchHandler) FindDoctor(w http.ResponseWriter, r *http.Request) {
	var body findDoctorRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSearchBodyBytes))
	if err := decoder.Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	filters, err := body.Filters.toFilters()
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorBody(err.Error(), "INVALID_FILTER"))
		return
	}
	if body.Limit < 0 {
		respondWithError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}

	req := services.SearchRequest{
		Query:   body.Query,
		Filters: filters,
		Limit:   body.Limit,
	}
	if body.Location != nil {
		req.Location = pointFromRaw(body.Location.Lat, body.Location.Lng)
	}

	h.search(w, r, req)
}

// NearbyProviders handles GET /api/providers/nearby?lat=&lng=&query=
func (h *ProviderSearchHandler) NearbyProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	payload := &filtersPayload{
		Kind:           strings.TrimSpace(q.Get("kind")),
		Specialization: strings.TrimSpace(q.Get("specialization")),
	}
	if v := strings.TrimSpace(q.Get("min_rating")); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid min_rating parameter")
			return
		}
		payload.MinRating = &rating
	}
	if v := strings.TrimSpace(q.Get("max_distance")); v != "" {
		miles, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid max_distance parameter")
			return
		}
		payload.MaxDistance = &miles
	}
	if v := strings.TrimSpace(q.Get("open_now")); v != "" {
		open, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid open_now parameter")
			return
		}
		payload.OpenNow = open
	}

	filters, err := payload.toFilters()
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorBody(err.Error(), "INVALID_FILTER"))
		return
	}

	limit := 0
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
	}

	req := services.SearchRequest{
		Query:    q.Get("query"),
		Location: pointFromStrings(q.Get("lat"), q.Get("lng")),
		Filters:  filters,
		Limit:    limit,
	}

	h.search(w, r, req)
}

func (h *ProviderSearchHandler) search(w http.ResponseWriter, r *http.Request, req services.SearchRequest) {
	results, err := h.searcher.Search(r.Context(), req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if results == nil {
		results = []entities.RankedProvider{}
	}
	respondWithJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (p *filtersPayload) toFilters() ([]entities.SearchFilter, error) {
	if p == nil {
		return nil, nil
	}

	var filters []entities.SearchFilter
	if p.MaxDistance != nil {
		filters = append(filters, entities.DistanceFilter(*p.MaxDistance))
	}
	if p.MinRating != nil {
		filters = append(filters, entities.RatingFilter(*p.MinRating))
	}
	if p.Specialization != "" {
		filters = append(filters, entities.SpecializationFilter(p.Specialization))
	}
	if p.OpenNow {
		filters = append(filters, entities.AvailabilityFilter())
	}
	if p.Kind != "" {
		kind, err := entities.ParseProviderKind(p.Kind)
		if err != nil {
			return nil, err
		}
		filters = append(filters, entities.KindFilter(kind))
	}

	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s filter: %w", f.Type, err)
		}
	}
	return filters, nil
}

// pointFromRaw returns nil unless both coordinates are numbers or numeric strings.
// Range checks are left to the locator.
func pointFromRaw(lat, lng json.RawMessage) *geo.Point {
	latVal, ok := parseRawCoordinate(lat)
	if !ok {
		return nil
	}
	lngVal, ok := parseRawCoordinate(lng)
	if !ok {
		return nil
	}
	return &geo.Point{Latitude: latVal, Longitude: lngVal}
}

func parseRawCoordinate(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number, true
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func pointFromStrings(lat, lng string) *geo.Point {
	latVal, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return nil
	}
	lngVal, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return nil
	}
	return &geo.Point{Latitude: latVal, Longitude: lngVal}
}
