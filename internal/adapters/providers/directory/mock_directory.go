package directory

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/healthassist/backend/internal/domain/entities"
	"github.com/healthassist/backend/internal/domain/providers"
	"github.com/healthassist/backend/pkg/geo"
)

// MockDirectory is an offline directory used when no Places API key is configured.
// It returns a fixed set of providers laid out around the search origin.
type MockDirectory struct{}

var _ providers.ProviderDirectory = (*MockDirectory)(nil)

// NewMockDirectory creates a new mock directory
func NewMockDirectory() *MockDirectory {
	return &MockDirectory{}
}

type mockPlace struct {
	id       string
	name     string
	vicinity string
	dLat     float64
	dLng     float64
	rating   float64
	openNow  bool
	types    []string
	noCoords bool
}

var mockPlaces = []mockPlace{
	{id: "mock-1", name: "Downtown Family Medicine", vicinity: "10 Main St", dLat: 0.01, dLng: 0.01, rating: 4.6, openNow: true, types: []string{"doctor", "health"}},
	{id: "mock-2", name: "Riverside General Hospital", vicinity: "200 River Rd", dLat: -0.15, dLng: 0.05, rating: 4.1, openNow: true, types: []string{"hospital", "doctor", "health"}},
	{id: "mock-3", name: "Northside Cardiology Clinic", vicinity: "88 North Ave", dLat: 0.3, dLng: -0.2, rating: 3.9, types: []string{"health"}},
	{id: "mock-4", name: "Lakeview Pediatrics", vicinity: "4 Lake Dr", rating: 4.8, types: []string{"doctor"}, noCoords: true},
}

// NearbySearch returns the mock providers whose name or types match the keyword.
func (m *MockDirectory) NearbySearch(ctx context.Context, query providers.NearbyQuery) (*providers.DirectoryResult, error) {
	keyword := strings.ToLower(strings.TrimSpace(query.Keyword))

	var candidates []entities.ProviderCandidate
	for _, p := range mockPlaces {
		if keyword != "" && !matchesKeyword(p, keyword) {
			continue
		}
		rating := p.rating
		candidate := entities.ProviderCandidate{
			ExternalID: p.id,
			Name:       p.name,
			Vicinity:   p.vicinity,
			Rating:     &rating,
			Types:      p.types,
		}
		if hours, err := json.Marshal(map[string]bool{"open_now": p.openNow}); err == nil {
			candidate.OpeningHours = hours
		}
		if !p.noCoords {
			candidate.Location = &geo.Point{
				Latitude:  query.Origin.Latitude + p.dLat,
				Longitude: query.Origin.Longitude + p.dLng,
			}
		}
		candidates = append(candidates, candidate)
	}

	if len(candidates) == 0 {
		return &providers.DirectoryResult{Status: providers.DirectoryStatusZeroResults}, nil
	}
	return &providers.DirectoryResult{Status: providers.DirectoryStatusOK, Candidates: candidates}, nil
}

func matchesKeyword(p mockPlace, keyword string) bool {
	if strings.Contains(strings.ToLower(p.name), keyword) {
		return true
	}
	for _, t := range p.types {
		if strings.Contains(t, keyword) {
			return true
		}
	}
	return false
}
