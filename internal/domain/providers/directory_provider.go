package providers

import (
	"context"

	"github.com/healthassist/backend/internal/domain/entities"
	"github.com/healthassist/backend/pkg/geo"
)

// DirectoryStatus is the status vocabulary of the provider directory.
type DirectoryStatus string

const (
	DirectoryStatusOK          DirectoryStatus = "OK"
	DirectoryStatusZeroResults DirectoryStatus = "ZERO_RESULTS"
)

// NearbyQuery describes one nearby lookup against the provider directory.
type NearbyQuery struct {
	Origin       geo.Point
	RadiusMeters int
	Category     string
	Keyword      string
}

// DirectoryResult is the raw outcome of a nearby lookup. Any status other than
// OK or ZERO_RESULTS is an upstream failure described by ErrorMessage.
type DirectoryResult struct {
	Status       DirectoryStatus
	ErrorMessage string
	Candidates   []entities.ProviderCandidate
}

// ProviderDirectory finds candidate healthcare providers around a point.
//
// A returned error means the directory could not be reached or its answer could
// not be read (network failure, timeout, malformed body). Upstream error statuses
// are reported through DirectoryResult.Status instead.
type ProviderDirectory interface {
	NearbySearch(ctx context.Context, query NearbyQuery) (*DirectoryResult, error)
}
