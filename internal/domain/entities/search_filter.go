package entities

import (
	"fmt"
	"math"
	"strings"
)

// FilterType tags the variant held by a SearchFilter.
type FilterType string

const (
	FilterTypeDistance       FilterType = "distance"
	FilterTypeRating         FilterType = "rating"
	FilterTypeSpecialization FilterType = "specialization"
	FilterTypeAvailability   FilterType = "availability"
	FilterTypeKind           FilterType = "kind"
)

// SearchFilter narrows a ranked result set. Only the fields of the tagged variant are meaningful.
type SearchFilter struct {
	Type      FilterType
	MaxMiles  float64
	MinRating float64
	Keyword   string
	Kind      ProviderKind
}

// DistanceFilter keeps providers at most maxMiles away.
func DistanceFilter(maxMiles float64) SearchFilter {
	return SearchFilter{Type: FilterTypeDistance, MaxMiles: maxMiles}
}

// RatingFilter keeps providers rated at least minRating.
func RatingFilter(minRating float64) SearchFilter {
	return SearchFilter{Type: FilterTypeRating, MinRating: minRating}
}

// SpecializationFilter keeps providers whose name or place types mention keyword.
func SpecializationFilter(keyword string) SearchFilter {
	return SearchFilter{Type: FilterTypeSpecialization, Keyword: strings.TrimSpace(keyword)}
}

// AvailabilityFilter keeps providers the directory reports as open now.
func AvailabilityFilter() SearchFilter {
	return SearchFilter{Type: FilterTypeAvailability}
}

// KindFilter keeps providers of the given kind.
func KindFilter(kind ProviderKind) SearchFilter {
	return SearchFilter{Type: FilterTypeKind, Kind: kind}
}

// Validate checks the variant's fields.
func (f SearchFilter) Validate() error {
	switch f.Type {
	case FilterTypeDistance:
		if !(f.MaxMiles > 0) || math.IsInf(f.MaxMiles, 1) {
			return fmt.Errorf("max distance must be positive")
		}
	case FilterTypeRating:
		if !(f.MinRating >= 0 && f.MinRating <= 5) {
			return fmt.Errorf("min rating must be between 0 and 5")
		}
	case FilterTypeSpecialization:
		if f.Keyword == "" {
			return fmt.Errorf("specialization keyword is required")
		}
	case FilterTypeAvailability:
	case FilterTypeKind:
		if _, err := ParseProviderKind(string(f.Kind)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown filter type %q", f.Type)
	}
	return nil
}
