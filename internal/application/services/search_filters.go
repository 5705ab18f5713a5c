package services

import (
	"strings"

	"github.com/healthassist/backend/internal/domain/entities"
)

type filterMatcher func(f entities.SearchFilter, p entities.RankedProvider) bool

var filterMatchers = map[entities.FilterType]filterMatcher{
	entities.FilterTypeDistance: func(f entities.SearchFilter, p entities.RankedProvider) bool {
		return p.DistanceMiles <= f.MaxMiles
	},
	entities.FilterTypeRating: func(f entities.SearchFilter, p entities.RankedProvider) bool {
		return p.Rating != nil && *p.Rating >= f.MinRating
	},
	entities.FilterTypeSpecialization: func(f entities.SearchFilter, p entities.RankedProvider) bool {
		keyword := strings.ToLower(f.Keyword)
		if strings.Contains(strings.ToLower(p.Name), keyword) {
			return true
		}
		for _, t := range p.Types {
			if strings.Contains(strings.ToLower(t), keyword) {
				return true
			}
		}
		return false
	},
	entities.FilterTypeAvailability: func(_ entities.SearchFilter, p entities.RankedProvider) bool {
		open, ok := p.OpenNow()
		return ok && open
	},
	entities.FilterTypeKind: func(f entities.SearchFilter, p entities.RankedProvider) bool {
		return p.Kind == f.Kind
	},
}

// ApplyFilters keeps the providers matching every filter, preserving order.
// Filters with an unknown type match nothing.
func ApplyFilters(ranked []entities.RankedProvider, filters []entities.SearchFilter) []entities.RankedProvider {
	if len(filters) == 0 {
		return ranked
	}

	out := make([]entities.RankedProvider, 0, len(ranked))
	for _, p := range ranked {
		if matchesAll(p, filters) {
			out = append(out, p)
		}
	}
	return out
}

func matchesAll(p entities.RankedProvider, filters []entities.SearchFilter) bool {
	for _, f := range filters {
		match, ok := filterMatchers[f.Type]
		if !ok || !match(f, p) {
			return false
		}
	}
	return true
}
