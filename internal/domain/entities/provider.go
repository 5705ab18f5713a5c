package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/healthassist/backend/pkg/geo"
)

// ProviderCandidate is a raw entry returned by the provider directory for one search.
type ProviderCandidate struct {
	ExternalID       string          `json:"external_id"`
	Name             string          `json:"name"`
	Vicinity         string          `json:"vicinity,omitempty"`
	FormattedAddress string          `json:"formatted_address,omitempty"`
	Rating           *float64        `json:"rating,omitempty"`
	Location         *geo.Point      `json:"location,omitempty"`
	OpeningHours     json.RawMessage `json:"opening_hours,omitempty"`
	Types            []string        `json:"types,omitempty"`
}

// Address prefers the short vicinity and falls back to the full formatted address.
func (c ProviderCandidate) Address() string {
	if strings.TrimSpace(c.Vicinity) != "" {
		return c.Vicinity
	}
	return c.FormattedAddress
}

// RatingDescription renders the human-readable rating annotation shown next to a provider.
func (c ProviderCandidate) RatingDescription() string {
	if c.Rating == nil {
		return "Rating: N/A ⭐"
	}
	return fmt.Sprintf("Rating: %s ⭐", strconv.FormatFloat(*c.Rating, 'f', -1, 64))
}

// OpenNow reads opening_hours.open_now; ok is false when the directory did not report it.
func (c ProviderCandidate) OpenNow() (open bool, ok bool) {
	return openNow(c.OpeningHours)
}

func openNow(raw json.RawMessage) (bool, bool) {
	if len(raw) == 0 {
		return false, false
	}
	var hours struct {
		OpenNow *bool `json:"open_now"`
	}
	if err := json.Unmarshal(raw, &hours); err != nil || hours.OpenNow == nil {
		return false, false
	}
	return *hours.OpenNow, true
}

// RankedProvider is a candidate that survived the distance cutoff, annotated for display.
type RankedProvider struct {
	Name          string          `json:"name"`
	Address       string          `json:"address"`
	Description   string          `json:"description"`
	Rating        *float64        `json:"rating"`
	ExternalID    string          `json:"place_id"`
	DistanceMiles float64         `json:"distance"`
	OpeningHours  json.RawMessage `json:"opening_hours,omitempty"`
	Location      geo.Point       `json:"location"`
	Kind          ProviderKind    `json:"kind"`
	Types         []string        `json:"types,omitempty"`
}

// NewRankedProvider builds the ranked view of a candidate at the given rounded distance.
// The candidate must have a location.
func NewRankedProvider(c ProviderCandidate, distanceMiles float64) RankedProvider {
	return RankedProvider{
		Name:          c.Name,
		Address:       c.Address(),
		Description:   c.RatingDescription(),
		Rating:        c.Rating,
		ExternalID:    c.ExternalID,
		DistanceMiles: distanceMiles,
		OpeningHours:  c.OpeningHours,
		Location:      *c.Location,
		Kind:          ClassifyKind(c.Types),
		Types:         c.Types,
	}
}

// OpenNow reports the directory's open_now flag; ok is false when it was not provided.
func (p RankedProvider) OpenNow() (open bool, ok bool) {
	return openNow(p.OpeningHours)
}

// ProviderKind classifies a healthcare provider.
type ProviderKind string

const (
	ProviderKindClinic          ProviderKind = "clinic"
	ProviderKindHospital        ProviderKind = "hospital"
	ProviderKindPrivatePractice ProviderKind = "private_practice"
)

// ParseProviderKind accepts the kind names case-insensitively.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch ProviderKind(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderKindClinic:
		return ProviderKindClinic, nil
	case ProviderKindHospital:
		return ProviderKindHospital, nil
	case ProviderKindPrivatePractice:
		return ProviderKindPrivatePractice, nil
	}
	return "", fmt.Errorf("unknown provider kind %q", s)
}

var practiceTypes = map[string]bool{
	"doctor":          true,
	"dentist":         true,
	"physiotherapist": true,
}

// ClassifyKind derives a provider kind from directory place types.
func ClassifyKind(types []string) ProviderKind {
	practice := false
	for _, t := range types {
		t = strings.ToLower(t)
		if t == "hospital" {
			return ProviderKindHospital
		}
		if practiceTypes[t] {
			practice = true
		}
	}
	if practice {
		return ProviderKindPrivatePractice
	}
	return ProviderKindClinic
}
