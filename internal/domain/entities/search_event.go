package entities

import (
	"time"
)

// SearchOutcome summarises how a provider search ended.
type SearchOutcome string

const (
	SearchOutcomeOK              SearchOutcome = "ok"
	SearchOutcomeEmpty           SearchOutcome = "empty"
	SearchOutcomeMissingLocation SearchOutcome = "missing_location"
	SearchOutcomeUnavailable     SearchOutcome = "directory_unavailable"
)

// SearchEvent represents a single provider search for analytics.
type SearchEvent struct {
	ID            string        `json:"id" db:"id"`
	Query         string        `json:"query" db:"query"`
	Outcome       SearchOutcome `json:"outcome" db:"outcome"`
	ResultCount   int           `json:"result_count" db:"result_count"`
	LatencyMs     int           `json:"latency_ms" db:"latency_ms"`
	UserLatitude  float64       `json:"user_latitude" db:"user_latitude"`
	UserLongitude float64       `json:"user_longitude" db:"user_longitude"`
	RequestID     string        `json:"request_id,omitempty" db:"request_id"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}
