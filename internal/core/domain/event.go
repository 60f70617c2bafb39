package domain

import "time"

// SearchEvent is the analytics record emitted after each orchestrated search.
type SearchEvent struct {
	RequestID           string        `json:"request_id"`
	ComponentType       string        `json:"component_type"`
	StrategiesSucceeded []string      `json:"strategies_succeeded"`
	StrategiesFailed    []string      `json:"strategies_failed"`
	TotalCount          int           `json:"total_count"`
	Duration            time.Duration `json:"duration_ns"`
	ZeroResults         bool          `json:"zero_results"`
	Timestamp           time.Time     `json:"timestamp"`
}
