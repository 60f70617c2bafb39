package domain

import (
	"fmt"
	"sort"
	"strings"
)

// SearchRequest is the orchestration unit: one logical "find candidates for
// component X" call. CompatibilityContext holds already-chosen upstream items
// (component type -> product key) and is opaque to orchestration; strategies
// that filter for compatibility interpret it themselves.
type SearchRequest struct {
	ComponentType        string            `json:"component_type"`
	RawQueryText         string            `json:"query,omitempty"`
	StructuredFilters    map[string]string `json:"filters,omitempty"`
	CompatibilityContext map[string]string `json:"compatibility_context,omitempty"`
	Limit                int               `json:"limit"`
	Offset               int               `json:"offset"`
	ExactTargetName      string            `json:"exact_target_name,omitempty"`
}

// Validate checks the request invariants the engine depends on.
func (r SearchRequest) Validate() error {
	if r.ComponentType == "" {
		return WrapError(ErrInvalidInput, "validate request", fmt.Errorf("component_type is required"))
	}
	if r.Limit < 0 {
		return WrapError(ErrInvalidInput, "validate request", fmt.Errorf("limit must be non-negative"))
	}
	if r.Offset < 0 {
		return WrapError(ErrInvalidInput, "validate request", fmt.Errorf("offset must be non-negative"))
	}
	return nil
}

// QueryText flattens the free-text query and the structured filters into one
// searchable string. Filters are appended in key order so the same request
// always produces the same text.
func (r SearchRequest) QueryText() string {
	parts := make([]string, 0, 1+len(r.StructuredFilters))
	if text := strings.TrimSpace(r.RawQueryText); text != "" {
		parts = append(parts, text)
	}
	keys := make([]string, 0, len(r.StructuredFilters))
	for key := range r.StructuredFilters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if value := strings.TrimSpace(r.StructuredFilters[key]); value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, " ")
}

// SearchResponse is the final, paginated output of one orchestrated search.
// TotalCount counts candidates after threshold filtering, before pagination.
// ZeroResultsExplanation is advisory text set only when the page is empty.
type SearchResponse struct {
	Candidates             []ConsolidatedCandidate `json:"candidates"`
	TotalCount             int                     `json:"total_count"`
	HasMore                bool                    `json:"has_more"`
	StrategiesSucceeded    []string                `json:"strategies_succeeded"`
	StrategiesFailed       []string                `json:"strategies_failed"`
	ZeroResultsExplanation string                  `json:"zero_results_explanation,omitempty"`
}
