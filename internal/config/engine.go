package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/beedev/recommender/internal/core/usecase"
)

// EngineConfig is the optional YAML tuning file for the retrieval engine.
// Env vars carry endpoints and credentials; this file carries the knobs an
// operator retunes per deployment: which strategies run, how much each is
// trusted, and how results are consolidated.
type EngineConfig struct {
	Strategies    []usecase.StrategySettings `yaml:"strategies"`
	Consolidation ConsolidationSettings      `yaml:"consolidation"`
	Orchestration OrchestrationSettings      `yaml:"orchestration"`
}

type ConsolidationSettings struct {
	DefaultScoreForUnscored float64        `yaml:"defaultScoreForUnscored"`
	ExactMatchBoostFactor   float64        `yaml:"exactMatchBoostFactor"`
	DefaultThresholdPercent int            `yaml:"defaultThresholdPercent"`
	ThresholdPercentByType  map[string]int `yaml:"thresholdPercentByType"`
	ScoreNormalization      string         `yaml:"scoreNormalization"`
	AppendScoreToName       bool           `yaml:"appendScoreToName"`
}

type OrchestrationSettings struct {
	ExecutionMode            string `yaml:"executionMode"`
	TimeoutSeconds           int    `yaml:"timeoutSeconds"`
	FallbackOnError          *bool  `yaml:"fallbackOnError"`
	RequireAtLeastOneSuccess bool   `yaml:"requireAtLeastOneSuccess"`
	DefaultLimit             int    `yaml:"defaultLimit"`
}

// DefaultEngineConfig enables all four strategies with their production
// weights.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Strategies: []usecase.StrategySettings{
			{Name: "graph", Enabled: true, Weight: 1.0},
			{Name: "fulltext", Enabled: true, Weight: 0.8},
			{Name: "vector", Enabled: true, Weight: 0.9},
			{Name: "rerank", Enabled: false, Weight: 1.0},
		},
	}
}

// LoadEngine reads the tuning file at path. An empty path yields the default
// configuration; a missing or malformed file is an error, not a silent
// fallback, so a typoed ENGINE_CONFIG_FILE cannot run with defaults
// unnoticed.
func LoadEngine(path string) (EngineConfig, error) {
	if path == "" {
		return DefaultEngineConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("read engine config %s: %w", path, err)
	}
	cfg := DefaultEngineConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("parse engine config %s: %w", path, err)
	}
	return cfg, nil
}

// ConsolidationConfig maps the YAML settings onto the consolidator's config,
// leaving zero values for its normalization pass to fill.
func (c EngineConfig) ConsolidationConfig() usecase.ConsolidationConfig {
	s := c.Consolidation
	return usecase.ConsolidationConfig{
		DefaultScoreForUnscored: s.DefaultScoreForUnscored,
		ExactMatchBoostFactor:   s.ExactMatchBoostFactor,
		DefaultThresholdPercent: s.DefaultThresholdPercent,
		ThresholdPercentByType:  s.ThresholdPercentByType,
		ScoreNormalization:      s.ScoreNormalization,
		AppendScoreToName:       s.AppendScoreToName,
	}
}

// OrchestrationConfig maps the YAML settings onto the orchestrator's config.
// FallbackOnError defaults to true when the file leaves it unset; a bare bool
// could not distinguish "false" from "absent".
func (c EngineConfig) OrchestrationConfig() usecase.OrchestrationConfig {
	s := c.Orchestration
	out := usecase.OrchestrationConfig{
		ExecutionMode:            s.ExecutionMode,
		Timeout:                  time.Duration(s.TimeoutSeconds) * time.Second,
		FallbackOnError:          true,
		RequireAtLeastOneSuccess: s.RequireAtLeastOneSuccess,
		DefaultLimit:             s.DefaultLimit,
	}
	if s.FallbackOnError != nil {
		out.FallbackOnError = *s.FallbackOnError
	}
	return out
}
