package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("API_PORT")
	os.Unsetenv("POSTGRES_DSN")

	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("APIPort = %q", cfg.APIPort)
	}
	if cfg.QdrantCollection != "products" {
		t.Fatalf("QdrantCollection = %q", cfg.QdrantCollection)
	}
	if cfg.MaxConcurrentConns != 256 {
		t.Fatalf("MaxConcurrentConns = %d", cfg.MaxConcurrentConns)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("RATE_LIMIT_RPS", "12.5")
	t.Setenv("MAX_CONCURRENT_CONNS", "not-a-number")

	cfg := Load()
	if cfg.APIPort != "9999" {
		t.Fatalf("APIPort = %q", cfg.APIPort)
	}
	if cfg.RateLimitRPS != 12.5 {
		t.Fatalf("RateLimitRPS = %v", cfg.RateLimitRPS)
	}
	if cfg.MaxConcurrentConns != 256 {
		t.Fatalf("malformed int must fall back, got %d", cfg.MaxConcurrentConns)
	}
}

func TestLoadEngineEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadEngine("")
	if err != nil {
		t.Fatalf("LoadEngine: %v", err)
	}
	if len(cfg.Strategies) != 4 {
		t.Fatalf("strategies = %v", cfg.Strategies)
	}
	orch := cfg.OrchestrationConfig()
	if !orch.FallbackOnError {
		t.Fatalf("FallbackOnError must default to true")
	}
}

func TestLoadEngineMissingFileIsError(t *testing.T) {
	if _, err := LoadEngine("/nonexistent/engine.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadEngineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	body := `
strategies:
  - name: vector
    enabled: true
    weight: 0.7
  - name: graph
    enabled: false
    weight: 0.3
consolidation:
  defaultThresholdPercent: 40
  thresholdPercentByType:
    torch: 10
  scoreNormalization: min-max
orchestration:
  executionMode: sequential
  timeoutSeconds: 3
  fallbackOnError: false
  requireAtLeastOneSuccess: true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := LoadEngine(path)
	if err != nil {
		t.Fatalf("LoadEngine: %v", err)
	}
	if len(cfg.Strategies) != 2 || cfg.Strategies[0].Name != "vector" || cfg.Strategies[0].Weight != 0.7 {
		t.Fatalf("strategies = %+v", cfg.Strategies)
	}

	cons := cfg.ConsolidationConfig()
	if cons.DefaultThresholdPercent != 40 || cons.ThresholdPercentByType["torch"] != 10 {
		t.Fatalf("consolidation = %+v", cons)
	}
	if cons.ScoreNormalization != "min-max" {
		t.Fatalf("normalization = %q", cons.ScoreNormalization)
	}

	orch := cfg.OrchestrationConfig()
	if orch.ExecutionMode != "sequential" || orch.Timeout != 3*time.Second {
		t.Fatalf("orchestration = %+v", orch)
	}
	if orch.FallbackOnError {
		t.Fatalf("fallbackOnError: false must survive parsing")
	}
	if !orch.RequireAtLeastOneSuccess {
		t.Fatalf("requireAtLeastOneSuccess not parsed")
	}
}
