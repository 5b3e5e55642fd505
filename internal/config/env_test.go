package config

import (
	"io"
	"testing"
	"time"
)

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PM1_BOUND_MAX", "8192")
	t.Setenv("PM1_BOUND_STEP", "128")
	t.Setenv("PM1_MAX_FACTOR_BITS", "32")
	t.Setenv("PM1_PRIMES", "5000")
	t.Setenv("PM1_LANES", "2")
	t.Setenv("PM1_TIMEOUT", "1m")
	t.Setenv("PM1_BACKEND", "sequential")
	t.Setenv("PM1_LOG_LEVEL", "warn")
	t.Setenv("PM1_MINUS_ONE", "yes")
	t.Setenv("PM1_QUIET", "1")

	cfg, err := ParseConfig("pm1", []string{"-bound-step", "256", "abc"}, io.Discard, testBackends)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.BoundMax != 8192 || cfg.MaxFactorBits != 32 || cfg.Primes != 5000 || cfg.Lanes != 2 {
		t.Errorf("numeric overrides not applied: %+v", cfg)
	}
	if cfg.BoundStep != 256 {
		t.Errorf("flag must win over environment, got step %d", cfg.BoundStep)
	}
	if cfg.Timeout != time.Minute || cfg.Backend != "sequential" || cfg.LogLevel != "warn" {
		t.Errorf("string overrides not applied: %+v", cfg)
	}
	if !cfg.MinusOne || !cfg.Quiet {
		t.Errorf("boolean overrides not applied: %+v", cfg)
	}
}

func TestEnvInvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("PM1_BOUND_MAX", "lots")
	t.Setenv("PM1_TIMEOUT", "soon")
	t.Setenv("PM1_JSON", "maybe")

	cfg, err := ParseConfig("pm1", []string{"abc"}, io.Discard, testBackends)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.BoundMax != DefaultBoundMax || cfg.Timeout != 0 || cfg.JSONOutput {
		t.Errorf("invalid environment values must be ignored: %+v", cfg)
	}
}

func TestEnvServerMode(t *testing.T) {
	t.Setenv("PM1_SERVER", "true")
	t.Setenv("PM1_PORT", "7070")

	cfg, err := ParseConfig("pm1", nil, io.Discard, testBackends)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !cfg.ServerMode || cfg.Port != "7070" {
		t.Errorf("unexpected config %+v", cfg)
	}
}
