package model

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Extractor.TypeIndexPredicates) != 2 {
		t.Fatalf("expected 2 default predicates, got %d", len(cfg.Extractor.TypeIndexPredicates))
	}
	if cfg.Extractor.TypeIndexPredicates[0] != SolidPublicTypeIndex {
		t.Errorf("expected public type index first, got %s", cfg.Extractor.TypeIndexPredicates[0])
	}
	if !cfg.Extractor.OnlyMatchingTypes {
		t.Error("expected class filtering on by default")
	}
	if cfg.Extractor.FanOut != FanOutSequential {
		t.Errorf("expected sequential fan-out, got %s", cfg.Extractor.FanOut)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extractor.TypeIndexPredicates = nil
	if err := cfg.Validate(); !errors.Is(err, ErrNoPredicates) {
		t.Errorf("expected ErrNoPredicates, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Extractor.FanOut = "sideways"
	var cfgErr *ConfigError
	if err := cfg.Validate(); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "extractor.fan_out" {
		t.Errorf("unexpected field %s", cfgErr.Field)
	}

	cfg = DefaultConfig()
	cfg.HTTP.MaxBodyBytes = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero body limit")
	}

	cfg = DefaultConfig()
	cfg.RateLimiting.Domains = []DomainRateConfig{{Domain: "solidcommunity.net"}}
	if err := cfg.Validate(); !errors.As(err, &cfgErr) || cfgErr.Field != "rate_limiting.domains" {
		t.Errorf("expected ConfigError for a domain without a rate, got %v", err)
	}
}

func TestRegistration_InstanceURL(t *testing.T) {
	r := Registration{}
	if r.InstanceURL() != "" {
		t.Errorf("expected empty URL for nil instance, got %q", r.InstanceURL())
	}
}
