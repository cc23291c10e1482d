package config

import (
	"strings"
	"testing"
)

func TestValidate_ProductionRequiresRealSecret(t *testing.T) {
	cfg := &Config{Env: "production", JWTSecret: "", MatchRadiusKm: 50}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET in production")
	}

	cfg.JWTSecret = "carelink-dev-secret-do-not-use-in-production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for dev secret in production")
	}

	cfg.JWTSecret = "short"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "32 characters") {
		t.Fatalf("expected length error, got %v", err)
	}

	cfg.JWTSecret = strings.Repeat("x", 48)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_TwilioAllOrNothing(t *testing.T) {
	cfg := &Config{Env: "development", MatchRadiusKm: 50, TwilioSID: "AC123"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for partial Twilio credentials")
	}

	cfg.TwilioToken = "token"
	cfg.TwilioFrom = "+15550001111"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MatchRadius(t *testing.T) {
	cfg := &Config{Env: "development", MatchRadiusKm: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero match radius")
	}
}

func TestIsDev(t *testing.T) {
	if !(&Config{Env: "development"}).IsDev() {
		t.Error("expected development env to be dev")
	}
	if (&Config{Env: "production"}).IsDev() {
		t.Error("expected production env not to be dev")
	}
	if !(&Config{Env: "production"}).IsProduction() {
		t.Error("expected production env to be production")
	}
}
