package config

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/sportmate?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "unit-test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ServerPort != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.ServerPort)
	}
	if cfg.Matchmaking != DefaultMatchmakingConfig() {
		t.Errorf("matchmaking config = %+v, want defaults", cfg.Matchmaking)
	}
	if cfg.Credit != DefaultCreditConfig() {
		t.Errorf("credit config = %+v, want defaults", cfg.Credit)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET_KEY", "unit-test-secret")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("got %v, want a DATABASE_URL error", err)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	t.Setenv("JWT_SECRET_KEY", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET_KEY") {
		t.Errorf("got %v, want a JWT_SECRET_KEY error", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("MMR_BASE_DELTA", "25")
	t.Setenv("CREDIT_NO_SHOW_PENALTY", "-40")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerPort != 9999 {
		t.Errorf("port = %d, want 9999", cfg.ServerPort)
	}
	if cfg.Matchmaking.BaseDelta != 25 {
		t.Errorf("base delta = %d, want 25", cfg.Matchmaking.BaseDelta)
	}
	if cfg.Credit.NoShowPenalty != -40 {
		t.Errorf("no-show penalty = %d, want -40", cfg.Credit.NoShowPenalty)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	setRequiredEnv(t)

	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "not-a-port")
		if _, err := Load(); err == nil {
			t.Error("expected an error for a non-numeric port")
		}
	})
	t.Run("port out of range", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "70000")
		if _, err := Load(); err == nil {
			t.Error("expected an error for an out-of-range port")
		}
	})
	t.Run("min delta above max", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "8080")
		t.Setenv("MMR_MIN_DELTA", "40")
		t.Setenv("MMR_MAX_DELTA", "30")
		if _, err := Load(); err == nil {
			t.Error("expected an error when min delta exceeds max delta")
		}
	})
}
