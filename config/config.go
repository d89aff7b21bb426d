package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the application.
// Matchmaking and credit policy knobs live here so the business components
// stay free of hard-coded amounts.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	Matchmaking MatchmakingConfig
	Credit      CreditConfig
}

// MatchmakingConfig bounds the zero-sum MMR exchange per recorded match.
type MatchmakingConfig struct {
	BaseDelta  int // baseline MMR exchanged between winner and loser
	MinDelta   int // lower bound of the exchange
	MaxDelta   int // upper bound of the exchange
	DeltaScale int // rating-difference divisor feeding into the delta
}

// CreditConfig holds credit-score trigger amounts and restriction thresholds.
type CreditConfig struct {
	EarlyCancelPenalty     int // cancellation more than CancelCutoffHours before start
	LateCancelPenalty      int // cancellation inside the cutoff, scaled by hours remaining
	CancelCutoffHours      int
	NoShowPenalty          int
	CompletionBonus        int
	GoodRatingBonus        int
	ConsecutiveBonus       int
	ConsecutiveStreak      int // completions needed for the streak bonus
	AdminAdjustmentMax     int // per-adjustment bound on manual changes, both directions
	MinScoreToCreateEvents int
	MinScoreToJoinFreely   int
}

// Load reads configuration from environment variables. A .env file is picked
// up when present, useful for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,
		Matchmaking:  DefaultMatchmakingConfig(),
		Credit:       DefaultCreditConfig(),
	}

	overrides := []struct {
		key string
		dst *int
	}{
		{"MMR_BASE_DELTA", &cfg.Matchmaking.BaseDelta},
		{"MMR_MIN_DELTA", &cfg.Matchmaking.MinDelta},
		{"MMR_MAX_DELTA", &cfg.Matchmaking.MaxDelta},
		{"MMR_DELTA_SCALE", &cfg.Matchmaking.DeltaScale},
		{"CREDIT_NO_SHOW_PENALTY", &cfg.Credit.NoShowPenalty},
		{"CREDIT_COMPLETION_BONUS", &cfg.Credit.CompletionBonus},
		{"CREDIT_MIN_SCORE_CREATE", &cfg.Credit.MinScoreToCreateEvents},
		{"CREDIT_MIN_SCORE_JOIN", &cfg.Credit.MinScoreToJoinFreely},
	}
	for _, o := range overrides {
		v, err := intEnv(o.key, *o.dst)
		if err != nil {
			return nil, err
		}
		*o.dst = v
	}

	if cfg.Matchmaking.MinDelta > cfg.Matchmaking.MaxDelta {
		return nil, fmt.Errorf("MMR_MIN_DELTA (%d) must not exceed MMR_MAX_DELTA (%d)",
			cfg.Matchmaking.MinDelta, cfg.Matchmaking.MaxDelta)
	}

	return cfg, nil
}

func DefaultMatchmakingConfig() MatchmakingConfig {
	return MatchmakingConfig{
		BaseDelta:  20,
		MinDelta:   10,
		MaxDelta:   30,
		DeltaScale: 25,
	}
}

func DefaultCreditConfig() CreditConfig {
	return CreditConfig{
		EarlyCancelPenalty:     -5,
		LateCancelPenalty:      -25,
		CancelCutoffHours:      48,
		NoShowPenalty:          -30,
		CompletionBonus:        3,
		GoodRatingBonus:        1,
		ConsecutiveBonus:       5,
		ConsecutiveStreak:      5,
		AdminAdjustmentMax:     50,
		MinScoreToCreateEvents: 30,
		MinScoreToJoinFreely:   50,
	}
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}
