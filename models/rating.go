package models

import "time"

const (
	DefaultMMR   = 1000
	MMRFloor     = 0
	DefaultLevel = 1
)

// UserSportRating is the per-user-per-sport skill aggregate.
// Mutated only by the match recording transaction, never deleted.
type UserSportRating struct {
	ID            int       `json:"id" db:"id"`
	UserID        int       `json:"user_id" db:"user_id"`
	SportID       int       `json:"sport_id" db:"sport_id"`
	MMR           int       `json:"mmr" db:"mmr"`
	Level         int       `json:"level" db:"level"`
	MatchesPlayed int       `json:"matches_played" db:"matches_played"`
	Wins          int       `json:"wins" db:"wins"`
	Losses        int       `json:"losses" db:"losses"`
	WinRate       float64   `json:"win_rate" db:"win_rate"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// LevelForMMR maps an MMR value onto the fixed level bands.
func LevelForMMR(mmr int) int {
	switch {
	case mmr < 1200:
		return 1
	case mmr < 1400:
		return 2
	case mmr < 1600:
		return 3
	case mmr < 1800:
		return 4
	case mmr < 2000:
		return 5
	default:
		return 6
	}
}

// DefaultRating returns the non-persisted rating a player holds before
// their first recorded match.
func DefaultRating(userID, sportID int) *UserSportRating {
	return &UserSportRating{
		UserID:  userID,
		SportID: sportID,
		MMR:     DefaultMMR,
		Level:   DefaultLevel,
	}
}
