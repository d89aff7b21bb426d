package models

import "time"

// ProposedMatchState tracks a match assignment through a matchmaking run:
// proposed -> locked (host pinned it) -> finalized (result recorded).
type ProposedMatchState string

const (
	MatchProposed  ProposedMatchState = "proposed"
	MatchLocked    ProposedMatchState = "locked"
	MatchFinalized ProposedMatchState = "finalized"
)

// ProposedMatch is one pairing produced by a matchmaking run for an event.
// Player2ID is nil for a bye (odd participant count leaves the lowest-ranked
// player waiting).
type ProposedMatch struct {
	ID        string             `json:"id" db:"id"`
	EventID   int                `json:"event_id" db:"event_id"`
	Player1ID int                `json:"player1_id" db:"player1_id"`
	Player2ID *int               `json:"player2_id,omitempty" db:"player2_id"`
	State     ProposedMatchState `json:"state" db:"state"`
	CourtID   *int               `json:"court_id,omitempty" db:"court_id"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

func (m *ProposedMatch) IsBye() bool {
	return m.Player2ID == nil
}

// HasPlayer reports whether userID occupies either side of the pairing.
func (m *ProposedMatch) HasPlayer(userID int) bool {
	if m.Player1ID == userID {
		return true
	}
	return m.Player2ID != nil && *m.Player2ID == userID
}
