package models

import "time"

type MatchResult string

const (
	ResultPlayer1Win MatchResult = "player1_win"
	ResultPlayer2Win MatchResult = "player2_win"
	ResultDraw       MatchResult = "draw"
)

func (r MatchResult) Valid() bool {
	switch r {
	case ResultPlayer1Win, ResultPlayer2Win, ResultDraw:
		return true
	}
	return false
}

// SetScore is one set of a match score, e.g. 21:17.
type SetScore struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// MatchHistory is the immutable record of one pairwise result.
// Rows are created once by the recording transaction and never updated,
// forming the audit trail for every rating change.
type MatchHistory struct {
	ID               int         `json:"id" db:"id"`
	EventID          int         `json:"event_id" db:"event_id"`
	Player1ID        int         `json:"player1_id" db:"player1_id"`
	Player2ID        int         `json:"player2_id" db:"player2_id"`
	SportID          int         `json:"sport_id" db:"sport_id"`
	Result           MatchResult `json:"result" db:"result"`
	MatchScore       []SetScore  `json:"match_score" db:"match_score"`
	Player1MMRBefore int         `json:"player1_mmr_before" db:"player1_mmr_before"`
	Player1MMRAfter  int         `json:"player1_mmr_after" db:"player1_mmr_after"`
	Player2MMRBefore int         `json:"player2_mmr_before" db:"player2_mmr_before"`
	Player2MMRAfter  int         `json:"player2_mmr_after" db:"player2_mmr_after"`
	RecordedByHostID int         `json:"recorded_by_host_id" db:"recorded_by_host_id"`
	MatchDate        time.Time   `json:"match_date" db:"match_date"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
}
