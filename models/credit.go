package models

import (
	"encoding/json"
	"time"
)

const (
	CreditScoreMin     = 0
	CreditScoreMax     = 100
	CreditScoreDefault = 100
)

type CreditChangeType string

const (
	CreditPenalty              CreditChangeType = "penalty"
	CreditBonus                CreditChangeType = "bonus"
	CreditCancellationPenalty  CreditChangeType = "cancellation_penalty"
	CreditNoShowPenalty        CreditChangeType = "no_show_penalty"
	CreditEventCompletionBonus CreditChangeType = "event_completion_bonus"
	CreditGoodRatingBonus      CreditChangeType = "good_rating_bonus"
	CreditConsecutiveBonus     CreditChangeType = "consecutive_events_bonus"
)

func (t CreditChangeType) Valid() bool {
	switch t {
	case CreditPenalty, CreditBonus, CreditCancellationPenalty,
		CreditNoShowPenalty, CreditEventCompletionBonus,
		CreditGoodRatingBonus, CreditConsecutiveBonus:
		return true
	}
	return false
}

// CreditScoreLog is one append-only ledger entry. A user's current score is
// the NewScore of their most recent entry, CreditScoreDefault if none exist.
type CreditScoreLog struct {
	ID           int              `json:"id" db:"id"`
	UserID       int              `json:"user_id" db:"user_id"`
	EventID      *int             `json:"event_id,omitempty" db:"event_id"`
	Type         CreditChangeType `json:"type" db:"type"`
	OldScore     int              `json:"old_score" db:"old_score"`
	NewScore     int              `json:"new_score" db:"new_score"`
	ChangeAmount int              `json:"change_amount" db:"change_amount"`
	Description  string           `json:"description" db:"description"`
	Metadata     json.RawMessage  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// ClampCreditScore bounds a running score to the ledger's [min, max] range.
func ClampCreditScore(score int) int {
	if score < CreditScoreMin {
		return CreditScoreMin
	}
	if score > CreditScoreMax {
		return CreditScoreMax
	}
	return score
}

// RestrictionSet is derived from the current credit score; thresholds come
// from configuration, not from this type.
type RestrictionSet struct {
	Score                int  `json:"score"`
	CanCreateEvents      bool `json:"can_create_events"`
	RequiresJoinApproval bool `json:"requires_join_approval"`
}
