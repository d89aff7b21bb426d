package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Yernar11/sportmate/models"
	"github.com/Yernar11/sportmate/repositories"
)

// PlayerOutcome is the result of a match from one player's perspective.
type PlayerOutcome string

const (
	OutcomeWin  PlayerOutcome = "win"
	OutcomeLoss PlayerOutcome = "loss"
	OutcomeDraw PlayerOutcome = "draw"
)

// RatingService is the rating store: it owns the per-user-per-sport skill
// aggregate. ApplyResult is only called from the match recording transaction.
type RatingService interface {
	// GetRating returns the persisted rating, or the default aggregate
	// (mmr=1000, level=1, 0/0/0) without persisting it when the player has
	// no recorded match for the sport yet.
	GetRating(ctx context.Context, userID, sportID int) (*models.UserSportRating, error)
	ListUserRatings(ctx context.Context, userID int) ([]*models.UserSportRating, error)
	// ApplyResult mutates the aggregate inside the caller's transaction:
	// matches_played always increments, wins/losses per the outcome (draws
	// touch neither), mmr moves by delta but never below the floor, win_rate
	// and level are re-derived.
	ApplyResult(ctx context.Context, exec repositories.SQLExecutor, userID, sportID, delta int, outcome PlayerOutcome) (*models.UserSportRating, error)
}

type ratingService struct {
	ratingRepo repositories.RatingRepository
}

func NewRatingService(ratingRepo repositories.RatingRepository) RatingService {
	return &ratingService{ratingRepo: ratingRepo}
}

func (s *ratingService) GetRating(ctx context.Context, userID, sportID int) (*models.UserSportRating, error) {
	rating, err := s.ratingRepo.Get(ctx, userID, sportID)
	if err != nil {
		if errors.Is(err, repositories.ErrRatingNotFound) {
			return models.DefaultRating(userID, sportID), nil
		}
		return nil, fmt.Errorf("failed to load rating for user %d sport %d: %w", userID, sportID, err)
	}
	return rating, nil
}

func (s *ratingService) ListUserRatings(ctx context.Context, userID int) ([]*models.UserSportRating, error) {
	ratings, err := s.ratingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings for user %d: %w", userID, err)
	}
	return ratings, nil
}

func (s *ratingService) ApplyResult(ctx context.Context, exec repositories.SQLExecutor, userID, sportID, delta int, outcome PlayerOutcome) (*models.UserSportRating, error) {
	rating, err := s.ratingRepo.GetForUpdate(ctx, exec, userID, sportID)
	if err != nil {
		if !errors.Is(err, repositories.ErrRatingNotFound) {
			return nil, fmt.Errorf("failed to lock rating for user %d sport %d: %w", userID, sportID, err)
		}
		rating = models.DefaultRating(userID, sportID)
	}

	rating.MatchesPlayed++
	switch outcome {
	case OutcomeWin:
		rating.Wins++
	case OutcomeLoss:
		rating.Losses++
	case OutcomeDraw:
		// neither counter moves
	default:
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrValidationFailed, outcome)
	}

	rating.MMR += delta
	if rating.MMR < models.MMRFloor {
		rating.MMR = models.MMRFloor
	}
	rating.Level = models.LevelForMMR(rating.MMR)
	rating.WinRate = WinRate(rating.Wins, rating.MatchesPlayed)

	if err := s.ratingRepo.Upsert(ctx, exec, rating); err != nil {
		return nil, fmt.Errorf("failed to persist rating for user %d sport %d: %w", userID, sportID, err)
	}
	return rating, nil
}

// WinRate computes wins/matchesPlayed as a percentage rounded to two
// decimals, 0 when no matches were played.
func WinRate(wins, matchesPlayed int) float64 {
	if matchesPlayed == 0 {
		return 0
	}
	rate := float64(wins) / float64(matchesPlayed) * 100
	return math.Round(rate*100) / 100
}
