package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yernar11/sportmate/config"
	"github.com/Yernar11/sportmate/matchmaking"
	"github.com/Yernar11/sportmate/models"
	"github.com/Yernar11/sportmate/repositories"
)

// MatchService is the match recorder: one transaction covers both rating
// updates and the immutable history insert, so no partial match record with
// stale ratings is ever observable.
type MatchService interface {
	RecordMatch(ctx context.Context, input RecordMatchInput) (*models.MatchHistory, error)
	GetMatch(ctx context.Context, id int) (*models.MatchHistory, error)
	ListEventMatches(ctx context.Context, eventID int) ([]*models.MatchHistory, error)
}

type RecordMatchInput struct {
	EventID          int                `json:"event_id"`
	Player1ID        int                `json:"player1_id"`
	Player2ID        int                `json:"player2_id"`
	Result           models.MatchResult `json:"result"`
	MatchScore       []models.SetScore  `json:"match_score"`
	RecordedByHostID int                `json:"-"`
	MatchDate        time.Time          `json:"match_date"`
}

type matchService struct {
	txRunner    repositories.TxRunner
	eventRepo   repositories.EventRepository
	historyRepo repositories.MatchHistoryRepository
	ratingRepo  repositories.RatingRepository
	ratings     RatingService
	delta       matchmaking.DeltaPolicy
}

func NewMatchService(
	txRunner repositories.TxRunner,
	eventRepo repositories.EventRepository,
	historyRepo repositories.MatchHistoryRepository,
	ratingRepo repositories.RatingRepository,
	ratings RatingService,
	cfg config.MatchmakingConfig,
) MatchService {
	return &matchService{
		txRunner:    txRunner,
		eventRepo:   eventRepo,
		historyRepo: historyRepo,
		ratingRepo:  ratingRepo,
		ratings:     ratings,
		delta: matchmaking.DeltaPolicy{
			Base:  cfg.BaseDelta,
			Min:   cfg.MinDelta,
			Max:   cfg.MaxDelta,
			Scale: cfg.DeltaScale,
		},
	}
}

func (s *matchService) RecordMatch(ctx context.Context, input RecordMatchInput) (*models.MatchHistory, error) {
	if !input.Result.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMatchResult, input.Result)
	}
	if input.Player1ID == input.Player2ID {
		return nil, ErrSamePlayer
	}

	event, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", input.EventID, err)
	}
	if event.Status != models.EventOngoing {
		return nil, ErrEventNotOngoing
	}

	matchDate := input.MatchDate
	if matchDate.IsZero() {
		matchDate = time.Now()
	}

	record := &models.MatchHistory{
		EventID:          event.ID,
		Player1ID:        input.Player1ID,
		Player2ID:        input.Player2ID,
		SportID:          event.SportID,
		Result:           input.Result,
		MatchScore:       input.MatchScore,
		RecordedByHostID: input.RecordedByHostID,
		MatchDate:        matchDate,
	}

	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		exists, err := s.historyRepo.ExistsForPair(ctx, exec, event.ID, input.Player1ID, input.Player2ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrMatchAlreadyRecorded
		}

		// Ratings are locked in ascending user id order so two concurrent
		// recordings touching the same players cannot deadlock.
		before1, err := s.snapshotRating(ctx, exec, minInt(input.Player1ID, input.Player2ID), event.SportID)
		if err != nil {
			return err
		}
		before2, err := s.snapshotRating(ctx, exec, maxInt(input.Player1ID, input.Player2ID), event.SportID)
		if err != nil {
			return err
		}
		if before1.UserID != input.Player1ID {
			before1, before2 = before2, before1
		}

		delta1, delta2 := s.deltas(input.Result, before1.MMR, before2.MMR)
		record.Player1MMRBefore = before1.MMR
		record.Player2MMRBefore = before2.MMR

		after1, err := s.ratings.ApplyResult(ctx, exec, input.Player1ID, event.SportID, delta1, outcomeFor(input.Result, true))
		if err != nil {
			return err
		}
		after2, err := s.ratings.ApplyResult(ctx, exec, input.Player2ID, event.SportID, delta2, outcomeFor(input.Result, false))
		if err != nil {
			return err
		}
		record.Player1MMRAfter = after1.MMR
		record.Player2MMRAfter = after2.MMR

		return s.historyRepo.Create(ctx, exec, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.MatchHistory, error) {
	record, err := s.historyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchHistoryNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", id, err)
	}
	return record, nil
}

func (s *matchService) ListEventMatches(ctx context.Context, eventID int) ([]*models.MatchHistory, error) {
	records, err := s.historyRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for event %d: %w", eventID, err)
	}
	return records, nil
}

// snapshotRating reads the rating under the transaction's lock, falling back
// to the default aggregate when the player has no row yet.
func (s *matchService) snapshotRating(ctx context.Context, exec repositories.SQLExecutor, userID, sportID int) (*models.UserSportRating, error) {
	rating, err := s.ratingRepo.GetForUpdate(ctx, exec, userID, sportID)
	if err != nil {
		if errors.Is(err, repositories.ErrRatingNotFound) {
			return models.DefaultRating(userID, sportID), nil
		}
		return nil, fmt.Errorf("failed to lock rating for user %d sport %d: %w", userID, sportID, err)
	}
	return rating, nil
}

// deltas returns the signed MMR change for player1 and player2. The exchange
// is zero-sum for decided results and zero for draws.
func (s *matchService) deltas(result models.MatchResult, mmr1, mmr2 int) (int, int) {
	switch result {
	case models.ResultPlayer1Win:
		k := s.delta.Exchange(mmr1, mmr2)
		return k, -k
	case models.ResultPlayer2Win:
		k := s.delta.Exchange(mmr2, mmr1)
		return -k, k
	default:
		return 0, 0
	}
}

func outcomeFor(result models.MatchResult, isPlayer1 bool) PlayerOutcome {
	switch result {
	case models.ResultDraw:
		return OutcomeDraw
	case models.ResultPlayer1Win:
		if isPlayer1 {
			return OutcomeWin
		}
		return OutcomeLoss
	default: // player2_win
		if isPlayer1 {
			return OutcomeLoss
		}
		return OutcomeWin
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
