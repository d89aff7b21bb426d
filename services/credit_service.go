package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Yernar11/sportmate/config"
	"github.com/Yernar11/sportmate/models"
	"github.com/Yernar11/sportmate/repositories"
)

// CreditService maintains the append-only reputation ledger. Appends for one
// user are serialized behind a row lock on the user, so concurrent
// adjustments never read the same stale score.
type CreditService interface {
	// ApplyAdjustment is the single write path: reads the current score under
	// the user lock, clamps old+rawChange into [0,100] and appends one
	// immutable entry.
	ApplyAdjustment(ctx context.Context, input ApplyAdjustmentInput) (*models.CreditScoreLog, error)
	// ApplyManualAdjustment is the admin path; the amount is bounded by the
	// configured per-adjustment maximum.
	ApplyManualAdjustment(ctx context.Context, userID, adminID, amount int, description string) (*models.CreditScoreLog, error)
	ApplyCancellationPenalty(ctx context.Context, userID, eventID int, hoursBefore int) (*models.CreditScoreLog, error)
	ApplyNoShowPenalty(ctx context.Context, userID, eventID, reportedBy int) (*models.CreditScoreLog, error)
	// ApplyCompletionBonus credits attendance and, when it closes a
	// configured streak of consecutive completions, appends the streak bonus
	// in the same transaction.
	ApplyCompletionBonus(ctx context.Context, userID, eventID int) (*models.CreditScoreLog, error)
	ApplyGoodRatingBonus(ctx context.Context, userID int, eventID *int) (*models.CreditScoreLog, error)

	CurrentScore(ctx context.Context, userID int) (int, error)
	GetRestrictions(ctx context.Context, userID int) (*models.RestrictionSet, error)
	History(ctx context.Context, userID, limit, offset int) ([]*models.CreditScoreLog, error)
}

type ApplyAdjustmentInput struct {
	UserID      int
	EventID     *int
	Type        models.CreditChangeType
	RawChange   int
	Description string
	Metadata    json.RawMessage
}

type creditService struct {
	txRunner   repositories.TxRunner
	userRepo   repositories.UserRepository
	ledgerRepo repositories.CreditLogRepository
	cfg        config.CreditConfig
	logger     *slog.Logger
}

func NewCreditService(
	txRunner repositories.TxRunner,
	userRepo repositories.UserRepository,
	ledgerRepo repositories.CreditLogRepository,
	cfg config.CreditConfig,
	logger *slog.Logger,
) CreditService {
	return &creditService{
		txRunner:   txRunner,
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *creditService) ApplyAdjustment(ctx context.Context, input ApplyAdjustmentInput) (*models.CreditScoreLog, error) {
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCreditType, input.Type)
	}

	var entry *models.CreditScoreLog
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		entry, err = s.appendLocked(ctx, exec, input)
		if err != nil {
			return err
		}

		if input.Type == models.CreditEventCompletionBonus {
			return s.maybeApplyStreakBonus(ctx, exec, input.UserID, input.EventID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credit adjustment applied",
		slog.Int("user_id", input.UserID),
		slog.String("type", string(input.Type)),
		slog.Int("change", entry.ChangeAmount),
		slog.Int("new_score", entry.NewScore))
	return entry, nil
}

// appendLocked performs the read-compute-append cycle under the per-user
// row lock. Must run inside a transaction.
func (s *creditService) appendLocked(ctx context.Context, exec repositories.SQLExecutor, input ApplyAdjustmentInput) (*models.CreditScoreLog, error) {
	if err := s.userRepo.LockForUpdate(ctx, exec, input.UserID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	latest, err := s.ledgerRepo.GetLatest(ctx, exec, input.UserID)
	if err != nil {
		return nil, err
	}
	oldScore := models.CreditScoreDefault
	if latest != nil {
		oldScore = latest.NewScore
	}

	entry := &models.CreditScoreLog{
		UserID:       input.UserID,
		EventID:      input.EventID,
		Type:         input.Type,
		OldScore:     oldScore,
		NewScore:     models.ClampCreditScore(oldScore + input.RawChange),
		ChangeAmount: input.RawChange,
		Description:  input.Description,
		Metadata:     input.Metadata,
	}
	if err := s.ledgerRepo.Append(ctx, exec, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *creditService) maybeApplyStreakBonus(ctx context.Context, exec repositories.SQLExecutor, userID int, eventID *int) error {
	if s.cfg.ConsecutiveStreak <= 0 {
		return nil
	}
	count, err := s.ledgerRepo.CountTrailingCompletions(ctx, exec, userID)
	if err != nil {
		return err
	}
	if count == 0 || count%s.cfg.ConsecutiveStreak != 0 {
		return nil
	}

	_, err = s.appendLocked(ctx, exec, ApplyAdjustmentInput{
		UserID:      userID,
		EventID:     eventID,
		Type:        models.CreditConsecutiveBonus,
		RawChange:   s.cfg.ConsecutiveBonus,
		Description: fmt.Sprintf("completed %d consecutive events", count),
	})
	return err
}

func (s *creditService) ApplyManualAdjustment(ctx context.Context, userID, adminID, amount int, description string) (*models.CreditScoreLog, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: adjustment amount must be non-zero", ErrValidationFailed)
	}
	if amount > s.cfg.AdminAdjustmentMax || amount < -s.cfg.AdminAdjustmentMax {
		return nil, ErrAdjustmentOutOfBounds
	}

	changeType := models.CreditBonus
	if amount < 0 {
		changeType = models.CreditPenalty
	}
	metadata, _ := json.Marshal(map[string]int{"adjusted_by": adminID})

	return s.ApplyAdjustment(ctx, ApplyAdjustmentInput{
		UserID:      userID,
		Type:        changeType,
		RawChange:   amount,
		Description: description,
		Metadata:    metadata,
	})
}

func (s *creditService) ApplyCancellationPenalty(ctx context.Context, userID, eventID int, hoursBefore int) (*models.CreditScoreLog, error) {
	metadata, _ := json.Marshal(map[string]int{"cancellation_hours_before": hoursBefore})

	return s.ApplyAdjustment(ctx, ApplyAdjustmentInput{
		UserID:      userID,
		EventID:     &eventID,
		Type:        models.CreditCancellationPenalty,
		RawChange:   s.cancellationAmount(hoursBefore),
		Description: fmt.Sprintf("cancelled participation %d hours before start", hoursBefore),
		Metadata:    metadata,
	})
}

// cancellationAmount scales linearly from the early penalty at the cutoff
// down to the full late penalty at zero hours before start.
func (s *creditService) cancellationAmount(hoursBefore int) int {
	if hoursBefore < 0 {
		hoursBefore = 0
	}
	if hoursBefore >= s.cfg.CancelCutoffHours {
		return s.cfg.EarlyCancelPenalty
	}
	early, late, cutoff := s.cfg.EarlyCancelPenalty, s.cfg.LateCancelPenalty, s.cfg.CancelCutoffHours
	return early + (late-early)*(cutoff-hoursBefore)/cutoff
}

func (s *creditService) ApplyNoShowPenalty(ctx context.Context, userID, eventID, reportedBy int) (*models.CreditScoreLog, error) {
	metadata, _ := json.Marshal(map[string]int{"reported_by": reportedBy})

	return s.ApplyAdjustment(ctx, ApplyAdjustmentInput{
		UserID:      userID,
		EventID:     &eventID,
		Type:        models.CreditNoShowPenalty,
		RawChange:   s.cfg.NoShowPenalty,
		Description: "did not show up for the event",
		Metadata:    metadata,
	})
}

func (s *creditService) ApplyCompletionBonus(ctx context.Context, userID, eventID int) (*models.CreditScoreLog, error) {
	return s.ApplyAdjustment(ctx, ApplyAdjustmentInput{
		UserID:      userID,
		EventID:     &eventID,
		Type:        models.CreditEventCompletionBonus,
		RawChange:   s.cfg.CompletionBonus,
		Description: "attended a completed event",
	})
}

func (s *creditService) ApplyGoodRatingBonus(ctx context.Context, userID int, eventID *int) (*models.CreditScoreLog, error) {
	return s.ApplyAdjustment(ctx, ApplyAdjustmentInput{
		UserID:      userID,
		EventID:     eventID,
		Type:        models.CreditGoodRatingBonus,
		RawChange:   s.cfg.GoodRatingBonus,
		Description: "received a good rating",
	})
}

func (s *creditService) CurrentScore(ctx context.Context, userID int) (int, error) {
	score := models.CreditScoreDefault
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		latest, err := s.ledgerRepo.GetLatest(ctx, exec, userID)
		if err != nil {
			return err
		}
		if latest != nil {
			score = latest.NewScore
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read current score for user %d: %w", userID, err)
	}
	return score, nil
}

// GetRestrictions is a pure function of the current score; the thresholds
// come from configuration.
func (s *creditService) GetRestrictions(ctx context.Context, userID int) (*models.RestrictionSet, error) {
	score, err := s.CurrentScore(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.RestrictionSet{
		Score:                score,
		CanCreateEvents:      score >= s.cfg.MinScoreToCreateEvents,
		RequiresJoinApproval: score < s.cfg.MinScoreToJoinFreely,
	}, nil
}

func (s *creditService) History(ctx context.Context, userID, limit, offset int) ([]*models.CreditScoreLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.ledgerRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit history for user %d: %w", userID, err)
	}
	return entries, nil
}
