package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Yernar11/sportmate/matchmaking"
	"github.com/Yernar11/sportmate/models"
	"github.com/Yernar11/sportmate/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// MatchmakingService owns proposed-match state for an event: generation of
// fair pairings, host overrides, locking and court assignment. Every mutation
// re-reads current match state under a row lock and fails with a conflict
// error instead of overwriting concurrent host actions.
type MatchmakingService interface {
	CreateFairMatches(ctx context.Context, eventID int) ([]*models.ProposedMatch, error)
	ListProposedMatches(ctx context.Context, eventID int) ([]*models.ProposedMatch, error)
	// OverridePlayer swaps replacePlayerID out of a non-locked match for
	// newPlayerID, who must be checked in and not assigned elsewhere.
	OverridePlayer(ctx context.Context, eventID int, matchID string, replacePlayerID, newPlayerID int) (*models.ProposedMatch, error)
	ToggleMatchLock(ctx context.Context, eventID int, matchID string) (*models.ProposedMatch, error)
	AssignCourt(ctx context.Context, eventID int, matchID string, courtID int) (*models.ProposedMatch, error)
	// FinalizeForPair marks the proposed match holding this pair as
	// finalized once its result has been recorded. Missing pairings are not
	// an error: hosts may record results for matches arranged off-app.
	FinalizeForPair(ctx context.Context, eventID, player1ID, player2ID int) error
}

type matchmakingService struct {
	txRunner        repositories.TxRunner
	eventRepo       repositories.EventRepository
	participantRepo repositories.ParticipantRepository
	proposedRepo    repositories.ProposedMatchRepository
	courtRepo       repositories.CourtRepository
	ratings         RatingService
	pairer          matchmaking.Pairer
	logger          *slog.Logger
}

func NewMatchmakingService(
	txRunner repositories.TxRunner,
	eventRepo repositories.EventRepository,
	participantRepo repositories.ParticipantRepository,
	proposedRepo repositories.ProposedMatchRepository,
	courtRepo repositories.CourtRepository,
	ratings RatingService,
	pairer matchmaking.Pairer,
	logger *slog.Logger,
) MatchmakingService {
	return &matchmakingService{
		txRunner:        txRunner,
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		proposedRepo:    proposedRepo,
		courtRepo:       courtRepo,
		ratings:         ratings,
		pairer:          pairer,
		logger:          logger,
	}
}

func (s *matchmakingService) CreateFairMatches(ctx context.Context, eventID int) ([]*models.ProposedMatch, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}
	if event.Status != models.EventOngoing {
		return nil, ErrEventNotOngoing
	}

	checkedIn, err := s.participantRepo.ListByEventAndStatus(ctx, eventID, models.ParticipantCheckedIn)
	if err != nil {
		return nil, fmt.Errorf("failed to list checked-in participants for event %d: %w", eventID, err)
	}
	if len(checkedIn) < 2 {
		return nil, ErrNotEnoughParticipants
	}

	seeds, err := s.loadSeeds(ctx, checkedIn, event.SportID)
	if err != nil {
		return nil, err
	}

	var result []*models.ProposedMatch
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		existing, err := s.proposedRepo.ListByEvent(ctx, exec, eventID)
		if err != nil {
			return err
		}

		// Locked and finalized matches are untouched by a re-run; the
		// players they hold are excluded from the new pairing pool.
		pinned := make([]*models.ProposedMatch, 0)
		reusable := make(map[pairKey]*models.ProposedMatch)
		excluded := make(map[int]bool)
		for _, m := range existing {
			switch m.State {
			case models.MatchLocked, models.MatchFinalized:
				pinned = append(pinned, m)
				excluded[m.Player1ID] = true
				if m.Player2ID != nil {
					excluded[*m.Player2ID] = true
				}
			default:
				reusable[keyForMatch(m)] = m
			}
		}

		pool := make([]matchmaking.PlayerSeed, 0, len(seeds))
		for _, seed := range seeds {
			if !excluded[seed.UserID] {
				pool = append(pool, seed)
			}
		}

		result = append(result, pinned...)
		if len(pool) == 0 {
			return deleteAll(ctx, s.proposedRepo, exec, reusable)
		}

		pairings, err := s.pairer.GeneratePairings(ctx, matchmaking.GeneratePairingsParams{Seeds: pool})
		if err != nil {
			return fmt.Errorf("pairing generation failed for event %d: %w", eventID, err)
		}

		for _, pairing := range pairings {
			// A non-locked match whose pairing recurs keeps its identity.
			if prev, ok := reusable[keyForPairing(pairing)]; ok {
				delete(reusable, keyForPairing(pairing))
				result = append(result, prev)
				continue
			}
			match := &models.ProposedMatch{
				ID:        uuid.NewString(),
				EventID:   eventID,
				Player1ID: pairing.Player1ID,
				Player2ID: pairing.Player2ID,
				State:     models.MatchProposed,
			}
			if err := s.proposedRepo.Create(ctx, exec, match); err != nil {
				return err
			}
			result = append(result, match)
		}

		return deleteAll(ctx, s.proposedRepo, exec, reusable)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("fair matches generated",
		slog.Int("event_id", eventID),
		slog.Int("matches", len(result)),
		slog.String("pairer", s.pairer.GetName()))
	return result, nil
}

func (s *matchmakingService) ListProposedMatches(ctx context.Context, eventID int) ([]*models.ProposedMatch, error) {
	var matches []*models.ProposedMatch
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		matches, err = s.proposedRepo.ListByEvent(ctx, exec, eventID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list proposed matches for event %d: %w", eventID, err)
	}
	return matches, nil
}

func (s *matchmakingService) OverridePlayer(ctx context.Context, eventID int, matchID string, replacePlayerID, newPlayerID int) (*models.ProposedMatch, error) {
	var match *models.ProposedMatch
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.lockMatch(ctx, exec, eventID, matchID)
		if err != nil {
			return err
		}
		if match.State == models.MatchLocked {
			return ErrMatchLocked
		}
		if match.State == models.MatchFinalized {
			return ErrMatchFinalized
		}
		if !match.HasPlayer(replacePlayerID) {
			return fmt.Errorf("%w: player %d is not in match %s", ErrValidationFailed, replacePlayerID, matchID)
		}

		participant, err := s.participantRepo.FindByEventAndUser(ctx, exec, eventID, newPlayerID)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return ErrPlayerNotEligible
			}
			return err
		}
		if participant.Status != models.ParticipantCheckedIn {
			return ErrPlayerNotEligible
		}

		all, err := s.proposedRepo.ListByEvent(ctx, exec, eventID)
		if err != nil {
			return err
		}
		for _, other := range all {
			if other.ID == matchID || other.State == models.MatchFinalized || !other.HasPlayer(newPlayerID) {
				continue
			}
			// Pulling the waiting bye player into a real match consumes
			// their bye; anything else is a double assignment.
			if other.IsBye() && other.State != models.MatchLocked {
				if err := s.proposedRepo.Delete(ctx, exec, other.ID); err != nil {
					return err
				}
				continue
			}
			return ErrPlayerAlreadyAssigned
		}

		if match.Player1ID == replacePlayerID {
			match.Player1ID = newPlayerID
		} else {
			match.Player2ID = &newPlayerID
		}
		return s.proposedRepo.UpdatePlayers(ctx, exec, matchID, match.Player1ID, match.Player2ID)
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchmakingService) ToggleMatchLock(ctx context.Context, eventID int, matchID string) (*models.ProposedMatch, error) {
	var match *models.ProposedMatch
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.lockMatch(ctx, exec, eventID, matchID)
		if err != nil {
			return err
		}
		if match.State == models.MatchFinalized {
			return ErrMatchFinalized
		}

		if match.State == models.MatchLocked {
			match.State = models.MatchProposed
		} else {
			match.State = models.MatchLocked
		}
		return s.proposedRepo.UpdateState(ctx, exec, matchID, match.State)
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchmakingService) AssignCourt(ctx context.Context, eventID int, matchID string, courtID int) (*models.ProposedMatch, error) {
	court, err := s.courtRepo.GetByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to load court %d: %w", courtID, err)
	}
	if !court.Active {
		return nil, fmt.Errorf("%w: court %d is inactive", ErrValidationFailed, courtID)
	}

	var match *models.ProposedMatch
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.lockMatch(ctx, exec, eventID, matchID)
		if err != nil {
			return err
		}
		if match.State == models.MatchFinalized {
			return ErrMatchFinalized
		}

		occupied, err := s.proposedRepo.CourtOccupied(ctx, exec, courtID, matchID)
		if err != nil {
			return err
		}
		if occupied {
			return ErrCourtOccupied
		}

		match.CourtID = &courtID
		return s.proposedRepo.UpdateCourt(ctx, exec, matchID, match.CourtID)
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchmakingService) FinalizeForPair(ctx context.Context, eventID, player1ID, player2ID int) error {
	return s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		matches, err := s.proposedRepo.ListByEvent(ctx, exec, eventID)
		if err != nil {
			return err
		}
		for _, m := range matches {
			if m.State == models.MatchFinalized || m.IsBye() {
				continue
			}
			if m.HasPlayer(player1ID) && m.HasPlayer(player2ID) {
				return s.proposedRepo.UpdateState(ctx, exec, m.ID, models.MatchFinalized)
			}
		}
		return nil
	})
}

// loadSeeds resolves current ratings for all checked-in participants. Reads
// are independent so they run concurrently.
func (s *matchmakingService) loadSeeds(ctx context.Context, participants []*models.EventParticipant, sportID int) ([]matchmaking.PlayerSeed, error) {
	seeds := make([]matchmaking.PlayerSeed, len(participants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, participant := range participants {
		i, participant := i, participant
		g.Go(func() error {
			rating, err := s.ratings.GetRating(gctx, participant.UserID, sportID)
			if err != nil {
				return err
			}
			seeds[i] = matchmaking.PlayerSeed{UserID: participant.UserID, MMR: rating.MMR}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return seeds, nil
}

func (s *matchmakingService) lockMatch(ctx context.Context, exec repositories.SQLExecutor, eventID int, matchID string) (*models.ProposedMatch, error) {
	match, err := s.proposedRepo.GetForUpdate(ctx, exec, eventID, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrProposedMatchNotFound) {
			return nil, ErrProposedMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

type pairKey struct {
	low, high int
	bye       bool
}

func keyForMatch(m *models.ProposedMatch) pairKey {
	if m.Player2ID == nil {
		return pairKey{low: m.Player1ID, bye: true}
	}
	return keyForPair(m.Player1ID, *m.Player2ID)
}

func keyForPairing(p matchmaking.Pairing) pairKey {
	if p.Player2ID == nil {
		return pairKey{low: p.Player1ID, bye: true}
	}
	return keyForPair(p.Player1ID, *p.Player2ID)
}

func keyForPair(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{low: a, high: b}
}

func deleteAll(ctx context.Context, repo repositories.ProposedMatchRepository, exec repositories.SQLExecutor, stale map[pairKey]*models.ProposedMatch) error {
	for _, m := range stale {
		if err := repo.Delete(ctx, exec, m.ID); err != nil {
			return err
		}
	}
	return nil
}
