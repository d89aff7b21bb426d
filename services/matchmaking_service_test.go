package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Yernar11/sportmate/matchmaking"
	"github.com/Yernar11/sportmate/models"
	"github.com/Yernar11/sportmate/repositories"
)

type matchmakingFixture struct {
	svc          MatchmakingService
	events       *fakeEventRepo
	participants *fakeParticipantRepo
	proposed     *fakeProposedMatchRepo
	courts       *fakeCourtRepo
}

// newMatchmakingFixture seeds one ongoing event with five checked-in players
// whose MMRs descend with their user ids: 1800, 1600, 1500, 1200, 1000.
func newMatchmakingFixture(t *testing.T) *matchmakingFixture {
	t.Helper()
	events := newFakeEventRepo(&models.Event{
		ID: 1, SportID: 1, HostID: 10, Title: "open play", Status: models.EventOngoing,
	})
	participants := newFakeParticipantRepo(
		&models.EventParticipant{ID: 1, EventID: 1, UserID: 1, Status: models.ParticipantCheckedIn},
		&models.EventParticipant{ID: 2, EventID: 1, UserID: 2, Status: models.ParticipantCheckedIn},
		&models.EventParticipant{ID: 3, EventID: 1, UserID: 3, Status: models.ParticipantCheckedIn},
		&models.EventParticipant{ID: 4, EventID: 1, UserID: 4, Status: models.ParticipantCheckedIn},
		&models.EventParticipant{ID: 5, EventID: 1, UserID: 5, Status: models.ParticipantCheckedIn},
	)
	ratings := newFakeRatingRepo(
		&models.UserSportRating{UserID: 1, SportID: 1, MMR: 1800, Level: 5},
		&models.UserSportRating{UserID: 2, SportID: 1, MMR: 1600, Level: 4},
		&models.UserSportRating{UserID: 3, SportID: 1, MMR: 1500, Level: 3},
		&models.UserSportRating{UserID: 4, SportID: 1, MMR: 1200, Level: 2},
		&models.UserSportRating{UserID: 5, SportID: 1, MMR: 1000, Level: 1},
	)
	proposed := newFakeProposedMatchRepo()
	courts := newFakeCourtRepo(
		&models.Court{ID: 1, Label: "Court A", Active: true},
		&models.Court{ID: 2, Label: "Court B", Active: true},
		&models.Court{ID: 3, Label: "Storage", Active: false},
	)

	svc := NewMatchmakingService(
		fakeTxRunner{},
		events,
		participants,
		proposed,
		courts,
		NewRatingService(ratings),
		matchmaking.NewAdjacentPairer(),
		testLogger(),
	)
	return &matchmakingFixture{
		svc:          svc,
		events:       events,
		participants: participants,
		proposed:     proposed,
		courts:       courts,
	}
}

func findMatchWithPlayers(matches []*models.ProposedMatch, a, b int) *models.ProposedMatch {
	for _, m := range matches {
		if m.HasPlayer(a) && (b == 0 && m.IsBye() || b != 0 && m.HasPlayer(b)) {
			return m
		}
	}
	return nil
}

func TestMatchmaking_CreateFairMatches(t *testing.T) {
	f := newMatchmakingFixture(t)

	matches, err := f.svc.CreateFairMatches(context.Background(), 1)
	if err != nil {
		t.Fatalf("CreateFairMatches() error: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}

	if findMatchWithPlayers(matches, 1, 2) == nil {
		t.Error("top two seeds (1800, 1600) should be paired")
	}
	if findMatchWithPlayers(matches, 3, 4) == nil {
		t.Error("middle seeds (1500, 1200) should be paired")
	}
	bye := findMatchWithPlayers(matches, 5, 0)
	if bye == nil {
		t.Fatal("lowest seed (1000) should get the bye")
	}
	if !bye.IsBye() {
		t.Error("odd player out should have no opponent")
	}
}

func TestMatchmaking_NoPlayerAssignedTwice(t *testing.T) {
	f := newMatchmakingFixture(t)

	matches, err := f.svc.CreateFairMatches(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[int]bool)
	for _, m := range matches {
		if seen[m.Player1ID] {
			t.Errorf("player %d assigned twice", m.Player1ID)
		}
		seen[m.Player1ID] = true
		if m.Player2ID != nil {
			if seen[*m.Player2ID] {
				t.Errorf("player %d assigned twice", *m.Player2ID)
			}
			seen[*m.Player2ID] = true
		}
	}
}

func TestMatchmaking_RequiresOngoingEvent(t *testing.T) {
	f := newMatchmakingFixture(t)
	f.events.events[1].Status = models.EventPublished

	if _, err := f.svc.CreateFairMatches(context.Background(), 1); !errors.Is(err, ErrEventNotOngoing) {
		t.Errorf("got %v, want ErrEventNotOngoing", err)
	}
}

func TestMatchmaking_RequiresTwoCheckedIn(t *testing.T) {
	f := newMatchmakingFixture(t)
	for _, p := range f.participants.participants[1:] {
		p.Status = models.ParticipantNoShow
	}

	if _, err := f.svc.CreateFairMatches(context.Background(), 1); !errors.Is(err, ErrNotEnoughParticipants) {
		t.Errorf("got %v, want ErrNotEnoughParticipants", err)
	}
}

func TestMatchmaking_RerunPreservesLockedMatches(t *testing.T) {
	f := newMatchmakingFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	target := findMatchWithPlayers(first, 1, 2)
	if target == nil {
		t.Fatal("expected the (1, 2) pairing")
	}
	if _, err := f.svc.ToggleMatchLock(ctx, 1, target.ID); err != nil {
		t.Fatal(err)
	}

	second, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}

	kept := findMatchWithPlayers(second, 1, 2)
	if kept == nil {
		t.Fatal("locked pairing disappeared on re-run")
	}
	if kept.ID != target.ID {
		t.Errorf("locked match changed identity: %s -> %s", target.ID, kept.ID)
	}
	if kept.State != models.MatchLocked {
		t.Errorf("locked match state = %q, want locked", kept.State)
	}

	// Locked players are excluded from the new pool, so nobody from the
	// locked match may appear elsewhere.
	for _, m := range second {
		if m.ID == kept.ID {
			continue
		}
		if m.HasPlayer(1) || m.HasPlayer(2) {
			t.Errorf("locked player reassigned in match %s", m.ID)
		}
	}
}

func TestMatchmaking_RerunKeepsIdentityOfRecurringPairings(t *testing.T) {
	f := newMatchmakingFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}

	// Same pool twice: the pairings recur, so each keeps its id.
	firstIDs := make(map[string]bool, len(first))
	for _, m := range first {
		firstIDs[m.ID] = true
	}
	for _, m := range second {
		if !firstIDs[m.ID] {
			t.Errorf("match %s gained a new identity on an identical re-run", m.ID)
		}
	}
}

func TestMatchmaking_OverridePlayer(t *testing.T) {
	f := newMatchmakingFixture(t)
	ctx := context.Background()

	matches, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	target := findMatchWithPlayers(matches, 3, 4)
	bye := findMatchWithPlayers(matches, 5, 0)
	if target == nil || bye == nil {
		t.Fatal("fixture pairings missing")
	}

	// The waiting bye player can replace player 4; their bye is consumed.
	updated, err := f.svc.OverridePlayer(ctx, 1, target.ID, 4, 5)
	if err != nil {
		t.Fatalf("OverridePlayer() error: %v", err)
	}
	if !updated.HasPlayer(5) || updated.HasPlayer(4) {
		t.Errorf("override result has players (%d, %v), want 3 and 5", updated.Player1ID, updated.Player2ID)
	}

	if _, err := f.proposed.GetForUpdate(ctx, nil, 1, bye.ID); !errors.Is(err, repositories.ErrProposedMatchNotFound) {
		t.Errorf("bye match should be deleted after its player was pulled in, got %v", err)
	}
}

func TestMatchmaking_OverrideRejectsAssignedPlayer(t *testing.T) {
	f := newMatchmakingFixture(t)
	ctx := context.Background()

	matches, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	target := findMatchWithPlayers(matches, 3, 4)

	// Player 1 already sits in the (1, 2) match.
	if _, err := f.svc.OverridePlayer(ctx, 1, target.ID, 4, 1); !errors.Is(err, ErrPlayerAlreadyAssigned) {
		t.Errorf("got %v, want ErrPlayerAlreadyAssigned", err)
	}
}

func TestMatchmaking_OverrideRejectsNotCheckedIn(t *testing.T) {
	f := newMatchmakingFixture(t)
	ctx := context.Background()

	matches, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	target := findMatchWithPlayers(matches, 1, 2)

	if _, err := f.svc.OverridePlayer(ctx, 1, target.ID, 2, 42); !errors.Is(err, ErrPlayerNotEligible) {
		t.Errorf("got %v, want ErrPlayerNotEligible", err)
	}
}

func TestMatchmaking_OverrideRejectsLockedMatch(t *testing.T) {
	f := newMatchmakingFixture(t)
	ctx := context.Background()

	matches, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	target := findMatchWithPlayers(matches, 1, 2)
	if _, err := f.svc.ToggleMatchLock(ctx, 1, target.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.OverridePlayer(ctx, 1, target.ID, 2, 5); !errors.Is(err, ErrMatchLocked) {
		t.Errorf("got %v, want ErrMatchLocked", err)
	}
}

func TestMatchmaking_ToggleLockRoundTrips(t *testing.T) {
	f := newMatchmakingFixture(t)
	ctx := context.Background()

	matches, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	target := findMatchWithPlayers(matches, 1, 2)

	locked, err := f.svc.ToggleMatchLock(ctx, 1, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if locked.State != models.MatchLocked {
		t.Errorf("state = %q, want locked", locked.State)
	}

	unlocked, err := f.svc.ToggleMatchLock(ctx, 1, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if unlocked.State != models.MatchProposed {
		t.Errorf("state = %q, want proposed after second toggle", unlocked.State)
	}
}

func TestMatchmaking_AssignCourt(t *testing.T) {
	f := newMatchmakingFixture(t)
	ctx := context.Background()

	matches, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	first := findMatchWithPlayers(matches, 1, 2)
	second := findMatchWithPlayers(matches, 3, 4)

	assigned, err := f.svc.AssignCourt(ctx, 1, first.ID, 1)
	if err != nil {
		t.Fatalf("AssignCourt() error: %v", err)
	}
	if assigned.CourtID == nil || *assigned.CourtID != 1 {
		t.Errorf("court = %v, want 1", assigned.CourtID)
	}

	// Another active match cannot take the same court.
	if _, err := f.svc.AssignCourt(ctx, 1, second.ID, 1); !errors.Is(err, ErrCourtOccupied) {
		t.Errorf("got %v, want ErrCourtOccupied", err)
	}

	// A different court is fine.
	if _, err := f.svc.AssignCourt(ctx, 1, second.ID, 2); err != nil {
		t.Errorf("assigning a free court failed: %v", err)
	}
}

func TestMatchmaking_AssignCourtRejectsInactive(t *testing.T) {
	f := newMatchmakingFixture(t)
	ctx := context.Background()

	matches, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	target := findMatchWithPlayers(matches, 1, 2)

	if _, err := f.svc.AssignCourt(ctx, 1, target.ID, 3); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("got %v, want ErrValidationFailed for an inactive court", err)
	}
	if _, err := f.svc.AssignCourt(ctx, 1, target.ID, 99); !errors.Is(err, ErrCourtNotFound) {
		t.Errorf("got %v, want ErrCourtNotFound", err)
	}
}

func TestMatchmaking_FinalizeForPairFreesCourt(t *testing.T) {
	f := newMatchmakingFixture(t)
	ctx := context.Background()

	matches, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	first := findMatchWithPlayers(matches, 1, 2)
	second := findMatchWithPlayers(matches, 3, 4)

	if _, err := f.svc.AssignCourt(ctx, 1, first.ID, 1); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.FinalizeForPair(ctx, 1, 2, 1); err != nil {
		t.Fatal(err)
	}

	stored, err := f.proposed.GetForUpdate(ctx, nil, 1, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.State != models.MatchFinalized {
		t.Errorf("state = %q, want finalized", stored.State)
	}

	// Finalized matches no longer occupy their court.
	if _, err := f.svc.AssignCourt(ctx, 1, second.ID, 1); err != nil {
		t.Errorf("court should be free after finalization, got %v", err)
	}
}

func TestMatchmaking_FinalizeUnknownPairIsNoop(t *testing.T) {
	f := newMatchmakingFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateFairMatches(ctx, 1); err != nil {
		t.Fatal(err)
	}
	// Hosts may record results for pairs never proposed in-app.
	if err := f.svc.FinalizeForPair(ctx, 1, 1, 4); err != nil {
		t.Errorf("unknown pair should not error: %v", err)
	}
}

func TestMatchmaking_FinalizedMatchRejectsMutation(t *testing.T) {
	f := newMatchmakingFixture(t)
	ctx := context.Background()

	matches, err := f.svc.CreateFairMatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	target := findMatchWithPlayers(matches, 1, 2)
	if err := f.svc.FinalizeForPair(ctx, 1, 1, 2); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.ToggleMatchLock(ctx, 1, target.ID); !errors.Is(err, ErrMatchFinalized) {
		t.Errorf("lock: got %v, want ErrMatchFinalized", err)
	}
	if _, err := f.svc.OverridePlayer(ctx, 1, target.ID, 1, 5); !errors.Is(err, ErrMatchFinalized) {
		t.Errorf("override: got %v, want ErrMatchFinalized", err)
	}
	if _, err := f.svc.AssignCourt(ctx, 1, target.ID, 1); !errors.Is(err, ErrMatchFinalized) {
		t.Errorf("court: got %v, want ErrMatchFinalized", err)
	}
}
