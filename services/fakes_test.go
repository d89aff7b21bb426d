package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/Yernar11/sportmate/models"
	"github.com/Yernar11/sportmate/repositories"
)

// In-memory repository fakes backing the service tests. They honour the same
// sentinel errors as the postgres implementations so errors.Is checks in the
// services behave identically.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
	for _, u := range users {
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) LockForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	return nil
}

type ratingKey struct {
	userID, sportID int
}

type fakeRatingRepo struct {
	ratings map[ratingKey]*models.UserSportRating
	nextID  int
}

func newFakeRatingRepo(ratings ...*models.UserSportRating) *fakeRatingRepo {
	r := &fakeRatingRepo{ratings: make(map[ratingKey]*models.UserSportRating), nextID: 1}
	for _, rating := range ratings {
		rating.ID = r.nextID
		r.nextID++
		r.ratings[ratingKey{rating.UserID, rating.SportID}] = rating
	}
	return r
}

func (r *fakeRatingRepo) Get(ctx context.Context, userID, sportID int) (*models.UserSportRating, error) {
	rating, ok := r.ratings[ratingKey{userID, sportID}]
	if !ok {
		return nil, repositories.ErrRatingNotFound
	}
	copied := *rating
	return &copied, nil
}

func (r *fakeRatingRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, userID, sportID int) (*models.UserSportRating, error) {
	return r.Get(ctx, userID, sportID)
}

func (r *fakeRatingRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, rating *models.UserSportRating) error {
	key := ratingKey{rating.UserID, rating.SportID}
	if existing, ok := r.ratings[key]; ok {
		rating.ID = existing.ID
	} else {
		rating.ID = r.nextID
		r.nextID++
	}
	rating.UpdatedAt = time.Now()
	copied := *rating
	r.ratings[key] = &copied
	return nil
}

func (r *fakeRatingRepo) ListByUser(ctx context.Context, userID int) ([]*models.UserSportRating, error) {
	out := make([]*models.UserSportRating, 0)
	for _, rating := range r.ratings {
		if rating.UserID == userID {
			copied := *rating
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SportID < out[j].SportID })
	return out, nil
}

type fakeCreditLogRepo struct {
	entries map[int][]*models.CreditScoreLog
	nextID  int
}

func newFakeCreditLogRepo() *fakeCreditLogRepo {
	return &fakeCreditLogRepo{entries: make(map[int][]*models.CreditScoreLog), nextID: 1}
}

func (r *fakeCreditLogRepo) Append(ctx context.Context, exec repositories.SQLExecutor, entry *models.CreditScoreLog) error {
	entry.ID = r.nextID
	r.nextID++
	entry.CreatedAt = time.Now()
	copied := *entry
	r.entries[entry.UserID] = append(r.entries[entry.UserID], &copied)
	return nil
}

func (r *fakeCreditLogRepo) GetLatest(ctx context.Context, exec repositories.SQLExecutor, userID int) (*models.CreditScoreLog, error) {
	logs := r.entries[userID]
	if len(logs) == 0 {
		return nil, nil
	}
	copied := *logs[len(logs)-1]
	return &copied, nil
}

func (r *fakeCreditLogRepo) ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.CreditScoreLog, error) {
	logs := r.entries[userID]
	out := make([]*models.CreditScoreLog, 0)
	for i := len(logs) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		copied := *logs[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeCreditLogRepo) CountTrailingCompletions(ctx context.Context, exec repositories.SQLExecutor, userID int) (int, error) {
	logs := r.entries[userID]
	count := 0
	for i := len(logs) - 1; i >= 0; i-- {
		switch logs[i].Type {
		case models.CreditEventCompletionBonus:
			count++
		case models.CreditConsecutiveBonus:
			// does not break the streak
		default:
			return count, nil
		}
	}
	return count, nil
}

type fakeSportRepo struct {
	sports map[int]*models.Sport
}

func newFakeSportRepo(sports ...*models.Sport) *fakeSportRepo {
	r := &fakeSportRepo{sports: make(map[int]*models.Sport)}
	for _, s := range sports {
		r.sports[s.ID] = s
	}
	return r
}

func (r *fakeSportRepo) GetByID(ctx context.Context, id int) (*models.Sport, error) {
	sport, ok := r.sports[id]
	if !ok {
		return nil, repositories.ErrSportNotFound
	}
	copied := *sport
	return &copied, nil
}

func (r *fakeSportRepo) GetByCode(ctx context.Context, code string) (*models.Sport, error) {
	for _, sport := range r.sports {
		if sport.Code == code {
			copied := *sport
			return &copied, nil
		}
	}
	return nil, repositories.ErrSportNotFound
}

func (r *fakeSportRepo) ListActive(ctx context.Context) ([]*models.Sport, error) {
	out := make([]*models.Sport, 0)
	for _, sport := range r.sports {
		if sport.Active {
			copied := *sport
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeEventRepo struct {
	events map[int]*models.Event
	nextID int
}

func newFakeEventRepo(events ...*models.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: make(map[int]*models.Event), nextID: 1}
	for _, e := range events {
		if e.ID >= r.nextID {
			r.nextID = e.ID + 1
		}
		r.events[e.ID] = e
	}
	return r
}

func (r *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	event.ID = r.nextID
	r.nextID++
	event.CreatedAt = time.Now()
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *fakeEventRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeEventRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.EventStatus) error {
	event, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	event.Status = status
	return nil
}

func (r *fakeEventRepo) UpdateParticipantCount(ctx context.Context, exec repositories.SQLExecutor, id int, count int) error {
	event, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	event.CurrentParticipants = count
	return nil
}

func (r *fakeEventRepo) ListByStatus(ctx context.Context, status models.EventStatus, limit, offset int) ([]*models.Event, error) {
	out := make([]*models.Event, 0)
	for _, event := range r.events {
		if status == "" || event.Status == status {
			copied := *event
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return []*models.Event{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type fakeParticipantRepo struct {
	participants []*models.EventParticipant
	nextID       int
}

func newFakeParticipantRepo(participants ...*models.EventParticipant) *fakeParticipantRepo {
	r := &fakeParticipantRepo{nextID: 1}
	for _, p := range participants {
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
		r.participants = append(r.participants, p)
	}
	return r
}

func (r *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, participant *models.EventParticipant) error {
	for _, existing := range r.participants {
		if existing.EventID == participant.EventID && existing.UserID == participant.UserID {
			return repositories.ErrParticipantConflict
		}
	}
	participant.ID = r.nextID
	r.nextID++
	participant.JoinedAt = time.Now()
	copied := *participant
	r.participants = append(r.participants, &copied)
	return nil
}

func (r *fakeParticipantRepo) FindByEventAndUser(ctx context.Context, exec repositories.SQLExecutor, eventID, userID int) (*models.EventParticipant, error) {
	for _, p := range r.participants {
		if p.EventID == eventID && p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ParticipantStatus) error {
	for _, p := range r.participants {
		if p.ID == id {
			p.Status = status
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.EventParticipant, error) {
	out := make([]*models.EventParticipant, 0)
	for _, p := range r.participants {
		if p.EventID == eventID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) ListByEventAndStatus(ctx context.Context, eventID int, status models.ParticipantStatus) ([]*models.EventParticipant, error) {
	out := make([]*models.EventParticipant, 0)
	for _, p := range r.participants {
		if p.EventID == eventID && p.Status == status {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeMatchHistoryRepo struct {
	records []*models.MatchHistory
	nextID  int
}

func newFakeMatchHistoryRepo() *fakeMatchHistoryRepo {
	return &fakeMatchHistoryRepo{nextID: 1}
}

func (r *fakeMatchHistoryRepo) Create(ctx context.Context, exec repositories.SQLExecutor, record *models.MatchHistory) error {
	record.ID = r.nextID
	r.nextID++
	record.CreatedAt = time.Now()
	copied := *record
	r.records = append(r.records, &copied)
	return nil
}

func (r *fakeMatchHistoryRepo) GetByID(ctx context.Context, id int) (*models.MatchHistory, error) {
	for _, record := range r.records {
		if record.ID == id {
			copied := *record
			return &copied, nil
		}
	}
	return nil, repositories.ErrMatchHistoryNotFound
}

func (r *fakeMatchHistoryRepo) ListByEvent(ctx context.Context, eventID int) ([]*models.MatchHistory, error) {
	out := make([]*models.MatchHistory, 0)
	for _, record := range r.records {
		if record.EventID == eventID {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeMatchHistoryRepo) ExistsForPair(ctx context.Context, exec repositories.SQLExecutor, eventID, player1ID, player2ID int) (bool, error) {
	for _, record := range r.records {
		if record.EventID != eventID {
			continue
		}
		if (record.Player1ID == player1ID && record.Player2ID == player2ID) ||
			(record.Player1ID == player2ID && record.Player2ID == player1ID) {
			return true, nil
		}
	}
	return false, nil
}

type fakeCourtRepo struct {
	courts map[int]*models.Court
}

func newFakeCourtRepo(courts ...*models.Court) *fakeCourtRepo {
	r := &fakeCourtRepo{courts: make(map[int]*models.Court)}
	for _, c := range courts {
		r.courts[c.ID] = c
	}
	return r
}

func (r *fakeCourtRepo) GetByID(ctx context.Context, id int) (*models.Court, error) {
	court, ok := r.courts[id]
	if !ok {
		return nil, repositories.ErrCourtNotFound
	}
	copied := *court
	return &copied, nil
}

func (r *fakeCourtRepo) ListActive(ctx context.Context) ([]*models.Court, error) {
	out := make([]*models.Court, 0)
	for _, court := range r.courts {
		if court.Active {
			copied := *court
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeProposedMatchRepo struct {
	matches map[string]*models.ProposedMatch
	order   []string
}

func newFakeProposedMatchRepo() *fakeProposedMatchRepo {
	return &fakeProposedMatchRepo{matches: make(map[string]*models.ProposedMatch)}
}

func (r *fakeProposedMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.ProposedMatch) error {
	match.CreatedAt = time.Now()
	match.UpdatedAt = match.CreatedAt
	copied := *match
	r.matches[match.ID] = &copied
	r.order = append(r.order, match.ID)
	return nil
}

func (r *fakeProposedMatchRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, eventID int, matchID string) (*models.ProposedMatch, error) {
	match, ok := r.matches[matchID]
	if !ok || match.EventID != eventID {
		return nil, repositories.ErrProposedMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *fakeProposedMatchRepo) ListByEvent(ctx context.Context, exec repositories.SQLExecutor, eventID int) ([]*models.ProposedMatch, error) {
	out := make([]*models.ProposedMatch, 0)
	for _, id := range r.order {
		match, ok := r.matches[id]
		if !ok || match.EventID != eventID {
			continue
		}
		copied := *match
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeProposedMatchRepo) UpdatePlayers(ctx context.Context, exec repositories.SQLExecutor, matchID string, player1ID int, player2ID *int) error {
	match, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrProposedMatchNotFound
	}
	match.Player1ID = player1ID
	match.Player2ID = player2ID
	match.UpdatedAt = time.Now()
	return nil
}

func (r *fakeProposedMatchRepo) UpdateState(ctx context.Context, exec repositories.SQLExecutor, matchID string, state models.ProposedMatchState) error {
	match, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrProposedMatchNotFound
	}
	match.State = state
	match.UpdatedAt = time.Now()
	return nil
}

func (r *fakeProposedMatchRepo) UpdateCourt(ctx context.Context, exec repositories.SQLExecutor, matchID string, courtID *int) error {
	match, ok := r.matches[matchID]
	if !ok {
		return repositories.ErrProposedMatchNotFound
	}
	match.CourtID = courtID
	match.UpdatedAt = time.Now()
	return nil
}

func (r *fakeProposedMatchRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, matchID string) error {
	if _, ok := r.matches[matchID]; !ok {
		return repositories.ErrProposedMatchNotFound
	}
	delete(r.matches, matchID)
	for i, id := range r.order {
		if id == matchID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeProposedMatchRepo) CourtOccupied(ctx context.Context, exec repositories.SQLExecutor, courtID int, excludeMatchID string) (bool, error) {
	for _, match := range r.matches {
		if match.ID == excludeMatchID || match.State == models.MatchFinalized {
			continue
		}
		if match.CourtID != nil && *match.CourtID == courtID {
			return true, nil
		}
	}
	return false, nil
}
