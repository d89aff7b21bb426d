package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Yernar11/sportmate/models"
	"github.com/Yernar11/sportmate/repositories"
)

// EventService owns the event status state machine and fires the credit and
// matchmaking side effects its transitions imply.
type EventService interface {
	CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error)
	GetEvent(ctx context.Context, id int) (*models.Event, error)
	ListEvents(ctx context.Context, status models.EventStatus, limit, offset int) ([]*models.Event, error)
	PublishEvent(ctx context.Context, eventID int) (*models.Event, error)
	CancelEvent(ctx context.Context, eventID int) (*models.Event, error)
	// StartEvent transitions to ongoing and generates the first set of fair
	// matches from the checked-in pool.
	StartEvent(ctx context.Context, eventID int) (*models.Event, []*models.ProposedMatch, error)
	// CompleteEvent settles participant states and credits attendance.
	CompleteEvent(ctx context.Context, eventID int) (*models.Event, error)

	JoinEvent(ctx context.Context, eventID, userID int) (*models.EventParticipant, error)
	CancelParticipation(ctx context.Context, eventID, userID int) (*models.EventParticipant, error)
	ConfirmParticipant(ctx context.Context, eventID, userID int) (*models.EventParticipant, error)
	CheckInParticipant(ctx context.Context, eventID, userID int) (*models.EventParticipant, error)
	ReportNoShow(ctx context.Context, eventID, userID, reportedBy int) (*models.EventParticipant, error)
	ListParticipants(ctx context.Context, eventID int) ([]*models.EventParticipant, error)
}

type CreateEventInput struct {
	SportID                 int       `json:"sport_id"`
	HostID                  int       `json:"-"`
	Title                   string    `json:"title"`
	StartTime               time.Time `json:"start_time"`
	MaxParticipants         int       `json:"max_participants"`
	SkillLevelRequired      int       `json:"skill_level_required"`
	AutoConfirmParticipants bool      `json:"auto_confirm_participants"`
}

// allowedTransitions encodes the one-way event state machine.
var allowedTransitions = map[models.EventStatus][]models.EventStatus{
	models.EventDraft:     {models.EventPublished, models.EventCancelled},
	models.EventPublished: {models.EventFull, models.EventOngoing, models.EventCancelled},
	models.EventFull:      {models.EventPublished, models.EventOngoing, models.EventCancelled},
	models.EventOngoing:   {models.EventCompleted},
}

func transitionAllowed(from, to models.EventStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type eventService struct {
	txRunner        repositories.TxRunner
	eventRepo       repositories.EventRepository
	participantRepo repositories.ParticipantRepository
	sportRepo       repositories.SportRepository
	credit          CreditService
	matchmakingSvc  MatchmakingService
	logger          *slog.Logger
}

func NewEventService(
	txRunner repositories.TxRunner,
	eventRepo repositories.EventRepository,
	participantRepo repositories.ParticipantRepository,
	sportRepo repositories.SportRepository,
	credit CreditService,
	matchmakingSvc MatchmakingService,
	logger *slog.Logger,
) EventService {
	return &eventService{
		txRunner:        txRunner,
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		sportRepo:       sportRepo,
		credit:          credit,
		matchmakingSvc:  matchmakingSvc,
		logger:          logger,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if input.MaxParticipants < 2 {
		return nil, fmt.Errorf("%w: max participants must be at least 2", ErrValidationFailed)
	}
	if input.StartTime.Before(time.Now()) {
		return nil, fmt.Errorf("%w: start time must be in the future", ErrValidationFailed)
	}

	sport, err := s.sportRepo.GetByID(ctx, input.SportID)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to load sport %d: %w", input.SportID, err)
	}
	if !sport.Active {
		return nil, fmt.Errorf("%w: sport %q is not active", ErrValidationFailed, sport.Code)
	}

	restrictions, err := s.credit.GetRestrictions(ctx, input.HostID)
	if err != nil {
		return nil, err
	}
	if !restrictions.CanCreateEvents {
		return nil, ErrCreditTooLowToCreate
	}

	event := &models.Event{
		SportID:                 input.SportID,
		HostID:                  input.HostID,
		Title:                   input.Title,
		Status:                  models.EventDraft,
		StartTime:               input.StartTime,
		MaxParticipants:         input.MaxParticipants,
		SkillLevelRequired:      input.SkillLevelRequired,
		AutoConfirmParticipants: input.AutoConfirmParticipants,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event %d: %w", id, err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, status models.EventStatus, limit, offset int) ([]*models.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.eventRepo.ListByStatus(ctx, status, limit, offset)
}

func (s *eventService) PublishEvent(ctx context.Context, eventID int) (*models.Event, error) {
	return s.transition(ctx, eventID, models.EventPublished)
}

func (s *eventService) CancelEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.transition(ctx, eventID, models.EventCancelled)
	if err != nil {
		return nil, err
	}

	// The host cancelled the whole event: the cancellation penalty lands on
	// them, scaled by how close to start time the cancellation happened.
	hoursBefore := int(time.Until(event.StartTime).Hours())
	if _, err := s.credit.ApplyCancellationPenalty(ctx, event.HostID, event.ID, hoursBefore); err != nil {
		s.logger.Error("failed to apply host cancellation penalty",
			slog.Int("event_id", event.ID),
			slog.Int("host_id", event.HostID),
			slog.Any("error", err))
	}
	return event, nil
}

func (s *eventService) StartEvent(ctx context.Context, eventID int) (*models.Event, []*models.ProposedMatch, error) {
	event, err := s.transition(ctx, eventID, models.EventOngoing)
	if err != nil {
		return nil, nil, err
	}

	matches, err := s.matchmakingSvc.CreateFairMatches(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrNotEnoughParticipants) {
			// The event still starts; the host can regenerate once more
			// players check in.
			s.logger.Warn("event started without generated matches", slog.Int("event_id", eventID))
			return event, nil, nil
		}
		return nil, nil, err
	}
	return event, matches, nil
}

func (s *eventService) CompleteEvent(ctx context.Context, eventID int) (*models.Event, error) {
	var event *models.Event
	var attendees []*models.EventParticipant

	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		event, err = s.lockEvent(ctx, exec, eventID)
		if err != nil {
			return err
		}
		if !transitionAllowed(event.Status, models.EventCompleted) {
			return ErrInvalidStatusChange
		}
		if err := s.eventRepo.UpdateStatus(ctx, exec, eventID, models.EventCompleted); err != nil {
			return err
		}
		event.Status = models.EventCompleted

		checkedIn, err := s.participantRepo.ListByEventAndStatus(ctx, eventID, models.ParticipantCheckedIn)
		if err != nil {
			return err
		}
		for _, participant := range checkedIn {
			if err := s.participantRepo.UpdateStatus(ctx, exec, participant.ID, models.ParticipantAttended); err != nil {
				return err
			}
			participant.Status = models.ParticipantAttended
		}
		attendees = checkedIn
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Attendance bonuses run after the transition commits; each append is its
	// own per-user transaction. A failed bonus must not undo the completion.
	for _, participant := range attendees {
		if _, err := s.credit.ApplyCompletionBonus(ctx, participant.UserID, eventID); err != nil {
			s.logger.Error("failed to apply completion bonus",
				slog.Int("event_id", eventID),
				slog.Int("user_id", participant.UserID),
				slog.Any("error", err))
		}
	}
	return event, nil
}

func (s *eventService) JoinEvent(ctx context.Context, eventID, userID int) (*models.EventParticipant, error) {
	restrictions, err := s.credit.GetRestrictions(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := models.ParticipantPending
	participant := &models.EventParticipant{EventID: eventID, UserID: userID}

	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		event, err := s.lockEvent(ctx, exec, eventID)
		if err != nil {
			return err
		}
		if event.Status != models.EventPublished {
			return fmt.Errorf("%w: event is not open for joining", ErrValidationFailed)
		}
		if event.CurrentParticipants >= event.MaxParticipants {
			return ErrEventFull
		}

		// Low-credit users need host approval regardless of auto-confirm.
		if event.AutoConfirmParticipants && !restrictions.RequiresJoinApproval {
			status = models.ParticipantConfirmed
		}
		participant.Status = status

		if err := s.participantRepo.Create(ctx, exec, participant); err != nil {
			if errors.Is(err, repositories.ErrParticipantConflict) {
				return ErrAlreadyJoined
			}
			return err
		}

		newCount := event.CurrentParticipants + 1
		if err := s.eventRepo.UpdateParticipantCount(ctx, exec, eventID, newCount); err != nil {
			return err
		}
		if newCount >= event.MaxParticipants {
			return s.eventRepo.UpdateStatus(ctx, exec, eventID, models.EventFull)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

func (s *eventService) CancelParticipation(ctx context.Context, eventID, userID int) (*models.EventParticipant, error) {
	var participant *models.EventParticipant
	var event *models.Event

	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		event, err = s.lockEvent(ctx, exec, eventID)
		if err != nil {
			return err
		}
		if event.Status == models.EventOngoing || event.Status == models.EventCompleted {
			return fmt.Errorf("%w: cannot cancel after the event started", ErrValidationFailed)
		}

		participant, err = s.findParticipant(ctx, exec, eventID, userID)
		if err != nil {
			return err
		}
		if participant.Status == models.ParticipantCancelled {
			return fmt.Errorf("%w: participation already cancelled", ErrValidationFailed)
		}

		if err := s.participantRepo.UpdateStatus(ctx, exec, participant.ID, models.ParticipantCancelled); err != nil {
			return err
		}
		participant.Status = models.ParticipantCancelled

		newCount := event.CurrentParticipants - 1
		if newCount < 0 {
			newCount = 0
		}
		if err := s.eventRepo.UpdateParticipantCount(ctx, exec, eventID, newCount); err != nil {
			return err
		}
		if event.Status == models.EventFull {
			return s.eventRepo.UpdateStatus(ctx, exec, eventID, models.EventPublished)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	hoursBefore := int(time.Until(event.StartTime).Hours())
	if _, err := s.credit.ApplyCancellationPenalty(ctx, userID, eventID, hoursBefore); err != nil {
		s.logger.Error("failed to apply cancellation penalty",
			slog.Int("event_id", eventID),
			slog.Int("user_id", userID),
			slog.Any("error", err))
	}
	return participant, nil
}

func (s *eventService) ConfirmParticipant(ctx context.Context, eventID, userID int) (*models.EventParticipant, error) {
	return s.updateParticipantStatus(ctx, eventID, userID, models.ParticipantPending, models.ParticipantConfirmed)
}

func (s *eventService) CheckInParticipant(ctx context.Context, eventID, userID int) (*models.EventParticipant, error) {
	return s.updateParticipantStatus(ctx, eventID, userID, models.ParticipantConfirmed, models.ParticipantCheckedIn)
}

func (s *eventService) ReportNoShow(ctx context.Context, eventID, userID, reportedBy int) (*models.EventParticipant, error) {
	var participant *models.EventParticipant
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		event, err := s.lockEvent(ctx, exec, eventID)
		if err != nil {
			return err
		}
		if event.Status != models.EventOngoing && event.Status != models.EventCompleted {
			return fmt.Errorf("%w: no-shows can only be reported once the event started", ErrValidationFailed)
		}

		participant, err = s.findParticipant(ctx, exec, eventID, userID)
		if err != nil {
			return err
		}
		if participant.Status == models.ParticipantNoShow {
			return fmt.Errorf("%w: participant already reported as no-show", ErrValidationFailed)
		}

		if err := s.participantRepo.UpdateStatus(ctx, exec, participant.ID, models.ParticipantNoShow); err != nil {
			return err
		}
		participant.Status = models.ParticipantNoShow
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.credit.ApplyNoShowPenalty(ctx, userID, eventID, reportedBy); err != nil {
		s.logger.Error("failed to apply no-show penalty",
			slog.Int("event_id", eventID),
			slog.Int("user_id", userID),
			slog.Any("error", err))
	}
	return participant, nil
}

func (s *eventService) ListParticipants(ctx context.Context, eventID int) ([]*models.EventParticipant, error) {
	participants, err := s.participantRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for event %d: %w", eventID, err)
	}
	return participants, nil
}

func (s *eventService) transition(ctx context.Context, eventID int, to models.EventStatus) (*models.Event, error) {
	var event *models.Event
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		event, err = s.lockEvent(ctx, exec, eventID)
		if err != nil {
			return err
		}
		if !transitionAllowed(event.Status, to) {
			return ErrInvalidStatusChange
		}
		if err := s.eventRepo.UpdateStatus(ctx, exec, eventID, to); err != nil {
			return err
		}
		event.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) updateParticipantStatus(ctx context.Context, eventID, userID int, from, to models.ParticipantStatus) (*models.EventParticipant, error) {
	var participant *models.EventParticipant
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		participant, err = s.findParticipant(ctx, exec, eventID, userID)
		if err != nil {
			return err
		}
		if participant.Status != from {
			return fmt.Errorf("%w: participant is %s, expected %s", ErrValidationFailed, participant.Status, from)
		}
		if err := s.participantRepo.UpdateStatus(ctx, exec, participant.ID, to); err != nil {
			return err
		}
		participant.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

func (s *eventService) lockEvent(ctx context.Context, exec repositories.SQLExecutor, eventID int) (*models.Event, error) {
	event, err := s.eventRepo.GetForUpdate(ctx, exec, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *eventService) findParticipant(ctx context.Context, exec repositories.SQLExecutor, eventID, userID int) (*models.EventParticipant, error) {
	participant, err := s.participantRepo.FindByEventAndUser(ctx, exec, eventID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return participant, nil
}
