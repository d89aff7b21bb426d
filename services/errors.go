package services

import "errors"

// Shared errors used across services and the HTTP mapping layer.
var (
	// Generic not-found
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed      = errors.New("validation failed")
	ErrInvalidMatchResult    = errors.New("invalid match result value")
	ErrInvalidCreditType     = errors.New("invalid credit change type")
	ErrSamePlayer            = errors.New("a match requires two distinct players")
	ErrMatchAlreadyRecorded  = errors.New("result already recorded for this pair in the event")
	ErrNotEnoughParticipants = errors.New("not enough checked-in participants to generate matches")
	ErrPlayerNotEligible     = errors.New("player is not checked in for this event")
	ErrEventNotOngoing       = errors.New("event is not in the ongoing state")
	ErrInvalidStatusChange   = errors.New("invalid event status transition")
	ErrEventFull             = errors.New("event has no free spots")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrAdjustmentOutOfBounds = errors.New("manual adjustment exceeds the configured bound")

	// Conflicts
	ErrMatchLocked           = errors.New("proposed match is locked")
	ErrMatchFinalized        = errors.New("proposed match is already finalized")
	ErrPlayerAlreadyAssigned = errors.New("player is already assigned to another match")
	ErrCourtOccupied         = errors.New("court is occupied by another active match")
	ErrAlreadyJoined         = errors.New("user is already registered for this event")
	ErrEmailTaken            = errors.New("email is already taken")

	// Authentication and authorization
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrHostActionOnly     = errors.New("only the event host can perform this action")

	// Entity-specific not-found wrappers, more context than the generic one
	ErrUserNotFound          = errors.New("user not found")
	ErrSportNotFound         = errors.New("sport not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrCourtNotFound         = errors.New("court not found")
	ErrParticipantNotFound   = errors.New("participant registration not found")
	ErrProposedMatchNotFound = errors.New("proposed match not found")

	// Credit restrictions
	ErrCreditTooLowToCreate = errors.New("credit score too low to create events")
)
