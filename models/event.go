package models

import "time"

// EventStatus values correspond to the events.status ENUM in the DB.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventFull      EventStatus = "full"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

type Event struct {
	ID                      int         `json:"id" db:"id"`
	SportID                 int         `json:"sport_id" db:"sport_id"`
	HostID                  int         `json:"host_id" db:"host_id"`
	Title                   string      `json:"title" db:"title"`
	Status                  EventStatus `json:"status" db:"status"`
	StartTime               time.Time   `json:"start_time" db:"start_time"`
	MaxParticipants         int         `json:"max_participants" db:"max_participants"`
	CurrentParticipants     int         `json:"current_participants" db:"current_participants"`
	SkillLevelRequired      int         `json:"skill_level_required" db:"skill_level_required"`
	AutoConfirmParticipants bool        `json:"auto_confirm_participants" db:"auto_confirm_participants"`
	CreatedAt               time.Time   `json:"created_at" db:"created_at"`
}

type ParticipantStatus string

const (
	ParticipantPending   ParticipantStatus = "pending"
	ParticipantConfirmed ParticipantStatus = "confirmed"
	ParticipantCheckedIn ParticipantStatus = "checked_in"
	ParticipantAttended  ParticipantStatus = "attended"
	ParticipantNoShow    ParticipantStatus = "no_show"
	ParticipantCancelled ParticipantStatus = "cancelled"
)

type EventParticipant struct {
	ID       int               `json:"id" db:"id"`
	EventID  int               `json:"event_id" db:"event_id"`
	UserID   int               `json:"user_id" db:"user_id"`
	Status   ParticipantStatus `json:"status" db:"status"`
	JoinedAt time.Time         `json:"joined_at" db:"joined_at"`
}
