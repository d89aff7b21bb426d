package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Yernar11/sportmate/models"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEventSportInvalid  = errors.New("event references unknown sport")
	ErrEventHostInvalid   = errors.New("event references unknown host")
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	// GetForUpdate reads the event under a row lock inside the caller's
	// transaction, serializing status transitions and capacity changes.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.EventStatus) error
	UpdateParticipantCount(ctx context.Context, exec SQLExecutor, id int, count int) error
	ListByStatus(ctx context.Context, status models.EventStatus, limit, offset int) ([]*models.Event, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, sport_id, host_id, title, status, start_time, max_participants,
		current_participants, skill_level_required, auto_confirm_participants, created_at`

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events
			(sport_id, host_id, title, status, start_time, max_participants,
			 current_participants, skill_level_required, auto_confirm_participants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.SportID,
		event.HostID,
		event.Title,
		event.Status,
		event.StartTime,
		event.MaxParticipants,
		event.CurrentParticipants,
		event.SkillLevelRequired,
		event.AutoConfirmParticipants,
	).Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "events_sport_id_fkey":
				return ErrEventSportInvalid
			case "events_host_id_fkey":
				return ErrEventHostInvalid
			}
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresEventRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	return scanEvent(exec.QueryRowContext(ctx, query, id))
}

func (r *postgresEventRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.EventStatus) error {
	query := `UPDATE events SET status = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for event %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateParticipantCount(ctx context.Context, exec SQLExecutor, id int, count int) error {
	query := `UPDATE events SET current_participants = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, count, id)
	if err != nil {
		return fmt.Errorf("failed to update participant count for event %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) ListByStatus(ctx context.Context, status models.EventStatus, limit, offset int) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status = $1
		ORDER BY start_time ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query events with status %s: %w", status, err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		var event models.Event
		if scanErr := rows.Scan(
			&event.ID,
			&event.SportID,
			&event.HostID,
			&event.Title,
			&event.Status,
			&event.StartTime,
			&event.MaxParticipants,
			&event.CurrentParticipants,
			&event.SkillLevelRequired,
			&event.AutoConfirmParticipants,
			&event.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", scanErr)
		}
		events = append(events, &event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during event rows iteration: %w", err)
	}
	return events, nil
}

func scanEvent(row *sql.Row) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(
		&event.ID,
		&event.SportID,
		&event.HostID,
		&event.Title,
		&event.Status,
		&event.StartTime,
		&event.MaxParticipants,
		&event.CurrentParticipants,
		&event.SkillLevelRequired,
		&event.AutoConfirmParticipants,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	return event, nil
}
