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
	ErrParticipantNotFound = errors.New("event participant not found")
	ErrParticipantConflict = errors.New("user is already registered for this event")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.EventParticipant) error
	FindByEventAndUser(ctx context.Context, exec SQLExecutor, eventID, userID int) (*models.EventParticipant, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipantStatus) error
	ListByEvent(ctx context.Context, eventID int) ([]*models.EventParticipant, error)
	ListByEventAndStatus(ctx context.Context, eventID int, status models.ParticipantStatus) ([]*models.EventParticipant, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

const participantColumns = `id, event_id, user_id, status, joined_at`

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, participant *models.EventParticipant) error {
	query := `
		INSERT INTO event_participants (event_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at`

	err := exec.QueryRowContext(ctx, query,
		participant.EventID,
		participant.UserID,
		participant.Status,
	).Scan(&participant.ID, &participant.JoinedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "event_participants_event_id_user_id_key" {
			return ErrParticipantConflict
		}
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) FindByEventAndUser(ctx context.Context, exec SQLExecutor, eventID, userID int) (*models.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants WHERE event_id = $1 AND user_id = $2`

	participant := &models.EventParticipant{}
	err := exec.QueryRowContext(ctx, query, eventID, userID).Scan(
		&participant.ID,
		&participant.EventID,
		&participant.UserID,
		&participant.Status,
		&participant.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant: %w", err)
	}
	return participant, nil
}

func (r *postgresParticipantRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipantStatus) error {
	query := `UPDATE event_participants SET status = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for participant %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants WHERE event_id = $1 ORDER BY id ASC`
	return r.queryParticipants(ctx, query, eventID)
}

func (r *postgresParticipantRepository) ListByEventAndStatus(ctx context.Context, eventID int, status models.ParticipantStatus) ([]*models.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants WHERE event_id = $1 AND status = $2 ORDER BY id ASC`
	return r.queryParticipants(ctx, query, eventID, status)
}

func (r *postgresParticipantRepository) queryParticipants(ctx context.Context, query string, args ...interface{}) ([]*models.EventParticipant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.EventParticipant, 0)
	for rows.Next() {
		var participant models.EventParticipant
		if scanErr := rows.Scan(
			&participant.ID,
			&participant.EventID,
			&participant.UserID,
			&participant.Status,
			&participant.JoinedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		participants = append(participants, &participant)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}
