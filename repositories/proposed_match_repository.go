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
	ErrProposedMatchNotFound     = errors.New("proposed match not found")
	ErrProposedMatchCourtInvalid = errors.New("proposed match references unknown court")
)

type ProposedMatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.ProposedMatch) error
	// GetForUpdate reads the match under a row lock so concurrent host
	// actions (override, lock, court assignment) cannot interleave.
	GetForUpdate(ctx context.Context, exec SQLExecutor, eventID int, matchID string) (*models.ProposedMatch, error)
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID int) ([]*models.ProposedMatch, error)
	UpdatePlayers(ctx context.Context, exec SQLExecutor, matchID string, player1ID int, player2ID *int) error
	UpdateState(ctx context.Context, exec SQLExecutor, matchID string, state models.ProposedMatchState) error
	UpdateCourt(ctx context.Context, exec SQLExecutor, matchID string, courtID *int) error
	Delete(ctx context.Context, exec SQLExecutor, matchID string) error
	// CourtOccupied reports whether any active (non-finalized) match other
	// than excludeMatchID currently holds the court.
	CourtOccupied(ctx context.Context, exec SQLExecutor, courtID int, excludeMatchID string) (bool, error)
}

type postgresProposedMatchRepository struct {
	db *sql.DB
}

func NewPostgresProposedMatchRepository(db *sql.DB) ProposedMatchRepository {
	return &postgresProposedMatchRepository{db: db}
}

const proposedMatchColumns = `id, event_id, player1_id, player2_id, state, court_id, created_at, updated_at`

func (r *postgresProposedMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.ProposedMatch) error {
	query := `
		INSERT INTO proposed_matches (id, event_id, player1_id, player2_id, state, court_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		match.ID,
		match.EventID,
		match.Player1ID,
		match.Player2ID,
		match.State,
		match.CourtID,
	).Scan(&match.CreatedAt, &match.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "proposed_matches_court_id_fkey" {
			return ErrProposedMatchCourtInvalid
		}
		return fmt.Errorf("failed to insert proposed match %s: %w", match.ID, err)
	}
	return nil
}

func (r *postgresProposedMatchRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, eventID int, matchID string) (*models.ProposedMatch, error) {
	query := `
		SELECT ` + proposedMatchColumns + `
		FROM proposed_matches
		WHERE id = $1 AND event_id = $2
		FOR UPDATE`

	return scanProposedMatch(exec.QueryRowContext(ctx, query, matchID, eventID))
}

func (r *postgresProposedMatchRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID int) ([]*models.ProposedMatch, error) {
	query := `
		SELECT ` + proposedMatchColumns + `
		FROM proposed_matches
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := exec.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposed matches for event %d: %w", eventID, err)
	}
	defer rows.Close()

	matches := make([]*models.ProposedMatch, 0)
	for rows.Next() {
		var match models.ProposedMatch
		var player2ID, courtID sql.NullInt64
		if scanErr := rows.Scan(
			&match.ID,
			&match.EventID,
			&match.Player1ID,
			&player2ID,
			&match.State,
			&courtID,
			&match.CreatedAt,
			&match.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan proposed match row: %w", scanErr)
		}
		assignNullableInt(&match.Player2ID, player2ID)
		assignNullableInt(&match.CourtID, courtID)
		matches = append(matches, &match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during proposed match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresProposedMatchRepository) UpdatePlayers(ctx context.Context, exec SQLExecutor, matchID string, player1ID int, player2ID *int) error {
	query := `UPDATE proposed_matches SET player1_id = $1, player2_id = $2, updated_at = NOW() WHERE id = $3`
	result, err := exec.ExecContext(ctx, query, player1ID, player2ID, matchID)
	if err != nil {
		return fmt.Errorf("failed to update players for proposed match %s: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrProposedMatchNotFound)
}

func (r *postgresProposedMatchRepository) UpdateState(ctx context.Context, exec SQLExecutor, matchID string, state models.ProposedMatchState) error {
	query := `UPDATE proposed_matches SET state = $1, updated_at = NOW() WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, state, matchID)
	if err != nil {
		return fmt.Errorf("failed to update state for proposed match %s: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrProposedMatchNotFound)
}

func (r *postgresProposedMatchRepository) UpdateCourt(ctx context.Context, exec SQLExecutor, matchID string, courtID *int) error {
	query := `UPDATE proposed_matches SET court_id = $1, updated_at = NOW() WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, courtID, matchID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "proposed_matches_court_id_fkey" {
			return ErrProposedMatchCourtInvalid
		}
		return fmt.Errorf("failed to update court for proposed match %s: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrProposedMatchNotFound)
}

func (r *postgresProposedMatchRepository) Delete(ctx context.Context, exec SQLExecutor, matchID string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM proposed_matches WHERE id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete proposed match %s: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrProposedMatchNotFound)
}

func (r *postgresProposedMatchRepository) CourtOccupied(ctx context.Context, exec SQLExecutor, courtID int, excludeMatchID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM proposed_matches
			WHERE court_id = $1 AND state <> $2 AND id <> $3
		)`

	var occupied bool
	err := exec.QueryRowContext(ctx, query, courtID, models.MatchFinalized, excludeMatchID).Scan(&occupied)
	if err != nil {
		return false, fmt.Errorf("failed to check occupancy for court %d: %w", courtID, err)
	}
	return occupied, nil
}

func scanProposedMatch(row *sql.Row) (*models.ProposedMatch, error) {
	match := &models.ProposedMatch{}
	var player2ID, courtID sql.NullInt64
	err := row.Scan(
		&match.ID,
		&match.EventID,
		&match.Player1ID,
		&player2ID,
		&match.State,
		&courtID,
		&match.CreatedAt,
		&match.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposedMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan proposed match: %w", err)
	}
	assignNullableInt(&match.Player2ID, player2ID)
	assignNullableInt(&match.CourtID, courtID)
	return match, nil
}

func assignNullableInt(dst **int, src sql.NullInt64) {
	if src.Valid {
		v := int(src.Int64)
		*dst = &v
	}
}
