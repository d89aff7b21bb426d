package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Yernar11/sportmate/models"
	"github.com/lib/pq"
)

var (
	ErrMatchHistoryNotFound       = errors.New("match history record not found")
	ErrMatchHistoryEventInvalid   = errors.New("match history references unknown event")
	ErrMatchHistoryPlayerInvalid  = errors.New("match history references unknown player")
)

type MatchHistoryRepository interface {
	// Create inserts the immutable result row. Rows are never updated.
	Create(ctx context.Context, exec SQLExecutor, record *models.MatchHistory) error
	GetByID(ctx context.Context, id int) (*models.MatchHistory, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.MatchHistory, error)
	// ExistsForPair reports whether a result is already recorded for the pair
	// within the event, in either player order.
	ExistsForPair(ctx context.Context, exec SQLExecutor, eventID, player1ID, player2ID int) (bool, error)
}

type postgresMatchHistoryRepository struct {
	db *sql.DB
}

func NewPostgresMatchHistoryRepository(db *sql.DB) MatchHistoryRepository {
	return &postgresMatchHistoryRepository{db: db}
}

const matchHistoryColumns = `id, event_id, player1_id, player2_id, sport_id, result, match_score,
		player1_mmr_before, player1_mmr_after, player2_mmr_before, player2_mmr_after,
		recorded_by_host_id, match_date, created_at`

func (r *postgresMatchHistoryRepository) Create(ctx context.Context, exec SQLExecutor, record *models.MatchHistory) error {
	scoreJSON, err := json.Marshal(record.MatchScore)
	if err != nil {
		return fmt.Errorf("failed to marshal match score: %w", err)
	}

	query := `
		INSERT INTO match_history
			(event_id, player1_id, player2_id, sport_id, result, match_score,
			 player1_mmr_before, player1_mmr_after, player2_mmr_before, player2_mmr_after,
			 recorded_by_host_id, match_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err = exec.QueryRowContext(ctx, query,
		record.EventID,
		record.Player1ID,
		record.Player2ID,
		record.SportID,
		record.Result,
		scoreJSON,
		record.Player1MMRBefore,
		record.Player1MMRAfter,
		record.Player2MMRBefore,
		record.Player2MMRAfter,
		record.RecordedByHostID,
		record.MatchDate,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "match_history_event_id_fkey":
				return ErrMatchHistoryEventInvalid
			case "match_history_player1_id_fkey", "match_history_player2_id_fkey":
				return ErrMatchHistoryPlayerInvalid
			}
		}
		return fmt.Errorf("failed to insert match history: %w", err)
	}
	return nil
}

func (r *postgresMatchHistoryRepository) GetByID(ctx context.Context, id int) (*models.MatchHistory, error) {
	query := `SELECT ` + matchHistoryColumns + ` FROM match_history WHERE id = $1`

	record, err := scanMatchHistory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *postgresMatchHistoryRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.MatchHistory, error) {
	query := `SELECT ` + matchHistoryColumns + ` FROM match_history WHERE event_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match history for event %d: %w", eventID, err)
	}
	defer rows.Close()

	records := make([]*models.MatchHistory, 0)
	for rows.Next() {
		record, scanErr := scanMatchHistoryRows(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match history rows iteration: %w", err)
	}
	return records, nil
}

func (r *postgresMatchHistoryRepository) ExistsForPair(ctx context.Context, exec SQLExecutor, eventID, player1ID, player2ID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM match_history
			WHERE event_id = $1
			  AND ((player1_id = $2 AND player2_id = $3) OR (player1_id = $3 AND player2_id = $2))
		)`

	var exists bool
	if err := exec.QueryRowContext(ctx, query, eventID, player1ID, player2ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existing result for pair (%d, %d) in event %d: %w",
			player1ID, player2ID, eventID, err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatchHistory(row *sql.Row) (*models.MatchHistory, error) {
	record, err := scanMatchHistoryFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchHistoryNotFound
		}
		return nil, err
	}
	return record, nil
}

func scanMatchHistoryRows(rows *sql.Rows) (*models.MatchHistory, error) {
	return scanMatchHistoryFrom(rows)
}

func scanMatchHistoryFrom(s rowScanner) (*models.MatchHistory, error) {
	record := &models.MatchHistory{}
	var scoreJSON []byte
	err := s.Scan(
		&record.ID,
		&record.EventID,
		&record.Player1ID,
		&record.Player2ID,
		&record.SportID,
		&record.Result,
		&scoreJSON,
		&record.Player1MMRBefore,
		&record.Player1MMRAfter,
		&record.Player2MMRBefore,
		&record.Player2MMRAfter,
		&record.RecordedByHostID,
		&record.MatchDate,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan match history row: %w", err)
	}
	if len(scoreJSON) > 0 {
		if err := json.Unmarshal(scoreJSON, &record.MatchScore); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match score for record %d: %w", record.ID, err)
		}
	}
	return record, nil
}
