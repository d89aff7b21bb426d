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
	ErrCreditLogUserInvalid  = errors.New("credit log references unknown user")
	ErrCreditLogEventInvalid = errors.New("credit log references unknown event")
)

type CreditLogRepository interface {
	// Append inserts one immutable ledger entry. The caller is expected to
	// hold the per-user lock for the duration of the read-compute-append cycle.
	Append(ctx context.Context, exec SQLExecutor, entry *models.CreditScoreLog) error
	// GetLatest returns the most recent entry for the user, or nil when the
	// ledger is empty for them.
	GetLatest(ctx context.Context, exec SQLExecutor, userID int) (*models.CreditScoreLog, error)
	ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.CreditScoreLog, error)
	// CountTrailingCompletions counts how many of the user's most recent
	// entries are consecutive event_completion_bonus rows, stopping at the
	// first entry of any other type.
	CountTrailingCompletions(ctx context.Context, exec SQLExecutor, userID int) (int, error)
}

type postgresCreditLogRepository struct {
	db *sql.DB
}

func NewPostgresCreditLogRepository(db *sql.DB) CreditLogRepository {
	return &postgresCreditLogRepository{db: db}
}

const creditLogColumns = `id, user_id, event_id, type, old_score, new_score, change_amount, description, metadata, created_at`

func (r *postgresCreditLogRepository) Append(ctx context.Context, exec SQLExecutor, entry *models.CreditScoreLog) error {
	query := `
		INSERT INTO credit_score_logs
			(user_id, event_id, type, old_score, new_score, change_amount, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	var metadata interface{}
	if len(entry.Metadata) > 0 {
		metadata = []byte(entry.Metadata)
	}

	err := exec.QueryRowContext(ctx, query,
		entry.UserID,
		entry.EventID,
		entry.Type,
		entry.OldScore,
		entry.NewScore,
		entry.ChangeAmount,
		entry.Description,
		metadata,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "credit_score_logs_user_id_fkey":
				return ErrCreditLogUserInvalid
			case "credit_score_logs_event_id_fkey":
				return ErrCreditLogEventInvalid
			}
		}
		return fmt.Errorf("failed to append credit log for user %d: %w", entry.UserID, err)
	}
	return nil
}

func (r *postgresCreditLogRepository) GetLatest(ctx context.Context, exec SQLExecutor, userID int) (*models.CreditScoreLog, error) {
	query := `
		SELECT ` + creditLogColumns + `
		FROM credit_score_logs
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT 1`

	entry, err := scanCreditLog(exec.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

func (r *postgresCreditLogRepository) ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.CreditScoreLog, error) {
	query := `
		SELECT ` + creditLogColumns + `
		FROM credit_score_logs
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit logs for user %d: %w", userID, err)
	}
	defer rows.Close()

	entries := make([]*models.CreditScoreLog, 0)
	for rows.Next() {
		var entry models.CreditScoreLog
		var eventID sql.NullInt64
		var metadata []byte
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&eventID,
			&entry.Type,
			&entry.OldScore,
			&entry.NewScore,
			&entry.ChangeAmount,
			&entry.Description,
			&metadata,
			&entry.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan credit log row: %w", scanErr)
		}
		if eventID.Valid {
			id := int(eventID.Int64)
			entry.EventID = &id
		}
		entry.Metadata = metadata
		entries = append(entries, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during credit log rows iteration: %w", err)
	}
	return entries, nil
}

func (r *postgresCreditLogRepository) CountTrailingCompletions(ctx context.Context, exec SQLExecutor, userID int) (int, error) {
	// Counts entries after the last non-completion entry; the whole ledger
	// counts when the user has nothing but completion bonuses.
	query := `
		SELECT COUNT(*)
		FROM credit_score_logs
		WHERE user_id = $1
		  AND type = $2
		  AND id > COALESCE((
			SELECT MAX(id) FROM credit_score_logs
			WHERE user_id = $1 AND type <> $2 AND type <> $3
		  ), 0)`

	var count int
	err := exec.QueryRowContext(ctx, query, userID,
		models.CreditEventCompletionBonus, models.CreditConsecutiveBonus).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trailing completions for user %d: %w", userID, err)
	}
	return count, nil
}

func scanCreditLog(row *sql.Row) (*models.CreditScoreLog, error) {
	entry := &models.CreditScoreLog{}
	var eventID sql.NullInt64
	var metadata []byte
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&eventID,
		&entry.Type,
		&entry.OldScore,
		&entry.NewScore,
		&entry.ChangeAmount,
		&entry.Description,
		&metadata,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if eventID.Valid {
		id := int(eventID.Int64)
		entry.EventID = &id
	}
	entry.Metadata = metadata
	return entry, nil
}
