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
	ErrRatingNotFound     = errors.New("sport rating not found")
	ErrRatingUserInvalid  = errors.New("rating references unknown user")
	ErrRatingSportInvalid = errors.New("rating references unknown sport")
)

type RatingRepository interface {
	// Get returns the persisted rating for (userID, sportID), or
	// ErrRatingNotFound when the player has no recorded match for the sport.
	Get(ctx context.Context, userID, sportID int) (*models.UserSportRating, error)
	// GetForUpdate reads the rating under a row lock inside the caller's
	// transaction.
	GetForUpdate(ctx context.Context, exec SQLExecutor, userID, sportID int) (*models.UserSportRating, error)
	// Upsert writes the full aggregate, creating the row lazily on the first
	// recorded match.
	Upsert(ctx context.Context, exec SQLExecutor, rating *models.UserSportRating) error
	ListByUser(ctx context.Context, userID int) ([]*models.UserSportRating, error)
}

type postgresRatingRepository struct {
	db *sql.DB
}

func NewPostgresRatingRepository(db *sql.DB) RatingRepository {
	return &postgresRatingRepository{db: db}
}

const ratingColumns = `id, user_id, sport_id, mmr, level, matches_played, wins, losses, win_rate, updated_at`

func (r *postgresRatingRepository) Get(ctx context.Context, userID, sportID int) (*models.UserSportRating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM user_sport_ratings
		WHERE user_id = $1 AND sport_id = $2`

	return scanRating(r.db.QueryRowContext(ctx, query, userID, sportID))
}

func (r *postgresRatingRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, userID, sportID int) (*models.UserSportRating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM user_sport_ratings
		WHERE user_id = $1 AND sport_id = $2
		FOR UPDATE`

	return scanRating(exec.QueryRowContext(ctx, query, userID, sportID))
}

func (r *postgresRatingRepository) Upsert(ctx context.Context, exec SQLExecutor, rating *models.UserSportRating) error {
	query := `
		INSERT INTO user_sport_ratings
			(user_id, sport_id, mmr, level, matches_played, wins, losses, win_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id, sport_id) DO UPDATE SET
			mmr = EXCLUDED.mmr,
			level = EXCLUDED.level,
			matches_played = EXCLUDED.matches_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			win_rate = EXCLUDED.win_rate,
			updated_at = NOW()
		RETURNING id, updated_at`

	err := exec.QueryRowContext(ctx, query,
		rating.UserID,
		rating.SportID,
		rating.MMR,
		rating.Level,
		rating.MatchesPlayed,
		rating.Wins,
		rating.Losses,
		rating.WinRate,
	).Scan(&rating.ID, &rating.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "user_sport_ratings_user_id_fkey":
				return ErrRatingUserInvalid
			case "user_sport_ratings_sport_id_fkey":
				return ErrRatingSportInvalid
			}
		}
		return fmt.Errorf("failed to upsert rating for user %d sport %d: %w", rating.UserID, rating.SportID, err)
	}
	return nil
}

func (r *postgresRatingRepository) ListByUser(ctx context.Context, userID int) ([]*models.UserSportRating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM user_sport_ratings
		WHERE user_id = $1
		ORDER BY sport_id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings for user %d: %w", userID, err)
	}
	defer rows.Close()

	ratings := make([]*models.UserSportRating, 0)
	for rows.Next() {
		var rating models.UserSportRating
		if scanErr := rows.Scan(
			&rating.ID,
			&rating.UserID,
			&rating.SportID,
			&rating.MMR,
			&rating.Level,
			&rating.MatchesPlayed,
			&rating.Wins,
			&rating.Losses,
			&rating.WinRate,
			&rating.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", scanErr)
		}
		ratings = append(ratings, &rating)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rating rows iteration: %w", err)
	}
	return ratings, nil
}

func scanRating(row *sql.Row) (*models.UserSportRating, error) {
	rating := &models.UserSportRating{}
	err := row.Scan(
		&rating.ID,
		&rating.UserID,
		&rating.SportID,
		&rating.MMR,
		&rating.Level,
		&rating.MatchesPlayed,
		&rating.Wins,
		&rating.Losses,
		&rating.WinRate,
		&rating.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to scan rating: %w", err)
	}
	return rating, nil
}
