package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Yernar11/sportmate/models"
)

var ErrSportNotFound = errors.New("sport not found")

type SportRepository interface {
	GetByID(ctx context.Context, id int) (*models.Sport, error)
	GetByCode(ctx context.Context, code string) (*models.Sport, error)
	ListActive(ctx context.Context) ([]*models.Sport, error)
}

type postgresSportRepository struct {
	db *sql.DB
}

func NewPostgresSportRepository(db *sql.DB) SportRepository {
	return &postgresSportRepository{db: db}
}

func (r *postgresSportRepository) GetByID(ctx context.Context, id int) (*models.Sport, error) {
	query := `SELECT id, name, code, active FROM sports WHERE id = $1`
	return r.scanSport(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresSportRepository) GetByCode(ctx context.Context, code string) (*models.Sport, error) {
	query := `SELECT id, name, code, active FROM sports WHERE code = $1`
	return r.scanSport(r.db.QueryRowContext(ctx, query, code))
}

func (r *postgresSportRepository) ListActive(ctx context.Context) ([]*models.Sport, error) {
	query := `SELECT id, name, code, active FROM sports WHERE active = TRUE ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sports: %w", err)
	}
	defer rows.Close()

	sports := make([]*models.Sport, 0)
	for rows.Next() {
		var sport models.Sport
		if scanErr := rows.Scan(&sport.ID, &sport.Name, &sport.Code, &sport.Active); scanErr != nil {
			return nil, fmt.Errorf("failed to scan sport row: %w", scanErr)
		}
		sports = append(sports, &sport)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during sport rows iteration: %w", err)
	}
	return sports, nil
}

func (r *postgresSportRepository) scanSport(row *sql.Row) (*models.Sport, error) {
	sport := &models.Sport{}
	err := row.Scan(&sport.ID, &sport.Name, &sport.Code, &sport.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to scan sport: %w", err)
	}
	return sport, nil
}
