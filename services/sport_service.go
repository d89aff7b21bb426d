package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Yernar11/sportmate/models"
	"github.com/Yernar11/sportmate/repositories"
)

type SportService interface {
	GetSportByID(ctx context.Context, id int) (*models.Sport, error)
	ListSports(ctx context.Context) ([]*models.Sport, error)
}

type sportService struct {
	sportRepo repositories.SportRepository
}

func NewSportService(sportRepo repositories.SportRepository) SportService {
	return &sportService{sportRepo: sportRepo}
}

func (s *sportService) GetSportByID(ctx context.Context, id int) (*models.Sport, error) {
	sport, err := s.sportRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to load sport %d: %w", id, err)
	}
	return sport, nil
}

func (s *sportService) ListSports(ctx context.Context) ([]*models.Sport, error) {
	sports, err := s.sportRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sports: %w", err)
	}
	return sports, nil
}
