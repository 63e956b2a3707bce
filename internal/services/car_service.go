package services

import (
	"context"
	"database/sql"

	"driveshare/internal/apperrors"
	"driveshare/internal/cache"
	"driveshare/internal/domain"
	applog "driveshare/internal/log"
	"driveshare/internal/repos"

	"github.com/google/uuid"
)

type CarService struct {
	Cars  *repos.CarRepo
	Cache *cache.Client
}

func NewCarService(cars *repos.CarRepo, cc *cache.Client) *CarService {
	return &CarService{Cars: cars, Cache: cc}
}

type CarInput struct {
	Title       string
	Description string
	Location    string
	PricePerDay float64
	Available   bool
}

func (s *CarService) List(location string, maxPrice float64, limit, offset int) ([]domain.Car, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	cars, err := s.Cars.List(location, maxPrice, limit, offset)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return cars, nil
}

func (s *CarService) Get(id string) (*domain.Car, error) {
	car, err := s.Cars.Get(id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("car")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return &car, nil
}

func (s *CarService) Create(ctx context.Context, ownerID string, in CarInput) (*domain.Car, error) {
	car := &domain.Car{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		PricePerDay: in.PricePerDay,
		Available:   in.Available,
	}
	if err := s.Cars.Create(car); err != nil {
		return nil, apperrors.Storage(err)
	}
	s.Cache.Invalidate(ctx, "cars")
	applog.Audit(nil, "car.create", map[string]any{"car_id": car.ID, "owner_id": ownerID})
	return car, nil
}

func (s *CarService) Update(ctx context.Context, id, ownerID string, in CarInput) (*domain.Car, error) {
	car := &domain.Car{
		ID:          id,
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		PricePerDay: in.PricePerDay,
		Available:   in.Available,
	}
	err := s.Cars.Update(car)
	if err == repos.ErrNoRowChanged {
		// Either the car doesn't exist or the caller doesn't own it; don't
		// reveal which.
		return nil, apperrors.NotFound("car")
	}
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	s.Cache.Invalidate(ctx, "cars", "availability:"+id)
	return car, nil
}

func (s *CarService) Delete(ctx context.Context, id, ownerID string) error {
	err := s.Cars.Delete(id, ownerID)
	if err == repos.ErrNoRowChanged {
		return apperrors.NotFound("car")
	}
	if err != nil {
		return apperrors.Storage(err)
	}
	s.Cache.Invalidate(ctx, "cars", "availability:"+id)
	applog.Audit(nil, "car.delete", map[string]any{"car_id": id, "owner_id": ownerID})
	return nil
}
