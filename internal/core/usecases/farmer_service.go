package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rohanmhatre/farmroute/internal/core/domain"
	"github.com/rohanmhatre/farmroute/internal/core/ports"
	"github.com/rohanmhatre/farmroute/internal/pkg/geospatial"
)

// FarmerService handles farmer-directory business logic.
type FarmerService struct {
	farmers ports.FarmerRepository
	cache   ports.CacheService
}

// NewFarmerService creates a new FarmerService.
func NewFarmerService(farmers ports.FarmerRepository, cache ports.CacheService) *FarmerService {
	return &FarmerService{farmers: farmers, cache: cache}
}

// List returns the full farmer directory.
func (s *FarmerService) List(ctx context.Context) ([]domain.Farmer, error) {
	cacheKey := "farmers:all"
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var farmers []domain.Farmer
			if err := json.Unmarshal(data, &farmers); err == nil {
				return farmers, nil
			}
		}
	}

	farmers, err := s.farmers.List(ctx)
	if err != nil {
		return nil, err
	}

	// Cache for 5 minutes (the directory changes rarely)
	if s.cache != nil {
		if data, err := json.Marshal(farmers); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return farmers, nil
}

// Nearby returns farmer markers around a point. Distances are annotated via
// haversine but the list is NOT radius-filtered: every farmer is returned
// regardless of distance. Matches the shipped behavior of the marketplace
// frontend; radius filtering is an open product decision (see DESIGN.md).
func (s *FarmerService) Nearby(ctx context.Context, origin *domain.GeoPoint) ([]domain.Farmer, error) {
	farmers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	if origin != nil {
		for i := range farmers {
			d := geospatial.Haversine(origin.Lat, origin.Lng, farmers[i].Location.Lat, farmers[i].Location.Lng)
			farmers[i].Distance = &d
		}
	}

	return farmers, nil
}

// GetByID returns a single farmer.
func (s *FarmerService) GetByID(ctx context.Context, id string) (*domain.Farmer, error) {
	cacheKey := "farmers:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var farmer domain.Farmer
			if err := json.Unmarshal(data, &farmer); err == nil {
				return &farmer, nil
			}
		}
	}

	farmer, err := s.farmers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(farmer); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return farmer, nil
}

// Upsert creates or updates a farmer and invalidates the list cache.
func (s *FarmerService) Upsert(ctx context.Context, farmer *domain.Farmer) error {
	if farmer.Name == "" {
		return fmt.Errorf("farmer name is required")
	}
	if err := s.farmers.Upsert(ctx, farmer); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "farmers:all")
		if farmer.ID != "" {
			_ = s.cache.Delete(ctx, "farmers:id:"+farmer.ID)
		}
	}
	return nil
}
