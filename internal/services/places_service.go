package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/survey-service/internal/cache"
	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
)

const maxPlaceResults = 100

type PlacesService interface {
	Search(ctx context.Context, filters repositories.PlaceFilters) ([]*models.Place, error)
}

type placesService struct {
	repo     repositories.Repository
	cache    cache.CacheService
	logger   *slog.Logger
	cacheTTL time.Duration
}

func NewPlacesService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger, cacheTTL time.Duration) PlacesService {
	return &placesService{repo: repo, cache: cacheService, logger: logger, cacheTTL: cacheTTL}
}

func placesCacheKey(f repositories.PlaceFilters) string {
	return fmt.Sprintf("places:%s:%s:%d", strings.ToLower(f.State), strings.ToLower(f.Name), f.Limit)
}

func (s *placesService) Search(ctx context.Context, filters repositories.PlaceFilters) ([]*models.Place, error) {
	if filters.Limit > maxPlaceResults {
		filters.Limit = maxPlaceResults
	}

	key := placesCacheKey(filters)
	if s.cache != nil {
		var cached []*models.Place
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	places, err := s.repo.Place().Search(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search places: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, places, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache places", "key", key, "error", err)
		}
	}
	return places, nil
}
