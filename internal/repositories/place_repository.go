package repositories

import (
	"context"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"gorm.io/gorm"
)

type PlaceRepository interface {
	// Upsert matches on type, name, state and county and refreshes the
	// coordinates of an existing place.
	Upsert(ctx context.Context, tx *gorm.DB, place *models.Place) (created bool, err error)
	Search(ctx context.Context, tx *gorm.DB, filters PlaceFilters) ([]*models.Place, error)
}
