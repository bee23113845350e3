package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"gorm.io/gorm"
)

const defaultPlaceLimit = 20

type PlacePostgreSQL struct {
	db *gorm.DB
}

func NewPlacePostgreSQL(db *gorm.DB) repositories.PlaceRepository {
	return &PlacePostgreSQL{db: db}
}

// Upsert matches on type, name, state and county and always takes the
// incoming coordinates.
func (p *PlacePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, place *models.Place) (bool, error) {
	db := p.getDB(tx).WithContext(ctx)
	lat, lng := place.Lat, place.Lng

	result := db.
		Where("type = ? AND name = ? AND state = ? AND county = ?", place.Type, place.Name, place.State, place.County).
		FirstOrCreate(place)
	if result.Error != nil {
		return false, fmt.Errorf("failed to get or create place: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	if !place.Lat.Equal(lat) || !place.Lng.Equal(lng) {
		place.Lat, place.Lng = lat, lng
		if err := db.Model(place).Updates(map[string]any{"lat": lat, "lng": lng}).Error; err != nil {
			return false, fmt.Errorf("failed to update place: %w", err)
		}
	}
	return false, nil
}

// Search matches places by name prefix, optionally within one state
func (p *PlacePostgreSQL) Search(ctx context.Context, tx *gorm.DB, filters repositories.PlaceFilters) ([]*models.Place, error) {
	query := p.getDB(tx).WithContext(ctx).Model(&models.Place{})
	if filters.Name != "" {
		query = query.Where("name ILIKE ?", filters.Name+"%")
	}
	if filters.State != "" {
		query = query.Where("state = ?", filters.State)
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultPlaceLimit
	}

	var places []*models.Place
	if err := query.Order("name ASC").Limit(limit).Find(&places).Error; err != nil {
		return nil, err
	}
	return places, nil
}

func (p *PlacePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}
