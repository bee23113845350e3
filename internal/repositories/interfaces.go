package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/survey-service/internal/models"
	"gorm.io/gorm"
)

// Repository groups the survey repositories behind one handle so services
// can run several of them in a single transaction.
type Repository interface {
	Survey() SurveyRepository
	Respondent() RespondentRepository
	Response() ResponseRepository
	Place() PlaceRepository

	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
	Close() error
}

// ===== SHARED FILTER STRUCTS =====

type RespondentFilters struct {
	SurveySlug   string               `form:"-"`
	StartDate    *time.Time           `form:"start_date" time_format:"2006-01-02"`
	EndDate      *time.Time           `form:"end_date" time_format:"2006-01-02"`
	Market       string               `form:"market"`
	Surveyor     string               `form:"surveyor"`
	ReviewStatus *models.ReviewStatus `form:"status"`
	Limit        int                  `form:"limit"`
	Offset       int                  `form:"offset"`
}

type PlaceFilters struct {
	Name  string `form:"q"`
	State string `form:"state"`
	Limit int    `form:"limit"`
}
