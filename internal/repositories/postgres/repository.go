package postgres

import (
	"context"

	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db         *gorm.DB
	survey     repositories.SurveyRepository
	respondent repositories.RespondentRepository
	response   repositories.ResponseRepository
	place      repositories.PlaceRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:         db,
		survey:     NewSurveyPostgreSQL(db),
		respondent: NewRespondentPostgreSQL(db),
		response:   NewResponsePostgreSQL(db),
		place:      NewPlacePostgreSQL(db),
	}
}

func (r *repository) Survey() repositories.SurveyRepository         { return r.survey }
func (r *repository) Respondent() repositories.RespondentRepository { return r.respondent }
func (r *repository) Response() repositories.ResponseRepository     { return r.response }
func (r *repository) Place() repositories.PlaceRepository           { return r.place }

func (r *repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
