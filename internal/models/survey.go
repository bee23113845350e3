package models

import (
	"strings"
	"time"
)

type Survey struct {
	ID      uint    `json:"id" gorm:"primaryKey"`
	Name    string  `json:"name" gorm:"size:254;not null" validate:"required,max=254"`
	Slug    string  `json:"slug" gorm:"size:254;uniqueIndex;not null" validate:"required,max=254"`
	States  *string `json:"states,omitempty" gorm:"size:200"`
	Anon    bool    `json:"anon" gorm:"default:true"`
	Offline bool    `json:"offline" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions" gorm:"many2many:survey_pages" validate:"dive"`
}

func (Survey) TableName() string {
	return "surveys"
}

// Question returns the question with the given slug.
func (s *Survey) Question(slug string) (*Question, bool) {
	for i := range s.Questions {
		if s.Questions[i].Slug == slug {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// SurveyStats is the dashboard summary of one survey.
type SurveyStats struct {
	SurveyResponses   int64      `json:"survey_responses"`
	Completes         int64      `json:"completes"`
	ReviewsNeeded     int64      `json:"reviews_needed"`
	Flagged           int64      `json:"flagged"`
	ActivityPoints    int64      `json:"activity_points"`
	ResponseDateStart *time.Time `json:"response_date_start"`
	ResponseDateEnd   *time.Time `json:"response_date_end"`
	Today             int64      `json:"today"`
}

// FieldName is one export column.
type FieldName struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// RespondentFieldNames are the model columns leading every export row.
var RespondentFieldNames = []FieldName{
	{Slug: "model-surveyor", Label: "Surveyor"},
	{Slug: "model-timestamp", Label: "Date of survey"},
	{Slug: "model-email", Label: "Email"},
	{Slug: "model-complete", Label: "Complete"},
	{Slug: "model-review-status", Label: "Review Status"},
}

// RowSlug turns a grid row caption into the slug used for its export column.
func RowSlug(row string) string {
	r := strings.NewReplacer(" ", "-", "(", "", ")", "", "/", "")
	return r.Replace(strings.ToLower(row))
}

// GridRowLabel is a distinct row seen in stored grid answers.
type GridRowLabel struct {
	QuestionID uint
	Label      string
	Text       string
}

// GenerateFieldNames lists export columns in question order. Grid questions
// expand to one column per row; grids without fixed rows use the rows seen
// in stored answers.
func (s *Survey) GenerateFieldNames(seen []GridRowLabel) []FieldName {
	var fields []FieldName
	for _, q := range s.Questions {
		if q.Type != QuestionGrid {
			fields = append(fields, FieldName{Slug: q.Slug, Label: q.Label})
			continue
		}
		if rows := q.RowList(); len(rows) > 0 {
			for _, row := range rows {
				fields = append(fields, FieldName{
					Slug:  q.Slug + "-" + RowSlug(row),
					Label: q.Label + " - " + row,
				})
			}
			continue
		}
		for _, r := range seen {
			if r.QuestionID == q.ID {
				fields = append(fields, FieldName{
					Slug:  q.Slug + "-" + r.Label,
					Label: q.Label + " - " + r.Text,
				})
			}
		}
	}
	return fields
}
