package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RespondentStatus string

const (
	RespondentComplete  RespondentStatus = "complete"
	RespondentTerminate RespondentStatus = "terminate"
)

type ReviewStatus string

const (
	ReviewNeeded   ReviewStatus = "needs review"
	ReviewFlagged  ReviewStatus = "flagged"
	ReviewAccepted ReviewStatus = "accepted"
)

// Display is the label shown in exports.
func (r ReviewStatus) Display() string {
	switch r {
	case ReviewNeeded:
		return "Needs Review"
	case ReviewFlagged:
		return "Flagged"
	case ReviewAccepted:
		return "Accepted"
	}
	return string(r)
}

// FilterFields maps question slugs to the respondent column an answer to
// that question is copied onto.
var FilterFields = map[string]string{
	"vendor":       "vendor",
	"survey-site":  "survey_site",
	"buy-or-catch": "buy_or_catch",
	"how-sold":     "how_sold",
	"email":        "email",
}

type Respondent struct {
	UUID     string  `json:"uuid" gorm:"primaryKey;size:54"`
	SurveyID uint    `json:"survey_id" gorm:"not null;index"`
	Survey   *Survey `json:"survey,omitempty" gorm:"foreignKey:SurveyID"`

	Complete      bool              `json:"complete" gorm:"default:false;index"`
	Status        *RespondentStatus `json:"status,omitempty" gorm:"size:20"`
	ReviewStatus  ReviewStatus      `json:"review_status" gorm:"size:20;default:needs review;index"`
	ReviewComment *string           `json:"review_comment,omitempty" gorm:"type:text"`
	LastQuestion  *string           `json:"last_question,omitempty" gorm:"size:240"`

	// Filtering fields
	Vendor     *string `json:"vendor,omitempty" gorm:"size:240"`
	SurveySite *string `json:"survey_site,omitempty" gorm:"size:240;index"`
	BuyOrCatch *string `json:"buy_or_catch,omitempty" gorm:"size:240"`
	HowSold    *string `json:"how_sold,omitempty" gorm:"size:240"`
	Email      *string `json:"email,omitempty" gorm:"size:254"`
	Surveyor   *string `json:"surveyor,omitempty" gorm:"size:254;index"`

	Locations int            `json:"locations" gorm:"default:0"`
	TS        time.Time      `json:"ts" gorm:"index"`
	UpdatedAt time.Time      `json:"updated_at"`
	TestData  bool           `json:"test_data" gorm:"default:false"`
	FlatData  datatypes.JSON `json:"flat_data,omitempty"`

	Responses []Response `json:"responses,omitempty" gorm:"foreignKey:RespondentUUID;constraint:OnDelete:CASCADE"`
}

func (Respondent) TableName() string {
	return "respondents"
}

// NormalizeUUID replaces characters that are not allowed in respondent ids.
func NormalizeUUID(id string) string {
	return strings.ReplaceAll(id, ":", "_")
}

func (r *Respondent) BeforeSave(tx *gorm.DB) error {
	r.UUID = NormalizeUUID(r.UUID)
	if r.TS.IsZero() {
		r.TS = time.Now().UTC()
	}
	if r.ReviewStatus == "" {
		r.ReviewStatus = ReviewNeeded
	}
	return nil
}

// SetFilterField copies an answer onto the matching filtering column.
// It reports whether slug names a filtering field.
func (r *Respondent) SetFilterField(slug, value string) bool {
	column, ok := FilterFields[slug]
	if !ok {
		return false
	}
	v := &value
	switch column {
	case "vendor":
		r.Vendor = v
	case "survey_site":
		r.SurveySite = v
	case "buy_or_catch":
		r.BuyOrCatch = v
	case "how_sold":
		r.HowSold = v
	case "email":
		r.Email = v
	}
	return true
}

// FlatRow builds the export row: respondent columns plus one entry per
// stored response.
func (r *Respondent) FlatRow() map[string]string {
	flat := map[string]string{
		"model-surveyor":      deref(r.Surveyor),
		"model-timestamp":     r.TS.Format(time.RFC3339),
		"model-email":         deref(r.Email),
		"model-complete":      boolText(r.Complete),
		"model-review-status": r.ReviewStatus.Display(),
	}
	for i := range r.Responses {
		for k, v := range r.Responses[i].FlatFields() {
			flat[k] = v
		}
	}
	return flat
}

// ReviewUpdate changes the review state of a respondent.
type ReviewUpdate struct {
	ReviewStatus  ReviewStatus `json:"review_status" binding:"required" validate:"required,review_status"`
	ReviewComment *string      `json:"review_comment" validate:"omitempty,max=4000"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func boolText(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
