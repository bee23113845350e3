package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DateLayout is the format datepicker answers arrive in.
const DateLayout = "01/02/2006"

type Response struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	QuestionID     uint        `json:"question_id" gorm:"not null;uniqueIndex:idx_response_respondent_question"`
	Question       *Question   `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	RespondentUUID string      `json:"respondent_uuid" gorm:"size:54;not null;uniqueIndex:idx_response_respondent_question"`
	Respondent     *Respondent `json:"-" gorm:"foreignKey:RespondentUUID"`

	Answer       *string          `json:"answer" gorm:"type:text"`
	AnswerNumber *decimal.Decimal `json:"answer_number,omitempty" gorm:"type:decimal(10,2)"`
	AnswerRaw    datatypes.JSON   `json:"answer_raw"`
	AnswerDate   *time.Time       `json:"answer_date,omitempty"`
	TS           time.Time        `json:"ts"`
	UpdatedAt    time.Time        `json:"updated_at"`

	MultiAnswers []MultiAnswer `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	GridAnswers  []GridAnswer  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Locations    []Location    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

func (Response) TableName() string {
	return "responses"
}

// Parsed decodes the stored raw answer against the question type.
func (r *Response) Parsed() Answer {
	if r.Question == nil {
		return ParseAnswer(QuestionText, []byte(r.AnswerRaw))
	}
	return ParseAnswer(r.Question.Type, []byte(r.AnswerRaw))
}

// FlatFields is the response's contribution to the respondent export row.
func (r *Response) FlatFields() map[string]string {
	flat := map[string]string{}
	if r.Question == nil || len(r.AnswerRaw) == 0 {
		return flat
	}
	q := r.Question
	switch {
	case q.Type.IsNumeric():
		if r.AnswerNumber != nil {
			flat[q.Slug] = r.AnswerNumber.String()
		} else {
			flat[q.Slug] = ""
		}
	case q.Type == QuestionDatePicker:
		if r.AnswerDate != nil {
			flat[q.Slug] = r.AnswerDate.Format(DateLayout)
		}
	case q.Type == QuestionGrid:
		for _, g := range r.GridAnswers {
			flat[q.Slug+"-"+deref(g.RowLabel)] = deref(g.AnswerText)
		}
	default:
		flat[q.Slug] = deref(r.Answer)
	}
	return flat
}

type MultiAnswer struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	ResponseID  uint    `json:"response_id" gorm:"not null;index"`
	AnswerText  string  `json:"answer_text" gorm:"type:text"`
	AnswerLabel *string `json:"answer_label,omitempty" gorm:"type:text"`
}

func (MultiAnswer) TableName() string {
	return "multi_answers"
}

type GridAnswer struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	ResponseID   uint             `json:"response_id" gorm:"not null;index"`
	RowText      *string          `json:"row_text,omitempty" gorm:"type:text"`
	RowLabel     *string          `json:"row_label,omitempty" gorm:"type:text"`
	ColText      *string          `json:"col_text,omitempty" gorm:"type:text"`
	ColLabel     *string          `json:"col_label,omitempty" gorm:"type:text"`
	AnswerText   *string          `json:"answer_text,omitempty" gorm:"type:text"`
	AnswerNumber *decimal.Decimal `json:"answer_number,omitempty" gorm:"type:decimal(10,2)"`
}

func (GridAnswer) TableName() string {
	return "grid_answers"
}

type Location struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	ResponseID     uint             `json:"response_id" gorm:"not null;index"`
	RespondentUUID string           `json:"respondent_uuid" gorm:"size:54;index"`
	Lat            decimal.Decimal  `json:"lat" gorm:"type:decimal(10,7)"`
	Lng            decimal.Decimal  `json:"lng" gorm:"type:decimal(10,7)"`
	Answers        []LocationAnswer `json:"answers" gorm:"constraint:OnDelete:CASCADE"`
}

func (Location) TableName() string {
	return "locations"
}

type LocationAnswer struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	LocationID uint    `json:"location_id" gorm:"not null;index"`
	Answer     *string `json:"answer,omitempty" gorm:"type:text"`
	Label      *string `json:"label,omitempty" gorm:"type:text"`
}

func (LocationAnswer) TableName() string {
	return "location_answers"
}

// Normalize fills the derived answer columns and rebuilds the related rows
// from the raw answer. Related rows are returned unsaved; the caller replaces
// whatever was stored before.
func (r *Response) Normalize(q *Question, a Answer) {
	r.Answer = nil
	r.AnswerNumber = nil
	r.AnswerDate = nil
	r.MultiAnswers = nil
	r.GridAnswers = nil
	r.Locations = nil

	text := a.Display()
	switch {
	case q.Type == QuestionDatePicker:
		if d, err := time.Parse(DateLayout, a.Scalar); err == nil {
			r.AnswerDate = &d
		}
		r.Answer = &text
	case q.Type.IsNumeric():
		if a.Number != nil {
			n := *a.Number
			r.AnswerNumber = &n
			r.Answer = &text
		}
	case q.Type == QuestionMultiSelect:
		for _, o := range a.Options {
			ma := MultiAnswer{AnswerText: o.Text}
			if o.Label != "" {
				label := o.Label
				ma.AnswerLabel = &label
			}
			r.MultiAnswers = append(r.MultiAnswers, ma)
		}
		r.Answer = &text
	case q.Type.IsGeo():
		for _, p := range a.Locations {
			loc := Location{RespondentUUID: r.RespondentUUID, Lat: p.Lat, Lng: p.Lng}
			for _, act := range p.Answers.Activities {
				text, label := act.Text, act.Label
				loc.Answers = append(loc.Answers, LocationAnswer{Answer: &text, Label: &label})
			}
			r.Locations = append(r.Locations, loc)
		}
		r.Answer = &text
	case q.Type == QuestionGrid:
		r.GridAnswers = gridAnswers(q, a.Grid)
		r.Answer = &text
	default:
		r.Answer = &text
	}
}

func gridAnswers(q *Question, rows []GridRow) []GridAnswer {
	var out []GridAnswer
	for _, row := range rows {
		rowLabel, rowText := row.Label, row.Text
		for _, col := range q.GridCols {
			colLabel, colText := col.Label, col.Text
			base := GridAnswer{RowLabel: &rowLabel, RowText: &rowText, ColLabel: &colLabel, ColText: &colText}
			switch col.Type {
			case QuestionMultiSelect:
				for _, v := range row.ColumnList(col.ColumnKey()) {
					ga := base
					v := v
					ga.AnswerText = &v
					out = append(out, ga)
				}
			default:
				v, ok := row.Column(col.ColumnKey())
				if !ok {
					continue
				}
				ga := base
				ga.AnswerText = &v
				if d, err := decimal.NewFromString(v); err == nil {
					ga.AnswerNumber = &d
				}
				out = append(out, ga)
			}
		}
	}
	return out
}
