package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type QuestionType string

const (
	QuestionInfo             QuestionType = "info"
	QuestionDatePicker       QuestionType = "datepicker"
	QuestionDateTimePicker   QuestionType = "datetimepicker"
	QuestionTimePicker       QuestionType = "timepicker"
	QuestionGrid             QuestionType = "grid"
	QuestionCurrency         QuestionType = "currency"
	QuestionPennies          QuestionType = "pennies"
	QuestionText             QuestionType = "text"
	QuestionTextArea         QuestionType = "textarea"
	QuestionSingleSelect     QuestionType = "single-select"
	QuestionMultiSelect      QuestionType = "multi-select"
	QuestionLocation         QuestionType = "location"
	QuestionInteger          QuestionType = "integer"
	QuestionNumber           QuestionType = "number"
	QuestionAutoSingleSelect QuestionType = "auto-single-select"
	QuestionMapMultipoint    QuestionType = "map-multipoint"
	QuestionYesNo            QuestionType = "yes-no"
)

// QuestionTypes lists every type a survey definition may use.
var QuestionTypes = []QuestionType{
	QuestionInfo, QuestionDatePicker, QuestionDateTimePicker, QuestionTimePicker,
	QuestionGrid, QuestionCurrency, QuestionPennies, QuestionText, QuestionTextArea,
	QuestionSingleSelect, QuestionMultiSelect, QuestionLocation, QuestionInteger,
	QuestionNumber, QuestionAutoSingleSelect, QuestionMapMultipoint, QuestionYesNo,
}

// IsNumeric reports whether answers of this type are stored as numbers.
func (t QuestionType) IsNumeric() bool {
	switch t {
	case QuestionCurrency, QuestionInteger, QuestionNumber:
		return true
	}
	return false
}

// IsSingleChoice reports whether the answer is one option reference.
func (t QuestionType) IsSingleChoice() bool {
	switch t {
	case QuestionSingleSelect, QuestionAutoSingleSelect, QuestionYesNo:
		return true
	}
	return false
}

// IsGeo reports whether the answer is a list of located points.
func (t QuestionType) IsGeo() bool {
	return t == QuestionMapMultipoint || t == QuestionPennies
}

// ModalMarker is the slug fragment that exempts a question from skip logic.
const ModalMarker = "modal"

type Question struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Title string `json:"title" gorm:"type:text;not null" validate:"required"`
	Label string `json:"label" gorm:"size:254"`
	Order int    `json:"order" gorm:"column:sort_order;default:0;index"`
	Slug  string `json:"slug" gorm:"size:64;not null;index" validate:"required,max=64"`

	Type     QuestionType `json:"type" gorm:"size:20;not null;default:text" validate:"required,question_type"`
	Required bool         `json:"required" gorm:"default:true"`

	// Newline separated options for single/multi select and grid rows.
	Rows        *string `json:"rows,omitempty" gorm:"type:text"`
	Info        *string `json:"info,omitempty" gorm:"size:254"`
	OptionsJSON *string `json:"options_json,omitempty" gorm:"type:text"`

	GridCols []Option `json:"grid_cols,omitempty" gorm:"many2many:question_grid_cols"`

	// map question fields
	Zoom    *int             `json:"zoom,omitempty"`
	MinZoom *int             `json:"min_zoom,omitempty" gorm:"default:10"`
	Lat     *decimal.Decimal `json:"lat,omitempty" gorm:"type:decimal(10,7)"`
	Lng     *decimal.Decimal `json:"lng,omitempty" gorm:"type:decimal(10,7)"`

	IntegerMin *int `json:"integer_min,omitempty"`
	IntegerMax *int `json:"integer_max,omitempty"`

	TermCondition *string `json:"term_condition,omitempty" gorm:"size:254" validate:"omitempty,condition"`
	Blocks        []Block `json:"blocks,omitempty" gorm:"many2many:question_blocks"`

	RandomizeGroups           bool    `json:"randomize_groups" gorm:"default:false"`
	OptionsFromPreviousAnswer *string `json:"options_from_previous_answer,omitempty" gorm:"size:254"`
	AllowOther                bool    `json:"allow_other" gorm:"default:false"`

	ModalQuestionID *uint     `json:"modal_question_id,omitempty"`
	ModalQuestion   *Question `json:"-" gorm:"foreignKey:ModalQuestionID"`
	HoistAnswersID  *uint     `json:"hoist_answers_id,omitempty"`
	HoistAnswers    *Question `json:"-" gorm:"foreignKey:HoistAnswersID"`
}

func (Question) TableName() string {
	return "questions"
}

// IsModal reports whether the slug carries the modal marker.
func (q *Question) IsModal() bool {
	return strings.Contains(q.Slug, ModalMarker)
}

// RowList splits Rows into trimmed, non-empty lines.
func (q *Question) RowList() []string {
	if q.Rows == nil {
		return nil
	}
	var rows []string
	for _, line := range strings.Split(*q.Rows, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			rows = append(rows, line)
		}
	}
	return rows
}

type Option struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	Text     string       `json:"text" gorm:"size:254;not null" validate:"required"`
	Label    string       `json:"label" gorm:"size:64;not null" validate:"required"`
	Type     QuestionType `json:"type" gorm:"size:20;default:integer"`
	Rows     *string      `json:"rows,omitempty" gorm:"type:text"`
	Required bool         `json:"required" gorm:"default:true"`
	Order    *int         `json:"order,omitempty" gorm:"column:sort_order"`
	Min      *int         `json:"min,omitempty"`
	Max      *int         `json:"max,omitempty"`
}

func (Option) TableName() string {
	return "options"
}

// ColumnKey is the key a grid row object uses for this column.
func (o *Option) ColumnKey() string {
	return strings.ReplaceAll(o.Label, "-", "")
}

// Block groups skip logic for the questions that reference it.
type Block struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Name           *string   `json:"name,omitempty" gorm:"size:254"`
	SkipQuestionID *uint     `json:"skip_question_id,omitempty"`
	SkipQuestion   *Question `json:"-" gorm:"foreignKey:SkipQuestionID"`
	// Must start with >, <, ! or =.
	SkipCondition *string `json:"skip_condition,omitempty" gorm:"size:254" validate:"omitempty,condition"`

	// Slug of SkipQuestion, used by definitions loaded from files.
	SkipQuestionSlug string `json:"skip_question,omitempty" gorm:"-"`
}

func (Block) TableName() string {
	return "blocks"
}

// ReferenceSlug is the slug of the question this block's condition reads.
func (b *Block) ReferenceSlug() string {
	if b.SkipQuestionSlug != "" {
		return b.SkipQuestionSlug
	}
	if b.SkipQuestion != nil {
		return b.SkipQuestion.Slug
	}
	return ""
}
