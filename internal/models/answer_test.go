package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnswer(t *testing.T) {
	t.Run("Scalar_String", func(t *testing.T) {
		a := ParseAnswer(QuestionText, json.RawMessage(`"hello"`))
		assert.Equal(t, AnswerScalar, a.Kind)
		assert.Equal(t, "hello", a.Scalar)
		assert.Nil(t, a.Number)
	})

	t.Run("Scalar_Number", func(t *testing.T) {
		a := ParseAnswer(QuestionInteger, json.RawMessage(`5`))
		assert.Equal(t, AnswerScalar, a.Kind)
		assert.Equal(t, "5", a.Scalar)
		require.NotNil(t, a.Number)
		assert.Equal(t, "5", a.Number.String())
	})

	t.Run("Option_With_Name_Alias", func(t *testing.T) {
		a := ParseAnswer(QuestionSingleSelect, json.RawMessage(`{"name":" Portland ","label":"portland"}`))
		assert.Equal(t, AnswerOption, a.Kind)
		require.NotNil(t, a.Option)
		assert.Equal(t, "Portland", a.Option.Text)
		assert.Equal(t, []string{"Portland", "portland"}, a.Values())
	})

	t.Run("Option_List", func(t *testing.T) {
		a := ParseAnswer(QuestionMultiSelect, json.RawMessage(`[{"text":"A","label":"a"},{"text":"B","label":"b"}]`))
		assert.Equal(t, AnswerOptionList, a.Kind)
		assert.Len(t, a.Options, 2)
		assert.Equal(t, "A, B", a.Display())
		assert.True(t, a.IsList())
	})

	t.Run("Double_Encoded_Locations", func(t *testing.T) {
		inner := `[{"lat":45.5,"lng":-122.6,"answers":[[{"text":"Fishing","label":"fishing"}],4]}]`
		raw, err := json.Marshal(inner)
		require.NoError(t, err)

		a := ParseAnswer(QuestionMapMultipoint, raw)
		require.Equal(t, AnswerLocations, a.Kind)
		require.Len(t, a.Locations, 1)
		p := a.Locations[0]
		assert.Equal(t, "45.5", p.Lat.String())
		require.Len(t, p.Answers.Activities, 1)
		assert.Equal(t, "fishing", p.Answers.Activities[0].Label)
		require.NotNil(t, p.Answers.Hours)
		assert.Equal(t, 4.0, *p.Answers.Hours)
		assert.Equal(t, "45.5,-122.6: [Fishing]", a.Display())
	})

	t.Run("Named_Location_Record", func(t *testing.T) {
		raw := `[{"lat":1,"lng":2,"answers":{"activities":[{"text":"Diving"}],"why_quality":"clear water"},"pennies":40}]`
		a := ParseAnswer(QuestionPennies, json.RawMessage(raw))
		require.Equal(t, AnswerLocations, a.Kind)
		assert.Equal(t, "clear water", a.Locations[0].Answers.WhyQuality)
		assert.Equal(t, 40.0, a.PenniesTotal())
	})

	t.Run("Grid_Rows", func(t *testing.T) {
		a := ParseAnswer(QuestionGrid, json.RawMessage(`[{"label":"tuna","text":"Tuna","costperpound":"3.5"}]`))
		require.Equal(t, AnswerGrid, a.Kind)
		v, ok := a.Grid[0].Column("costperpound")
		assert.True(t, ok)
		assert.Equal(t, "3.5", v)
	})

	t.Run("Malformed_Falls_Back_To_Raw", func(t *testing.T) {
		a := ParseAnswer(QuestionMultiSelect, json.RawMessage(`{not json`))
		assert.Equal(t, AnswerScalar, a.Kind)
		assert.Equal(t, "{not json", a.Scalar)
	})

	t.Run("Marshal_Keeps_Raw", func(t *testing.T) {
		raw := json.RawMessage(`{"text":"Yes","label":"yes"}`)
		out, err := json.Marshal(ParseAnswer(QuestionYesNo, raw))
		require.NoError(t, err)
		assert.JSONEq(t, string(raw), string(out))
	})
}

func TestResponseNormalize(t *testing.T) {
	t.Run("Number", func(t *testing.T) {
		q := &Question{Slug: "boats", Type: QuestionInteger}
		r := &Response{}
		r.Normalize(q, ParseAnswer(q.Type, json.RawMessage(`12`)))
		require.NotNil(t, r.AnswerNumber)
		assert.Equal(t, "12", r.AnswerNumber.String())
	})

	t.Run("Non_Numeric_Number_Clears_Answer", func(t *testing.T) {
		q := &Question{Slug: "boats", Type: QuestionNumber}
		r := &Response{}
		r.Normalize(q, ParseAnswer(q.Type, json.RawMessage(`"a dozen"`)))
		assert.Nil(t, r.Answer)
		assert.Nil(t, r.AnswerNumber)
	})

	t.Run("Date", func(t *testing.T) {
		q := &Question{Slug: "survey-date", Type: QuestionDatePicker}
		r := &Response{}
		r.Normalize(q, ParseAnswer(q.Type, json.RawMessage(`"03/20/2014"`)))
		require.NotNil(t, r.AnswerDate)
		assert.Equal(t, 20, r.AnswerDate.Day())
	})

	t.Run("Grid_Expands_Multi_Select_Columns", func(t *testing.T) {
		q := &Question{
			Slug: "species",
			Type: QuestionGrid,
			GridCols: []Option{
				{Text: "Cost", Label: "cost-per-pound", Type: QuestionCurrency},
				{Text: "Gear", Label: "gear", Type: QuestionMultiSelect},
			},
		}
		raw := `[{"label":"tuna","text":"Tuna","costperpound":"3.5","gear":[{"text":"Troll"},{"text":"Line"}]}]`
		r := &Response{}
		r.Normalize(q, ParseAnswer(q.Type, json.RawMessage(raw)))
		require.Len(t, r.GridAnswers, 3)
		assert.Equal(t, "3.5", r.GridAnswers[0].AnswerNumber.String())
	})

	t.Run("Locations", func(t *testing.T) {
		q := &Question{Slug: "map", Type: QuestionMapMultipoint}
		r := &Response{RespondentUUID: "abc"}
		raw := `[{"lat":1,"lng":2,"answers":[[{"text":"Fishing","label":"fishing"},{"text":"Diving","label":"diving"}]]}]`
		r.Normalize(q, ParseAnswer(q.Type, json.RawMessage(raw)))
		require.Len(t, r.Locations, 1)
		assert.Len(t, r.Locations[0].Answers, 2)
		assert.Equal(t, "abc", r.Locations[0].RespondentUUID)
	})
}

func TestSurveyGenerateFieldNames(t *testing.T) {
	rows := "Tuna\nSalmon (wild)"
	s := &Survey{Questions: []Question{
		{ID: 1, Slug: "vendor", Label: "Vendor", Type: QuestionText},
		{ID: 2, Slug: "species", Label: "Species", Type: QuestionGrid, Rows: &rows},
		{ID: 3, Slug: "catch", Label: "Catch", Type: QuestionGrid},
	}}

	fields := s.GenerateFieldNames([]GridRowLabel{{QuestionID: 3, Label: "crab", Text: "Crab"}})
	require.Len(t, fields, 4)
	assert.Equal(t, "species-tuna", fields[1].Slug)
	assert.Equal(t, "species-salmon-wild", fields[2].Slug)
	assert.Equal(t, "Catch - Crab", fields[3].Label)
}

func TestRespondentFilterFields(t *testing.T) {
	r := &Respondent{UUID: "a:b"}
	assert.True(t, r.SetFilterField("survey-site", "Pier 39"))
	assert.False(t, r.SetFilterField("unrelated", "x"))
	require.NotNil(t, r.SurveySite)
	assert.Equal(t, "Pier 39", *r.SurveySite)
	assert.Equal(t, "a_b", NormalizeUUID(r.UUID))
}

func TestParseSurveyDefinition_YAML(t *testing.T) {
	doc := `
name: Catch report
slug: catch-report
questions:
  - slug: boats
    title: How many boats?
    type: integer
    order: 1
  - slug: boat-names
    title: Boat names
    type: text
    order: 2
    blocks:
      - skip_question: boats
        skip_condition: ">0"
`
	survey, err := ParseSurveyDefinition([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "catch-report", survey.Slug)
	require.Len(t, survey.Questions, 2)
	assert.Equal(t, QuestionInteger, survey.Questions[0].Type)
	assert.Equal(t, "boats", survey.Questions[1].Blocks[0].ReferenceSlug())

	_, err = ParseSurveyDefinition([]byte("  "))
	assert.Error(t, err)
}
