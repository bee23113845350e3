package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/survey-service/internal/models"
)

func strPtr(s string) *string { return &s }

func question(order int, slug string, qType models.QuestionType) models.Question {
	return models.Question{Order: order, Slug: slug, Type: qType, Title: slug}
}

func withSkip(q models.Question, ref, cond string) models.Question {
	q.Blocks = append(q.Blocks, models.Block{SkipQuestionSlug: ref, SkipCondition: strPtr(cond)})
	return q
}

func testSurvey() *models.Survey {
	term := question(2, "consent", models.QuestionYesNo)
	term.TermCondition = strPtr("=no")
	return &models.Survey{
		Slug: "catch-report",
		Questions: []models.Question{
			question(1, "boats", models.QuestionInteger),
			term,
			withSkip(question(3, "boat-names", models.QuestionText), "boats", ">0"),
			withSkip(question(4, "map-modal", models.QuestionMapMultipoint), "boats", ">0"),
			withSkip(withSkip(question(5, "species", models.QuestionMultiSelect), "boats", ">0"), "consent", "=yes"),
			question(6, "email", models.QuestionText),
		},
	}
}

func newNavigator(t *testing.T) *Navigator {
	t.Helper()
	def, err := NewDefinition(testSurvey())
	require.NoError(t, err)
	return NewNavigator(def)
}

func TestNewDefinition(t *testing.T) {
	t.Run("Orders_Questions", func(t *testing.T) {
		s := testSurvey()
		s.Questions[0], s.Questions[5] = s.Questions[5], s.Questions[0]
		def, err := NewDefinition(s)
		require.NoError(t, err)
		assert.Equal(t, "boats", def.Questions()[0].Slug)
		assert.Equal(t, 6, def.Len())
	})

	t.Run("Rejects_Forward_Reference", func(t *testing.T) {
		s := &models.Survey{Questions: []models.Question{
			withSkip(question(1, "first", models.QuestionText), "second", "=x"),
			question(2, "second", models.QuestionText),
		}}
		_, err := NewDefinition(s)
		assert.ErrorIs(t, err, ErrForwardReference)
	})

	t.Run("Rejects_Self_Reference", func(t *testing.T) {
		s := &models.Survey{Questions: []models.Question{
			withSkip(question(1, "first", models.QuestionText), "first", "=x"),
		}}
		_, err := NewDefinition(s)
		assert.ErrorIs(t, err, ErrForwardReference)
	})

	t.Run("Rejects_Unknown_Reference", func(t *testing.T) {
		s := &models.Survey{Questions: []models.Question{
			withSkip(question(1, "first", models.QuestionText), "ghost", "=x"),
		}}
		_, err := NewDefinition(s)
		assert.ErrorIs(t, err, ErrMissingReferenced)
	})

	t.Run("Rejects_Duplicate_Slug", func(t *testing.T) {
		s := &models.Survey{Questions: []models.Question{
			question(1, "a", models.QuestionText),
			question(2, "a", models.QuestionText),
		}}
		_, err := NewDefinition(s)
		assert.ErrorIs(t, err, ErrDuplicateSlug)
	})

	t.Run("Rejects_Bad_Condition", func(t *testing.T) {
		s := &models.Survey{Questions: []models.Question{
			question(1, "a", models.QuestionText),
			withSkip(question(2, "b", models.QuestionText), "a", "~x"),
		}}
		_, err := NewDefinition(s)
		assert.ErrorIs(t, err, ErrInvalidCondition)
	})

	t.Run("Rejects_Empty", func(t *testing.T) {
		_, err := NewDefinition(&models.Survey{})
		assert.ErrorIs(t, err, ErrEmptyDefinition)
	})
}

func TestNavigatorNext(t *testing.T) {
	t.Run("Unanswered_Reference_Keeps", func(t *testing.T) {
		nav := newNavigator(t)
		answers := NewAnswerStore()
		step := nav.First(answers)
		require.NotNil(t, step.Question)
		assert.Equal(t, "boats", step.Question.Slug)

		// boats is never answered: every condition reading it keeps
		answers.Set("consent", scalar("yes"))
		next, err := nav.Next(answers, "consent", 0)
		require.NoError(t, err)
		assert.Equal(t, "boat-names", next.Slug())
	})

	t.Run("Skips_And_Discards_Answers", func(t *testing.T) {
		nav := newNavigator(t)
		answers := NewAnswerStore()
		answers.Set("boats", scalar("2"))
		answers.Set("consent", scalar("yes"))
		answers.Set("boat-names", scalar("Sea Star"))

		step, err := nav.Next(answers, "consent", 0)
		require.NoError(t, err)
		// boat-names is skipped (2 > 0) and its answer dropped; the modal
		// question is shown even though its condition says skip
		assert.Equal(t, "map-modal", step.Slug())
		assert.Equal(t, []string{"boat-names"}, step.Discarded)
		_, ok := answers.Get("boat-names")
		assert.False(t, ok)
	})

	t.Run("All_Blocks_Must_Reject", func(t *testing.T) {
		nav := newNavigator(t)
		answers := NewAnswerStore()
		answers.Set("boats", scalar("2"))
		answers.Set("consent", scalar("no thanks"))

		// species: boats block rejects, consent block keeps
		step, err := nav.Next(answers, "map-modal", 0)
		require.NoError(t, err)
		assert.Equal(t, "species", step.Slug())

		answers.Set("consent", scalar("yes"))
		answers.Set("species", scalar("tuna"))
		step, err = nav.Next(answers, "map-modal", 0)
		require.NoError(t, err)
		assert.Equal(t, "email", step.Slug())
		assert.Equal(t, []string{"species"}, step.Discarded)
	})

	t.Run("Skip_Count_Moves_Start", func(t *testing.T) {
		nav := newNavigator(t)
		answers := NewAnswerStore()
		step, err := nav.Next(answers, "boats", 2)
		require.NoError(t, err)
		assert.Equal(t, "map-modal", step.Slug())
	})

	t.Run("End_Is_Complete", func(t *testing.T) {
		nav := newNavigator(t)
		step, err := nav.Next(NewAnswerStore(), "email", 0)
		require.NoError(t, err)
		assert.True(t, step.Done())
		assert.Equal(t, TerminalComplete, step.Terminal)
		assert.Nil(t, step.Question)
	})

	t.Run("Terminate_Condition", func(t *testing.T) {
		nav := newNavigator(t)
		answers := NewAnswerStore()
		answers.Set("consent", scalar("no"))
		step, err := nav.Next(answers, "consent", 0)
		require.NoError(t, err)
		assert.Equal(t, TerminalTerminate, step.Terminal)
		assert.Equal(t, "terminate", step.Slug())
	})

	t.Run("Unknown_Question", func(t *testing.T) {
		nav := newNavigator(t)
		_, err := nav.Next(NewAnswerStore(), "nope", 0)
		assert.ErrorIs(t, err, ErrUnknownQuestion)
	})
}

func TestNavigatorPrevious(t *testing.T) {
	nav := newNavigator(t)

	step, err := nav.Previous("species")
	require.NoError(t, err)
	// no skip logic going back
	assert.Equal(t, "map-modal", step.Slug())

	_, err = nav.Previous("boats")
	assert.ErrorIs(t, err, ErrNoPreviousStep)

	_, err = nav.Previous("nope")
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestAnswerStore(t *testing.T) {
	s := NewAnswerStore()
	s.Set("a", scalar("1"))
	s.Set("a", scalar("2"))
	assert.Equal(t, 1, s.Len())
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "2", got.Scalar)
	assert.True(t, s.Delete("a"))
	assert.False(t, s.Delete("a"))
	assert.Empty(t, s.Slugs())
}
