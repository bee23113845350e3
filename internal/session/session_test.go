package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/survey-service/internal/client"
	"github.com/SAP-F-2025/survey-service/internal/flow"
	"github.com/SAP-F-2025/survey-service/internal/localstore"
	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/validator"
)

func strPtr(s string) *string { return &s }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSurvey() *models.Survey {
	consent := models.Question{Order: 2, Slug: "consent", Type: models.QuestionYesNo, Required: true, TermCondition: strPtr("=no")}
	boatNames := models.Question{Order: 3, Slug: "boat-names", Type: models.QuestionText, Required: true,
		Blocks: []models.Block{{SkipQuestionSlug: "boats", SkipCondition: strPtr(">0")}}}
	return &models.Survey{Slug: "catch-report", Questions: []models.Question{
		{Order: 0, Slug: "intro", Type: models.QuestionInfo},
		{Order: 1, Slug: "boats", Type: models.QuestionInteger, Required: true},
		consent,
		boatNames,
		{Order: 4, Slug: "fishing-map", Type: models.QuestionMapMultipoint, Required: true},
		{Order: 5, Slug: "notes", Type: models.QuestionTextArea},
	}}
}

func offline(t *testing.T) (*OfflineStore, localstore.Storage) {
	t.Helper()
	storage, err := localstore.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return NewOfflineStore(storage), storage
}

func TestOfflinePersister_ReplacesAnswer(t *testing.T) {
	ctx := context.Background()
	store, storage := offline(t)
	s, err := New(ModeOffline, testSurvey(), "kiosk:1")
	require.NoError(t, err)
	assert.Equal(t, "kiosk_1", s.Respondent.UUID)

	p := NewOfflinePersister(store, testLogger())
	q, _ := s.Navigator.Definition().Question("boats")
	_, err = p.Save(ctx, s, q, models.ParseAnswer(q.Type, json.RawMessage(`1`)))
	require.NoError(t, err)
	_, err = p.Save(ctx, s, q, models.ParseAnswer(q.Type, json.RawMessage(`3`)))
	require.NoError(t, err)

	snap, err := store.Load(ctx, s.Respondent.UUID)
	require.NoError(t, err)
	require.Len(t, snap.Responses, 1)
	assert.JSONEq(t, `3`, string(snap.Responses[0].Answer))

	raw, err := storage.GetItem(ctx, IndexKey)
	require.NoError(t, err)
	assert.NotContains(t, raw, "responses", "index must not embed the active respondent")
	idx, err := store.Index(ctx)
	require.NoError(t, err)
	require.Len(t, idx.Sessions, 1)
	assert.Equal(t, "kiosk_1", idx.Resume)
	assert.Equal(t, 1, idx.Sessions[0].Answered)
}

const script = `
survey: catch-report
answers:
  boats: 2
  consent: {text: "Yes", label: "yes"}
  boat-names: "Sea Star"
  fishing-map:
    - lat: 45.5
      lng: -122.6
      activities: [{text: Fishing, label: fishing}]
      hours: 4
      reason: {text: Close to home, label: close}
      quality: {text: Good, label: good}
      why-quality: clear water
      accessibility: [{text: Boat ramp, label: ramp}]
    - lat: 45.6
      lng: -122.7
      cancel: true
`

func TestRunner_OfflineComplete(t *testing.T) {
	ctx := context.Background()
	store, _ := offline(t)
	src, err := ParseScript([]byte(script))
	require.NoError(t, err)

	s, err := New(ModeOffline, testSurvey(), "r1")
	require.NoError(t, err)
	r := NewRunner(NewOfflinePersister(store, testLogger()), validator.NewAnswerValidator(), testLogger())

	terminal, err := r.Run(ctx, s, src)
	require.NoError(t, err)
	assert.Equal(t, flow.TerminalComplete, terminal)

	snap, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, snap.Respondent.Complete)
	assert.Equal(t, "complete", snap.Respondent.Status)

	slugs := map[string]json.RawMessage{}
	for _, resp := range snap.Responses {
		slugs[resp.Question] = resp.Answer
	}
	assert.NotContains(t, slugs, "boat-names", "skipped question is not answered")
	require.Contains(t, slugs, "fishing-map")
	a := models.ParseAnswer(models.QuestionMapMultipoint, slugs["fishing-map"])
	require.Len(t, a.Locations, 1, "cancelled point is dropped")
	assert.Equal(t, "clear water", a.Locations[0].Answers.WhyQuality)

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	idx, err := store.Index(ctx)
	require.NoError(t, err)
	assert.Empty(t, idx.Resume)

	require.NoError(t, store.Remove(ctx, "r1"))
	pending, err = store.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRunner_Terminate(t *testing.T) {
	store, _ := offline(t)
	src, err := ParseScript([]byte("survey: catch-report\nanswers:\n  boats: 0\n  consent: {text: \"No\", label: \"no\"}\n"))
	require.NoError(t, err)

	s, err := New(ModeOffline, testSurvey(), "r2")
	require.NoError(t, err)
	r := NewRunner(NewOfflinePersister(store, testLogger()), validator.NewAnswerValidator(), testLogger())

	terminal, err := r.Run(context.Background(), s, src)
	require.NoError(t, err)
	assert.Equal(t, flow.TerminalTerminate, terminal)
	assert.Equal(t, "terminate", s.Respondent.Status)
}

func TestRunner_StopsOnMissingAnswerAndResumes(t *testing.T) {
	ctx := context.Background()
	store, _ := offline(t)
	src, err := ParseScript([]byte("survey: catch-report\nanswers:\n  boats: 0\n"))
	require.NoError(t, err)

	s, err := New(ModeOffline, testSurvey(), "r3")
	require.NoError(t, err)
	r := NewRunner(NewOfflinePersister(store, testLogger()), validator.NewAnswerValidator(), testLogger())

	_, err = r.Run(ctx, s, src)
	assert.ErrorIs(t, err, ErrNoAnswer)
	assert.Equal(t, "boats", s.Respondent.LastQuestion)

	snap, err := store.Load(ctx, "r3")
	require.NoError(t, err)
	resumed, err := New(ModeOffline, testSurvey(), "r3")
	require.NoError(t, err)
	resumed.Respondent = snap.Respondent
	resumed.Restore(snap.Responses)

	step, err := r.Start(resumed)
	require.NoError(t, err)
	assert.Equal(t, "consent", step.Slug())
}

func TestRunner_RejectedAnswerDoesNotAdvance(t *testing.T) {
	store, _ := offline(t)
	s, err := New(ModeOffline, testSurvey(), "r4")
	require.NoError(t, err)
	r := NewRunner(NewOfflinePersister(store, testLogger()), validator.NewAnswerValidator(), testLogger())

	q, _ := s.Navigator.Definition().Question("boats")
	step, err := r.Answer(context.Background(), s, q, json.RawMessage(`"lots"`))
	assert.ErrorIs(t, err, validator.ErrAnswerNotAccepted)
	assert.Equal(t, "boats", step.Slug())
	assert.Zero(t, s.Answers.Len())
}

func TestRunner_OfflineSnapshotDropsSkippedAnswers(t *testing.T) {
	ctx := context.Background()
	store, _ := offline(t)
	s, err := New(ModeOffline, testSurvey(), "r7")
	require.NoError(t, err)
	r := NewRunner(NewOfflinePersister(store, testLogger()), validator.NewAnswerValidator(), testLogger())
	def := s.Navigator.Definition()
	boats, _ := def.Question("boats")
	consent, _ := def.Question("consent")
	boatNames, _ := def.Question("boat-names")

	_, err = r.Answer(ctx, s, boats, json.RawMessage(`0`))
	require.NoError(t, err)
	_, err = r.Answer(ctx, s, consent, json.RawMessage(`{"text":"Yes","label":"yes"}`))
	require.NoError(t, err)
	_, err = r.Answer(ctx, s, boatNames, json.RawMessage(`"Sea Star"`))
	require.NoError(t, err)

	_, err = r.Answer(ctx, s, boats, json.RawMessage(`2`))
	require.NoError(t, err)
	step, err := r.Answer(ctx, s, consent, json.RawMessage(`{"text":"Yes","label":"yes"}`))
	require.NoError(t, err)
	assert.Equal(t, "fishing-map", step.Slug())
	assert.Equal(t, []string{"boat-names"}, step.Discarded)

	snap, err := store.Load(ctx, "r7")
	require.NoError(t, err)
	for _, resp := range snap.Responses {
		assert.NotEqual(t, "boat-names", resp.Question, "stored snapshot keeps a skipped answer")
	}
	assert.Len(t, snap.Responses, 2)
}

func TestRemotePersister(t *testing.T) {
	var mu sync.Mutex
	var posted []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		posted = append(posted, r.URL.Path)
		mu.Unlock()
		complete := strings.HasSuffix(r.URL.Path, "/notes")
		_ = json.NewEncoder(w).Encode(models.SubmitAnswerResponse{Accepted: true, Complete: complete})
	}))
	defer srv.Close()

	s, err := New(ModeRemote, testSurvey(), "r5")
	require.NoError(t, err)
	p, err := NewPersister(ModeRemote, client.New(srv.URL), nil, testLogger())
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, p.Mode())

	q, _ := s.Navigator.Definition().Question("notes")
	out, err := p.Save(context.Background(), s, q, models.ParseAnswer(q.Type, json.RawMessage(`"done"`)))
	require.NoError(t, err)
	assert.True(t, out.Complete)
	assert.Equal(t, []string{"/api/v1/surveys/catch-report/respondents/r5/answers/notes"}, posted)
}

func TestRemotePersister_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	s, err := New(ModeRemote, testSurvey(), "r6")
	require.NoError(t, err)
	r := NewRunner(NewRemotePersister(client.New(srv.URL), testLogger()), validator.NewAnswerValidator(), testLogger())

	q, _ := s.Navigator.Definition().Question("boats")
	step, err := r.Answer(context.Background(), s, q, json.RawMessage(`2`))
	require.Error(t, err)
	assert.Equal(t, "boats", step.Slug(), "flow does not advance")
	assert.Zero(t, s.Answers.Len())
}

func TestNewPersister_RequiresBackend(t *testing.T) {
	_, err := NewPersister(ModeOffline, nil, nil, testLogger())
	assert.Error(t, err)
	_, err = ParseMode("cloud")
	assert.Error(t, err)
}
