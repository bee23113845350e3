package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/survey-service/internal/models"
)

const definition = `
name: Catch report
slug: catch-report
questions:
  - slug: boats
    title: How many boats?
    type: integer
    order: 1
  - slug: consent
    title: May we use your answers?
    type: yes-no
    order: 2
    term_condition: "=no"
`

// fakeService records uploads and serves the definition above.
type fakeService struct {
	mu     sync.Mutex
	synced []models.SyncRequest
	loaded *models.Survey
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	survey, err := models.ParseSurveyDefinition([]byte(definition))
	require.NoError(t, err)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/surveys/catch-report":
			_ = json.NewEncoder(w).Encode(survey)
		case r.Method == http.MethodPut:
			var s models.Survey
			_ = json.NewDecoder(r.Body).Decode(&s)
			f.loaded = &s
			_ = json.NewEncoder(w).Encode(s)
		case strings.HasSuffix(r.URL.Path, "/sync"):
			var req models.SyncRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.synced = append(f.synced, req)
			_ = json.NewEncoder(w).Encode(models.SyncResult{UUID: req.Respondent.UUID, Saved: len(req.Responses), Complete: true})
		default:
			http.NotFound(w, r)
		}
	})
}

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestOfflineTakeListSync(t *testing.T) {
	svc := &fakeService{}
	srv := httptest.NewServer(svc.handler(t))
	defer srv.Close()

	store := filepath.Join(t.TempDir(), "sessions.db")
	script := writeFile(t, "answers.yaml", "survey: catch-report\nrespondent: kiosk:7\nanswers:\n  boats: 2\n  consent: {text: \"Yes\", label: \"yes\"}\n")

	out := capture(t)
	require.NoError(t, runTake([]string{"-mode", "offline", "-server", srv.URL, "-store", store, script}))
	assert.Contains(t, out.String(), "kiosk_7\tcomplete\t2 answers")

	out.Reset()
	require.NoError(t, runList([]string{"-store", store}))
	assert.Contains(t, out.String(), "kiosk_7")
	assert.Contains(t, out.String(), "catch-report")

	out.Reset()
	require.NoError(t, runSync([]string{"-server", srv.URL, "-store", store}))
	require.Len(t, svc.synced, 1)
	assert.Equal(t, "kiosk_7", svc.synced[0].Respondent.UUID)
	assert.True(t, svc.synced[0].Respondent.Complete)
	assert.Len(t, svc.synced[0].Responses, 2)

	out.Reset()
	require.NoError(t, runList([]string{"-store", store}))
	assert.NotContains(t, out.String(), "kiosk_7")
}

func TestOfflineTake_UsesStoredDefinitionWhenServiceIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	redisURL := "redis://" + mr.Addr()

	svc := &fakeService{}
	srv := httptest.NewServer(svc.handler(t))
	first := writeFile(t, "first.yaml", "survey: catch-report\nanswers:\n  boats: 1\n")
	capture(t)
	require.NoError(t, runTake([]string{"-mode", "offline", "-server", srv.URL, "-redis", redisURL, first}))
	srv.Close()

	second := writeFile(t, "second.yaml", "survey: catch-report\nrespondent: r2\nanswers:\n  boats: 3\n  consent: {text: \"No\", label: \"no\"}\n")
	out := capture(t)
	require.NoError(t, runTake([]string{"-mode", "offline", "-server", srv.URL, "-redis", redisURL, second}))
	assert.Contains(t, out.String(), "r2\tterminate")
	assert.True(t, mr.Exists("surveyctl:"+definitionKeyPrefix+"catch-report"))
}

func TestLoad(t *testing.T) {
	svc := &fakeService{}
	srv := httptest.NewServer(svc.handler(t))
	defer srv.Close()

	path := writeFile(t, "survey.yaml", definition)
	out := capture(t)
	require.NoError(t, runLoad([]string{"-server", srv.URL, path}))
	require.NotNil(t, svc.loaded)
	assert.Equal(t, "catch-report", svc.loaded.Slug)
	assert.Contains(t, out.String(), "catch-report\tloaded\t2 questions")

	bad := writeFile(t, "bad.yaml", "name: Broken\nslug: broken\nquestions:\n  - slug: a\n    title: A\n    type: hologram\n")
	err := runLoad([]string{"-check", bad})
	assert.Error(t, err)
}

func TestTake_RequiresScript(t *testing.T) {
	capture(t)
	err := runTake([]string{"-mode", "offline"})
	assert.Error(t, err)
}
