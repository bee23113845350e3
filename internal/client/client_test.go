package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/survey-service/internal/models"
)

func TestSubmitAnswer(t *testing.T) {
	var gotPath string
	var gotBody models.SubmitAnswerRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accepted":true,"complete":true,"status":"complete"}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	resp, err := c.SubmitAnswer(context.Background(), "catch-report", "abc", "email", json.RawMessage(`"a@b.c"`))
	require.NoError(t, err)
	assert.True(t, resp.Complete)
	assert.Equal(t, "/api/v1/surveys/catch-report/respondents/abc/answers/email", gotPath)
	assert.JSONEq(t, `"a@b.c"`, string(gotBody.Answer))
}

func TestSubmitAnswer_NotAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"accepted":false}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).SubmitAnswer(context.Background(), "s", "u", "boats", json.RawMessage(`99`))
	assert.ErrorIs(t, err, ErrNotAccepted)
	require.NotNil(t, resp)
	assert.False(t, resp.Accepted)
}

func TestDo_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/surveys/missing" {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetSurvey(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetSurvey(context.Background(), "broken")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/static/options/states/OR.json", r.URL.Path)
		_, _ = w.Write([]byte(`[{"text":"Newport","label":"newport"}]`))
	}))
	defer srv.Close()

	raw, err := New(srv.URL).Options(context.Background(), "/states/OR.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"text":"Newport","label":"newport"}]`, string(raw))
}
