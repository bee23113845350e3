// Package session runs one respondent through a survey: it holds the
// session state, drives the flow navigator and persists every answer either
// to the survey service or to local storage.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/survey-service/internal/flow"
	"github.com/SAP-F-2025/survey-service/internal/models"
)

type Mode string

const (
	ModeRemote  Mode = "remote"
	ModeOffline Mode = "offline"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRemote, ModeOffline:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want remote or offline)", s)
}

// Respondent is the client-side view of a respondent session.
type Respondent struct {
	UUID         string    `json:"uuid"`
	SurveySlug   string    `json:"survey"`
	TS           time.Time `json:"ts"`
	Complete     bool      `json:"complete"`
	Status       string    `json:"status,omitempty"`
	LastQuestion string    `json:"last_question,omitempty"`
	Surveyor     string    `json:"surveyor,omitempty"`
	TestData     bool      `json:"test_data,omitempty"`
}

// Session is the state of one respondent working through one survey. It is
// passed explicitly to every flow and persistence call.
type Session struct {
	Mode       Mode
	Respondent Respondent
	Survey     *models.Survey
	Navigator  *flow.Navigator
	Answers    *flow.AnswerStore
	// Responses is the ordered list of recorded answers, one per question.
	Responses []models.StoredResponse
}

// New opens a session for survey. An empty id gets a fresh UUID.
func New(mode Mode, survey *models.Survey, id string) (*Session, error) {
	def, err := flow.NewDefinition(survey)
	if err != nil {
		return nil, fmt.Errorf("survey %s: %w", survey.Slug, err)
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		Mode: mode,
		Respondent: Respondent{
			UUID:       models.NormalizeUUID(id),
			SurveySlug: survey.Slug,
			TS:         time.Now().UTC(),
		},
		Survey:    survey,
		Navigator: flow.NewNavigator(def),
		Answers:   flow.NewAnswerStore(),
	}, nil
}

// Record stores the answer in memory, replacing any earlier answer for the
// same question.
func (s *Session) Record(q *models.Question, a models.Answer, ts time.Time) {
	s.Answers.Set(q.Slug, a)
	raw := json.RawMessage(a.Raw)
	if len(raw) == 0 {
		raw, _ = json.Marshal(a)
	}
	entry := models.StoredResponse{Question: q.Slug, Answer: raw, TS: ts}
	for i := range s.Responses {
		if s.Responses[i].Question == q.Slug {
			s.Responses[i] = entry
			return
		}
	}
	s.Responses = append(s.Responses, entry)
}

// Forget drops the answer for slug.
func (s *Session) Forget(slug string) {
	s.Answers.Delete(slug)
	for i := range s.Responses {
		if s.Responses[i].Question == slug {
			s.Responses = append(s.Responses[:i], s.Responses[i+1:]...)
			return
		}
	}
}

// Restore loads previously recorded responses, e.g. when resuming.
func (s *Session) Restore(responses []models.StoredResponse) {
	def := s.Navigator.Definition()
	for _, r := range responses {
		q, ok := def.Question(r.Question)
		if !ok {
			continue
		}
		s.Record(q, models.ParseAnswer(q.Type, r.Answer), r.TS)
	}
}

// Finish marks the session terminal.
func (s *Session) Finish(t flow.Terminal) {
	s.Respondent.Complete = true
	s.Respondent.Status = string(t)
}
