package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the survey lifecycle events published to the broker
type EventType string

const (
	// Respondent events
	EventRespondentCreated    EventType = "respondent.created"
	EventRespondentCompleted  EventType = "respondent.completed"
	EventRespondentTerminated EventType = "respondent.terminated"
	EventRespondentReviewed   EventType = "respondent.reviewed"

	// Answer events
	EventAnswerRecorded EventType = "answer.recorded"

	// Definition events
	EventSurveyDefinitionLoaded EventType = "survey.definition_loaded"
)

const (
	eventSource  = "survey-service"
	eventVersion = "1.0"
)

// SurveyEvent is the envelope shared by every published event
type SurveyEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Version   string         `json:"version"`
	Data      interface{}    `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Event payloads

type RespondentCreatedEvent struct {
	RespondentUUID string    `json:"respondent_uuid"`
	SurveySlug     string    `json:"survey_slug"`
	Surveyor       *string   `json:"surveyor,omitempty"`
	TestData       bool      `json:"test_data"`
	CreatedAt      time.Time `json:"created_at"`
}

type AnswerRecordedEvent struct {
	RespondentUUID string    `json:"respondent_uuid"`
	SurveySlug     string    `json:"survey_slug"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	Discarded      []string  `json:"discarded,omitempty"`
	RecordedAt     time.Time `json:"recorded_at"`
}

type RespondentFinishedEvent struct {
	RespondentUUID string    `json:"respondent_uuid"`
	SurveySlug     string    `json:"survey_slug"`
	Status         string    `json:"status"`
	LastQuestion   string    `json:"last_question"`
	Locations      int       `json:"locations"`
	FinishedAt     time.Time `json:"finished_at"`
}

type RespondentReviewedEvent struct {
	RespondentUUID string    `json:"respondent_uuid"`
	ReviewStatus   string    `json:"review_status"`
	ReviewComment  *string   `json:"review_comment,omitempty"`
	ReviewedAt     time.Time `json:"reviewed_at"`
}

type SurveyDefinitionLoadedEvent struct {
	SurveySlug    string    `json:"survey_slug"`
	QuestionCount int       `json:"question_count"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// Event factory functions

func NewEvent(eventType EventType, data interface{}) *SurveyEvent {
	return &SurveyEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewRespondentCreatedEvent(respondentUUID, surveySlug string, surveyor *string, testData bool) *SurveyEvent {
	return NewEvent(EventRespondentCreated, RespondentCreatedEvent{
		RespondentUUID: respondentUUID,
		SurveySlug:     surveySlug,
		Surveyor:       surveyor,
		TestData:       testData,
		CreatedAt:      time.Now(),
	})
}

func NewAnswerRecordedEvent(respondentUUID, surveySlug, question, answer string, discarded []string) *SurveyEvent {
	return NewEvent(EventAnswerRecorded, AnswerRecordedEvent{
		RespondentUUID: respondentUUID,
		SurveySlug:     surveySlug,
		Question:       question,
		Answer:         answer,
		Discarded:      discarded,
		RecordedAt:     time.Now(),
	})
}

// NewRespondentFinishedEvent builds a completed or terminated event
// depending on status.
func NewRespondentFinishedEvent(respondentUUID, surveySlug, status, lastQuestion string, locations int) *SurveyEvent {
	eventType := EventRespondentCompleted
	if status == "terminate" {
		eventType = EventRespondentTerminated
	}
	return NewEvent(eventType, RespondentFinishedEvent{
		RespondentUUID: respondentUUID,
		SurveySlug:     surveySlug,
		Status:         status,
		LastQuestion:   lastQuestion,
		Locations:      locations,
		FinishedAt:     time.Now(),
	})
}

func NewRespondentReviewedEvent(respondentUUID, reviewStatus string, comment *string) *SurveyEvent {
	return NewEvent(EventRespondentReviewed, RespondentReviewedEvent{
		RespondentUUID: respondentUUID,
		ReviewStatus:   reviewStatus,
		ReviewComment:  comment,
		ReviewedAt:     time.Now(),
	})
}

func NewSurveyDefinitionLoadedEvent(surveySlug string, questionCount int) *SurveyEvent {
	return NewEvent(EventSurveyDefinitionLoaded, SurveyDefinitionLoadedEvent{
		SurveySlug:    surveySlug,
		QuestionCount: questionCount,
		LoadedAt:      time.Now(),
	})
}

func GenerateEventID() string {
	return uuid.NewString()
}
