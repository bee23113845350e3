package models

import (
	"encoding/json"
	"time"
)

type ImportSummary struct {
	TotalRows      int                     `json:"total_rows"`
	ProcessedRows  int                     `json:"processed_rows"`
	SuccessCount   int                     `json:"success_count"`
	SkippedCount   int                     `json:"skipped_count"`
	ErrorCount     int                     `json:"error_count"`
	Errors         []ImportValidationError `json:"errors"`
	ProcessingTime time.Duration           `json:"processing_time"`
}

// ===== API payloads shared by the HTTP handlers and the remote client =====

// SubmitAnswerRequest posts one answer. Answer is the raw wire value.
type SubmitAnswerRequest struct {
	Answer json.RawMessage `json:"answer"`
	TS     *time.Time      `json:"ts,omitempty"`
}

// SubmitAnswerResponse reports the outcome of a submitted answer.
type SubmitAnswerResponse struct {
	Accepted  bool     `json:"accepted"`
	Complete  bool     `json:"complete"`
	Status    string   `json:"status,omitempty"`
	Next      string   `json:"next,omitempty"`
	Discarded []string `json:"discarded,omitempty"`
}

// RespondentSession is a survey definition with the respondent's prior
// responses, used to resume a session.
type RespondentSession struct {
	Survey     *Survey          `json:"survey"`
	Respondent *Respondent      `json:"respondent"`
	Responses  []StoredResponse `json:"responses"`
}

// StoredResponse is the client view of one recorded answer.
type StoredResponse struct {
	Question string          `json:"question"`
	Answer   json.RawMessage `json:"answer"`
	TS       time.Time       `json:"ts"`
}

// SyncRequest uploads an offline session in one go.
type SyncRequest struct {
	Respondent SyncRespondent   `json:"respondent"`
	Responses  []StoredResponse `json:"responses" validate:"dive"`
}

type SyncRespondent struct {
	UUID         string    `json:"uuid" validate:"required"`
	TS           time.Time `json:"ts"`
	Complete     bool      `json:"complete"`
	Status       string    `json:"status,omitempty" validate:"omitempty,oneof=complete terminate"`
	LastQuestion string    `json:"last_question,omitempty"`
	Surveyor     string    `json:"surveyor,omitempty"`
	TestData     bool      `json:"test_data,omitempty"`
}

// SyncResult summarises an uploaded session.
type SyncResult struct {
	UUID     string `json:"uuid"`
	Saved    int    `json:"saved"`
	Rejected int    `json:"rejected"`
	Complete bool   `json:"complete"`
}

// CreateRespondentRequest opens a new session for a survey.
type CreateRespondentRequest struct {
	UUID     string `json:"uuid,omitempty" validate:"omitempty,max=54"`
	Surveyor string `json:"surveyor,omitempty" validate:"omitempty,max=254"`
	TestData bool   `json:"test_data,omitempty"`
}
