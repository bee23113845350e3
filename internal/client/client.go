// Package client talks to the survey service REST API on behalf of a
// respondent session running in remote mode.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SAP-F-2025/survey-service/internal/models"
)

var (
	ErrNotAccepted = errors.New("answer not accepted")
	ErrNotFound    = errors.New("not found")
)

// StatusError is a non-2xx reply from the service.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func surveyPath(slug string, parts ...string) string {
	p := "/api/v1/surveys/" + url.PathEscape(slug)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// GetSurvey fetches a survey definition.
func (c *Client) GetSurvey(ctx context.Context, slug string) (*models.Survey, error) {
	var s models.Survey
	if err := c.do(ctx, http.MethodGet, surveyPath(slug), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// PutSurvey loads or replaces a survey definition.
func (c *Client) PutSurvey(ctx context.Context, s *models.Survey) (*models.Survey, error) {
	var out models.Survey
	if err := c.do(ctx, http.MethodPut, surveyPath(s.Slug), s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession fetches the survey with the respondent's prior responses,
// creating the respondent on first access.
func (c *Client) GetSession(ctx context.Context, slug, uuid string) (*models.RespondentSession, error) {
	var s models.RespondentSession
	if err := c.do(ctx, http.MethodGet, surveyPath(slug, "respondents", uuid), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SubmitAnswer posts one answer. A refused answer yields ErrNotAccepted.
func (c *Client) SubmitAnswer(ctx context.Context, slug, uuid, question string, answer json.RawMessage) (*models.SubmitAnswerResponse, error) {
	var out models.SubmitAnswerResponse
	path := surveyPath(slug, "respondents", uuid, "answers", question)
	err := c.do(ctx, http.MethodPost, path, models.SubmitAnswerRequest{Answer: answer}, &out)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusUnprocessableEntity {
		return &out, ErrNotAccepted
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Sync uploads an offline session.
func (c *Client) Sync(ctx context.Context, slug string, req *models.SyncRequest) (*models.SyncResult, error) {
	var out models.SyncResult
	path := surveyPath(slug, "respondents", req.Respondent.UUID, "sync")
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Options fetches a dependent option list such as "states/OR.json".
func (c *Client) Options(ctx context.Context, name string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/static/options/"+strings.TrimLeft(name, "/"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	target := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed", "method", method, "url", target, "error", err)
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("request", "method", method, "url", target, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode >= 300 {
		if out != nil && len(data) > 0 {
			_ = json.Unmarshal(data, out)
		}
		return &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
