package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/SAP-F-2025/survey-service/internal/flow"
	"github.com/SAP-F-2025/survey-service/internal/locationflow"
	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/validator"
)

// ErrNoAnswer means the source has nothing for a question.
var ErrNoAnswer = errors.New("no answer for question")

// PointScript is one map point and the sub-answers to give in its dialog.
type PointScript struct {
	Lat    decimal.Decimal
	Lng    decimal.Decimal
	Panes  map[locationflow.State]json.RawMessage
	Cancel bool
	Delete bool
}

// AnswerSource supplies answers as the runner reaches each question.
type AnswerSource interface {
	Answer(ctx context.Context, q *models.Question) (json.RawMessage, error)
	Locations(ctx context.Context, q *models.Question) ([]PointScript, error)
}

// Runner moves a session through its survey one answer at a time.
type Runner struct {
	persister Persister
	validator *validator.AnswerValidator
	logger    *slog.Logger
}

func NewRunner(p Persister, v *validator.AnswerValidator, logger *slog.Logger) *Runner {
	return &Runner{persister: p, validator: v, logger: logger}
}

// Start returns the question to resume at: the one after the last answered
// question, or the first shown question.
func (r *Runner) Start(s *Session) (flow.Step, error) {
	nav := s.Navigator
	if last := s.Respondent.LastQuestion; last != "" {
		if _, ok := nav.Definition().Question(last); ok {
			step, err := nav.Next(s.Answers, last, 0)
			if err != nil {
				return flow.Step{}, err
			}
			r.forget(s, step.Discarded)
			return step, nil
		}
	}
	step := nav.First(s.Answers)
	r.forget(s, step.Discarded)
	return step, nil
}

// Answer validates and persists raw for q and returns the next step. A
// refused or unsaved answer returns the same question with the error.
func (r *Runner) Answer(ctx context.Context, s *Session, q *models.Question, raw json.RawMessage) (flow.Step, error) {
	stay := flow.Step{Question: q}
	a := models.ParseAnswer(q.Type, raw)
	if err := r.validator.Accept(q, a); err != nil {
		r.logger.Info("answer not accepted", "question", q.Slug, "reason", err)
		return stay, err
	}

	outcome, err := r.persister.Save(ctx, s, q, a)
	if err != nil {
		return stay, err
	}
	s.Respondent.LastQuestion = q.Slug

	step, err := s.Navigator.Next(s.Answers, q.Slug, 0)
	if err != nil {
		return stay, err
	}
	r.forget(s, step.Discarded)
	if err := r.persister.Discard(ctx, s, step.Discarded); err != nil {
		return step, err
	}

	if outcome.Complete && !step.Done() {
		r.logger.Warn("service reports completion before the last question",
			"question", q.Slug, "next", step.Slug())
		step = flow.Step{Terminal: flow.TerminalComplete}
		if outcome.Status == string(flow.TerminalTerminate) {
			step.Terminal = flow.TerminalTerminate
		}
	}
	if step.Done() {
		if err := r.persister.Finish(ctx, s, step.Terminal); err != nil {
			return step, err
		}
		r.logger.Info("session finished", "respondent", s.Respondent.UUID, "status", step.Terminal)
	}
	return step, nil
}

// Run answers questions from src until the survey ends. It stops with
// ErrNoAnswer when a required question has no answer; the session can be
// resumed later from its last question.
func (r *Runner) Run(ctx context.Context, s *Session, src AnswerSource) (flow.Terminal, error) {
	step, err := r.Start(s)
	if err != nil {
		return flow.TerminalNone, err
	}
	if step.Done() {
		return step.Terminal, r.persister.Finish(ctx, s, step.Terminal)
	}

	for !step.Done() {
		if err := ctx.Err(); err != nil {
			return flow.TerminalNone, err
		}
		q := step.Question
		raw, err := r.answerFor(ctx, q, src)
		if errors.Is(err, ErrNoAnswer) && (q.Type == models.QuestionInfo || !q.Required) {
			raw, err = json.RawMessage("null"), nil
		}
		if err != nil {
			return flow.TerminalNone, fmt.Errorf("question %s: %w", q.Slug, err)
		}
		step, err = r.Answer(ctx, s, q, raw)
		if err != nil {
			return flow.TerminalNone, fmt.Errorf("question %s: %w", q.Slug, err)
		}
	}
	return step.Terminal, nil
}

func (r *Runner) answerFor(ctx context.Context, q *models.Question, src AnswerSource) (json.RawMessage, error) {
	if q.Type != models.QuestionMapMultipoint {
		return src.Answer(ctx, q)
	}
	points, err := src.Locations(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.collectLocations(q, points)
}

// collectLocations runs the sub-question dialog for every scripted point.
func (r *Runner) collectLocations(q *models.Question, points []PointScript) (json.RawMessage, error) {
	seq := locationflow.NewSequencer(nil)
	for i, p := range points {
		if err := seq.Begin(p.Lat, p.Lng); err != nil {
			return nil, err
		}
		if err := r.dialog(seq, p); err != nil {
			return nil, fmt.Errorf("location %d: %w", i+1, err)
		}
		r.logger.Debug("location dialog closed", "question", q.Slug, "point", i+1, "state", seq.State())
	}
	return json.Marshal(seq.Points())
}

func (r *Runner) dialog(seq *locationflow.Sequencer, p PointScript) error {
	if p.Cancel {
		return seq.Cancel()
	}
	if p.Delete {
		if err := seq.Delete(); err != nil {
			return err
		}
		return seq.ConfirmDelete()
	}
	for seq.Active() {
		raw, ok := p.Panes[seq.State()]
		if !ok {
			raw = json.RawMessage("null")
		}
		if err := seq.Save(raw); err != nil {
			return fmt.Errorf("%s: %w", seq.State(), err)
		}
	}
	return nil
}

func (r *Runner) forget(s *Session, discarded []string) {
	for _, slug := range discarded {
		s.Forget(slug)
		r.logger.Debug("discarded answer of skipped question", "question", slug)
	}
}
