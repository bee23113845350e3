package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/survey-service/internal/client"
	"github.com/SAP-F-2025/survey-service/internal/flow"
	"github.com/SAP-F-2025/survey-service/internal/models"
)

// Outcome is what persisting one answer reported back.
type Outcome struct {
	Complete bool
	Status   string
}

// Persister snapshots a session after every answer.
type Persister interface {
	Mode() Mode
	Save(ctx context.Context, s *Session, q *models.Question, a models.Answer) (Outcome, error)
	Finish(ctx context.Context, s *Session, t flow.Terminal) error
	// Discard records that answers to skipped questions were dropped.
	Discard(ctx context.Context, s *Session, slugs []string) error
}

// NewPersister picks the implementation for mode.
func NewPersister(mode Mode, remote *client.Client, local *OfflineStore, logger *slog.Logger) (Persister, error) {
	switch mode {
	case ModeRemote:
		if remote == nil {
			return nil, errors.New("remote mode needs a client")
		}
		return NewRemotePersister(remote, logger), nil
	case ModeOffline:
		if local == nil {
			return nil, errors.New("offline mode needs local storage")
		}
		return NewOfflinePersister(local, logger), nil
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

// RemotePersister posts each answer to the survey service.
type RemotePersister struct {
	client *client.Client
	logger *slog.Logger
}

func NewRemotePersister(c *client.Client, logger *slog.Logger) *RemotePersister {
	return &RemotePersister{client: c, logger: logger}
}

func (p *RemotePersister) Mode() Mode { return ModeRemote }

// Save posts the answer. Failures are logged and returned without retry.
func (p *RemotePersister) Save(ctx context.Context, s *Session, q *models.Question, a models.Answer) (Outcome, error) {
	resp, err := p.client.SubmitAnswer(ctx, s.Respondent.SurveySlug, s.Respondent.UUID, q.Slug, a.Raw)
	if err != nil {
		p.logger.Error("submit answer failed",
			"survey", s.Respondent.SurveySlug,
			"respondent", s.Respondent.UUID,
			"question", q.Slug,
			"error", err)
		return Outcome{}, err
	}
	s.Record(q, a, time.Now().UTC())
	return Outcome{Complete: resp.Complete, Status: resp.Status}, nil
}

// Discard is a no-op: the service drops skipped answers when it navigates.
func (p *RemotePersister) Discard(ctx context.Context, s *Session, slugs []string) error {
	return nil
}

// Finish is a no-op: the service tracks completion itself.
func (p *RemotePersister) Finish(ctx context.Context, s *Session, t flow.Terminal) error {
	s.Finish(t)
	return nil
}

// OfflinePersister snapshots the session to local storage.
type OfflinePersister struct {
	store  *OfflineStore
	logger *slog.Logger
}

func NewOfflinePersister(store *OfflineStore, logger *slog.Logger) *OfflinePersister {
	return &OfflinePersister{store: store, logger: logger}
}

func (p *OfflinePersister) Mode() Mode { return ModeOffline }

// Save replaces the answer in the session's response list and writes the
// snapshot. It never reports completion; the navigator decides that.
func (p *OfflinePersister) Save(ctx context.Context, s *Session, q *models.Question, a models.Answer) (Outcome, error) {
	s.Record(q, a, time.Now().UTC())
	s.Respondent.LastQuestion = q.Slug
	if err := p.store.Write(ctx, s); err != nil {
		p.logger.Error("write offline snapshot failed",
			"respondent", s.Respondent.UUID,
			"question", q.Slug,
			"error", err)
		return Outcome{}, err
	}
	return Outcome{}, nil
}

// Discard rewrites the snapshot so skipped answers do not stay stored.
func (p *OfflinePersister) Discard(ctx context.Context, s *Session, slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}
	if err := p.store.Write(ctx, s); err != nil {
		p.logger.Error("rewrite offline snapshot failed",
			"respondent", s.Respondent.UUID,
			"discarded", slugs,
			"error", err)
		return err
	}
	return nil
}

func (p *OfflinePersister) Finish(ctx context.Context, s *Session, t flow.Terminal) error {
	s.Finish(t)
	if err := p.store.Write(ctx, s); err != nil {
		return fmt.Errorf("write final snapshot: %w", err)
	}
	return nil
}
