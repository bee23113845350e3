package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/survey-service/internal/events"
	"github.com/SAP-F-2025/survey-service/internal/flow"
	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/repositories"
	"github.com/SAP-F-2025/survey-service/internal/validator"
)

// ResponseService records answers for respondent sessions and moves them
// through the survey flow
type ResponseService interface {
	StartRespondent(ctx context.Context, slug string, req *models.CreateRespondentRequest) (*models.RespondentSession, error)
	// GetSession returns the definition and prior responses for a
	// respondent, creating the respondent on first use.
	GetSession(ctx context.Context, slug, respondentUUID string) (*models.RespondentSession, error)
	SubmitAnswer(ctx context.Context, slug, respondentUUID, question string, req *models.SubmitAnswerRequest) (*models.SubmitAnswerResponse, error)
	Sync(ctx context.Context, slug string, req *models.SyncRequest) (*models.SyncResult, error)
}

type responseService struct {
	repo      repositories.Repository
	surveys   SurveyService
	publisher events.EventPublisher
	logger    *slog.Logger
	log       *ServiceLogger
	validator *validator.Validator
}

func NewResponseService(
	repo repositories.Repository,
	surveys SurveyService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) ResponseService {
	return &responseService{
		repo:      repo,
		surveys:   surveys,
		publisher: publisher,
		logger:    logger,
		log:       NewServiceLogger(logger, LogConfig{Service: "survey-service", Component: "responses"}),
		validator: validator,
	}
}

// ===== SESSIONS =====

func (s *responseService) StartRespondent(ctx context.Context, slug string, req *models.CreateRespondentRequest) (*models.RespondentSession, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validator.ToValidationErrors(err)
	}
	id := req.UUID
	if id == "" {
		id = uuid.NewString()
	}

	survey, err := s.surveys.GetDefinition(ctx, slug)
	if err != nil {
		return nil, err
	}

	respondent := &models.Respondent{UUID: id, SurveyID: survey.ID, TestData: req.TestData}
	if req.Surveyor != "" {
		respondent.Surveyor = &req.Surveyor
	}
	if err := s.repo.Respondent().Create(ctx, nil, respondent); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: respondent %s exists", ErrConflict, id)
		}
		return nil, err
	}
	publishEvent(ctx, s.publisher, s.logger, events.NewRespondentCreatedEvent(respondent.UUID, slug, respondent.Surveyor, respondent.TestData))

	return &models.RespondentSession{Survey: survey, Respondent: respondent, Responses: []models.StoredResponse{}}, nil
}

func (s *responseService) GetSession(ctx context.Context, slug, respondentUUID string) (*models.RespondentSession, error) {
	survey, err := s.surveys.GetDefinition(ctx, slug)
	if err != nil {
		return nil, err
	}

	var respondent *models.Respondent
	var responses []*models.Response
	var created bool
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		respondent, created, err = s.getOrCreateRespondent(ctx, tx, survey, respondentUUID)
		if err != nil || created {
			return err
		}
		responses, err = s.repo.Response().GetByRespondent(ctx, tx, respondent.UUID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if created {
		publishEvent(ctx, s.publisher, s.logger, events.NewRespondentCreatedEvent(respondent.UUID, slug, nil, false))
	}

	stored := make([]models.StoredResponse, 0, len(responses))
	for _, r := range responses {
		if r.Question == nil {
			continue
		}
		stored = append(stored, models.StoredResponse{
			Question: r.Question.Slug,
			Answer:   json.RawMessage(r.AnswerRaw),
			TS:       r.TS,
		})
	}
	return &models.RespondentSession{Survey: survey, Respondent: respondent, Responses: stored}, nil
}

// ===== ANSWERS =====

// SubmitAnswer stores one answer and returns where the flow goes next.
// Answers to questions the flow now skips are deleted; a terminate
// condition or the end of the survey finishes the respondent.
func (s *responseService) SubmitAnswer(ctx context.Context, slug, respondentUUID, question string, req *models.SubmitAnswerRequest) (result *models.SubmitAnswerResponse, err error) {
	op := s.log.WithOperation(ctx, "submit_answer")
	defer func() { op.LogResult(respondentUUID+"/"+question, "response", err) }()

	survey, nav, err := s.surveys.Navigator(ctx, slug)
	if err != nil {
		return nil, err
	}
	def := nav.Definition()
	q, ok := def.Question(question)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, question)
	}

	raw := req.Answer
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	answer := models.ParseAnswer(q.Type, raw)
	if err := s.validator.Answer().Accept(q, answer); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	if req.TS != nil {
		ts = req.TS.UTC()
	}

	var respondent *models.Respondent
	var step flow.Step
	var created bool
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		respondent, created, err = s.getOrCreateRespondent(ctx, tx, survey, respondentUUID)
		if err != nil {
			return err
		}

		answers, err := s.loadAnswers(ctx, tx, def, respondent.UUID)
		if err != nil {
			return err
		}
		answers.Set(q.Slug, answer)

		if err := s.saveResponse(ctx, tx, respondent, q, answer, raw, ts); err != nil {
			return err
		}

		step, err = nav.Next(answers, q.Slug, 0)
		if err != nil {
			return err
		}
		if err := s.discard(ctx, tx, def, respondent.UUID, step.Discarded); err != nil {
			return err
		}

		respondent.LastQuestion = &q.Slug
		if step.Done() {
			finish(respondent, step.Terminal)
		}
		return s.refreshRespondent(ctx, tx, respondent)
	})
	if err != nil {
		return nil, err
	}

	if created {
		publishEvent(ctx, s.publisher, s.logger, events.NewRespondentCreatedEvent(respondent.UUID, slug, nil, false))
	}
	publishEvent(ctx, s.publisher, s.logger, events.NewAnswerRecordedEvent(respondent.UUID, slug, q.Slug, answer.Display(), step.Discarded))
	if step.Done() {
		publishEvent(ctx, s.publisher, s.logger, events.NewRespondentFinishedEvent(respondent.UUID, slug, string(step.Terminal), q.Slug, respondent.Locations))
	}

	result = &models.SubmitAnswerResponse{
		Accepted:  true,
		Complete:  respondent.Complete,
		Discarded: step.Discarded,
	}
	if respondent.Status != nil {
		result.Status = string(*respondent.Status)
	}
	if !step.Done() {
		result.Next = step.Slug()
	}
	return result, nil
}

// Sync stores an offline session in one transaction. Each response is
// validated on its own; rejected ones are counted and skipped. The flow is
// then replayed over the accepted answers so skipped questions lose their
// answers and the outcome is decided here, not by the client.
func (s *responseService) Sync(ctx context.Context, slug string, req *models.SyncRequest) (result *models.SyncResult, err error) {
	op := s.log.WithOperation(ctx, "sync_respondent")
	defer func() { op.LogResult(req.Respondent.UUID, "respondent", err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validator.ToValidationErrors(err)
	}

	survey, nav, err := s.surveys.Navigator(ctx, slug)
	if err != nil {
		return nil, err
	}
	def := nav.Definition()
	result = &models.SyncResult{UUID: models.NormalizeUUID(req.Respondent.UUID)}

	var respondent *models.Respondent
	var step flow.Step
	var created bool
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		respondent, created, err = s.getOrCreateRespondent(ctx, tx, survey, req.Respondent.UUID)
		if err != nil {
			return err
		}
		if !req.Respondent.TS.IsZero() {
			respondent.TS = req.Respondent.TS
		}
		if req.Respondent.Surveyor != "" {
			respondent.Surveyor = &req.Respondent.Surveyor
		}
		respondent.TestData = req.Respondent.TestData

		answers := flow.NewAnswerStore()
		for _, stored := range req.Responses {
			q, ok := def.Question(stored.Question)
			if !ok {
				s.logger.Warn("Sync skipped answer to unknown question", "respondent", result.UUID, "question", stored.Question)
				result.Rejected++
				continue
			}
			raw := stored.Answer
			if len(raw) == 0 {
				raw = json.RawMessage("null")
			}
			answer := models.ParseAnswer(q.Type, raw)
			if err := s.validator.Answer().Accept(q, answer); err != nil {
				s.logger.Warn("Sync rejected answer", "respondent", result.UUID, "question", q.Slug, "error", err)
				result.Rejected++
				continue
			}
			ts := stored.TS
			if ts.IsZero() {
				ts = time.Now().UTC()
			}
			if err := s.saveResponse(ctx, tx, respondent, q, answer, raw, ts); err != nil {
				return err
			}
			answers.Set(q.Slug, answer)
			result.Saved++
		}

		var last string
		var discarded []string
		step, last, discarded, err = replay(nav, answers)
		if err != nil {
			return err
		}
		if err := s.discard(ctx, tx, def, respondent.UUID, discarded); err != nil {
			return err
		}

		if last != "" {
			respondent.LastQuestion = &last
		}
		if step.Done() {
			finish(respondent, step.Terminal)
		} else if req.Respondent.Complete {
			s.logger.Warn("Offline session claims completion the flow does not reach",
				"respondent", result.UUID, "stopped_at", step.Slug())
		}
		return s.refreshRespondent(ctx, tx, respondent)
	})
	if err != nil {
		return nil, err
	}

	result.Complete = respondent.Complete
	if created {
		publishEvent(ctx, s.publisher, s.logger, events.NewRespondentCreatedEvent(respondent.UUID, slug, respondent.Surveyor, respondent.TestData))
	}
	if step.Done() {
		publishEvent(ctx, s.publisher, s.logger, events.NewRespondentFinishedEvent(respondent.UUID, slug, string(step.Terminal), derefString(respondent.LastQuestion), respondent.Locations))
	}
	return result, nil
}

// ===== HELPERS =====

func (s *responseService) getOrCreateRespondent(ctx context.Context, tx *gorm.DB, survey *models.Survey, respondentUUID string) (*models.Respondent, bool, error) {
	respondent, err := s.repo.Respondent().GetByUUID(ctx, tx, respondentUUID)
	switch {
	case err == nil:
		if respondent.SurveyID != survey.ID {
			return nil, false, ErrSurveyMismatch
		}
		return respondent, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondent = &models.Respondent{UUID: respondentUUID, SurveyID: survey.ID}
		if err := s.repo.Respondent().Create(ctx, tx, respondent); err != nil {
			return nil, false, err
		}
		return respondent, true, nil
	default:
		return nil, false, fmt.Errorf("failed to get respondent: %w", err)
	}
}

// loadAnswers rebuilds the answer store from stored responses to questions
// of the current definition.
func (s *responseService) loadAnswers(ctx context.Context, tx *gorm.DB, def *flow.Definition, respondentUUID string) (*flow.AnswerStore, error) {
	responses, err := s.repo.Response().GetByRespondent(ctx, tx, respondentUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	answers := flow.NewAnswerStore()
	for _, r := range responses {
		if r.Question == nil {
			continue
		}
		if q, ok := def.Question(r.Question.Slug); ok {
			answers.Set(q.Slug, models.ParseAnswer(q.Type, json.RawMessage(r.AnswerRaw)))
		}
	}
	return answers, nil
}

func (s *responseService) saveResponse(ctx context.Context, tx *gorm.DB, respondent *models.Respondent, q *models.Question, answer models.Answer, raw json.RawMessage, ts time.Time) error {
	response := &models.Response{
		QuestionID:     q.ID,
		RespondentUUID: respondent.UUID,
		AnswerRaw:      datatypes.JSON(raw),
		TS:             ts,
	}
	response.Normalize(q, answer)
	if err := s.repo.Response().Upsert(ctx, tx, response); err != nil {
		return err
	}
	if response.Answer != nil {
		respondent.SetFilterField(q.Slug, *response.Answer)
	}
	return nil
}

func (s *responseService) discard(ctx context.Context, tx *gorm.DB, def *flow.Definition, respondentUUID string, slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(slugs))
	for _, slug := range slugs {
		if q, ok := def.Question(slug); ok {
			ids = append(ids, q.ID)
		}
	}
	s.logger.Info("Discarding answers to skipped questions", "respondent", respondentUUID, "questions", slugs)
	return s.repo.Response().DeleteByQuestions(ctx, tx, respondentUUID, ids)
}

// refreshRespondent recounts map points, rebuilds the flattened export row
// and saves the respondent.
func (s *responseService) refreshRespondent(ctx context.Context, tx *gorm.DB, respondent *models.Respondent) error {
	count, err := s.repo.Respondent().CountLocations(ctx, tx, respondent.UUID)
	if err != nil {
		return fmt.Errorf("failed to count locations: %w", err)
	}
	respondent.Locations = int(count)

	full, err := s.repo.Respondent().GetWithResponses(ctx, tx, respondent.UUID)
	if err != nil {
		return fmt.Errorf("failed to load responses: %w", err)
	}
	respondent.Responses = full.Responses
	flat, err := json.Marshal(respondent.FlatRow())
	respondent.Responses = nil
	if err != nil {
		return fmt.Errorf("failed to flatten respondent: %w", err)
	}
	respondent.FlatData = datatypes.JSON(flat)

	return s.repo.Respondent().Update(ctx, tx, respondent)
}

func finish(respondent *models.Respondent, terminal flow.Terminal) {
	status := models.RespondentComplete
	if terminal == flow.TerminalTerminate {
		status = models.RespondentTerminate
	}
	respondent.Complete = true
	respondent.Status = &status
}

// replay walks the flow from the first question while answers exist. It
// returns where the walk stopped, the last answered question and every
// answer the walk discarded. Answers past a terminate are discarded too.
func replay(nav *flow.Navigator, answers *flow.AnswerStore) (flow.Step, string, []string, error) {
	visited := map[string]bool{}
	step := nav.First(answers)
	discarded := step.Discarded
	last := ""
	for step.Question != nil {
		if _, ok := answers.Get(step.Question.Slug); !ok {
			break
		}
		visited[step.Question.Slug] = true
		last = step.Question.Slug
		next, err := nav.Next(answers, last, 0)
		if err != nil {
			return flow.Step{}, "", nil, err
		}
		discarded = append(discarded, next.Discarded...)
		step = next
	}
	if step.Terminal == flow.TerminalTerminate {
		for _, slug := range answers.Slugs() {
			if !visited[slug] {
				answers.Delete(slug)
				discarded = append(discarded, slug)
			}
		}
	}
	return step, last, discarded, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
