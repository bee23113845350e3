package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/survey-service/internal/client"
	"github.com/SAP-F-2025/survey-service/internal/localstore"
	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/session"
	"github.com/SAP-F-2025/survey-service/internal/validator"
)

// definitionKeyPrefix stores survey definitions next to offline sessions so
// a device can start surveys without the service.
const definitionKeyPrefix = "survey-definition-"

func runTake(args []string) error {
	fs := flag.NewFlagSet("take", flag.ContinueOnError)
	common := addCommonFlags(fs)
	modeFlag := fs.String("mode", "remote", "Persistence mode: remote or offline")
	definition := fs.String("definition", "", "Survey definition file for offline mode (default: fetch from -server)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage: surveyctl take [options] <answers.yaml>

Run one respondent through a survey, answering each question from the
script. A script naming an existing respondent resumes that session.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("an answer script is required")
	}

	mode, err := session.ParseMode(*modeFlag)
	if err != nil {
		return err
	}
	script, err := session.LoadScript(fs.Arg(0))
	if err != nil {
		return err
	}

	ctx := context.Background()
	logger := common.logger()
	api := common.client(logger)

	var s *session.Session
	var persister session.Persister
	switch mode {
	case session.ModeRemote:
		s, err = remoteSession(ctx, api, script)
		if err != nil {
			return err
		}
		persister = session.NewRemotePersister(api, logger)
	case session.ModeOffline:
		storage, err := common.openStorage(ctx)
		if err != nil {
			return err
		}
		defer storage.Close()
		store := session.NewOfflineStore(storage)

		survey, err := offlineDefinition(ctx, storage, api, script.Survey, *definition, logger)
		if err != nil {
			return err
		}
		s, err = offlineSession(ctx, store, survey, script)
		if err != nil {
			return err
		}
		persister = session.NewOfflinePersister(store, logger)
	}

	runner := session.NewRunner(persister, validator.NewAnswerValidator(), logger)
	terminal, err := runner.Run(ctx, s, script)
	if errors.Is(err, session.ErrNoAnswer) {
		fmt.Fprintf(stdout, "%s\tpaused at %s\n", s.Respondent.UUID, s.Respondent.LastQuestion)
		return nil
	}
	if err != nil {
		return fmt.Errorf("respondent %s: %w", s.Respondent.UUID, err)
	}
	fmt.Fprintf(stdout, "%s\t%s\t%d answers\n", s.Respondent.UUID, terminal, len(s.Responses))
	return nil
}

// remoteSession opens the respondent on the service and restores any
// answers it already holds.
func remoteSession(ctx context.Context, api *client.Client, script *session.Script) (*session.Session, error) {
	id := script.Respondent
	if id == "" {
		id = uuid.NewString()
	}
	remote, err := api.GetSession(ctx, script.Survey, id)
	if err != nil {
		return nil, err
	}
	s, err := session.New(session.ModeRemote, remote.Survey, remote.Respondent.UUID)
	if err != nil {
		return nil, err
	}
	s.Respondent.Surveyor = script.Surveyor
	s.Respondent.TestData = script.TestData
	if remote.Respondent.LastQuestion != nil {
		s.Respondent.LastQuestion = *remote.Respondent.LastQuestion
	}
	s.Restore(remote.Responses)
	return s, nil
}

// offlineDefinition reads the definition from file, else from the service,
// else from the copy stored by an earlier run.
func offlineDefinition(ctx context.Context, storage localstore.Storage, api *client.Client, slug, path string, logger *slog.Logger) (*models.Survey, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return models.ParseSurveyDefinition(data)
	}

	survey, err := api.GetSurvey(ctx, slug)
	if err == nil {
		if data, err := json.Marshal(survey); err == nil {
			if err := storage.SetItem(ctx, definitionKeyPrefix+slug, string(data)); err != nil {
				logger.Warn("could not store survey definition", "survey", slug, "error", err)
			}
		}
		return survey, nil
	}

	raw, cacheErr := storage.GetItem(ctx, definitionKeyPrefix+slug)
	if cacheErr != nil {
		return nil, fmt.Errorf("fetch survey %s: %w", slug, err)
	}
	logger.Info("service unreachable, using stored definition", "survey", slug, "error", err)
	var cached models.Survey
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, fmt.Errorf("decode stored survey %s: %w", slug, err)
	}
	return &cached, nil
}

// offlineSession resumes the named respondent from local storage or starts
// a new one.
func offlineSession(ctx context.Context, store *session.OfflineStore, survey *models.Survey, script *session.Script) (*session.Session, error) {
	s, err := session.New(session.ModeOffline, survey, script.Respondent)
	if err != nil {
		return nil, err
	}
	if script.Respondent != "" {
		snap, err := store.Load(ctx, s.Respondent.UUID)
		switch {
		case err == nil:
			if snap.Respondent.Complete {
				return nil, fmt.Errorf("respondent %s already finished", s.Respondent.UUID)
			}
			s.Respondent = snap.Respondent
			s.Restore(snap.Responses)
			return s, nil
		case !errors.Is(err, localstore.ErrNotFound):
			return nil, err
		}
	}
	s.Respondent.Surveyor = script.Surveyor
	s.Respondent.TestData = script.TestData
	return s, nil
}
