package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/SAP-F-2025/survey-service/internal/flow"
	"github.com/SAP-F-2025/survey-service/internal/models"
	"github.com/SAP-F-2025/survey-service/internal/validator"
)

func runLoad(args []string) error {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	common := addCommonFlags(fs)
	check := fs.Bool("check", false, "Validate the definition locally without uploading")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage: surveyctl load [options] <survey.yaml|survey.json>

Create or replace a survey definition on the service.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("a definition file is required")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	survey, err := models.ParseSurveyDefinition(data)
	if err != nil {
		return err
	}
	if err := validator.New().Validate(survey); err != nil {
		return fmt.Errorf("survey %s: %w", survey.Slug, err)
	}
	if _, err := flow.NewDefinition(survey); err != nil {
		return fmt.Errorf("survey %s: %w", survey.Slug, err)
	}
	if *check {
		fmt.Fprintf(stdout, "%s\tvalid\t%d questions\n", survey.Slug, len(survey.Questions))
		return nil
	}

	logger := common.logger()
	stored, err := common.client(logger).PutSurvey(context.Background(), survey)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\tloaded\t%d questions\n", stored.Slug, len(stored.Questions))
	return nil
}
