package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/SAP-F-2025/survey-service/internal/session"
)

func runSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	common := addCommonFlags(fs)
	keep := fs.Bool("keep", false, "Keep sessions in local storage after upload")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage: surveyctl sync [options]

Upload every finished offline session, removing it from local storage once
the service has stored it.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	logger := common.logger()
	api := common.client(logger)
	storage, err := common.openStorage(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()
	store := session.NewOfflineStore(storage)

	pending, err := store.Pending(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, entry := range pending {
		snap, err := store.Load(ctx, entry.UUID)
		if err != nil {
			logger.Error("could not load session", "respondent", entry.UUID, "error", err)
			failed++
			continue
		}
		result, err := api.Sync(ctx, entry.SurveySlug, snap.SyncRequest())
		if err != nil {
			logger.Error("sync failed", "respondent", entry.UUID, "survey", entry.SurveySlug, "error", err)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "%s\tsaved %d\trejected %d\tcomplete %t\n", result.UUID, result.Saved, result.Rejected, result.Complete)
		if !*keep {
			if err := store.Remove(ctx, entry.UUID); err != nil {
				return err
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sessions failed to sync", failed, len(pending))
	}
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	storage, err := common.openStorage(ctx)
	if err != nil {
		return err
	}
	defer storage.Close()

	idx, err := session.NewOfflineStore(storage).Index(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UUID\tSURVEY\tSTARTED\tANSWERED\tSTATUS\tLAST QUESTION")
	for _, e := range idx.Sessions {
		status := "in progress"
		if e.Complete {
			status = e.Status
		}
		if e.UUID == idx.Resume {
			status += " (resume)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", e.UUID, e.SurveySlug, e.TS.Format("2006-01-02 15:04"), e.Answered, status, e.LastQuestion)
	}
	return w.Flush()
}
