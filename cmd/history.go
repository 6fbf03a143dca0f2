package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotex/internal/models"
	"github.com/desertthunder/spotex/internal/repositories"
	"github.com/desertthunder/spotex/internal/shared"
	"github.com/desertthunder/spotex/internal/ui"
	"github.com/urfave/cli/v3"
)

// HistoryRuns lists recorded export runs.
func (r *Runner) HistoryRuns(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, err := r.openHistory(config)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewHistoryRepository(db).ListRuns(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if runs == nil {
			runs = []*models.ExportRun{}
		}
		return r.writeJSON(runs, true)
	}
	return r.writePlain("%s", ui.RunTable(runs))
}

// HistoryShow prints one run and its per-playlist records.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	runID := cmd.StringArg("run-id")
	if runID == "" {
		return fmt.Errorf("%w: run-id", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, err := r.openHistory(config)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewHistoryRepository(db)
	run, err := repo.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	records, err := repo.ListRecords(ctx, runID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Run     *models.ExportRun     `json:"run"`
			Records []models.ExportRecord `json:"records"`
		}{run, records}, true)
	}
	return r.writePlain("%s", ui.RunDetail(run, records))
}
