package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/spotex/internal/models"
	"github.com/desertthunder/spotex/internal/repositories"
	"github.com/desertthunder/spotex/internal/server"
	"github.com/desertthunder/spotex/internal/services"
	"github.com/desertthunder/spotex/internal/shared"
	"github.com/desertthunder/spotex/internal/store"
	"github.com/desertthunder/spotex/internal/tasks"
	"github.com/desertthunder/spotex/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const progressBuffer = 64

type exportOpts struct {
	noBrowser   bool
	keepServing bool
	noHistory   bool
}

// Export runs the full flow: authorize, exchange the code, and export every playlist.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if dir := cmd.String("output"); dir != "" {
		config.Export.OutputDir = dir
	}
	if n := cmd.Int("workers"); n > 0 {
		config.Export.Workers = n
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := r.export(ctx, config, exportOpts{
		noBrowser:   cmd.Bool("no-browser"),
		keepServing: cmd.Bool("keep-serving"),
		noHistory:   cmd.Bool("no-history"),
	})
	if err != nil {
		return err
	}
	if result == nil {
		return r.writePlainln("No export ran: authorization was not completed")
	}
	return nil
}

// export validates config, wires the pipeline, and serves the callback until the export finishes
// or ctx is done. The result is nil when no authorization code was exchanged.
func (r *Runner) export(ctx context.Context, config *shared.Config, opts exportOpts) (*tasks.ExportResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	outputDir := config.OutputDir()
	st, err := store.NewStore(outputDir)
	if err != nil {
		return nil, err
	}

	var recorder tasks.Recorder
	if !opts.noHistory {
		db, err := r.openHistory(config)
		if err != nil {
			r.logger.Warn("run history disabled", "error", err)
		} else {
			defer db.Close()
			recorder = repositories.NewHistoryRepository(db)
		}
	}

	spotify, err := services.NewSpotifyService(services.SpotifyOpts{
		Config:     config,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := tasks.NewWorkerPool(ctx, config.Export.Workers, r.logger)
	defer pool.Close()

	lister := services.NewPlaylistLister(spotify, config.Export.PageSize)
	exporter, err := tasks.NewExporter(tasks.ExporterOpts{
		Lister:    lister,
		Fetcher:   spotify,
		Store:     st,
		Pool:      pool,
		Recorder:  recorder,
		OutputDir: outputDir,
		Logger:    r.logger,
	})
	if err != nil {
		return nil, err
	}

	// The pipeline goroutine is started up front and waits for the token, so a callback
	// arriving during shutdown never adds work to a finished group.
	tokens := make(chan models.AccessToken, 1)
	trigger := func(token models.AccessToken) {
		select {
		case tokens <- token:
		default:
			r.logger.Warn("export already started, token ignored")
		}
	}

	flow, err := server.NewAuthFlow(server.AuthFlowOpts{
		Provider:    spotify,
		Config:      config,
		Trigger:     trigger,
		OpenBrowser: r.openBrowser,
		NoBrowser:   opts.noBrowser,
		Output:      r.output,
		Logger:      r.logger,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("waiting for authorization",
		"redirect", config.Credentials.Spotify.RedirectURI,
		"page_size", lister.Limit(),
		"workers", pool.Size(),
	)

	var result *tasks.ExportResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		token, ok := awaitToken(gctx, tokens)
		if !ok {
			return nil
		}

		res, err := r.runExport(gctx, exporter, token)
		if err != nil {
			return err
		}
		result = res

		r.writePlain("\n%s", ui.ExportSummary(res, outputDir))
		if !opts.keepServing {
			cancel()
		}
		return nil
	})
	g.Go(func() error {
		return flow.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// awaitToken blocks until a token arrives or ctx is done. A token is never returned once ctx is done.
func awaitToken(ctx context.Context, tokens <-chan models.AccessToken) (models.AccessToken, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case token := <-tokens:
		if ctx.Err() != nil {
			return "", false
		}
		return token, true
	}
}

// runExport runs the exporter and prints its progress. Progress is fully written before it returns.
func (r *Runner) runExport(ctx context.Context, exporter *tasks.Exporter, token models.AccessToken) (*tasks.ExportResult, error) {
	progress := make(chan tasks.ProgressUpdate, progressBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writeProgress(update)
		}
	}()

	result, err := exporter.Run(ctx, progress, token)
	close(progress)
	<-done
	return result, err
}

func (r *Runner) writeProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.FetchPlaylists:
		r.writePlain("\n📥 %s\n", update.Message)
	case tasks.ExportPlaylist:
		r.writePlain("   %s\n", update.Message)
	case tasks.PageComplete:
		r.writePlain("📝 %s\n", update.Message)
	default:
		r.logger.Debug(update.Message, "phase", update.Phase)
	}
}

// openDatabase opens and configures the history database without touching its schema.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, error) {
	path := config.DatabasePath()
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	return db, nil
}

// openHistory opens the history database and applies migrations.
func (r *Runner) openHistory(config *shared.Config) (*sql.DB, error) {
	db, err := r.openDatabase(config)
	if err != nil {
		return nil, err
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
