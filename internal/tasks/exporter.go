package tasks

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotex/internal/models"
	"github.com/desertthunder/spotex/internal/shared"
)

// PageLister yields the account's playlists one page at a time.
type PageLister interface {
	Pages(ctx context.Context, token models.AccessToken) iter.Seq2[models.Page, error]
}

// Fetcher retrieves the track listing of one playlist.
type Fetcher interface {
	FetchPlaylist(ctx context.Context, job models.Job) (*models.Playlist, error)
}

// Saver persists an exported playlist and returns where it was written.
type Saver interface {
	Save(pl *models.Playlist) (string, error)
}

// Recorder keeps a history of export runs. Implementations must be safe for concurrent use.
type Recorder interface {
	StartRun(ctx context.Context, outputDir string) (string, error)
	RecordPlaylist(ctx context.Context, record models.ExportRecord) error
	FinishRun(ctx context.Context, run models.ExportRun) error
}

// ExportResult summarizes an export run.
type ExportResult struct {
	RunID     string
	Pages     int
	Succeeded int
	Failed    int
	Files     []string
	ListError error
	Cancelled bool
	Duration  time.Duration

	mu sync.Mutex
}

// Total returns the number of playlists attempted.
func (r *ExportResult) Total() int { return r.Succeeded + r.Failed }

func (r *ExportResult) addFile(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Files = append(r.Files, path)
}

// ExporterOpts contains the dependencies of an [Exporter]. Recorder is optional.
type ExporterOpts struct {
	Lister    PageLister
	Fetcher   Fetcher
	Store     Saver
	Pool      *WorkerPool
	Recorder  Recorder
	OutputDir string
	Logger    *log.Logger
}

// Exporter runs the paginated fetch-and-persist pipeline.
type Exporter struct {
	lister    PageLister
	fetcher   Fetcher
	store     Saver
	pool      *WorkerPool
	recorder  Recorder
	outputDir string
	logger    *log.Logger

	step atomic.Int64
}

// NewExporter creates an [Exporter].
func NewExporter(opts ExporterOpts) (*Exporter, error) {
	if opts.Lister == nil || opts.Fetcher == nil || opts.Store == nil || opts.Pool == nil {
		return nil, fmt.Errorf("%w: exporter requires a lister, fetcher, store, and pool", shared.ErrInvalidInput)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Exporter{
		lister:    opts.Lister,
		fetcher:   opts.Fetcher,
		store:     opts.Store,
		pool:      opts.Pool,
		recorder:  opts.Recorder,
		outputDir: opts.OutputDir,
		logger:    shared.WithLogger(opts.Logger, "component", "exporter"),
	}, nil
}

// Run exports every playlist reachable with token.
//
// Each page's playlists are submitted to the pool and the next page is not requested until the
// whole batch has finished. Per-playlist failures are logged and counted. A listing failure ends
// the run early and is reported in [ExportResult.ListError]; playlists already written stay on disk.
// The returned error is reserved for runs that could not start.
func (e *Exporter) Run(ctx context.Context, progress chan<- ProgressUpdate, token models.AccessToken) (*ExportResult, error) {
	if token.IsZero() {
		return nil, fmt.Errorf("%w: no access token", shared.ErrAuthFailed)
	}

	start := time.Now()
	result := &ExportResult{}
	e.step.Store(0)

	if e.recorder != nil {
		id, err := e.recorder.StartRun(ctx, e.outputDir)
		if err != nil {
			e.logger.Warn("run history unavailable", "error", err)
		} else {
			result.RunID = id
		}
	}

	e.logger.Info("export started", "output", e.outputDir, "workers", e.pool.Size())

	for page, err := range e.lister.Pages(ctx, token) {
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.Cancelled = true
				break
			}
			e.logger.Error("listing playlists failed, stopping export", "offset", page.Offset, "error", err)
			result.ListError = err
			break
		}

		result.Pages++
		e.sendProgress(progress, fetchPageUpdate(result.Pages, page))
		e.logger.Debug("page received", "page", result.Pages, "offset", page.Offset, "playlists", page.Len())

		var submitErr error
		for _, ref := range page.Items {
			job := models.NewJob(token, ref)
			if submitErr = e.pool.Submit(ctx, job.String(), e.exportTask(job, result, progress)); submitErr != nil {
				break
			}
		}

		batch := e.pool.Wait()
		result.Succeeded += batch.Succeeded
		result.Failed += batch.Failed
		e.sendProgress(progress, pageCompleteUpdate(result.Pages, batch))

		if submitErr != nil {
			e.logger.Warn("export interrupted", "error", submitErr)
			result.Cancelled = true
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	if ctx.Err() != nil {
		result.Cancelled = true
	}
	result.Duration = time.Since(start)

	e.finish(result)
	e.sendProgress(progress, exportFinishedUpdate(result))
	e.logger.Info("export finished",
		"pages", result.Pages,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duration", result.Duration.Round(time.Millisecond),
	)
	return result, nil
}

// exportTask fetches one playlist and writes it to the store.
func (e *Exporter) exportTask(job models.Job, result *ExportResult, progress chan<- ProgressUpdate) Task {
	return func(ctx context.Context) error {
		record := models.ExportRecord{
			RunID:        result.RunID,
			PlaylistID:   job.PlaylistID,
			PlaylistName: job.PlaylistName,
		}

		path, songs, err := e.exportPlaylist(ctx, job)
		step := int(e.step.Add(1))
		if err != nil {
			record.Error = err.Error()
			e.sendProgress(progress, exportFailedUpdate(step, job, err))
		} else {
			record.Path = path
			record.SongCount = songs
			result.addFile(path)
			e.sendProgress(progress, exportCompletedUpdate(step, job, songs, path))
		}

		e.record(ctx, record)
		return err
	}
}

func (e *Exporter) exportPlaylist(ctx context.Context, job models.Job) (string, int, error) {
	playlist, err := e.fetcher.FetchPlaylist(ctx, job)
	if err != nil {
		return "", 0, fmt.Errorf("fetch %s: %w", job, err)
	}

	path, err := e.store.Save(playlist)
	if err != nil {
		return "", 0, fmt.Errorf("save %s: %w", job, err)
	}
	return path, len(playlist.Songs), nil
}

func (e *Exporter) record(ctx context.Context, record models.ExportRecord) {
	if e.recorder == nil || record.RunID == "" {
		return
	}
	record.RecordedAt = time.Now().UTC()
	if err := e.recorder.RecordPlaylist(context.WithoutCancel(ctx), record); err != nil {
		e.logger.Warn("failed to record playlist", "playlist", record.PlaylistID, "error", err)
	}
}

func (e *Exporter) finish(result *ExportResult) {
	if e.recorder == nil || result.RunID == "" {
		return
	}

	finished := time.Now().UTC()
	run := models.ExportRun{
		ID:         result.RunID,
		FinishedAt: &finished,
		OutputDir:  e.outputDir,
		Pages:      result.Pages,
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
	}
	if result.ListError != nil {
		run.ListError = result.ListError.Error()
	}

	if err := e.recorder.FinishRun(context.Background(), run); err != nil {
		e.logger.Warn("failed to record run", "run", result.RunID, "error", err)
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Exporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
