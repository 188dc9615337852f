package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"vox2ksh/internal/chart"
	"vox2ksh/internal/config"
	"vox2ksh/internal/convert"
	"vox2ksh/internal/history"
	"vox2ksh/internal/logging"
	"vox2ksh/internal/musicdb"
)

// LockFileName is created in the output directory while a batch runs.
const LockFileName = ".vox2ksh.lock"

// ErrLocked is returned when another batch holds the output directory.
var ErrLocked = errors.New("output directory is locked by another batch")

// Options control a single run.
type Options struct {
	Filter  Filter
	Workers int
	// Clean empties the output directory before converting.
	Clean bool
	// Progress receives a progress bar when set.
	Progress io.Writer
}

// Summary is the outcome of a run.
type Summary struct {
	RunID      string
	RunLogPath string
	Status     history.RunStatus
	Converted  int
	Failed     int
	Skipped    int
	Warnings   int
	Elapsed    time.Duration
	Results    []history.Result
}

// Total is the number of charts attempted.
func (s *Summary) Total() int { return s.Converted + s.Failed + s.Skipped }

// Runner drives batch conversions.
type Runner struct {
	cfg    *config.Config
	conv   *convert.Converter
	store  *history.Store
	logger *slog.Logger
}

// NewRunner builds a Runner. store may be nil to skip history recording.
func NewRunner(cfg *config.Config, conv *convert.Converter, store *history.Store, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		conv:   conv,
		store:  store,
		logger: logging.NewComponentLogger(logger, "batch"),
	}
}

// Run discovers and converts charts. Per-chart failures are recorded and do
// not stop the run; only setup failures and cancellation return an error.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	started := time.Now()
	workers := opts.Workers
	if workers <= 0 {
		workers = r.cfg.Convert.Workers
	}
	if workers <= 0 {
		workers = 1
	}

	outDir := r.cfg.Paths.OutDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(filepath.Join(outDir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, outDir)
	}
	defer func() { _ = lock.Unlock() }()

	if opts.Clean {
		if err := cleanOutput(outDir); err != nil {
			return nil, err
		}
	}

	sources, err := Discover(r.cfg.Paths.VoxDir, opts.Filter, r.logger)
	if err != nil {
		return nil, err
	}

	// History writes ignore cancellation so an interrupted run is still
	// recorded with the charts it finished.
	summary := &Summary{Status: history.RunCompleted}
	if r.store != nil {
		run, err := r.store.StartRun(context.WithoutCancel(ctx), workers, opts.Filter.String())
		if err != nil {
			return nil, err
		}
		summary.RunID = run.ID
	} else {
		summary.RunID = uuid.NewString()
	}
	ctx = logging.WithRunID(ctx, summary.RunID)

	logger := r.logger
	runLog, err := logging.OpenRunLog(r.cfg.Paths.LogDir, summary.RunID, r.cfg.Logging.Level, started)
	if err != nil {
		logging.WarnWithContext(logger, "run log unavailable", "run_log_unavailable", logging.Error(err))
	} else {
		defer runLog.Close()
		summary.RunLogPath = runLog.Path
		logger = logging.TeeLogger(logger, runLog.Handler())
		logging.PruneRunLogs(logger, r.cfg.Paths.LogDir, r.cfg.Logging.RetentionDays, runLog.Path)
	}
	runLogger := logging.WithContext(ctx, logger)
	runLogger.Info("batch started",
		logging.Int("charts", len(sources)),
		logging.Int("workers", workers),
		logging.String("vox_dir", r.cfg.Paths.VoxDir),
	)

	var bar *progressbar.ProgressBar
	var sampler *logging.ProgressSampler
	if opts.Progress != nil && len(sources) > 0 {
		bar = newProgressBar(opts.Progress, len(sources))
	} else {
		sampler = logging.NewProgressSampler(10)
	}

	results := make(chan history.Result)
	var wg sync.WaitGroup
	for _, shard := range Shard(sources, workers) {
		if len(shard) == 0 {
			continue
		}
		wg.Add(1)
		go func(shard []convert.Source) {
			defer wg.Done()
			for _, src := range shard {
				if ctx.Err() != nil {
					return
				}
				results <- r.convertOne(ctx, logger, summary.RunID, src)
			}
		}(shard)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		summary.Results = append(summary.Results, res)
		switch res.Status {
		case history.StatusConverted:
			summary.Converted++
		case history.StatusFailed:
			summary.Failed++
		case history.StatusSkipped:
			summary.Skipped++
		}
		summary.Warnings += res.Warnings
		if r.store != nil {
			if err := r.store.RecordResult(context.WithoutCancel(ctx), res); err != nil {
				logging.WarnWithContext(runLogger, "history write failed", "history_write_failed", logging.Error(err))
			}
		}
		if bar != nil {
			_ = bar.Add(1)
		} else if sampler.ShouldLog(len(summary.Results), len(sources)) {
			runLogger.Info("batch progress",
				logging.Int("done", len(summary.Results)),
				logging.Int("charts", len(sources)),
				logging.Int("failed", summary.Failed),
			)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	runErr := ctx.Err()
	if runErr != nil || summary.Total() < len(sources) {
		summary.Status = history.RunAborted
	}
	summary.Elapsed = time.Since(started)
	if r.store != nil {
		if _, err := r.store.FinishRun(context.WithoutCancel(ctx), summary.RunID, summary.Status); err != nil {
			logging.WarnWithContext(runLogger, "history write failed", "history_write_failed", logging.Error(err))
		}
	}

	runLogger.Info("batch finished",
		logging.String("status", string(summary.Status)),
		logging.Int("charts", summary.Total()),
		logging.Int("converted", summary.Converted),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("warnings", summary.Warnings),
		logging.Duration("elapsed", summary.Elapsed),
	)
	if runErr != nil {
		return summary, runErr
	}
	return summary, nil
}

func (r *Runner) convertOne(ctx context.Context, logger *slog.Logger, runID string, src convert.Source) history.Result {
	ctx = logging.WithChartID(ctx, src.ChartID())
	chartLogger := logging.WithContext(ctx, logger)
	res := history.Result{
		RunID:      runID,
		ChartID:    src.ChartID(),
		SongID:     src.SongID,
		Difficulty: src.Difficulty.String(),
		SourcePath: src.Path,
	}

	out, err := r.conv.Convert(ctx, src, "")
	res.Duration = out.Duration
	switch {
	case err == nil:
		res.Status = history.StatusConverted
		res.Warnings = out.Warnings
		res.OutputPath = out.OutputPath
		res.OutputBytes = out.Bytes
		chartLogger.Info("chart converted",
			logging.String("output", out.OutputPath),
			logging.Int64("output_bytes", out.Bytes),
			logging.Int("warnings", out.Warnings),
			logging.Duration("elapsed", out.Duration),
		)
	case errors.Is(err, musicdb.ErrSongNotFound):
		res.Status = history.StatusSkipped
		res.ErrorKind = "not_found"
		res.Message = err.Error()
		logging.WarnWithContext(chartLogger, "chart skipped", "chart_skipped",
			logging.Int("song_id", src.SongID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "add the song to the music database or enable merge_db"),
			logging.String(logging.FieldImpact, "chart was not converted"),
		)
	default:
		res.Status = history.StatusFailed
		res.ErrorKind = chart.Classify(err)
		res.Message = err.Error()
		logging.ErrorWithContext(chartLogger, "chart failed", "chart_failed",
			logging.String(logging.FieldErrorKind, res.ErrorKind),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(res.ErrorKind)),
		)
	}
	return res
}

func hintFor(kind string) string {
	switch kind {
	case chart.KindFormat:
		return "the vox file is malformed or its music database entry is incomplete"
	case chart.KindInternal:
		return "converter bug; please report it with the vox file"
	default:
		return "check file permissions and free space"
	}
}

// cleanOutput removes everything in dir except the lock file.
func cleanOutput(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	for _, entry := range entries {
		if entry.Name() == LockFileName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("clean output: %w", err)
		}
	}
	return nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
