package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding/japanese"

	"vox2ksh/internal/chart"
	"vox2ksh/internal/config"
	"vox2ksh/internal/fileutil"
	"vox2ksh/internal/ksh"
	"vox2ksh/internal/logging"
	"vox2ksh/internal/musicdb"
	"vox2ksh/internal/textutil"
	"vox2ksh/internal/vox"
)

// ErrNoSongDir is returned when a song has neither an ascii name nor an
// explicit song directory.
var ErrNoSongDir = errors.New("cannot name song directory")

// Converter turns VOX files into KSH charts.
type Converter struct {
	cfg    *config.Config
	db     *musicdb.DB
	logger *slog.Logger
	opts   ksh.Options
}

// New builds a Converter. The laser alphabet is validated here so a bad
// config fails before any chart is read.
func New(cfg *config.Config, db *musicdb.DB, logger *slog.Logger) (*Converter, error) {
	if cfg == nil {
		return nil, errors.New("convert: config is nil")
	}
	if db == nil {
		return nil, errors.New("convert: music database is nil")
	}
	if err := ksh.ValidateAlphabet(cfg.Convert.LaserAlphabet); err != nil {
		return nil, fmt.Errorf("convert.laser_alphabet: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "convert")
	return &Converter{
		cfg:    cfg,
		db:     db,
		logger: logger,
		opts: ksh.Options{
			Compact:    cfg.Convert.Compact,
			Alphabet:   cfg.Convert.LaserAlphabet,
			ChipSounds: cfg.Convert.ChipSounds,
			FilterGain: cfg.Convert.FilterGain,
			SlamVolume: cfg.Convert.SlamVolume,
			Logger:     logger,
		},
	}, nil
}

// Result describes a written chart.
type Result struct {
	Source     Source
	ChartID    string
	SongDir    string
	OutputPath string
	Bytes      int64
	Warnings   int
	Media      []string
	Duration   time.Duration
}

// Rendered is a chart converted in memory.
type Rendered struct {
	Timeline *chart.Timeline
	KSH      []byte
	Song     *musicdb.Song
	media    mediaPlan
}

// Render converts src without touching the output tree.
func (c *Converter) Render(ctx context.Context, src Source) (*Rendered, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, c.logger)

	text, err := readVox(src.Path)
	if err != nil {
		return nil, err
	}
	song, err := c.db.Lookup(src.SongID)
	if err != nil {
		return nil, err
	}

	audioName, audioPath := c.audioFile(src)
	jacketName, jacketPath, _ := c.jacketFile(src)
	rec := song.Record(src.Difficulty)
	rec.Audio = audioName
	rec.Jacket = jacketName
	rec.PreviewOffsetMs = c.cfg.PreviewOffsetMs()
	rec.Source = filepath.Base(src.Path)

	tl, err := vox.Read(text, rec, vox.WithLogger(logger), vox.WithStrict(c.cfg.Convert.Strict))
	if err != nil {
		return nil, err
	}

	opts := c.opts
	opts.Logger = logger
	out, err := ksh.Render(tl, opts)
	if err != nil {
		return nil, err
	}

	plan := mediaPlan{
		audioName:  audioName,
		audioPath:  audioPath,
		jacketName: jacketName,
		jacketPath: jacketPath,
	}
	if c.cfg.Convert.ChipSounds {
		plan.chipSounds = tl.ChipSounds
	}
	return &Rendered{Timeline: tl, KSH: out, Song: song, media: plan}, nil
}

// Convert renders src and writes <out_dir>/<song dir>/chart_<abbr>.ksh.
// songDir overrides the directory name derived from the song's ascii name.
func (c *Converter) Convert(ctx context.Context, src Source, songDir string) (Result, error) {
	started := time.Now()
	if _, ok := logging.ChartIDFromContext(ctx); !ok {
		ctx = logging.WithChartID(ctx, src.ChartID())
	}
	logger := logging.WithContext(ctx, c.logger)
	res := Result{Source: src, ChartID: src.ChartID()}

	rendered, err := c.Render(ctx, src)
	if err != nil {
		return res, err
	}
	res.Warnings = len(rendered.Timeline.Warnings)

	dirName, err := SongDirName(rendered.Song, songDir)
	if err != nil {
		return res, err
	}
	res.SongDir = filepath.Join(c.cfg.Paths.OutDir, dirName)
	if err := os.MkdirAll(res.SongDir, 0o755); err != nil {
		return res, fmt.Errorf("create song directory: %w", err)
	}

	res.OutputPath = filepath.Join(res.SongDir, "chart_"+rendered.Timeline.Metadata.DifficultyAbbreviation()+".ksh")
	if err := fileutil.WriteFileAtomic(res.OutputPath, rendered.KSH, 0o644); err != nil {
		return res, fmt.Errorf("write chart: %w", err)
	}
	res.Bytes = int64(len(rendered.KSH))

	if c.cfg.Convert.CopyMedia {
		copied, warnings := c.copyMedia(logger, rendered.media, res.SongDir)
		res.Media = copied
		res.Warnings += warnings
	}

	res.Duration = time.Since(started)
	logger.Debug("chart written",
		logging.String("output", res.OutputPath),
		logging.Int64("output_bytes", res.Bytes),
		logging.Int("warnings", res.Warnings),
		logging.Duration("elapsed", res.Duration),
	)
	return res, nil
}

// SongDirName returns override when set, otherwise the song's ascii name,
// sanitized for use as a directory.
func SongDirName(song *musicdb.Song, override string) (string, error) {
	name := strings.TrimSpace(override)
	if name == "" && song != nil {
		name = song.ASCII
	}
	name = textutil.SanitizeFileName(name)
	if name == "" {
		id := 0
		if song != nil {
			id = song.ID
		}
		return "", fmt.Errorf("song %d: %w (no ascii name in the music database)", id, ErrNoSongDir)
	}
	return name, nil
}

func readVox(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read vox: %w", err)
	}
	text, err := japanese.ShiftJIS.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode vox %s: %w", filepath.Base(path), err)
	}
	return string(text), nil
}
