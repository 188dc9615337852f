package convert

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"vox2ksh/internal/fileutil"
	"vox2ksh/internal/ksh"
	"vox2ksh/internal/logging"
)

const (
	audioExtension     = ".ogg"
	chipSoundExtension = ".wav"
	fallbackChipSound  = 0
)

// audioFile picks the audio for a chart: a difficulty-specific file when the
// audio dir has one, otherwise the shared track. name is the file name used
// in the song directory; src is empty when neither exists.
func (c *Converter) audioFile(src Source) (name, path string) {
	dir := c.cfg.Paths.AudioDir
	abbrev := src.Difficulty.Abbreviation()
	if dir != "" {
		specific := filepath.Join(dir, strconv.Itoa(src.SongID)+"_"+abbrev+audioExtension)
		if fileutil.Exists(specific) {
			return "track_" + abbrev + audioExtension, specific
		}
		shared := filepath.Join(dir, strconv.Itoa(src.SongID)+audioExtension)
		if fileutil.Exists(shared) {
			return "track" + audioExtension, shared
		}
	}
	return "track" + audioExtension, ""
}

// jacketFile finds the jacket for a chart, falling back to easier
// difficulties. ok is false when no jacket exists at all.
func (c *Converter) jacketFile(src Source) (name, path string, ok bool) {
	dir := c.cfg.Paths.JacketDir
	if dir == "" {
		return "", "", false
	}
	for n := src.Difficulty.JacketNumber(); n >= 0; n-- {
		candidate := filepath.Join(dir, fmt.Sprintf("%d_%d.png", src.SongID, n))
		if fileutil.Exists(candidate) {
			return fmt.Sprintf("jacket_%d.png", n), candidate, true
		}
	}
	return "", "", false
}

type mediaPlan struct {
	audioName  string
	audioPath  string
	jacketName string
	jacketPath string
	chipSounds []int
}

// copyMedia copies the planned files into songDir. Missing files are logged
// and counted as warnings; they never fail the chart.
func (c *Converter) copyMedia(logger *slog.Logger, plan mediaPlan, songDir string) (copied []string, warnings int) {
	copyOne := func(src, name string) {
		dst := filepath.Join(songDir, name)
		if err := fileutil.CopyFile(src, dst); err != nil {
			logging.WarnWithContext(logger, "media copy failed", "media_copy_failed",
				logging.String("file", name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the media directories in the config"),
			)
			warnings++
			return
		}
		copied = append(copied, name)
	}

	switch {
	case plan.audioPath == "":
		logging.WarnWithContext(logger, "no audio found", "audio_missing",
			logging.String(logging.FieldErrorHint, "check paths.audio_dir"),
		)
		warnings++
	case fileutil.Exists(filepath.Join(songDir, plan.audioName)):
		logger.Debug("audio already present", logging.String("file", plan.audioName))
	default:
		copyOne(plan.audioPath, plan.audioName)
	}

	if plan.jacketPath == "" {
		logging.WarnWithContext(logger, "no jacket found", "jacket_missing",
			logging.String(logging.FieldErrorHint, "check paths.jacket_dir"),
		)
		warnings++
	} else {
		copyOne(plan.jacketPath, plan.jacketName)
	}

	for _, id := range plan.chipSounds {
		src := filepath.Join(c.cfg.Paths.ChipSoundDir, strconv.Itoa(id)+chipSoundExtension)
		if !fileutil.Exists(src) {
			logging.WarnWithContext(logger, "chip sound missing, using default sample", "chip_sound_missing",
				logging.Int("chip_sound", id),
			)
			warnings++
			src = filepath.Join(c.cfg.Paths.ChipSoundDir, strconv.Itoa(fallbackChipSound)+chipSoundExtension)
		}
		copyOne(src, ksh.ChipSoundFile(id))
	}
	return copied, warnings
}
