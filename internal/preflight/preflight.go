package preflight

import (
	"path/filepath"

	"vox2ksh/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Optional results never block a batch.
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("VOX directory", cfg.Paths.VoxDir, Read),
		CheckDirectoryAccess("Music database directory", cfg.Paths.DBDir, Read),
		CheckMusicDB(cfg.Paths.DBDir, cfg.Convert.MergeDB),
		CheckCreatableDirectory("Output directory", cfg.Paths.OutDir),
		CheckCreatableDirectory("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Paths.HistoryPath != "" {
		results = append(results, CheckCreatableDirectory("History directory", filepath.Dir(cfg.Paths.HistoryPath)))
	}

	if cfg.Convert.CopyMedia {
		media := []Result{
			CheckDirectoryAccess("Audio directory", cfg.Paths.AudioDir, Read),
			CheckDirectoryAccess("Jacket directory", cfg.Paths.JacketDir, Read),
		}
		if cfg.Convert.ChipSounds {
			media = append(media, CheckDirectoryAccess("Chip sound directory", cfg.Paths.ChipSoundDir, Read))
		}
		for _, r := range media {
			r.Optional = true
			results = append(results, r)
		}
	}
	return results
}

// Blocking returns the failed results that are not optional.
func Blocking(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
