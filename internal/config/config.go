package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input, output and state locations.
type Paths struct {
	VoxDir       string `toml:"vox_dir"`
	DBDir        string `toml:"db_dir"`
	AudioDir     string `toml:"audio_dir"`
	JacketDir    string `toml:"jacket_dir"`
	ChipSoundDir string `toml:"chip_sound_dir"`
	OutDir       string `toml:"out_dir"`
	LogDir       string `toml:"log_dir"`
	HistoryPath  string `toml:"history_path"`
}

// Convert contains chart conversion settings.
type Convert struct {
	// Workers is the size of the batch worker pool.
	Workers int `toml:"workers"`
	// MergeDB loads every *.xml in db_dir instead of only music_db.xml.
	MergeDB bool `toml:"merge_db"`
	// Compact collapses measures to the coarsest step that keeps every event.
	Compact    bool `toml:"compact"`
	// Strict fails a chart on anything the reader would otherwise only warn about.
	Strict     bool `toml:"strict"`
	ChipSounds bool `toml:"chip_sounds"`
	// CopyMedia copies audio, jacket and chip sound files next to the chart.
	CopyMedia bool `toml:"copy_media"`
	// PreviewOffsetSeconds is written as the po= header (milliseconds).
	PreviewOffsetSeconds int    `toml:"preview_offset_seconds"`
	FilterGain           int    `toml:"filter_gain"`
	SlamVolume           int    `toml:"slam_volume"`
	LaserAlphabet        string `toml:"laser_alphabet"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for vox2ksh.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Convert Convert `toml:"convert"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vox2ksh/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded. A missing file is not an error: the
// defaults are used and exists is false.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// decodeFile overlays the file onto cfg. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	err = dec.Decode(cfg)
	var strict *toml.StrictMissingError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &strict):
		return fmt.Errorf("parse config: %s", strings.TrimSpace(strict.String()))
	}
	return fmt.Errorf("parse config: %w", err)
}

// resolveConfigPath picks the explicit path when given. Otherwise the per-user
// file wins over ./vox2ksh.toml; when neither exists the per-user path is
// reported as absent.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("vox2ksh.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

// EnsureDirectories creates the directories vox2ksh writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutDir, c.Paths.LogDir}
	if c.Paths.HistoryPath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PreviewOffsetMs returns the preview offset in milliseconds.
func (c *Config) PreviewOffsetMs() int {
	return c.Convert.PreviewOffsetSeconds * 1000
}

// Encode renders the config as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, value[1:])
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return abs, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is never overwritten.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
