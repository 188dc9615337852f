package config

import (
	"fmt"
	"os"
	"strings"
)

// pathEnv maps environment overrides to the path they replace.
var pathEnv = []struct {
	env   string
	field func(*Paths) *string
}{
	{"VOX2KSH_VOX_DIR", func(p *Paths) *string { return &p.VoxDir }},
	{"VOX2KSH_DB_DIR", func(p *Paths) *string { return &p.DBDir }},
	{"VOX2KSH_AUDIO_DIR", func(p *Paths) *string { return &p.AudioDir }},
	{"VOX2KSH_JACKET_DIR", func(p *Paths) *string { return &p.JacketDir }},
	{"VOX2KSH_CHIP_SOUND_DIR", func(p *Paths) *string { return &p.ChipSoundDir }},
	{"VOX2KSH_OUT_DIR", func(p *Paths) *string { return &p.OutDir }},
	{"VOX2KSH_LOG_DIR", func(p *Paths) *string { return &p.LogDir }},
	{"VOX2KSH_HISTORY_PATH", func(p *Paths) *string { return &p.HistoryPath }},
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeConvert()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	for _, entry := range pathEnv {
		if value, ok := os.LookupEnv(entry.env); ok && strings.TrimSpace(value) != "" {
			*entry.field(&c.Paths) = strings.TrimSpace(value)
		}
	}
	fields := []struct {
		key   string
		value *string
	}{
		{"paths.vox_dir", &c.Paths.VoxDir},
		{"paths.db_dir", &c.Paths.DBDir},
		{"paths.audio_dir", &c.Paths.AudioDir},
		{"paths.jacket_dir", &c.Paths.JacketDir},
		{"paths.chip_sound_dir", &c.Paths.ChipSoundDir},
		{"paths.out_dir", &c.Paths.OutDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.history_path", &c.Paths.HistoryPath},
	}
	for _, f := range fields {
		expanded, err := expandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.value = expanded
	}
	return nil
}

func (c *Config) normalizeConvert() {
	if c.Convert.Workers == 0 {
		c.Convert.Workers = defaultWorkers
	}
	if c.Convert.LaserAlphabet == "" {
		c.Convert.LaserAlphabet = defaultLaserAlphabet
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
