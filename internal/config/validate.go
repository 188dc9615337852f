package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. The laser alphabet is only
// checked for length here; the writer validates its characters.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateConvert(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	for key, value := range map[string]string{
		"paths.vox_dir": c.Paths.VoxDir,
		"paths.db_dir":  c.Paths.DBDir,
		"paths.out_dir": c.Paths.OutDir,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}

func (c *Config) validateConvert() error {
	if c.Convert.Workers < 1 || c.Convert.Workers > maxWorkers {
		return fmt.Errorf("convert.workers must be between 1 and %d", maxWorkers)
	}
	if c.Convert.PreviewOffsetSeconds < 0 {
		return errors.New("convert.preview_offset_seconds must be >= 0")
	}
	if err := ensurePercent(map[string]int{
		"convert.filter_gain": c.Convert.FilterGain,
		"convert.slam_volume": c.Convert.SlamVolume,
	}); err != nil {
		return err
	}
	if len(c.Convert.LaserAlphabet) < 2 {
		return errors.New("convert.laser_alphabet must have at least two characters")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePercent(values map[string]int) error {
	for key, value := range values {
		if value < 0 || value > 100 {
			return fmt.Errorf("%s must be between 0 and 100", key)
		}
	}
	return nil
}
