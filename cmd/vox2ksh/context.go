package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"vox2ksh/internal/config"
	"vox2ksh/internal/convert"
	"vox2ksh/internal/history"
	"vox2ksh/internal/logging"
	"vox2ksh/internal/musicdb"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if level := flagValue(c.logLevelFlag); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if format := flagValue(c.logFormatFlag); format != "" {
			cfg.Logging.Format = strings.ToLower(format)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

// logger writes to the command's stderr. The shared log file is only added
// when stderr is the process stderr, so captured test output stays isolated.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	errOut := cmd.ErrOrStderr()
	if errOut == os.Stderr {
		return logging.NewFromConfig(cfg)
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: errOut,
	})
}

func (c *commandContext) newConverter(cfg *config.Config, logger *slog.Logger) (*convert.Converter, error) {
	db, err := musicdb.Open(cfg.Paths.DBDir, cfg.Convert.MergeDB)
	if err != nil {
		return nil, fmt.Errorf("load music database: %w", err)
	}
	logger.Debug("music database loaded",
		logging.Int("songs", db.Len()),
		logging.Int("files", len(db.Files())),
		logging.Int("shadowed", db.Shadowed),
		logging.String("db_dir", cfg.Paths.DBDir),
	)
	return convert.New(cfg, db, logger)
}

func (c *commandContext) openHistory(cfg *config.Config) (*history.Store, error) {
	if strings.TrimSpace(cfg.Paths.HistoryPath) == "" {
		return nil, nil
	}
	store, err := history.Open(cfg.Paths.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func flagValue(flag *string) string {
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(*flag)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
