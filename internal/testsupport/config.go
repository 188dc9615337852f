package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"vox2ksh/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Input directories are created empty; output directories are left for the
// code under test to create.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.VoxDir = filepath.Join(base, "vox")
	cfgVal.Paths.DBDir = filepath.Join(base, "music_db")
	cfgVal.Paths.AudioDir = filepath.Join(base, "audio")
	cfgVal.Paths.JacketDir = filepath.Join(base, "jacket")
	cfgVal.Paths.ChipSoundDir = filepath.Join(base, "fx_chip_sound")
	cfgVal.Paths.OutDir = filepath.Join(base, "out")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryPath = filepath.Join(base, "state", "history.db")

	for _, dir := range []string{
		cfgVal.Paths.VoxDir,
		cfgVal.Paths.DBDir,
		cfgVal.Paths.AudioDir,
		cfgVal.Paths.JacketDir,
		cfgVal.Paths.ChipSoundDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers sets the batch worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Convert.Workers = n
	}
}

// WithoutMedia disables media copying.
func WithoutMedia() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Convert.CopyMedia = false
	}
}

// WithCompact enables compact measure output.
func WithCompact() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Convert.Compact = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.VoxDir)
}
