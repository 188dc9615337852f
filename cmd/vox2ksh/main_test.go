package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vox2ksh/internal/chart"
	"vox2ksh/internal/config"
	"vox2ksh/internal/musicdb"
	"vox2ksh/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithoutMedia()}, opts...)...)
	testsupport.WriteMusicDB(t, cfg.Paths.DBDir, musicdb.DefaultFileName,
		testsupport.MusicDBEntry{
			ID: 781, Title: "Song A", Artist: "Artist", ASCII: "song_a",
			Levels: map[chart.Difficulty]int{chart.DifficultyNovice: 4, chart.DifficultyMaximum: 18},
		},
		testsupport.MusicDBEntry{
			ID: 782, Title: "Song B", Artist: "Artist", ASCII: "song_b",
			Levels: map[chart.Difficulty]int{chart.DifficultyExhaust: 15},
		},
	)

	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestConvertCommandWritesChart(t *testing.T) {
	env := setupCLITestEnv(t)
	path := testsupport.WriteVox(t, env.cfg.Paths.VoxDir, 1, 781, "song_a", chart.DifficultyMaximum, testsupport.SampleVox())

	out, _, err := runCLI(t, []string{"convert", path}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	want := filepath.Join(env.cfg.Paths.OutDir, "song_a", "chart_mxm.ksh")
	requireContains(t, out, "Wrote "+want)
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("chart not written: %v", err)
	}
}

func TestConvertCommandStdoutAndSongDir(t *testing.T) {
	env := setupCLITestEnv(t)
	path := testsupport.WriteVox(t, env.cfg.Paths.VoxDir, 1, 781, "song_a", chart.DifficultyNovice, testsupport.SampleVox())

	out, _, err := runCLI(t, []string{"convert", "--stdout", path}, env.configPath)
	if err != nil {
		t.Fatalf("convert --stdout: %v", err)
	}
	requireContains(t, out, "title=Song A")
	requireContains(t, out, "\n--\n")
	if entries, _ := os.ReadDir(env.cfg.Paths.OutDir); len(entries) != 0 {
		t.Fatalf("--stdout must not write the output tree, found %d entries", len(entries))
	}

	if _, _, err := runCLI(t, []string{"convert", "--song-dir", "custom", "--compact", path}, env.configPath); err != nil {
		t.Fatalf("convert --song-dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutDir, "custom", "chart_nov.ksh")); err != nil {
		t.Fatalf("song dir override ignored: %v", err)
	}
}

func TestConvertCommandErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"convert", filepath.Join(env.baseDir, "notes.txt")}, env.configPath); err == nil {
		t.Fatal("expected error for a file name that is not a chart")
	}

	ghost := testsupport.WriteVox(t, env.cfg.Paths.VoxDir, 1, 900, "ghost", chart.DifficultyNovice, testsupport.SampleVox())
	_, _, err := runCLI(t, []string{"convert", ghost}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "0900_nov") {
		t.Fatalf("expected song lookup error naming the chart, got %v", err)
	}

	odd := testsupport.WriteVox(t, env.cfg.Paths.VoxDir, 1, 781, "song_a", chart.DifficultyNovice,
		testsupport.SampleVox()+"\n#MYSTERY SECTION\nabc\n#END\n")
	if _, _, err := runCLI(t, []string{"convert", "--stdout", odd}, env.configPath); err != nil {
		t.Fatalf("unknown section should only warn: %v", err)
	}
	_, _, err = runCLI(t, []string{"convert", "--strict", "--stdout", odd}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "0781_nov") {
		t.Fatalf("expected --strict to fail the chart, got %v", err)
	}
}

func TestBatchAndHistoryCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	body := testsupport.SampleVox()
	testsupport.WriteVox(t, env.cfg.Paths.VoxDir, 1, 781, "song_a", chart.DifficultyNovice, body)
	testsupport.WriteVox(t, env.cfg.Paths.VoxDir, 1, 781, "song_a", chart.DifficultyMaximum, body)
	testsupport.WriteVox(t, env.cfg.Paths.VoxDir, 2, 782, "song_b", chart.DifficultyExhaust, "#FORMAT VERSION\nx\n#END\n")

	out, _, err := runCLI(t, []string{"batch", "--workers", "2"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "1 of 3 charts failed") {
		t.Fatalf("expected failure count error, got %v", err)
	}
	requireContains(t, out, "0782_exh")
	requireContains(t, out, "2 converted, 1 failed, 0 skipped")
	requireContains(t, out, "Run log: ")

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "completed")

	out, _, err = runCLI(t, []string{"history", "--failed"}, env.configPath)
	if err != nil {
		t.Fatalf("history --failed: %v", err)
	}
	requireContains(t, out, "0782_exh")
	requireContains(t, out, "format")
	if strings.Contains(out, "0781_mxm") {
		t.Fatalf("--failed listed a converted chart:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"batch", "--song-id", "781", "--difficulty", "m"}, env.configPath)
	if err != nil {
		t.Fatalf("filtered batch: %v", err)
	}
	requireContains(t, out, "1 converted, 0 failed")
}

func TestBatchCommandRejectsBadFilters(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"batch", "--difficulty", "legendary"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unknown difficulty") {
		t.Fatalf("expected difficulty error, got %v", err)
	}
	_, _, err = runCLI(t, []string{"batch", "--testcase", "no-such-case"}, env.configPath)
	if err == nil {
		t.Fatal("expected unknown test case error")
	}
}

func TestBatchCommandStopsOnPreflight(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.RemoveAll(env.cfg.Paths.VoxDir); err != nil {
		t.Fatal(err)
	}

	_, _, err := runCLI(t, []string{"batch"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "VOX directory") {
		t.Fatalf("expected preflight error, got %v", err)
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No batch runs recorded")

	if _, _, err := runCLI(t, []string{"history", "--run", "deadbeef"}, env.configPath); err == nil {
		t.Fatal("expected unknown run error")
	}
}

func TestPreflightCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "Music database:")
	requireContains(t, out, "[OK]")

	if err := os.Remove(filepath.Join(env.cfg.Paths.DBDir, musicdb.DefaultFileName)); err != nil {
		t.Fatal(err)
	}
	out, _, err = runCLI(t, []string{"preflight"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "Music database") {
		t.Fatalf("expected blocking failure, got %v", err)
	}
	requireContains(t, out, "[ERROR]")
}

func TestLogOverridesAreValidated(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"--log-format", "xml", "preflight"}, env.configPath); err == nil {
		t.Fatal("expected invalid log format to be rejected")
	}
	_, stderr, err := runCLI(t, []string{"--log-level", "debug", "--log-format", "json", "convert", "--stdout",
		testsupport.WriteVox(t, env.cfg.Paths.VoxDir, 1, 781, "song_a", chart.DifficultyNovice, testsupport.SampleVox())}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	requireContains(t, stderr, `"msg":"music database loaded"`)
}
