package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunLogReceivesTeedRecords(t *testing.T) {
	dir := t.TempDir()
	started := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	runLog, err := OpenRunLog(dir, "run-1", "info", started)
	if err != nil {
		t.Fatalf("OpenRunLog: %v", err)
	}
	wantPath := filepath.Join(dir, RunLogDir, "20260301T123000Z-run-1.log")
	if runLog.Path != wantPath {
		t.Fatalf("path = %q, want %q", runLog.Path, wantPath)
	}

	var console bytes.Buffer
	base, _ := New(Options{Format: "console", Writer: &console})
	logger := TeeLogger(base, runLog.Handler())
	logger.Debug("hidden")
	logger.Info("chart converted", String(FieldChartID, "0781_mxm"))
	if err := runLog.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := runLog.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Fatalf("debug record leaked into info run log: %s", data)
	}
	if !strings.Contains(string(data), `"chart_id":"0781_mxm"`) {
		t.Fatalf("run log missing record: %s", data)
	}
	if !strings.Contains(console.String(), "chart converted") {
		t.Fatalf("console missing record: %q", console.String())
	}
}

func TestOpenRunLogRequiresDir(t *testing.T) {
	if _, err := OpenRunLog(" ", "run", "info", time.Now()); err == nil {
		t.Fatal("expected error for empty log dir")
	}
}

func TestPruneRunLogs(t *testing.T) {
	logDir := t.TempDir()
	runs := filepath.Join(logDir, RunLogDir)
	if err := os.MkdirAll(runs, 0o755); err != nil {
		t.Fatal(err)
	}
	old := filepath.Join(runs, "old.log")
	fresh := filepath.Join(runs, "fresh.log")
	active := filepath.Join(runs, "active.log")
	other := filepath.Join(runs, "notes.txt")
	for _, p := range []string{old, fresh, active, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().AddDate(0, 0, -40)
	for _, p := range []string{old, active, other} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatal(err)
		}
	}

	if n := PruneRunLogs(NewNop(), logDir, 0, ""); n != 0 {
		t.Fatalf("retention 0 removed %d files", n)
	}
	if n := PruneRunLogs(NewNop(), logDir, 30, active); n != 1 {
		t.Fatalf("removed %d files, want 1", n)
	}

	for path, wantExists := range map[string]bool{old: false, fresh: true, active: true, other: true} {
		_, err := os.Stat(path)
		if exists := err == nil; exists != wantExists {
			t.Errorf("%s exists=%v, want %v", filepath.Base(path), exists, wantExists)
		}
	}
}
