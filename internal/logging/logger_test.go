package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vox2ksh/internal/config"
)

func TestConsoleHandlerInfoLayout(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := WithChartID(WithRunID(context.Background(), "0123456789abcdef"), "0781_mxm")
	logger = WithContext(ctx, NewComponentLogger(logger, "batch"))

	logger.Info("chart converted",
		String("output", "0781_mxm.ksh"),
		Int64("output_bytes", 2048),
		Int("warnings", 2),
		String("source_path", "/charts/0781.vox"),
	)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header, three fields and a hidden line, got %q", buf.String())
	}
	if !strings.HasSuffix(lines[0], " INFO [batch] Run 01234567 · 0781_mxm – chart converted") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	want := []string{
		"    - Warnings: 2",
		"    - Output: 0781_mxm.ksh",
		"    - Size: 2.0 kB",
		"    + 1 more field hidden",
	}
	for i, w := range want {
		if lines[i+1] != w {
			t.Fatalf("line %d = %q, want %q", i+1, lines[i+1], w)
		}
	}
}

func TestConsoleHandlerDebugShowsEverything(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("slam pushed", Int("tick", 96), String("source_path", "/charts/a.vox"))

	out := buf.String()
	if !strings.Contains(out, "DEBUG – slam pushed [logger_test.go:") {
		t.Fatalf("expected source location in debug header: %q", out)
	}
	for _, want := range []string{"    tick: 96\n", "    source_path: /charts/a.vox\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestJSONHandlerKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("dropped")
	WarnWithContext(logger, "effect replaced", "effect_fallback", Int("effect", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected exactly one JSON record: %v (%q)", err, buf.String())
	}
	if rec["level"] != "warn" || rec["msg"] != "effect replaced" {
		t.Fatalf("unexpected record %v", rec)
	}
	if _, err := time.Parse(time.RFC3339, rec["ts"].(string)); err != nil {
		t.Fatalf("ts not RFC3339: %v", rec["ts"])
	}
	if rec[FieldEventType] != "effect_fallback" || rec[FieldErrorHint] == nil || rec[FieldImpact] == nil {
		t.Fatalf("expected context fields, got %v", rec)
	}
}

func TestErrorWithContextKeepsCallerHint(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Options{Format: "json", Writer: &buf})
	ErrorWithContext(logger, "chart failed", "chart_failed", Error(errors.New("bad track")), String(FieldErrorHint, "check the vox file"))

	if strings.Count(buf.String(), FieldErrorHint) != 1 || !strings.Contains(buf.String(), "check the vox file") {
		t.Fatalf("unexpected hints: %s", buf.String())
	}
	if strings.Contains(buf.String(), FieldImpact) {
		t.Fatalf("errors do not carry a default impact: %s", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", "WARNING": "WARN", " error ": "ERROR", "": "INFO", "verbose": "INFO"}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Format = "json"

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("hello")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, LogFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("log file missing record: %q", data)
	}
}

func TestContextFields(t *testing.T) {
	if fields := ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
	ctx := WithRunID(context.Background(), " run-1 ")
	if id, ok := RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("RunIDFromContext = %q, %v", id, ok)
	}
	if _, ok := ChartIDFromContext(ctx); ok {
		t.Fatal("chart id should be absent")
	}
	fields := ContextFields(WithChartID(ctx, "0001_nov"))
	if len(fields) != 2 || fields[0].Key != FieldRunID || fields[1].Value.String() != "0001_nov" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestComposeSubject(t *testing.T) {
	cases := []struct{ run, chart, want string }{
		{"", "", ""},
		{"abc", "", "Run abc"},
		{"", "0781_mxm", "0781_mxm"},
		{"0123456789", "0781_mxm", "Run 01234567 · 0781_mxm"},
	}
	for _, tc := range cases {
		if got := composeSubject(tc.run, tc.chart); got != tc.want {
			t.Errorf("composeSubject(%q, %q) = %q, want %q", tc.run, tc.chart, got, tc.want)
		}
	}
}
