package main

import (
	"strings"
	"testing"
	"time"

	"vox2ksh/internal/history"
)

func TestRenderStatusLinePlain(t *testing.T) {
	got := renderStatusLine("Music database", statusOK, "/db/music_db.xml", palette{})
	want := "  Music database:              [OK] /db/music_db.xml"
	if got != want {
		t.Fatalf("renderStatusLine = %q, want %q", got, want)
	}
	if got := renderStatusLine("Audio", statusWarn, "", palette{}); !strings.HasSuffix(got, "[WARN]") {
		t.Fatalf("expected bare status, got %q", got)
	}
}

func TestPaletteColors(t *testing.T) {
	colored := palette{enabled: true}.kind(statusError, "failed")
	if !strings.Contains(colored, "\x1b[31m") || !strings.Contains(colored, "failed") {
		t.Fatalf("expected red escape, got %q", colored)
	}
	if plain := (palette{}).kind(statusError, "failed"); plain != "failed" {
		t.Fatalf("disabled palette changed text: %q", plain)
	}
}

func TestStatusKinds(t *testing.T) {
	if resultStatusKind(history.StatusFailed) != statusError || resultStatusKind(history.StatusSkipped) != statusWarn {
		t.Fatal("unexpected result status kinds")
	}
	if runStatusKind(history.RunAborted) != statusError || runStatusKind(history.RunRunning) != statusWarn {
		t.Fatal("unexpected run status kinds")
	}
}

func TestFormatHelpers(t *testing.T) {
	cases := map[time.Duration]string{
		0:                         "-",
		1234567 * time.Nanosecond: "1ms",
		1500 * time.Millisecond:   "1.5s",
		90 * time.Second:          "1m30s",
	}
	for in, want := range cases {
		if got := formatDuration(in); got != want {
			t.Errorf("formatDuration(%v) = %q, want %q", in, got, want)
		}
	}
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Fatalf("truncate short = %q", got)
	}
}

func TestRenderTablePadsRows(t *testing.T) {
	out := renderTable([]column{textCol("Chart"), numCol("Status")}, [][]string{{"0781_mxm", "ok", "extra"}})
	if !strings.Contains(out, "0781_mxm") || !strings.Contains(strings.ToUpper(out), "STATUS") || strings.Contains(out, "extra") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty table for no headers")
	}
}
