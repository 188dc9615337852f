package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTeeHandlerCollapses(t *testing.T) {
	if _, ok := newTeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}

	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newTeeHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsLevels(t *testing.T) {
	var info, debug bytes.Buffer
	h := newTeeHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee enabled for debug")
	}

	logger := slog.New(h)
	logger.Debug("placing lasers")
	logger.Info("chart converted")

	if strings.Contains(info.String(), "placing lasers") {
		t.Fatalf("info handler received debug record: %s", info.String())
	}
	if !strings.Contains(info.String(), "chart converted") {
		t.Fatalf("info handler missed info record: %s", info.String())
	}
	if strings.Count(debug.String(), "\n") != 2 {
		t.Fatalf("debug handler should see both records: %s", debug.String())
	}
}

func TestTeeHandlerWithAttrsReachesEveryHandler(t *testing.T) {
	var a, b bytes.Buffer
	h := newTeeHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))
	slog.New(h).With("chart_id", "0781_mxm").WithGroup("timing").Info("bpm", "value", 180)

	for _, out := range []string{a.String(), b.String()} {
		if !strings.Contains(out, `"chart_id":"0781_mxm"`) {
			t.Fatalf("missing handler attr: %s", out)
		}
		if !strings.Contains(out, `"timing":{"value":180}`) {
			t.Fatalf("missing group: %s", out)
		}
	}
}

func TestTeeLogger(t *testing.T) {
	var base, run bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&base, nil))
	tee := TeeLogger(logger, slog.NewJSONHandler(&run, nil), nil)
	tee.Info("batch started")

	if !strings.Contains(base.String(), "batch started") || !strings.Contains(run.String(), "batch started") {
		t.Fatalf("expected record in both outputs: base=%q run=%q", base.String(), run.String())
	}

	var only bytes.Buffer
	TeeLogger(nil, slog.NewJSONHandler(&only, nil)).Info("no base")
	if !strings.Contains(only.String(), "no base") {
		t.Fatalf("expected nil base to log to handlers only: %q", only.String())
	}
}
