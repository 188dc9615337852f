package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// field is one flattened attribute; group members carry dotted keys.
type field struct {
	key   string
	value slog.Value
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(p)
	return err
}

// consoleHandler renders a header line per record and the record's fields
// indented below it. Records under info list every field.
type consoleHandler struct {
	out       *syncWriter
	level     slog.Leveler
	preset    []field
	group     string
	addSource bool
}

func newConsoleHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return &consoleHandler{out: &syncWriter{w: w}, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.Enabled(context.Background(), r.Level) {
		return nil
	}
	fields := append(make([]field, 0, len(h.preset)+r.NumAttrs()), h.preset...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendField(fields, h.group, a)
		return true
	})
	fields = lastValueWins(fields)

	var b bytes.Buffer
	h.writeHeader(&b, r, fields)
	if r.Level >= slog.LevelInfo {
		writeSelectedFields(&b, fields)
	} else {
		writeAllFields(&b, fields)
	}
	return h.out.write(b.Bytes())
}

func (h *consoleHandler) writeHeader(b *bytes.Buffer, r slog.Record, fields []field) {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(consoleTime(ts))
	b.WriteByte(' ')
	b.WriteString(levelLabel(r.Level))
	if component := lookupField(fields, FieldComponent); component != "" {
		fmt.Fprintf(b, " [%s]", component)
	}
	if subject := composeSubject(lookupField(fields, FieldRunID), lookupField(fields, FieldChartID)); subject != "" {
		b.WriteByte(' ')
		b.WriteString(subject)
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(" – ")
	b.WriteString(msg)
	if h.addSource {
		if src := recordSource(r); src != nil && src.File != "" {
			fmt.Fprintf(b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')
}

func writeSelectedFields(b *bytes.Buffer, fields []field) {
	shown, hidden := selectInfoFields(fields, infoAttrLimit)
	for _, f := range shown {
		fmt.Fprintf(b, "    - %s: %s\n", f.label, f.value)
	}
	switch {
	case hidden == 1:
		b.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		fmt.Fprintf(b, "    + %d more fields hidden\n", hidden)
	}
}

func writeAllFields(b *bytes.Buffer, fields []field) {
	for _, f := range fields {
		if f.key == FieldComponent {
			continue
		}
		fmt.Fprintf(b, "    %s: %s\n", f.key, formatValue(f.value))
	}
}

func consoleTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(consoleTimeLayout)
}

// composeSubject renders "Run 1a2b3c4d · 0781_mxm". Run ids are shortened to
// their first eight characters.
func composeSubject(runID, chartID string) string {
	runID = strings.TrimSpace(runID)
	chartID = strings.TrimSpace(chartID)
	if len(runID) > 8 {
		runID = runID[:8]
	}
	switch {
	case runID != "" && chartID != "":
		return "Run " + runID + " · " + chartID
	case runID != "":
		return "Run " + runID
	default:
		return chartID
	}
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append([]field(nil), h.preset...)
	for _, a := range attrs {
		next.preset = appendField(next.preset, h.group, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = joinKey(h.group, name)
	return &next
}

// appendField flattens a into dst, prefixing keys with the dotted group path.
func appendField(dst []field, group string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		if a.Key == "" {
			return dst
		}
		return append(dst, field{key: joinKey(group, a.Key), value: v})
	}
	inner := group
	if a.Key != "" {
		inner = joinKey(group, a.Key)
	}
	for _, member := range v.Group() {
		dst = appendField(dst, inner, member)
	}
	return dst
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

// lastValueWins collapses repeated keys: the first occurrence keeps its
// position, the last one supplies the value.
func lastValueWins(fields []field) []field {
	if len(fields) < 2 {
		return fields
	}
	index := make(map[string]int, len(fields))
	out := fields[:0:0]
	for _, f := range fields {
		if i, seen := index[f.key]; seen {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func lookupField(fields []field, key string) string {
	for _, f := range fields {
		if f.key == key {
			return plainText(f.value)
		}
	}
	return ""
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}

// recordSource mirrors slog.Record.Source (Go 1.25+) for older toolchains:
// it resolves r.PC to a source location, or returns nil when PC is zero.
func recordSource(r slog.Record) *slog.Source {
	if r.PC == 0 {
		return nil
	}
	fs := runtime.CallersFrames([]uintptr{r.PC})
	f, _ := fs.Next()
	return &slog.Source{Function: f.Function, File: f.File, Line: f.Line}
}
