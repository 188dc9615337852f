package ksh

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"vox2ksh/internal/chart"
)

var stateLine = regexp.MustCompile(`^[012]{4}\|[012]{2}\|`)

func newTimeline(t *testing.T, sigs ...chart.SignatureChange) *chart.Timeline {
	t.Helper()
	if len(sigs) == 0 {
		sigs = []chart.SignatureChange{{Measure: 0, Signature: chart.TimeSignature{Beats: 4, NoteValue: 4}}}
	}
	timing, err := chart.NewTimingMap(sigs)
	if err != nil {
		t.Fatalf("NewTimingMap: %v", err)
	}
	return &chart.Timeline{
		Metadata: chart.Metadata{
			Title:      "Test Song",
			Artist:     "Test Artist",
			Difficulty: chart.DifficultyExhaust,
			Level:      15,
			Volume:     100,
			Background: "wave",
			Audio:      "track.ogg",
		},
		Timing: timing,
		Points: chart.TimingPoints{
			BPMs:       []chart.BPMChange{{Tick: 0, BPM: 120}},
			Signatures: timing.Changes(),
		},
		End: (4 * chart.TicksPerBeat),
	}
}

func render(t *testing.T, tl *chart.Timeline, opts Options) string {
	t.Helper()
	out, err := Render(tl, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return string(out)
}

func stateLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if stateLine.MatchString(line) {
			lines = append(lines, line)
		}
	}
	return lines
}

// markersAt returns the marker lines written right before the n-th state line,
// including a beat= line when that state line opens a measure.
func markersAt(out string, n int) []string {
	var pending []string
	seen := 0
	for _, line := range strings.Split(out, "\n") {
		switch {
		case stateLine.MatchString(line):
			if seen == n {
				return pending
			}
			seen++
			pending = nil
		case line == "--":
			pending = nil
		case strings.HasPrefix(line, "//"):
		default:
			pending = append(pending, line)
		}
	}
	return nil
}

func laserLeft(line string) byte  { return line[8] }
func laserRight(line string) byte { return line[9] }

func TestRemapMonotonic(t *testing.T) {
	prev := -1
	for p := 0; p <= chart.MaxLaserPosition; p++ {
		c, err := remap(DefaultAlphabet, p)
		if err != nil {
			t.Fatalf("remap(%d): %v", p, err)
		}
		idx := strings.IndexByte(DefaultAlphabet, c)
		if idx < prev {
			t.Fatalf("remap(%d) = %q steps back from index %d", p, c, prev)
		}
		prev = idx
	}
	if c, _ := remap(DefaultAlphabet, 0); c != '0' {
		t.Fatalf("remap(0) = %q", c)
	}
	if c, _ := remap(DefaultAlphabet, 127); c != 'o' {
		t.Fatalf("remap(127) = %q", c)
	}
	if c, _ := remap(DefaultAlphabet, 64); c != 'P' {
		t.Fatalf("remap(64) = %q, want P", c)
	}
	if _, err := remap(DefaultAlphabet, 128); !errors.Is(err, chart.ErrInvariant) {
		t.Fatalf("remap(128) error = %v, want invariant error", err)
	}
	if c, _ := remap("ab", 63); c != 'a' {
		t.Fatalf("two-character alphabet remap(63) = %q", c)
	}
}

func TestRenderHeader(t *testing.T) {
	tl := newTimeline(t)
	tl.Metadata.Source = "001_0781_test_5m.vox"
	tl.Metadata.PreviewOffsetMs = 36000
	out := render(t, tl, Options{})

	lines := strings.Split(out, "\n")
	if lines[0] != "// Source: 001_0781_test_5m.vox" || lines[1] != "title=Test Song" {
		t.Fatalf("unexpected first lines %q", lines[:2])
	}
	for _, want := range []string{
		"difficulty=extended", "level=15", "t=120", "m=track.ogg", "mvol=100",
		"bg=wave", "layer=wave", "po=36000", "plength=11000", "pfiltergain=50",
		"chokkakuvol=40", "ver=167",
	} {
		if !strings.Contains(out, "\n"+want+"\n") {
			t.Errorf("header missing %q", want)
		}
	}
	if lines[23] != "--" {
		t.Fatalf("header should end with -- at line 24, got %q", lines[23])
	}

	tl.Points.BPMs = append(tl.Points.BPMs, chart.BPMChange{Tick: 96, BPM: 180.5})
	if out := render(t, tl, Options{}); !strings.Contains(out, "\nt=120-180.5\n") {
		t.Fatal("header tempo should show the range")
	}
	tl.Metadata.BPMLabel = "120-181"
	if out := render(t, tl, Options{}); !strings.Contains(out, "\nt=120-181\n") {
		t.Fatal("header tempo should prefer the label")
	}
}

func TestRenderButtons(t *testing.T) {
	tl := newTimeline(t)
	tl.Buttons[chart.ButtonBTA] = []chart.Note{{Start: 0, Effect: chart.NoEffect}}
	tl.Buttons[chart.ButtonBTB] = []chart.Note{{Start: 48, Duration: 48, Effect: chart.NoEffect}}
	tl.Buttons[chart.ButtonFXL] = []chart.Note{{Start: 96, Effect: chart.NoEffect, ChipSound: 3}}
	tl.Buttons[chart.ButtonFXR] = []chart.Note{{Start: 144, Duration: 24, Effect: chart.FallbackEffect}}

	out := render(t, tl, Options{ChipSounds: true})
	lines := stateLines(out)
	if len(lines) != 192 {
		t.Fatalf("state lines = %d, want 192", len(lines))
	}
	want := map[int]string{
		0:   "1000|00|--",
		1:   "0000|00|--",
		48:  "0200|00|--",
		95:  "0200|00|--",
		96:  "0000|20|--",
		144: "0000|01|--",
		167: "0000|01|--",
		168: "0000|00|--",
	}
	for tick, line := range want {
		if lines[tick] != line {
			t.Errorf("tick %d = %q, want %q", tick, lines[tick], line)
		}
	}
	if got := markersAt(out, 144); len(got) != 1 || got[0] != "fx-r=fallback;200" {
		t.Fatalf("markers at 144 = %q", got)
	}
	if got := markersAt(out, 96); len(got) != 1 || got[0] != "fx-l_se=fxchip_3.wav;27" {
		t.Fatalf("markers at 96 = %q", got)
	}
	if out := render(t, tl, Options{}); strings.Contains(out, "_se=") {
		t.Fatal("chip sounds should be off by default")
	}
}

func TestRenderBeatComments(t *testing.T) {
	out := render(t, newTimeline(t), Options{})
	for _, want := range []string{"beat=4/4\n// #1,1\n", "// #1,2\n", "// #1,4\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
	if !strings.HasSuffix(out, "--\n#define_fx fallback type=Flanger;depth=200samples\n") {
		t.Fatalf("unexpected footer: %q", out[len(out)-80:])
	}
}

func TestRenderSignatureChange(t *testing.T) {
	tl := newTimeline(t,
		chart.SignatureChange{Measure: 0, Signature: chart.TimeSignature{Beats: 4, NoteValue: 4}},
		chart.SignatureChange{Measure: 1, Signature: chart.TimeSignature{Beats: 6, NoteValue: 8}},
	)
	tl.End = 192 + 288
	out := render(t, tl, Options{})
	// Every beat is 48 lines, whatever its note value.
	if got := len(stateLines(out)); got != 192+288 {
		t.Fatalf("state lines = %d, want %d", got, 192+288)
	}
	if strings.Count(out, "beat=") != 2 || !strings.Contains(out, "--\nbeat=6/8\n// #2,1\n") {
		t.Fatal("signature change should open the second measure")
	}
	if !strings.Contains(out, "// #2,6\n") || strings.Contains(out, "// #2,7\n") {
		t.Fatal("6/8 measure should have six beat comments")
	}
}

func TestRenderLaserSegment(t *testing.T) {
	tl := newTimeline(t)
	tl.Lasers[chart.LaserLeft] = []chart.LaserSegment{{
		Side: chart.LaserLeft, Start: 0, End: 96,
		Nodes: []chart.LaserNode{
			{Tick: 0, Position: 0, Range: 1},
			{Tick: 96, Position: 127, Range: 1},
		},
	}}
	lines := stateLines(render(t, tl, Options{}))
	checks := map[int]byte{0: '0', 1: ':', 95: ':', 96: 'o', 97: '-'}
	for tick, want := range checks {
		if got := laserLeft(lines[tick]); got != want {
			t.Errorf("tick %d left laser = %q, want %q", tick, got, want)
		}
	}
	if laserRight(lines[0]) != '-' {
		t.Fatal("right laser should be empty")
	}
}

func TestRenderSlam(t *testing.T) {
	tl := newTimeline(t)
	tl.Lasers[chart.LaserRight] = []chart.LaserSegment{{
		Side: chart.LaserRight, Start: 48, End: 96,
		Nodes: []chart.LaserNode{
			{Tick: 48, Position: 0, Slam: true, SlamTo: 127, Range: 1, Roll: chart.RollMeasure},
			{Tick: 96, Position: 127, Range: 1},
		},
	}}
	lines := stateLines(render(t, tl, Options{}))
	checks := map[int]byte{47: '-', 48: '0', 49: ':', 51: ':', 52: 'o', 53: ':', 96: 'o'}
	for tick, want := range checks {
		if got := laserRight(lines[tick]); got != want {
			t.Errorf("tick %d right laser = %q, want %q", tick, got, want)
		}
	}
	if lines[48] != "0000|00|-0@)163" {
		t.Fatalf("slam line = %q, want spin suffix", lines[48])
	}
}

func TestRenderSlamOnlySegment(t *testing.T) {
	tl := newTimeline(t)
	tl.Lasers[chart.LaserLeft] = []chart.LaserSegment{
		{Side: chart.LaserLeft, Start: 10, End: 10, Nodes: []chart.LaserNode{{Tick: 10, Position: 127, Slam: true, SlamTo: 0, Range: 1}}},
		{Side: chart.LaserLeft, Start: 12, End: 40, Nodes: []chart.LaserNode{{Tick: 12, Position: 0, Range: 1}, {Tick: 40, Position: 0, Range: 1}}},
	}
	lines := stateLines(render(t, tl, Options{}))
	// The slam end is squeezed to leave an empty line before the next segment.
	checks := map[int]byte{10: 'o', 11: '0', 12: '-', 13: '0', 40: '0', 41: '-'}
	for tick, want := range checks {
		if got := laserLeft(lines[tick]); got != want {
			t.Errorf("tick %d left laser = %q, want %q", tick, got, want)
		}
	}
}

func TestRenderPushesCloseNodes(t *testing.T) {
	tl := newTimeline(t)
	tl.Lasers[chart.LaserLeft] = []chart.LaserSegment{{
		Side: chart.LaserLeft, Start: 0, End: 96,
		Nodes: []chart.LaserNode{
			{Tick: 0, Position: 0, Range: 1},
			{Tick: 6, Position: 64, Range: 1},
			{Tick: 96, Position: 127, Range: 1},
		},
	}}
	lines := stateLines(render(t, tl, Options{}))
	if laserLeft(lines[6]) != ':' || laserLeft(lines[7]) != 'P' {
		t.Fatalf("node at 6 should move to 7: %q %q", lines[6], lines[7])
	}
}

func TestRenderLaserMarkers(t *testing.T) {
	tl := newTimeline(t)
	tl.Lasers[chart.LaserLeft] = []chart.LaserSegment{{
		Side: chart.LaserLeft, Start: 0, End: 48,
		Nodes: []chart.LaserNode{
			{Tick: 0, Position: 0, Range: 2, Filter: chart.FilterLowPass},
			{Tick: 48, Position: 127, Range: 2, Filter: chart.FilterPeak},
		},
	}}
	tl.Lasers[chart.LaserRight] = []chart.LaserSegment{{
		Side: chart.LaserRight, Start: 96, End: 144,
		Nodes: []chart.LaserNode{
			{Tick: 96, Position: 127, Range: 1, Filter: chart.FilterLowPass},
			{Tick: 144, Position: 0, Range: 1, Filter: chart.FilterHighPass},
		},
	}}
	out := render(t, tl, Options{})
	if got := markersAt(out, 0); strings.Join(got, ",") != "beat=4/4,t=120,laserrange_l=2x,filtertype=lpf1" {
		t.Fatalf("markers at 0 = %q", got)
	}
	if got := markersAt(out, 48); len(got) != 0 {
		t.Fatalf("segment end should not change the filter: %q", got)
	}
	if got := markersAt(out, 96); len(got) != 0 {
		t.Fatalf("unchanged filter should not be repeated: %q", got)
	}
}

func TestRenderTimingMarkers(t *testing.T) {
	tl := newTimeline(t)
	tl.Points.BPMs = append(tl.Points.BPMs, chart.BPMChange{Tick: 96, BPM: 180.5})
	tl.Points.Stops = []chart.Stop{{Tick: 96, Length: 24}}
	tl.Tilts = []chart.TiltChange{{Tick: 96, Mode: chart.TiltKeepBigger}}
	out := render(t, tl, Options{})
	if got := strings.Join(markersAt(out, 96), ","); got != "t=180.5,stop=24,tilt=keep_bigger" {
		t.Fatalf("markers at 96 = %q", got)
	}
}

func TestRenderCamera(t *testing.T) {
	tl := newTimeline(t)
	tl.Camera = []chart.CameraEvent{
		{Tick: 0, Param: chart.CameraRotateX, Start: 0, End: 1, Duration: 48},
		{Tick: 0, Param: chart.CameraLaneY, Duration: 96},
		{Tick: 0, Param: chart.CameraRealize, Start: 3, End: 4, Duration: 10},
		{Tick: 96, Param: chart.CameraTilt, Start: 0.55, End: -1, Duration: 24},
		{Tick: 96, Param: chart.CameraRadius, Start: 0, End: 1, Duration: 48},
		{Tick: 120, Param: chart.CameraRadius, Start: 0.5, End: 0, Duration: 0},
	}
	out := render(t, tl, Options{})
	if got := strings.Join(markersAt(out, 0), ","); got != "beat=4/4,t=120,zoom_top=0,lane_toggle=96" {
		t.Fatalf("markers at 0 = %q", got)
	}
	if got := strings.Join(markersAt(out, 48), ","); got != "zoom_top=150" {
		t.Fatalf("markers at 48 = %q", got)
	}
	if got := strings.Join(markersAt(out, 96), ","); got != "tilt=-0.5,zoom_bottom=0" {
		t.Fatalf("markers at 96 = %q", got)
	}
	// The radius ramp at 96 is cut short by the one at 120.
	if got := strings.Join(markersAt(out, 120), ","); got != "zoom_bottom=-75,tilt=1.0,zoom_bottom=0" {
		t.Fatalf("markers at 120 = %q", got)
	}
	if got := markersAt(out, 144); len(got) != 0 {
		t.Fatalf("interrupted ramp should not end: %q", got)
	}
}

func TestRenderEffects(t *testing.T) {
	tl := newTimeline(t)
	tl.Effects = []chart.EffectDefinition{
		{Index: 0, Source: chart.EffectFromInfo, Type: chart.EffectRetrigger, Params: []string{"8", "95.00", "2.00", "1.00", "0.85", "0.25"}},
		{Index: 1, Source: chart.EffectFromInfo, Type: chart.EffectTapestop, Params: []string{"100.00", "8.00", "40.00"}},
		{Index: 2, Source: chart.EffectFromInfo, Type: chart.EffectRetrigger, Params: []string{"8", "95.00", "0.00", "1.00", "0.85", "0.25"}},
	}
	tl.Buttons[chart.ButtonFXL] = []chart.Note{
		{Start: 0, Duration: 24, Effect: 0},
		{Start: 48, Duration: 40, Effect: 1},
		{Start: 96, Duration: 24, Effect: 2},
	}
	out := render(t, tl, Options{})

	if got := markersAt(out, 48); len(got) != 1 || got[0] != "fx-l=1;50" {
		t.Fatalf("tape stop marker = %q", got)
	}
	if got := markersAt(out, 96); len(got) != 1 || got[0] != "fx-l=2;200" {
		t.Fatalf("unbuildable effect should use fallback parameters: %q", got)
	}
	footer := out[strings.LastIndex(out, "--\n")+3:]
	want := "#define_fx 0 type=Retrigger;waveLength=1/16;updatePeriod=1/2;rate=75%;mix=0%>95%\n" +
		"#define_fx 1 type=TapeStop;speed=69;mix=0%>100%\n" +
		"#define_fx 2 type=Flanger;depth=200samples\n" +
		"#define_fx fallback type=Flanger;depth=200samples\n"
	if footer != want {
		t.Fatalf("footer =\n%s\nwant\n%s", footer, want)
	}
}

func TestRenderCompact(t *testing.T) {
	tl := newTimeline(t)
	tl.End = 2 * (4 * chart.TicksPerBeat)
	tl.Buttons[chart.ButtonBTA] = []chart.Note{{Start: 0, Effect: chart.NoEffect}, {Start: 96, Effect: chart.NoEffect}}
	tl.Buttons[chart.ButtonBTC] = []chart.Note{{Start: 192 + 24, Duration: 48, Effect: chart.NoEffect}}

	out := render(t, tl, Options{Compact: true})
	if strings.Contains(out, "// #") {
		t.Fatal("compact output should not carry beat comments")
	}
	lines := stateLines(out)
	// Measure 1 steps by 96, measure 2 by 24.
	if len(lines) != 2+8 {
		t.Fatalf("state lines = %d, want 10: %q", len(lines), lines)
	}
	want := []string{"1000|00|--", "1000|00|--", "0000|00|--", "0020|00|--", "0020|00|--", "0000|00|--"}
	for i, line := range want {
		if lines[i] != line {
			t.Errorf("line %d = %q, want %q", i, lines[i], line)
		}
	}
}

func TestRenderCompactKeepsLaserGap(t *testing.T) {
	tl := newTimeline(t)
	tl.End = 2 * (4 * chart.TicksPerBeat)
	tl.Lasers[chart.LaserLeft] = []chart.LaserSegment{
		{Side: chart.LaserLeft, Start: 0, End: 96, Nodes: []chart.LaserNode{{Tick: 0, Position: 0, Range: 1}, {Tick: 96, Position: 0, Range: 1}}},
		{Side: chart.LaserLeft, Start: 144, End: 240, Nodes: []chart.LaserNode{{Tick: 144, Position: 127, Range: 1}, {Tick: 240, Position: 0, Range: 1}}},
	}
	lines := stateLines(render(t, tl, Options{Compact: true}))
	var lane []byte
	for _, line := range lines {
		lane = append(lane, laserLeft(line))
	}
	// A 48-tick step would draw the segments back to back.
	if !bytes.HasPrefix(lane, []byte("0:::0-o:")) {
		t.Fatalf("segments must stay separated by an empty line, lane = %q", lane)
	}
}

func TestRenderDeterministic(t *testing.T) {
	tl := newTimeline(t)
	tl.Camera = []chart.CameraEvent{
		{Tick: 0, Param: chart.CameraRotateX, Start: 0, End: 1, Duration: 48},
		{Tick: 0, Param: chart.CameraRadius, Start: 0, End: 1, Duration: 48},
	}
	tl.Buttons[chart.ButtonFXL] = []chart.Note{{Start: 0, Duration: 24, Effect: chart.FallbackEffect}}
	tl.Buttons[chart.ButtonFXR] = []chart.Note{{Start: 0, Duration: 24, Effect: chart.FallbackEffect}}
	first := render(t, tl, Options{})
	for i := 0; i < 20; i++ {
		if again := render(t, tl, Options{}); again != first {
			t.Fatal("render output differs between runs")
		}
	}
}

func TestWriteNothingOnError(t *testing.T) {
	tl := newTimeline(t)
	tl.Lasers[chart.LaserLeft] = []chart.LaserSegment{{
		Side: chart.LaserLeft, Start: 0, End: 0,
		Nodes: []chart.LaserNode{{Tick: 0, Position: 200}},
	}}
	var buf bytes.Buffer
	err := Write(&buf, tl, Options{})
	if !errors.Is(err, chart.ErrInvariant) {
		t.Fatalf("Write error = %v, want invariant error", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("partial output written: %q", buf.String())
	}
	if chart.Classify(err) != chart.KindInternal {
		t.Fatalf("Classify = %q", chart.Classify(err))
	}
}

func TestRenderRejectsBadAlphabet(t *testing.T) {
	for _, alphabet := range []string{"a", "aa", "0:", "01é"} {
		if _, err := Render(newTimeline(t), Options{Alphabet: alphabet}); err == nil {
			t.Errorf("alphabet %q should be rejected", alphabet)
		}
	}
}
