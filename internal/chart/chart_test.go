package chart

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestLaserNodeExitPosition(t *testing.T) {
	plain := LaserNode{Tick: 0, Position: 64}
	slam := LaserNode{Tick: 5, Position: 0, Slam: true, SlamTo: 127}
	if plain.ExitPosition() != 64 || slam.ExitPosition() != 127 {
		t.Fatalf("exit positions = %d, %d", plain.ExitPosition(), slam.ExitPosition())
	}
}

func TestNoteEnd(t *testing.T) {
	chip := Note{Start: 10}
	hold := Note{Start: 10, Duration: 12}
	if chip.IsHold() || chip.End() != 11 {
		t.Fatalf("chip: hold=%v end=%d", chip.IsHold(), chip.End())
	}
	if !hold.IsHold() || hold.End() != 22 {
		t.Fatalf("hold: hold=%v end=%d", hold.IsHold(), hold.End())
	}
}

func TestButtonForTrack(t *testing.T) {
	for _, b := range Buttons {
		got, ok := ButtonForTrack(b.TrackNumber())
		if !ok || got != b {
			t.Errorf("ButtonForTrack(%d) = %v,%v", b.TrackNumber(), got, ok)
		}
	}
	for _, track := range []int{1, 8, 9, 0} {
		if _, ok := ButtonForTrack(track); ok {
			t.Errorf("track %d should not be a button", track)
		}
	}
}

func TestClassify(t *testing.T) {
	format := &FormatError{Line: 12, Section: "TRACK1", Track: 1, Msg: "dangling laser end"}
	invariant := &InvariantError{Op: "laser", Msg: "position out of range"}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"format", format, KindFormat},
		{"wrapped format", fmt.Errorf("convert song: %w", format), KindFormat},
		{"invariant", invariant, KindInternal},
		{"wrapped invariant", fmt.Errorf("write: %w", invariant), KindInternal},
		{"io", fs.ErrNotExist, KindIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatErrorMessage(t *testing.T) {
	err := &FormatError{Line: 7, Section: "TRACK3", Track: 3, Field: "duration", Msg: "not a number"}
	msg := err.Error()
	for _, want := range []string{"line 7", "TRACK3", "track 3", `"duration"`, "not a number"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
	var fe *FormatError
	if !errors.As(fmt.Errorf("wrap: %w", err), &fe) || fe.Field != "duration" {
		t.Fatal("errors.As did not recover FormatError")
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := map[string]Difficulty{
		"n":        DifficultyNovice,
		"ADV":      DifficultyAdvanced,
		"exhaust":  DifficultyExhaust,
		"i":        DifficultyInfinite,
		"mxm":      DifficultyMaximum,
		"":         DifficultyUnknown,
		"hardcore": DifficultyUnknown,
	}
	for in, want := range tests {
		if got := ParseDifficulty(in); got != want {
			t.Errorf("ParseDifficulty(%q) = %v, want %v", in, got, want)
		}
	}
	if DifficultyMaximum.KSHName() != "infinite" || DifficultyAdvanced.KSHName() != "challenge" {
		t.Fatal("unexpected KSH names")
	}
}

func TestDifficultyAbbreviation(t *testing.T) {
	m := Metadata{Difficulty: DifficultyInfinite, InfiniteVersion: 4}
	if got := m.DifficultyAbbreviation(); got != "hvn" {
		t.Fatalf("abbreviation = %q, want hvn", got)
	}
	m.InfiniteVersion = 0
	if got := m.DifficultyAbbreviation(); got != "inf" {
		t.Fatalf("abbreviation = %q, want inf", got)
	}
	m.Difficulty = DifficultyExhaust
	if got := m.DifficultyAbbreviation(); got != "exh" {
		t.Fatalf("abbreviation = %q, want exh", got)
	}
}

func TestTimelineLastEventTick(t *testing.T) {
	tl := &Timeline{}
	tl.Buttons[ButtonBTA] = []Note{{Start: 10, Duration: 30}}
	tl.Lasers[LaserRight] = []LaserSegment{{Start: 20, End: 50}}
	tl.Points.BPMs = []BPMChange{{Tick: 0, BPM: 120}}
	if got := tl.LastEventTick(); got != 51 {
		t.Fatalf("LastEventTick() = %d, want 51", got)
	}
}
