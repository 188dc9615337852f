package chart

import (
	"errors"
	"fmt"
	"sort"
)

// TicksPerBeat is the tick resolution of one beat, whatever its note value.
const TicksPerBeat = 48

// Tick is a flat time offset from the start of the chart.
type Tick int

// TimeSignature is a beats-per-measure over note-value pair such as 4/4 or 6/8.
type TimeSignature struct {
	Beats     int
	NoteValue int
}

// Valid reports whether both halves of the signature are positive. The note
// value only labels the beat; every beat is TicksPerBeat ticks long.
func (s TimeSignature) Valid() bool {
	return s.Beats > 0 && s.NoteValue > 0
}

// MeasureTicks returns the number of ticks in one measure of the signature.
func (s TimeSignature) MeasureTicks() int {
	return s.Beats * TicksPerBeat
}

func (s TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", s.Beats, s.NoteValue)
}

// Position is a zero-based (measure, beat, unit) coordinate.
type Position struct {
	Measure int
	Beat    int
	Unit    int
}

// Less orders positions lexicographically.
func (p Position) Less(o Position) bool {
	if p.Measure != o.Measure {
		return p.Measure < o.Measure
	}
	if p.Beat != o.Beat {
		return p.Beat < o.Beat
	}
	return p.Unit < o.Unit
}

// String renders the position the way VOX files spell it (1-based measure and beat).
func (p Position) String() string {
	return fmt.Sprintf("%03d,%02d,%02d", p.Measure+1, p.Beat+1, p.Unit)
}

// SignatureChange places a time signature at the start of a measure.
type SignatureChange struct {
	Measure   int
	Tick      Tick
	Signature TimeSignature
}

var (
	errNoSignatures      = errors.New("no time signature at the first measure")
	errSignatureOrder    = errors.New("time signature changes out of order")
	errInvalidSignature  = errors.New("invalid time signature")
	errPositionOutOfBeat = errors.New("position outside its measure")
)

// TimingMap converts between positions and ticks.
type TimingMap struct {
	changes []SignatureChange
}

// NewTimingMap builds a map from signature changes. Changes must start at
// measure 0, be strictly increasing by measure, and carry valid signatures.
// Repeated signatures are kept as given; Tick fields are recomputed.
func NewTimingMap(changes []SignatureChange) (*TimingMap, error) {
	if len(changes) == 0 || changes[0].Measure != 0 {
		return nil, errNoSignatures
	}
	out := make([]SignatureChange, len(changes))
	var tick Tick
	for i, change := range changes {
		if !change.Signature.Valid() {
			return nil, fmt.Errorf("%w: %s at measure %d", errInvalidSignature, change.Signature, change.Measure+1)
		}
		if i > 0 {
			prev := out[i-1]
			if change.Measure <= prev.Measure {
				return nil, fmt.Errorf("%w: measure %d after measure %d", errSignatureOrder, change.Measure+1, prev.Measure+1)
			}
			tick = prev.Tick + Tick((change.Measure-prev.Measure)*prev.Signature.MeasureTicks())
		}
		change.Tick = tick
		out[i] = change
	}
	return &TimingMap{changes: out}, nil
}

// Changes returns the signature changes in order.
func (m *TimingMap) Changes() []SignatureChange {
	out := make([]SignatureChange, len(m.changes))
	copy(out, m.changes)
	return out
}

func (m *TimingMap) changeForMeasure(measure int) SignatureChange {
	idx := sort.Search(len(m.changes), func(i int) bool {
		return m.changes[i].Measure > measure
	})
	if idx == 0 {
		return m.changes[0]
	}
	return m.changes[idx-1]
}

func (m *TimingMap) changeForTick(t Tick) SignatureChange {
	idx := sort.Search(len(m.changes), func(i int) bool {
		return m.changes[i].Tick > t
	})
	if idx == 0 {
		return m.changes[0]
	}
	return m.changes[idx-1]
}

// SignatureAt returns the signature in effect for a measure.
func (m *TimingMap) SignatureAt(measure int) TimeSignature {
	return m.changeForMeasure(measure).Signature
}

// MeasureStart returns the tick at which a measure begins.
func (m *TimingMap) MeasureStart(measure int) Tick {
	if measure < 0 {
		measure = 0
	}
	change := m.changeForMeasure(measure)
	return change.Tick + Tick((measure-change.Measure)*change.Signature.MeasureTicks())
}

// MeasureAt returns the measure containing a tick.
func (m *TimingMap) MeasureAt(t Tick) int {
	return m.FromTick(t).Measure
}

// ToTick converts a position to a flat tick. The beat and unit must lie within
// the measure's signature.
func (m *TimingMap) ToTick(p Position) (Tick, error) {
	if p.Measure < 0 {
		return 0, fmt.Errorf("%w: negative measure in %s", errPositionOutOfBeat, p)
	}
	sig := m.SignatureAt(p.Measure)
	if p.Beat < 0 || p.Beat >= sig.Beats {
		return 0, fmt.Errorf("%w: beat %d of %s in %s", errPositionOutOfBeat, p.Beat+1, sig, p)
	}
	if p.Unit < 0 || p.Unit >= TicksPerBeat {
		return 0, fmt.Errorf("%w: unit %d of %d in %s", errPositionOutOfBeat, p.Unit, TicksPerBeat, p)
	}
	return m.MeasureStart(p.Measure) + Tick(p.Beat*TicksPerBeat+p.Unit), nil
}

// FromTick converts a flat tick back to a position. Negative ticks clamp to zero.
func (m *TimingMap) FromTick(t Tick) Position {
	if t < 0 {
		t = 0
	}
	change := m.changeForTick(t)
	measureTicks := Tick(change.Signature.MeasureTicks())
	offset := t - change.Tick
	measure := change.Measure + int(offset/measureTicks)
	rem := int(offset % measureTicks)
	return Position{Measure: measure, Beat: rem / TicksPerBeat, Unit: rem % TicksPerBeat}
}
