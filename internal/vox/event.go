package vox

import (
	"strconv"
	"strings"

	"vox2ksh/internal/chart"
)

// TrackEvent is one decoded line of a TRACK section.
type TrackEvent interface {
	// At returns the tick of the event.
	At() chart.Tick
	// SourceLine returns the 1-based line number of the event in the input.
	SourceLine() int
	trackEvent()
}

// LaserRole tells how a laser line relates to its segment.
type LaserRole int

const (
	RoleContinue LaserRole = 0
	RoleStart    LaserRole = 1
	RoleEnd      LaserRole = 2
)

func (r LaserRole) String() string {
	switch r {
	case RoleStart:
		return "start"
	case RoleEnd:
		return "end"
	default:
		return "continue"
	}
}

// LaserEvent is a line of track 1 or 8.
type LaserEvent struct {
	Line     int
	Tick     chart.Tick
	Side     chart.LaserSide
	Position int
	Role     LaserRole
	// SlamFlag is the raw fourth column. Nonzero means the next line at the
	// same tick is the other end of a slam; values 1-5 also select a spin.
	SlamFlag int
	Filter   chart.Filter
	Range    int
}

func (e LaserEvent) At() chart.Tick { return e.Tick }
func (e LaserEvent) SourceLine() int { return e.Line }
func (LaserEvent) trackEvent() {}

// ButtonEvent is a line of tracks 2 through 7.
type ButtonEvent struct {
	Line     int
	Tick     chart.Tick
	Button   chart.Button
	Duration int
	// EffectIndex is the FXBUTTON EFFECT INFO index of an FX hold (format
	// version 4 and later), or chart.FallbackEffect / chart.NoEffect.
	EffectIndex int
	// EffectName is the raw sound define of an FX hold in older files.
	EffectName string
	ChipSound  int
}

func (e ButtonEvent) At() chart.Tick { return e.Tick }
func (e ButtonEvent) SourceLine() int { return e.Line }
func (ButtonEvent) trackEvent() {}

const (
	fxChipSoundCount = 14
	fxEffectMin      = 2
	fxEffectMax      = 13
	fxEffectReverb   = 254
	fxChipNone       = 255
)

// parseTrackLine decodes one data line of a TRACK section. Track 9 and
// unknown tracks yield a nil event.
func (p *parser) parseTrackLine(sec *section, ln rawLine) (TrackEvent, error) {
	cols := splitColumns(ln.text)
	if sec.track == 9 {
		return nil, nil
	}
	if len(cols) < 2 {
		return nil, p.formatErr(sec, ln, "", "expected at least 2 columns, got %d", len(cols))
	}
	tick, err := p.tickAt(sec, ln, cols[0])
	if err != nil {
		return nil, err
	}
	switch sec.track {
	case 1, 8:
		side := chart.LaserLeft
		if sec.track == 8 {
			side = chart.LaserRight
		}
		return p.parseLaser(sec, ln, cols, tick, side)
	}
	button, ok := chart.ButtonForTrack(sec.track)
	if !ok {
		p.warn(sec, ln, "ignoring line of unknown track %d", sec.track)
		return nil, nil
	}
	return p.parseButton(sec, ln, cols, tick, button)
}

func (p *parser) parseLaser(sec *section, ln rawLine, cols []string, tick chart.Tick, side chart.LaserSide) (TrackEvent, error) {
	if len(cols) < 3 {
		return nil, p.formatErr(sec, ln, "", "laser line needs at least 3 columns, got %d", len(cols))
	}
	ev := LaserEvent{Line: ln.num, Tick: tick, Side: side, Range: 1, Filter: chart.FilterPeak}

	pos, err := strconv.Atoi(cols[1])
	if err != nil {
		return nil, p.formatErr(sec, ln, "position", "not an integer: %q", cols[1])
	}
	if pos < 0 || pos > chart.MaxLaserPosition {
		return nil, p.formatErr(sec, ln, "position", "%d outside 0..%d", pos, chart.MaxLaserPosition)
	}
	ev.Position = pos

	role, err := strconv.Atoi(cols[2])
	if err != nil || role < int(RoleContinue) || role > int(RoleEnd) {
		return nil, p.formatErr(sec, ln, "role", "invalid laser role %q", cols[2])
	}
	ev.Role = LaserRole(role)

	if len(cols) > 3 {
		flag, err := strconv.Atoi(cols[3])
		if err != nil || flag < 0 {
			return nil, p.formatErr(sec, ln, "slam", "invalid slam flag %q", cols[3])
		}
		ev.SlamFlag = flag
	}
	if len(cols) > 4 {
		id, err := strconv.Atoi(cols[4])
		if err != nil {
			p.warn(sec, ln, "unreadable laser filter %q, using peak", cols[4])
		} else if filter, ok := filterForID(id); ok {
			ev.Filter = filter
		} else {
			p.warn(sec, ln, "unknown laser filter id %d, using peak", id)
		}
	}
	if len(cols) > 5 {
		rng, err := strconv.Atoi(cols[5])
		if err != nil {
			return nil, p.formatErr(sec, ln, "range", "not an integer: %q", cols[5])
		}
		if rng < 1 {
			p.warn(sec, ln, "laser range %d below 1, using 1", rng)
			rng = 1
		}
		ev.Range = rng
	}
	return ev, nil
}

func filterForID(id int) (chart.Filter, bool) {
	switch id {
	case 0, 6:
		return chart.FilterPeak, true
	case 1, 2:
		return chart.FilterLowPass, true
	case 3, 4:
		return chart.FilterHighPass, true
	case 5:
		return chart.FilterBitCrush, true
	}
	return chart.FilterPeak, false
}

func (p *parser) parseButton(sec *section, ln rawLine, cols []string, tick chart.Tick, button chart.Button) (TrackEvent, error) {
	duration, err := strconv.Atoi(cols[1])
	if err != nil {
		return nil, p.formatErr(sec, ln, "duration", "not an integer: %q", cols[1])
	}
	if duration < 0 {
		return nil, p.formatErr(sec, ln, "duration", "negative duration %d", duration)
	}
	ev := ButtonEvent{Line: ln.num, Tick: tick, Button: button, Duration: duration, EffectIndex: int(chart.NoEffect)}
	if !button.IsFX() {
		return ev, nil
	}

	if duration > 0 {
		if p.version < 4 {
			if len(cols) < 4 || cols[3] == "" {
				return nil, p.formatErr(sec, ln, "effect", "FX hold without a sound define")
			}
			ev.EffectName = cols[3]
			return ev, nil
		}
		if len(cols) < 3 {
			return nil, p.formatErr(sec, ln, "effect", "FX hold without an effect index")
		}
		idx, err := strconv.Atoi(cols[2])
		if err != nil {
			return nil, p.formatErr(sec, ln, "effect", "not an integer: %q", cols[2])
		}
		switch {
		case idx >= fxEffectMin && idx <= fxEffectMax:
			ev.EffectIndex = idx - fxEffectMin
		case idx == fxEffectReverb:
			p.warn(sec, ln, "reverb effect is not supported, using fallback")
			ev.EffectIndex = int(chart.FallbackEffect)
		default:
			p.warn(sec, ln, "effect index %d out of range, using fallback", idx)
			ev.EffectIndex = int(chart.FallbackEffect)
		}
		return ev, nil
	}

	if p.version >= 9 && len(cols) > 2 {
		sound, err := strconv.Atoi(cols[2])
		if err != nil {
			p.warn(sec, ln, "unreadable chip sound %q", cols[2])
			return ev, nil
		}
		switch {
		case sound == -1 || sound == fxChipNone || sound == 0:
		case sound >= 1 && sound < fxChipSoundCount:
			ev.ChipSound = sound
		default:
			p.warn(sec, ln, "unhandled chip sound id %d", sound)
		}
	}
	return ev, nil
}

func splitColumns(text string) []string {
	cols := strings.Split(text, "\t")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	return cols
}
