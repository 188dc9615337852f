package vox

import (
	"sort"

	"vox2ksh/internal/chart"
)

type trackEvents struct {
	sec    *section
	events []TrackEvent
}

// readTracks decodes every TRACK section, keyed by track number.
func (p *parser) readTracks() (map[int]*trackEvents, error) {
	tracks := map[int]*trackEvents{}
	for _, sec := range p.sectionsOf(sectionTrack) {
		te, ok := tracks[sec.track]
		if !ok {
			te = &trackEvents{sec: sec}
			tracks[sec.track] = te
		}
		for _, ln := range sec.lines {
			ev, err := p.parseTrackLine(sec, ln)
			if err != nil {
				return nil, err
			}
			if ev == nil {
				continue
			}
			if n := len(te.events); n > 0 && ev.At() < te.events[n-1].At() {
				return nil, p.formatErr(sec, ln, "time", "event precedes the event on line %d", te.events[n-1].SourceLine())
			}
			te.events = append(te.events, ev)
		}
	}
	return tracks, nil
}

// buildLasers assembles laser events into segments. Lines sharing a tick form
// one slam node that jumps from the first line's position to the last one's.
func (p *parser) buildLasers(tl *chart.Timeline, tracks map[int]*trackEvents) error {
	for _, side := range chart.LaserSides {
		te, ok := tracks[side.TrackNumber()]
		if !ok {
			continue
		}
		var lasers []LaserEvent
		for _, ev := range te.events {
			lasers = append(lasers, ev.(LaserEvent))
		}

		var (
			segments []chart.LaserSegment
			open     *chart.LaserSegment
			lastLine int
		)
		for i := 0; i < len(lasers); {
			j := i + 1
			for j < len(lasers) && lasers[j].Tick == lasers[i].Tick {
				j++
			}
			group := lasers[i:j]
			i = j

			first, last := group[0], group[len(group)-1]
			ln := rawLine{num: first.Line}
			lastLine = last.Line
			if first.SlamFlag != 0 && len(group) == 1 {
				return p.formatErr(te.sec, ln, "slam", "slam flag without a second line at the same time")
			}

			node := chart.LaserNode{
				Tick:     first.Tick,
				Position: first.Position,
				Range:    first.Range,
				Filter:   first.Filter,
			}
			if len(group) > 1 {
				if last.Position == first.Position {
					p.warn(te.sec, ln, "slam with identical start and end position %d", first.Position)
				} else {
					node.Slam = true
					node.SlamTo = last.Position
					node.Roll = p.rollKind(te.sec, ln, first.SlamFlag)
				}
			}

			if first.Role == RoleStart {
				if open != nil {
					return p.formatErr(te.sec, ln, "role", "laser start while the segment from tick %d is still open", open.Start)
				}
				open = &chart.LaserSegment{Side: side, Start: node.Tick}
			} else if open == nil {
				return p.formatErr(te.sec, ln, "role", "laser %s without an open segment", first.Role)
			}
			open.Nodes = append(open.Nodes, node)
			open.End = node.Tick

			if last.Role == RoleEnd {
				segments = append(segments, *open)
				open = nil
			}
		}
		if open != nil {
			return p.formatErr(te.sec, rawLine{num: lastLine}, "role", "laser segment from tick %d is never terminated", open.Start)
		}
		tl.Lasers[side] = segments
	}
	return nil
}

func (p *parser) rollKind(sec *section, ln rawLine, flag int) chart.RollKind {
	if flag == 0 {
		return chart.RollNone
	}
	if flag > int(chart.RollSwing) {
		p.warn(sec, ln, "unknown spin kind %d", flag)
		return chart.RollNone
	}
	return chart.RollKind(flag)
}

// buildButtons assembles button events into notes and resolves FX effects.
func (p *parser) buildButtons(tl *chart.Timeline, tracks map[int]*trackEvents) error {
	sounds := map[int]struct{}{}
	for _, button := range chart.Buttons {
		te, ok := tracks[button.TrackNumber()]
		if !ok {
			continue
		}
		var notes []chart.Note
		for _, raw := range te.events {
			ev := raw.(ButtonEvent)
			ln := rawLine{num: ev.Line}
			if n := len(notes); n > 0 && ev.Tick < notes[n-1].End() {
				return p.formatErr(te.sec, ln, "time", "note at tick %d overlaps the note at tick %d", ev.Tick, notes[n-1].Start)
			}
			note := chart.Note{Start: ev.Tick, Duration: ev.Duration, Effect: chart.NoEffect, ChipSound: ev.ChipSound}
			if button.IsFX() && ev.Duration > 0 {
				ref, err := p.resolveEffect(te.sec, ev, tl.Effects)
				if err != nil {
					return err
				}
				note.Effect = ref
			}
			if note.ChipSound > 0 {
				sounds[note.ChipSound] = struct{}{}
			}
			notes = append(notes, note)
		}
		tl.Buttons[button] = notes
	}
	for id := range sounds {
		tl.ChipSounds = append(tl.ChipSounds, id)
	}
	sort.Ints(tl.ChipSounds)
	return nil
}
