package chart

import "strconv"

// Warning is an abnormality the reader tolerated.
type Warning struct {
	Line    int
	Section string
	Track   int
	Msg     string
}

func (w Warning) String() string {
	out := ""
	if w.Line > 0 {
		out += "line " + strconv.Itoa(w.Line) + ": "
	}
	if w.Section != "" {
		out += w.Section + ": "
	}
	if w.Track > 0 {
		out += "track " + strconv.Itoa(w.Track) + ": "
	}
	return out + w.Msg
}

// Timeline is the fully materialized chart.
type Timeline struct {
	Metadata      Metadata
	FormatVersion int
	Timing        *TimingMap
	Points        TimingPoints
	Tilts         []TiltChange
	Camera        []CameraEvent
	Lasers        [2][]LaserSegment
	Buttons       [6][]Note
	Effects       []EffectDefinition
	ChipSounds    []int
	End           Tick
	Warnings      []Warning
}

// Effect looks up an effect definition by index.
func (t *Timeline) Effect(ref EffectRef) (EffectDefinition, bool) {
	for _, def := range t.Effects {
		if EffectRef(def.Index) == ref {
			return def, true
		}
	}
	return EffectDefinition{}, false
}

// LastEventTick returns the first tick after every note, laser and timing event.
func (t *Timeline) LastEventTick() Tick {
	var last Tick
	for _, track := range t.Buttons {
		for _, note := range track {
			last = max(last, note.End())
		}
	}
	for _, track := range t.Lasers {
		for _, seg := range track {
			last = max(last, seg.End+1)
		}
	}
	for _, change := range t.Points.BPMs {
		last = max(last, change.Tick+1)
	}
	for _, stop := range t.Points.Stops {
		last = max(last, stop.Tick+1)
	}
	for _, ev := range t.Camera {
		last = max(last, ev.Tick+Tick(ev.Duration)+1)
	}
	return last
}
