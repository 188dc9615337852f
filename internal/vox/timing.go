package vox

import (
	"sort"
	"strconv"
	"strings"

	"vox2ksh/internal/chart"
)

// readTiming builds the timing map from BEAT INFO, then the tempo and stop
// lists from BPM and BPM INFO.
func (p *parser) readTiming(tl *chart.Timeline) error {
	var changes []chart.SignatureChange
	var beatSec *section
	for _, sec := range p.sectionsOf(sectionBeatInfo) {
		beatSec = sec
		for _, ln := range sec.lines {
			cols := splitColumns(ln.text)
			if len(cols) < 3 {
				return p.formatErr(sec, ln, "", "expected 3 columns, got %d", len(cols))
			}
			pos, err := parsePosition(cols[0])
			if err != nil {
				return p.formatErr(sec, ln, "time", "%v", err)
			}
			if pos.Beat != 0 || pos.Unit != 0 {
				return p.formatErr(sec, ln, "time", "time signature change at %s is not at a measure start", cols[0])
			}
			beats, err := strconv.Atoi(cols[1])
			if err != nil || beats <= 0 {
				return p.formatErr(sec, ln, "beats", "invalid beat count %q", cols[1])
			}
			note, err := strconv.Atoi(cols[2])
			if err != nil || note <= 0 {
				return p.formatErr(sec, ln, "note", "invalid note value %q", cols[2])
			}
			changes = append(changes, chart.SignatureChange{Measure: pos.Measure, Signature: chart.TimeSignature{Beats: beats, NoteValue: note}})
		}
	}
	if len(changes) == 0 {
		return &chart.FormatError{Section: "BEAT INFO", Msg: "no time signature at the first tick"}
	}
	timing, err := chart.NewTimingMap(changes)
	if err != nil {
		return &chart.FormatError{Section: beatSec.name, Msg: err.Error()}
	}
	p.timing = timing
	tl.Timing = timing
	tl.Points.Signatures = timing.Changes()

	var bpms []chart.BPMChange
	setBPM := func(change chart.BPMChange) {
		if n := len(bpms); n > 0 && bpms[n-1].Tick == change.Tick {
			bpms[n-1] = change
			return
		}
		bpms = append(bpms, change)
	}

	for _, sec := range p.sectionsOf(sectionBPM) {
		for _, ln := range sec.lines {
			bpm, err := strconv.ParseFloat(splitColumns(ln.text)[0], 64)
			if err != nil {
				p.warn(sec, ln, "unreadable tempo %q", ln.text)
				continue
			}
			if bpm <= 0 {
				return p.formatErr(sec, ln, "bpm", "tempo must be positive, got %v", bpm)
			}
			setBPM(chart.BPMChange{Tick: 0, BPM: bpm})
		}
	}

	var stops []chart.Stop
	for _, sec := range p.sectionsOf(sectionBPMInfo) {
		var (
			last      chart.Tick = -1
			stopStart chart.Tick
			stopOpen  bool
		)
		for _, ln := range sec.lines {
			cols := splitColumns(ln.text)
			if len(cols) < 3 {
				return p.formatErr(sec, ln, "", "expected 3 columns, got %d", len(cols))
			}
			tick, err := p.tickAt(sec, ln, cols[0])
			if err != nil {
				return err
			}
			if tick < last {
				return p.formatErr(sec, ln, "time", "tempo change at %s precedes the previous one", cols[0])
			}
			last = tick

			if strings.HasSuffix(cols[2], "-") {
				stopStart, stopOpen = tick, true
				continue
			}
			if stopOpen {
				stops = append(stops, chart.Stop{Tick: stopStart, Length: int(tick - stopStart)})
				stopOpen = false
			}
			if cols[2] != "4" {
				p.warn(sec, ln, "unusual beat division %q", cols[2])
			}
			bpm, err := strconv.ParseFloat(cols[1], 64)
			if err != nil {
				return p.formatErr(sec, ln, "bpm", "not a number: %q", cols[1])
			}
			if bpm <= 0 {
				return p.formatErr(sec, ln, "bpm", "tempo must be positive, got %v", bpm)
			}
			setBPM(chart.BPMChange{Tick: tick, BPM: bpm})
		}
		if stopOpen {
			p.warn(sec, rawLine{}, "stop at tick %d never ends, dropping it", stopStart)
		}
	}

	if len(bpms) == 0 || bpms[0].Tick != 0 {
		return &chart.FormatError{Section: "BPM INFO", Msg: "no tempo at the first tick"}
	}
	tl.Points.BPMs = bpms
	tl.Points.Stops = stops
	return nil
}

var cameraParams = map[string]chart.CameraParam{
	"CAM_RotX":  chart.CameraRotateX,
	"CAM_Radi":  chart.CameraRadius,
	"Tilt":      chart.CameraTilt,
	"LaneY":     chart.CameraLaneY,
	"Realize":   chart.CameraRealize,
	"AIRL_ScaX": chart.CameraLeftLaserScale,
	"AIRR_ScaX": chart.CameraRightLaserScale,
}

// readEvents reads the non-track timed sections: tilt, camera and the end position.
func (p *parser) readEvents(tl *chart.Timeline) error {
	for _, sec := range p.sectionsOf(sectionTiltInfo) {
		for _, ln := range sec.lines {
			cols := splitColumns(ln.text)
			if len(cols) < 2 {
				p.warn(sec, ln, "tilt line needs 2 columns")
				continue
			}
			tick, err := p.tickAt(sec, ln, cols[0])
			if err != nil {
				return err
			}
			mode, err := strconv.Atoi(cols[1])
			if err != nil || mode < int(chart.TiltNormal) || mode > int(chart.TiltKeepBigger) {
				p.warn(sec, ln, "unknown tilt mode %q", cols[1])
				continue
			}
			tl.Tilts = append(tl.Tilts, chart.TiltChange{Tick: tick, Mode: chart.TiltMode(mode)})
		}
	}

	for _, sec := range p.sectionsOf(sectionEndPosition) {
		for _, ln := range sec.lines {
			tick, err := p.tickAt(sec, ln, splitColumns(ln.text)[0])
			if err != nil {
				return err
			}
			tl.End = tick
		}
	}

	for _, sec := range p.sectionsOf(sectionSPController) {
		for _, ln := range sec.lines {
			cols := splitColumns(ln.text)
			if len(cols) < 6 {
				p.warn(sec, ln, "camera line needs 6 columns, got %d", len(cols))
				continue
			}
			param, ok := cameraParams[cols[1]]
			if !ok {
				p.warn(sec, ln, "unknown camera parameter %q", cols[1])
				continue
			}
			tick, err := p.tickAt(sec, ln, cols[0])
			if err != nil {
				return err
			}
			duration, errDur := strconv.Atoi(cols[3])
			start, errStart := strconv.ParseFloat(cols[4], 64)
			end, errEnd := strconv.ParseFloat(cols[5], 64)
			if errDur != nil || errStart != nil || errEnd != nil || duration < 0 {
				p.warn(sec, ln, "unreadable camera values for %s", cols[1])
				continue
			}
			tl.Camera = append(tl.Camera, chart.CameraEvent{
				Tick:     tick,
				Param:    param,
				Start:    start,
				End:      end,
				Duration: duration,
			})
		}
	}
	sort.SliceStable(tl.Tilts, func(i, j int) bool { return tl.Tilts[i].Tick < tl.Tilts[j].Tick })
	sort.SliceStable(tl.Camera, func(i, j int) bool { return tl.Camera[i].Tick < tl.Camera[j].Tick })

	for _, sec := range p.sectionsOf(sectionSoundID) {
		for _, ln := range sec.lines {
			p.warn(sec, ln, "line other than a define in SOUND ID START")
		}
	}
	return nil
}
