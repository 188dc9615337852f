package ksh

import (
	"math"
	"strconv"

	"vox2ksh/internal/chart"
)

var tiltNames = map[chart.TiltMode]string{
	chart.TiltNormal:     "normal",
	chart.TiltBigger:     "bigger",
	chart.TiltKeepBigger: "keep_bigger",
}

// cameraName returns the KSH marker of a ramped camera parameter, or "" when
// KSH has no equivalent.
func cameraName(p chart.CameraParam) string {
	switch p {
	case chart.CameraRotateX:
		return "zoom_top"
	case chart.CameraRadius:
		return "zoom_bottom"
	case chart.CameraTilt:
		return "tilt"
	case chart.CameraLaneY:
		return "lane_toggle"
	}
	return ""
}

func cameraValue(p chart.CameraParam, v float64) string {
	switch p {
	case chart.CameraRotateX:
		return strconv.Itoa(int(v * 150))
	case chart.CameraRadius:
		return strconv.Itoa(int(v * -150))
	case chart.CameraTilt:
		t := math.Trunc(-v*10) / 10
		if t == 0 {
			t = 0 // no "-0.0"
		}
		return strconv.FormatFloat(t, 'f', 1, 64)
	}
	return strconv.Itoa(int(v))
}

// addCamera emits the start value of every camera ramp, then the end value
// once its duration has elapsed unless another ramp of the same parameter
// took over first. Lane toggles carry their duration instead of values.
func (r *renderer) addCamera() {
	events := dedupeCamera(r.tl.Camera)

	for _, ev := range events {
		name := cameraName(ev.Param)
		if name == "" {
			continue
		}
		if ev.Param.Stateful() {
			r.mark(ev.Tick, name+"="+strconv.Itoa(ev.Duration))
			continue
		}
		r.mark(ev.Tick, name+"="+cameraValue(ev.Param, ev.Start))
	}

	for i, ev := range events {
		name := cameraName(ev.Param)
		if name == "" || ev.Param.Stateful() {
			continue
		}
		end := ev.Tick + chart.Tick(ev.Duration)
		interrupted := false
		for _, next := range events[i+1:] {
			if next.Param == ev.Param {
				interrupted = next.Tick <= end
				break
			}
		}
		if !interrupted {
			r.mark(end, name+"="+cameraValue(ev.Param, ev.End))
		}
	}
}

// dedupeCamera keeps the last event of each parameter at a tick.
func dedupeCamera(events []chart.CameraEvent) []chart.CameraEvent {
	out := make([]chart.CameraEvent, 0, len(events))
	for _, ev := range events {
		replaced := false
		for i := len(out) - 1; i >= 0 && out[i].Tick == ev.Tick; i-- {
			if out[i].Param == ev.Param {
				out[i] = ev
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, ev)
		}
	}
	return out
}
