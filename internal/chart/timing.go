package chart

// BPMChange sets the tempo from Tick onwards.
type BPMChange struct {
	Tick Tick
	BPM  float64
}

// Stop freezes scrolling at Tick for Length ticks.
type Stop struct {
	Tick   Tick
	Length int
}

// TimingPoints holds the tempo and signature changes of a chart, both ordered
// by tick with the first entry at tick 0.
type TimingPoints struct {
	BPMs       []BPMChange
	Signatures []SignatureChange
	Stops      []Stop
}

// BPMRange returns the lowest and highest tempo.
func (tp TimingPoints) BPMRange() (float64, float64) {
	if len(tp.BPMs) == 0 {
		return 0, 0
	}
	lo, hi := tp.BPMs[0].BPM, tp.BPMs[0].BPM
	for _, change := range tp.BPMs[1:] {
		lo = min(lo, change.BPM)
		hi = max(hi, change.BPM)
	}
	return lo, hi
}

// TiltMode is the lane tilt behaviour.
type TiltMode int

const (
	TiltNormal TiltMode = iota
	TiltBigger
	TiltKeepBigger
)

// TiltChange switches the tilt mode at Tick.
type TiltChange struct {
	Tick Tick
	Mode TiltMode
}

// CameraParam identifies a camera/lane parameter driven by the SPCONTROLLER section.
type CameraParam int

const (
	CameraRotateX CameraParam = iota
	CameraRadius
	CameraTilt
	CameraLaneY
	CameraRealize
	CameraLeftLaserScale
	CameraRightLaserScale
)

// Stateful reports whether the parameter is a toggle rather than a ramp.
func (p CameraParam) Stateful() bool {
	return p == CameraLaneY
}

// CameraEvent ramps a camera parameter from Start to End over Duration ticks.
type CameraEvent struct {
	Tick     Tick
	Param    CameraParam
	Start    float64
	End      float64
	Duration int
}
