package chart

// Laser positions span 0..MaxLaserPosition inclusive.
const MaxLaserPosition = 127

// LaserSide selects one of the two laser tracks.
type LaserSide int

const (
	LaserLeft LaserSide = iota
	LaserRight
)

// LaserSides lists both sides in output order.
var LaserSides = [2]LaserSide{LaserLeft, LaserRight}

// Letter returns "l" or "r".
func (s LaserSide) Letter() string {
	if s == LaserRight {
		return "r"
	}
	return "l"
}

// TrackNumber returns the VOX track carrying the side.
func (s LaserSide) TrackNumber() int {
	if s == LaserRight {
		return 8
	}
	return 1
}

// Filter is the audio filter applied while a laser is held.
type Filter int

const (
	FilterPeak Filter = iota
	FilterLowPass
	FilterHighPass
	FilterBitCrush
)

// RollKind is the lane spin attached to a slam.
type RollKind int

const (
	RollNone RollKind = iota
	RollMeasure
	RollHalfMeasure
	RollThreeBeat
	RollLong
	RollSwing
)

// LaserNode is one point of a laser segment. A slam node jumps from Position
// to SlamTo at the same tick.
type LaserNode struct {
	Tick     Tick
	Position int
	Slam     bool
	SlamTo   int
	Range    int
	Filter   Filter
	Roll     RollKind
}

// ExitPosition is where the laser continues from after the node.
func (n LaserNode) ExitPosition() int {
	if n.Slam {
		return n.SlamTo
	}
	return n.Position
}

// LaserSegment is one continuous laser from Start to End. A segment made of a
// single slam has Start == End.
type LaserSegment struct {
	Side  LaserSide
	Start Tick
	End   Tick
	Nodes []LaserNode
}
