package ksh

import (
	"fmt"
	"math"
	"strconv"

	"vox2ksh/internal/chart"
)

const (
	// slamTicks is how far after a slam its end point is drawn.
	slamTicks = 4
	// slamWindow is the widest node spacing KSH reads as a slam (1/32 note).
	slamWindow = chart.TicksPerBeat / 8
)

// remap converts a 0..127 laser position to an alphabet character. The
// mapping rounds to the nearest step, so it is monotonic and maps both
// extremes exactly.
func remap(alphabet string, position int) (byte, error) {
	if position < 0 || position > chart.MaxLaserPosition {
		return 0, &chart.InvariantError{Op: "ksh.remap", Msg: fmt.Sprintf("laser position %d outside 0..%d", position, chart.MaxLaserPosition)}
	}
	idx := int(math.Round(float64(position) * float64(len(alphabet)-1) / chart.MaxLaserPosition))
	if idx < 0 || idx >= len(alphabet) {
		return 0, &chart.InvariantError{Op: "ksh.remap", Msg: fmt.Sprintf("position %d maps to index %d of a %d-character alphabet", position, idx, len(alphabet))}
	}
	return alphabet[idx], nil
}

type laserMark struct {
	tick chart.Tick
	char byte
}

// laserSpan is the inclusive tick range drawn for one segment.
type laserSpan struct {
	from, to chart.Tick
}

// placedNode is a laser node at its output tick.
type placedNode struct {
	side  chart.LaserSide
	tick  chart.Tick
	node  chart.LaserNode
	first bool
	last  bool
}

type laserLane struct {
	marks []laserMark
	spans []laserSpan
	nodes []placedNode
	spins map[chart.Tick]string
}

// planLane places the segments of one side on output ticks. Nodes that would
// land within slamWindow of the previous point are pushed forward so KSH does
// not read them as slams, and consecutive segments keep at least one empty
// tick between them.
func (r *renderer) planLane(side chart.LaserSide) (*laserLane, error) {
	lane := &laserLane{spins: map[chart.Tick]string{}}
	segs := r.tl.Lasers[side]
	prev := chart.Tick(-1)

	for i, seg := range segs {
		if len(seg.Nodes) == 0 {
			return nil, &chart.InvariantError{Op: "ksh.planLane", Msg: fmt.Sprintf("empty %s laser segment at tick %d", side.Letter(), seg.Start)}
		}
		limit := chart.Tick(math.MaxInt32)
		if i+1 < len(segs) {
			limit = segs[i+1].Start - 2
		}

		span := laserSpan{from: -1}
		for j, node := range seg.Nodes {
			at := node.Tick
			switch {
			case j == 0:
				if prev >= 0 && at < prev+2 {
					at = prev + 2
				}
			case at-prev <= slamWindow:
				at = prev + slamWindow + 1
				if at > limit {
					at = max(node.Tick, prev+1)
				}
			}

			char, err := remap(r.alphabet, node.Position)
			if err != nil {
				return nil, err
			}
			lane.marks = append(lane.marks, laserMark{at, char})
			if span.from < 0 {
				span.from = at
			}
			lane.nodes = append(lane.nodes, placedNode{
				side:  side,
				tick:  at,
				node:  node,
				first: j == 0,
				last:  j == len(seg.Nodes)-1 && j > 0 && !node.Slam,
			})
			prev = at

			if !node.Slam {
				continue
			}
			next := limit + 1
			if j+1 < len(seg.Nodes) {
				next = seg.Nodes[j+1].Tick
			}
			end := max(min(at+slamTicks, next-1), at+1)
			to, err := remap(r.alphabet, node.ExitPosition())
			if err != nil {
				return nil, err
			}
			lane.marks = append(lane.marks, laserMark{end, to})
			if spin := r.spin(at, node); spin != "" {
				lane.spins[at] = spin
			}
			prev = end
		}
		span.to = prev
		lane.spans = append(lane.spans, span)
	}

	for i := 1; i < len(lane.marks); i++ {
		if lane.marks[i].tick <= lane.marks[i-1].tick {
			return nil, &chart.InvariantError{Op: "ksh.planLane", Msg: fmt.Sprintf("%s laser points out of order at tick %d", side.Letter(), lane.marks[i].tick)}
		}
	}
	return lane, nil
}

// spin returns the lane spin suffix for a slam node, or "".
func (r *renderer) spin(at chart.Tick, node chart.LaserNode) string {
	if node.Roll == chart.RollNone {
		return ""
	}
	left := node.SlamTo < node.Position
	measure := float64(r.tl.Timing.SignatureAt(r.tl.Timing.MeasureAt(at)).MeasureTicks())

	open, length := "@)", 0
	if left {
		open = "@("
	}
	switch node.Roll {
	case chart.RollMeasure:
		length = int(measure * 0.85)
	case chart.RollHalfMeasure:
		length = int(measure / 2.95)
	case chart.RollThreeBeat:
		length = int(measure * 0.62)
	case chart.RollLong:
		length = int(measure * 2)
	case chart.RollSwing:
		open = "@>"
		if left {
			open = "@<"
		}
		length = int(measure * 0.62)
	default:
		return ""
	}
	return open + strconv.Itoa(length)
}

// laneCursor answers lane characters for ascending ticks.
type laneCursor struct {
	lane *laserLane
	mi   int
	si   int
}

func (c *laneCursor) char(t chart.Tick) byte {
	marks, spans := c.lane.marks, c.lane.spans
	for c.mi < len(marks) && marks[c.mi].tick < t {
		c.mi++
	}
	if c.mi < len(marks) && marks[c.mi].tick == t {
		return marks[c.mi].char
	}
	for c.si < len(spans) && spans[c.si].to < t {
		c.si++
	}
	if c.si < len(spans) && spans[c.si].from <= t {
		return ':'
	}
	return '-'
}
