package ksh

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"vox2ksh/internal/chart"
	"vox2ksh/internal/logging"
)

const (
	fxChipSoundVolume = 27
	previewLengthMs   = 11000
	kshVersion        = 167
)

var filterNames = map[chart.Filter]string{
	chart.FilterPeak:     "peak",
	chart.FilterLowPass:  "lpf1",
	chart.FilterHighPass: "hpf1",
	chart.FilterBitCrush: "bitc",
}

// Write renders tl as KSH text into w. Nothing is written when rendering
// fails.
func Write(w io.Writer, tl *chart.Timeline, opts Options) error {
	out, err := Render(tl, opts)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("write ksh: %w", err)
	}
	return nil
}

// Render returns the KSH text of tl.
func Render(tl *chart.Timeline, opts Options) ([]byte, error) {
	r, err := newRenderer(tl, opts)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	r.writeHeader(&b)
	r.writeBody(&b)
	r.writeFooter(&b)
	return []byte(b.String()), nil
}

type renderer struct {
	tl       *chart.Timeline
	opts     Options
	logger   *slog.Logger
	alphabet string
	effects  map[int]kshEffect
	lanes    [2]*laserLane
	markers  map[chart.Tick][]string
	spins    map[chart.Tick]string
	ticks    []chart.Tick
}

func newRenderer(tl *chart.Timeline, opts Options) (*renderer, error) {
	if tl == nil || tl.Timing == nil {
		return nil, &chart.InvariantError{Op: "ksh.Render", Msg: "timeline without timing map"}
	}
	opts = opts.withDefaults()
	if err := ValidateAlphabet(opts.Alphabet); err != nil {
		return nil, fmt.Errorf("ksh options: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &renderer{
		tl:       tl,
		opts:     opts,
		logger:   logger,
		alphabet: opts.Alphabet,
		effects:  map[int]kshEffect{},
		markers:  map[chart.Tick][]string{},
		spins:    map[chart.Tick]string{},
	}

	r.buildEffects()
	for _, side := range chart.LaserSides {
		lane, err := r.planLane(side)
		if err != nil {
			return nil, err
		}
		r.lanes[side] = lane
		for _, t := range sortedTicks(lane.spins) {
			if _, taken := r.spins[t]; taken {
				r.logger.Debug("spin on both lasers, keeping the left one", logging.Int("tick", int(t)))
				continue
			}
			r.spins[t] = lane.spins[t]
		}
	}

	r.addTiming()
	r.addCamera()
	r.addLaserMarkers()
	r.addFXMarkers()
	r.collectTicks()
	return r, nil
}

func (r *renderer) buildEffects() {
	for _, def := range r.tl.Effects {
		eff, err := buildEffect(def)
		if err != nil {
			r.logger.Warn("effect cannot be expressed in ksh, using fallback",
				logging.Int("effect_index", def.Index),
				logging.Error(err),
			)
			eff = fallbackEffect()
		}
		r.effects[def.Index] = eff
	}
}

func (r *renderer) mark(t chart.Tick, line string) {
	r.markers[t] = append(r.markers[t], line)
}

func (r *renderer) addTiming() {
	for _, change := range r.tl.Points.BPMs {
		r.mark(change.Tick, "t="+formatBPM(change.BPM))
	}
	for _, stop := range r.tl.Points.Stops {
		r.mark(stop.Tick, "stop="+strconv.Itoa(stop.Length))
	}
	for _, tilt := range r.tl.Tilts {
		if name, ok := tiltNames[tilt.Mode]; ok {
			r.mark(tilt.Tick, "tilt="+name)
		}
	}
}

// addLaserMarkers emits wide-laser and filter markers. The filter is shared
// by both lasers, so changes are tracked across sides in tick order.
func (r *renderer) addLaserMarkers() {
	var nodes []placedNode
	for _, lane := range r.lanes {
		nodes = append(nodes, lane.nodes...)
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].tick != nodes[j].tick {
			return nodes[i].tick < nodes[j].tick
		}
		return nodes[i].side < nodes[j].side
	})

	filter := chart.FilterPeak
	for _, pn := range nodes {
		if pn.first && pn.node.Range != 1 {
			r.mark(pn.tick, fmt.Sprintf("laserrange_%s=%dx", pn.side.Letter(), pn.node.Range))
		}
		if !pn.last && pn.node.Filter != filter {
			filter = pn.node.Filter
			r.mark(pn.tick, "filtertype="+filterNames[filter])
		}
	}
}

func (r *renderer) addFXMarkers() {
	fx := [2]chart.Button{chart.ButtonFXL, chart.ButtonFXR}
	for _, button := range fx {
		for _, note := range r.tl.Buttons[button] {
			if !note.IsHold() {
				continue
			}
			r.mark(note.Start, "fx-"+button.Letter()+"="+r.fxChange(note))
		}
	}
	if !r.opts.ChipSounds {
		return
	}
	for _, button := range fx {
		for _, note := range r.tl.Buttons[button] {
			if note.IsHold() || note.ChipSound <= 0 {
				continue
			}
			r.mark(note.Start, fmt.Sprintf("fx-%s_se=%s;%d", button.Letter(), ChipSoundFile(note.ChipSound), fxChipSoundVolume))
		}
	}
}

func (r *renderer) fxChange(note chart.Note) string {
	if note.Effect >= 0 {
		if eff, ok := r.effects[int(note.Effect)]; ok {
			return eff.fxChange(strconv.Itoa(int(note.Effect)), note.Duration)
		}
	}
	return fallbackEffect().fxChange(FallbackEffectName, note.Duration)
}

// ChipSoundFile names the sample referenced by an FX chip sound.
func ChipSoundFile(id int) string {
	return "fxchip_" + strconv.Itoa(id) + ".wav"
}

// collectTicks gathers every tick that must get its own line.
func (r *renderer) collectTicks() {
	set := map[chart.Tick]struct{}{}
	for t := range r.markers {
		set[t] = struct{}{}
	}
	for t := range r.spins {
		set[t] = struct{}{}
	}
	for _, notes := range r.tl.Buttons {
		for _, note := range notes {
			set[note.Start] = struct{}{}
			if note.IsHold() {
				set[note.End()] = struct{}{}
			}
		}
	}
	for _, lane := range r.lanes {
		for _, m := range lane.marks {
			set[m.tick] = struct{}{}
		}
	}
	r.ticks = sortedTicks(set)
}

func (r *renderer) lastTick() chart.Tick {
	last := max(r.tl.End, r.tl.LastEventTick()) - 1
	if n := len(r.ticks); n > 0 {
		last = max(last, r.ticks[n-1])
	}
	for _, lane := range r.lanes {
		if n := len(lane.spans); n > 0 {
			last = max(last, lane.spans[n-1].to)
		}
	}
	return max(last, 0)
}

func (r *renderer) writeHeader(b *strings.Builder) {
	meta := r.tl.Metadata
	line := func(key, value string) {
		b.WriteString(key + "=" + value + "\n")
	}
	if meta.Source != "" {
		b.WriteString("// Source: " + meta.Source + "\n")
	}
	line("title", meta.Title)
	line("artist", meta.Artist)
	line("effect", meta.Effector)
	line("sorttitle", meta.SortTitle)
	line("sortartist", meta.SortArtist)
	line("jacket", meta.Jacket)
	line("illustrator", meta.Illustrator)
	line("difficulty", meta.Difficulty.KSHName())
	line("level", strconv.Itoa(meta.Level))
	line("t", r.bpmLabel())
	line("m", meta.Audio)
	line("mvol", strconv.Itoa(meta.Volume))
	line("o", "0")
	line("bg", meta.Background)
	line("layer", meta.Background)
	line("po", strconv.Itoa(meta.PreviewOffsetMs))
	line("plength", strconv.Itoa(previewLengthMs))
	line("pfiltergain", strconv.Itoa(r.opts.FilterGain))
	line("filtertype", "peak")
	line("chokkakuautovol", "0")
	line("chokkakuvol", strconv.Itoa(r.opts.SlamVolume))
	line("ver", strconv.Itoa(kshVersion))
	b.WriteString("--\n")
}

func (r *renderer) bpmLabel() string {
	if r.tl.Metadata.BPMLabel != "" {
		return r.tl.Metadata.BPMLabel
	}
	lo, hi := r.tl.Points.BPMRange()
	if lo == hi {
		return formatBPM(lo)
	}
	return formatBPM(lo) + "-" + formatBPM(hi)
}

func (r *renderer) writeBody(b *strings.Builder) {
	timing := r.tl.Timing
	changes := timing.Changes()
	lastMeasure := timing.MeasureAt(r.lastTick())

	var buttons [6]noteCursor
	for i := range buttons {
		buttons[i].notes = r.tl.Buttons[i]
	}
	var lasers [2]laneCursor
	for i := range lasers {
		lasers[i].lane = r.lanes[i]
	}

	ci := 0
	for m := 0; m <= lastMeasure; m++ {
		start := timing.MeasureStart(m)
		sig := timing.SignatureAt(m)
		length := sig.MeasureTicks()
		for ci < len(changes) && changes[ci].Measure <= m {
			if changes[ci].Measure == m {
				fmt.Fprintf(b, "beat=%d/%d\n", sig.Beats, sig.NoteValue)
			}
			ci++
		}

		step := 1
		if r.opts.Compact {
			step = r.compactStep(start, length)
		}
		perBeat := chart.TicksPerBeat
		for off := 0; off < length; off += step {
			t := start + chart.Tick(off)
			if !r.opts.Compact && off%perBeat == 0 {
				fmt.Fprintf(b, "// #%d,%d\n", m+1, off/perBeat+1)
			}
			for _, line := range r.markers[t] {
				b.WriteString(line)
				b.WriteByte('\n')
			}
			r.writeState(b, t, &buttons, &lasers)
		}
		b.WriteString("--\n")
	}
}

func (r *renderer) writeState(b *strings.Builder, t chart.Tick, buttons *[6]noteCursor, lasers *[2]laneCursor) {
	for i := range buttons {
		if i == int(chart.ButtonFXL) {
			b.WriteByte('|')
		}
		// BT lanes draw holds as 2 and chips as 1; FX lanes swap them.
		hold, chip := byte('2'), byte('1')
		if chart.Button(i).IsFX() {
			hold, chip = chip, hold
		}
		switch buttons[i].state(t) {
		case noteHold:
			b.WriteByte(hold)
		case noteChip:
			b.WriteByte(chip)
		default:
			b.WriteByte('0')
		}
	}
	b.WriteByte('|')
	for i := range lasers {
		b.WriteByte(lasers[i].char(t))
	}
	b.WriteString(r.spins[t])
	b.WriteByte('\n')
}

// compactStep returns the largest line step that divides the measure and
// lands on every significant tick in it, while leaving an empty line between
// consecutive laser segments.
func (r *renderer) compactStep(start chart.Tick, length int) int {
	end := start + chart.Tick(length)
	step := length
	i := sort.Search(len(r.ticks), func(i int) bool { return r.ticks[i] >= start })
	for ; i < len(r.ticks) && r.ticks[i] < end; i++ {
		step = gcd(step, int(r.ticks[i]-start))
	}
	for _, lane := range r.lanes {
		for k := 1; k < len(lane.spans); k++ {
			last, next := lane.spans[k-1].to, lane.spans[k].from
			if last < start || last >= end {
				continue
			}
			if last+chart.Tick(step) >= next {
				mid := last + (next-last)/2
				step = gcd(step, int(mid-start))
			}
		}
	}
	return step
}

func (r *renderer) writeFooter(b *strings.Builder) {
	for _, def := range r.tl.Effects {
		b.WriteString(r.effects[def.Index].defineLine(strconv.Itoa(def.Index)))
		b.WriteByte('\n')
	}
	b.WriteString(fallbackEffect().defineLine(FallbackEffectName))
	b.WriteByte('\n')
}

type noteState int

const (
	noteOff noteState = iota
	noteChip
	noteHold
)

// noteCursor answers button states for ascending ticks.
type noteCursor struct {
	notes []chart.Note
	i     int
}

func (c *noteCursor) state(t chart.Tick) noteState {
	for c.i < len(c.notes) && c.notes[c.i].End() <= t {
		c.i++
	}
	if c.i == len(c.notes) || c.notes[c.i].Start > t {
		return noteOff
	}
	if c.notes[c.i].IsHold() {
		return noteHold
	}
	return noteChip
}

func formatBPM(bpm float64) string {
	return strconv.FormatFloat(bpm, 'f', -1, 64)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func sortedTicks[V any](m map[chart.Tick]V) []chart.Tick {
	out := make([]chart.Tick, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
