package vox

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"vox2ksh/internal/chart"
	"vox2ksh/internal/logging"
)

type sectionKind int

const (
	sectionUnknown sectionKind = iota
	sectionFormatVersion
	sectionBPM
	sectionBPMInfo
	sectionTiltInfo
	sectionBeatInfo
	sectionEndPosition
	sectionSoundID
	sectionTabEffect
	sectionFXEffect
	sectionTabParamAssign
	sectionTrack
	sectionAutoTab
	sectionSPController
)

var sectionNames = map[string]sectionKind{
	"FORMAT VERSION":        sectionFormatVersion,
	"BPM":                   sectionBPM,
	"BPM INFO":              sectionBPMInfo,
	"TILT MODE INFO":        sectionTiltInfo,
	"BEAT INFO":             sectionBeatInfo,
	"END POSITION":          sectionEndPosition,
	"END POSISION":          sectionEndPosition,
	"SOUND ID START":        sectionSoundID,
	"FXBUTTON EFFECT INFO":  sectionFXEffect,
	"SPCONTROLLER":          sectionSPController,
	"SPCONTROLER":           sectionSPController,
	"TAB EFFECT INFO":       sectionTabEffect,
	"TAB PARAM ASSIGN INFO": sectionTabParamAssign,
	"TRACK AUTO TAB":        sectionAutoTab,
}

type rawLine struct {
	num  int
	text string
}

type section struct {
	name   string
	kind   sectionKind
	track  int
	header int
	lines  []rawLine
}

type options struct {
	logger *slog.Logger
	strict bool
}

// Option configures Read.
type Option func(*options)

// WithLogger routes reader warnings to logger at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrict turns every tolerated abnormality into a FormatError.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

type parser struct {
	opts         options
	version      int
	timing       *chart.TimingMap
	sections     []*section
	defines      []rawLine
	soundDefines map[string]int
	warnings     []chart.Warning
	strictErr    error
}

// Read parses the VOX chart text src and resolves its metadata from rec.
func Read(src string, rec chart.Record, opts ...Option) (*chart.Timeline, error) {
	p := &parser{opts: options{logger: logging.NewNop()}}
	for _, opt := range opts {
		opt(&p.opts)
	}

	meta, err := p.resolveMetadata(rec)
	if err != nil {
		return nil, err
	}

	p.split(src)

	if err := p.readFormatVersion(); err != nil {
		return nil, err
	}
	tl := &chart.Timeline{Metadata: meta, FormatVersion: p.version}

	if err := p.readTiming(tl); err != nil {
		return nil, err
	}
	if err := p.readEvents(tl); err != nil {
		return nil, err
	}
	tl.Effects = p.readEffects()

	events, err := p.readTracks()
	if err != nil {
		return nil, err
	}
	if err := p.buildLasers(tl, events); err != nil {
		return nil, err
	}
	if err := p.buildButtons(tl, events); err != nil {
		return nil, err
	}

	tl.End = max(tl.End, tl.LastEventTick())
	if p.strictErr != nil {
		return nil, p.strictErr
	}
	tl.Warnings = p.warnings
	return tl, nil
}

// split groups the input lines into sections. Lines outside any section and
// comment lines are dropped; `define` lines are collected wherever they occur.
func (p *parser) split(src string) {
	var current *section
	for i, line := range strings.Split(src, "\n") {
		num := i + 1
		text := strings.TrimSpace(line)
		switch {
		case text == "" || strings.HasPrefix(text, "//"):
			continue
		case strings.HasPrefix(text, "#"):
			token := strings.TrimSpace(strings.SplitN(text[1:], "#", 2)[0])
			if token == "" || strings.HasPrefix(token, "=") {
				continue
			}
			if token == "END" {
				current = nil
				continue
			}
			sec := &section{name: token, header: num}
			if kind, ok := sectionNames[token]; ok {
				sec.kind = kind
			} else if rest, ok := strings.CutPrefix(token, "TRACK"); ok {
				track, err := strconv.Atoi(strings.TrimSpace(rest))
				if err != nil || track < 1 || track > 9 {
					p.warn(sec, rawLine{num: num}, "unknown track section, skipping")
					current = nil
					continue
				}
				sec.kind, sec.track = sectionTrack, track
			} else {
				p.warn(sec, rawLine{num: num}, "unknown section, skipping")
				current = nil
				continue
			}
			p.sections = append(p.sections, sec)
			current = sec
		case strings.HasPrefix(text, "define\t"):
			p.defines = append(p.defines, rawLine{num: num, text: text})
		case current != nil:
			current.lines = append(current.lines, rawLine{num: num, text: text})
		}
	}
}

func (p *parser) sectionsOf(kind sectionKind) []*section {
	var out []*section
	for _, sec := range p.sections {
		if sec.kind == kind {
			out = append(out, sec)
		}
	}
	return out
}

func (p *parser) readFormatVersion() error {
	for _, sec := range p.sectionsOf(sectionFormatVersion) {
		for _, ln := range sec.lines {
			v, err := strconv.Atoi(splitColumns(ln.text)[0])
			if err != nil {
				return p.formatErr(sec, ln, "version", "not an integer: %q", ln.text)
			}
			p.version = v
		}
	}
	return nil
}

// parsePosition reads a `MMM,BB,UU` column into a zero-based position.
func parsePosition(value string) (chart.Position, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return chart.Position{}, fmt.Errorf("malformed position %q", value)
	}
	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return chart.Position{}, fmt.Errorf("malformed position %q", value)
		}
		nums[i] = n
	}
	if nums[0] < 1 || nums[1] < 1 || nums[2] < 0 {
		return chart.Position{}, fmt.Errorf("position %q out of range", value)
	}
	return chart.Position{Measure: nums[0] - 1, Beat: nums[1] - 1, Unit: nums[2]}, nil
}

func (p *parser) tickAt(sec *section, ln rawLine, value string) (chart.Tick, error) {
	pos, err := parsePosition(value)
	if err != nil {
		return 0, p.formatErr(sec, ln, "time", "%v", err)
	}
	tick, err := p.timing.ToTick(pos)
	if err != nil {
		return 0, p.formatErr(sec, ln, "time", "%v", err)
	}
	return tick, nil
}

func (p *parser) formatErr(sec *section, ln rawLine, field, format string, args ...any) error {
	err := &chart.FormatError{Line: ln.num, Field: field, Msg: fmt.Sprintf(format, args...)}
	if sec != nil {
		err.Section = sec.name
		err.Track = sec.track
	}
	return err
}

func (p *parser) warn(sec *section, ln rawLine, format string, args ...any) {
	w := chart.Warning{Line: ln.num, Msg: fmt.Sprintf(format, args...)}
	if sec != nil {
		w.Section = sec.name
		w.Track = sec.track
	}
	if p.opts.strict && p.strictErr == nil {
		p.strictErr = &chart.FormatError{Line: w.Line, Section: w.Section, Track: w.Track, Msg: w.Msg}
	}
	p.warnings = append(p.warnings, w)
	p.opts.logger.Debug("vox abnormality",
		logging.String("section", w.Section),
		logging.Int("line", w.Line),
		logging.String("detail", w.Msg),
	)
}
