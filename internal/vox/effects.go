package vox

import (
	"sort"
	"strconv"
	"strings"

	"vox2ksh/internal/chart"
)

// Legacy sound ids with a known effect.
const (
	legacySoundMin = 2
	legacySoundMax = 8
)

// readEffects collects the legacy `define` lines and the FXBUTTON EFFECT INFO
// section into effect definitions ordered by index. Definitions that cannot be
// interpreted become fallback definitions with a warning.
func (p *parser) readEffects() []chart.EffectDefinition {
	byIndex := map[int]chart.EffectDefinition{}
	p.soundDefines = map[string]int{}

	soundSec := &section{name: "SOUND ID START"}
	for _, ln := range p.defines {
		cols := strings.Split(ln.text, "\t")
		if len(cols) != 3 {
			p.warn(soundSec, ln, "define line does not have 3 operands")
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(cols[2]))
		if err != nil {
			p.warn(soundSec, ln, "define %q has a non-numeric sound id", cols[1])
			continue
		}
		p.soundDefines[strings.TrimSpace(cols[1])] = id
		if id == 0 {
			continue
		}
		def := chart.EffectDefinition{Index: id, Source: chart.EffectFromSoundID, Type: id}
		if id < legacySoundMin || id > legacySoundMax {
			p.warn(soundSec, ln, "unknown sound id %d, using fallback", id)
			def = chart.EffectDefinition{Index: id, Source: chart.EffectFallback}
		}
		byIndex[id] = def
	}

	for _, sec := range p.sectionsOf(sectionFXEffect) {
		for _, ln := range sec.lines {
			n := ln.num - sec.header
			var index int
			if p.version < 6 {
				index = n - 1
			} else {
				// Entries come in blocks of three lines; the second line of a
				// block overrides the first and the third is a separator.
				if (n-1)%3 >= 2 {
					continue
				}
				if strings.HasPrefix(ln.text, "0,") {
					continue
				}
				index = n / 3
			}
			byIndex[index] = p.parseEffectInfo(sec, ln, index)
		}
	}

	out := make([]chart.EffectDefinition, 0, len(byIndex))
	for _, def := range byIndex {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (p *parser) parseEffectInfo(sec *section, ln rawLine, index int) chart.EffectDefinition {
	fallback := chart.EffectDefinition{Index: index, Source: chart.EffectFallback}
	fields := strings.Split(strings.ReplaceAll(ln.text, "\t", ""), ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if n := len(fields); n > 1 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	typ, err := strconv.Atoi(fields[0])
	if err != nil {
		p.warn(sec, ln, "unreadable effect type %q, using fallback", fields[0])
		return fallback
	}
	arity, ok := chart.EffectArity(typ)
	if !ok {
		p.warn(sec, ln, "effect type %d is not supported, using fallback", typ)
		return fallback
	}
	params := fields[1:]
	if len(params) != arity {
		p.warn(sec, ln, "effect type %d takes %d parameters, got %d; using fallback", typ, arity, len(params))
		return fallback
	}
	for _, param := range params {
		if _, err := strconv.ParseFloat(param, 64); err != nil {
			p.warn(sec, ln, "effect parameter %q is not a number, using fallback", param)
			return fallback
		}
	}
	return chart.EffectDefinition{Index: index, Source: chart.EffectFromInfo, Type: typ, Params: params}
}

// resolveEffect maps an FX hold event to an entry of effects.
func (p *parser) resolveEffect(sec *section, ev ButtonEvent, effects []chart.EffectDefinition) (chart.EffectRef, error) {
	ln := rawLine{num: ev.Line}
	index := ev.EffectIndex
	if ev.EffectName != "" {
		id, err := strconv.Atoi(ev.EffectName)
		if err != nil {
			var ok bool
			id, ok = p.soundDefines[ev.EffectName]
			if !ok {
				return chart.NoEffect, p.formatErr(sec, ln, "effect", "undefined sound define %q", ev.EffectName)
			}
		}
		index = id
	}
	if index < 0 {
		return chart.EffectRef(index), nil
	}
	for _, def := range effects {
		if def.Index == index {
			return chart.EffectRef(index), nil
		}
	}
	p.warn(sec, ln, "effect %d is not defined, using fallback", index)
	return chart.FallbackEffect, nil
}
