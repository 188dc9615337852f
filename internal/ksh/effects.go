package ksh

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vox2ksh/internal/chart"
)

// FallbackEffectName names the effect used for FX holds whose effect could
// not be translated.
const FallbackEffectName = "fallback"

type effectParam struct {
	key   string
	value string
}

// kshEffect is one `#define_fx` entry. main is the parameter passed in the
// fx-l/fx-r marker of a hold.
type kshEffect struct {
	kind     string
	main     string
	params   []effectParam
	tapeStop bool
}

func (e *kshEffect) set(key, value string) {
	e.params = append(e.params, effectParam{key, value})
}

func (e kshEffect) defineLine(name string) string {
	var b strings.Builder
	b.WriteString("#define_fx ")
	b.WriteString(name)
	b.WriteString(" type=")
	b.WriteString(e.kind)
	for _, p := range e.params {
		value := p.value
		if p.key == "mix" {
			// Without a ramp the effect stays on between holds.
			value = "0%>" + value
		}
		b.WriteString(";" + p.key + "=" + value)
	}
	return b.String()
}

func (e kshEffect) fxChange(name string, duration int) string {
	if e.tapeStop {
		return name + ";" + strconv.Itoa(int(2500/float64(duration+10)))
	}
	if e.main == "" {
		return name
	}
	return name + ";" + e.main
}

func fallbackEffect() kshEffect {
	return kshEffect{
		kind:   "Flanger",
		main:   "200",
		params: []effectParam{{"depth", "200samples"}},
	}
}

var errEffectParams = errors.New("effect parameters out of range")

// legacySoundEffects maps the `define` sound ids of old charts.
var legacySoundEffects = map[int]kshEffect{
	2: {kind: "Retrigger", main: "8"},
	3: {kind: "Retrigger", main: "16"},
	4: {kind: "Gate", main: "16"},
	5: {kind: "Flanger", main: "200"},
	6: {kind: "Retrigger", main: "32"},
	7: {kind: "Gate", main: "8"},
	8: {kind: "PitchShift", main: "8"},
}

// buildEffect translates a chart effect definition. An error means the
// definition cannot be expressed and the caller should use fallbackEffect.
func buildEffect(def chart.EffectDefinition) (kshEffect, error) {
	switch def.Source {
	case chart.EffectFallback:
		return fallbackEffect(), nil
	case chart.EffectFromSoundID:
		eff, ok := legacySoundEffects[def.Type]
		if !ok {
			return kshEffect{}, fmt.Errorf("unknown sound id %d", def.Type)
		}
		return eff, nil
	}

	if n, ok := chart.EffectArity(def.Type); !ok || n != len(def.Params) {
		return kshEffect{}, fmt.Errorf("effect type %d with %d parameters", def.Type, len(def.Params))
	}
	v := make([]float64, len(def.Params))
	for i, raw := range def.Params {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return kshEffect{}, fmt.Errorf("effect parameter %d: %w", i+1, err)
		}
		v[i] = f
	}
	raw := def.Params

	var e kshEffect
	switch def.Type {
	case chart.EffectRetrigger, chart.EffectUpdateableRetrigger:
		// division, mix, update period, feedback, unused, rate[, unused]
		if v[2] < 1 {
			return kshEffect{}, fmt.Errorf("retrigger update period %v: %w", v[2], errEffectParams)
		}
		wave := int(4 / v[2] * v[0])
		if wave <= 0 {
			return kshEffect{}, fmt.Errorf("retrigger wave length %d: %w", wave, errEffectParams)
		}
		e.kind = "Retrigger"
		if v[3] != 1 {
			e.kind = "Echo"
			e.set("feedbackLevel", percent(v[3]))
		}
		e.main = strconv.Itoa(wave)
		e.set("waveLength", "1/"+e.main)
		e.set("updatePeriod", division(v[2]))
		if e.kind == "Retrigger" {
			e.set("rate", percent(1-v[5]))
		}
		e.set("mix", rawPercent(v[1]))
		if def.Type == chart.EffectUpdateableRetrigger {
			e.set("updateTrigger", "off>on")
		}
	case chart.EffectGate:
		// mix, division, division
		if v[2] == 0 {
			return kshEffect{}, fmt.Errorf("gate divisor is zero: %w", errEffectParams)
		}
		wave := int(2 / v[2] * v[1])
		if wave <= 0 {
			return kshEffect{}, fmt.Errorf("gate wave length %d: %w", wave, errEffectParams)
		}
		e.kind = "Gate"
		e.main = strconv.Itoa(wave)
		e.set("waveLength", "1/"+e.main)
		e.set("mix", rawPercent(v[0]))
	case chart.EffectPhaser:
		// mix, period, feedback, stereo width, high cut gain
		if int(v[1]) <= 0 {
			return kshEffect{}, fmt.Errorf("phaser period %v: %w", v[1], errEffectParams)
		}
		e.kind = "Phaser"
		e.main = strconv.Itoa(int(v[1]))
		e.set("period", division(v[1]))
		e.set("feedback", percent(v[2]))
		e.set("stereoWidth", rawPercent(v[3]))
		e.set("hiCutGain", strconv.Itoa(-int(v[4]))+"dB")
		e.set("mix", rawPercent(v[0]))
	case chart.EffectTapestop:
		e.kind = "TapeStop"
		e.main = "69"
		e.tapeStop = true
		e.set("speed", "69")
		e.set("mix", rawPercent(v[0]))
	case chart.EffectSidechain:
		// mix, period, hold, attack, release
		period := int(v[1] * 2)
		if period <= 0 {
			return kshEffect{}, fmt.Errorf("sidechain period %v: %w", v[1], errEffectParams)
		}
		e.kind = "SideChain"
		e.main = strconv.Itoa(period)
		e.set("period", "1/"+e.main)
		e.set("holdTime", strconv.Itoa(int(v[2]))+"ms")
		e.set("attackTime", strconv.Itoa(int(v[3]))+"ms")
		e.set("releaseTime", strconv.Itoa(int(v[4]))+"ms")
	case chart.EffectWobble:
		// unused, unused, mix, low freq, high freq, wave length, resonance
		wave := int(v[5] * 4)
		if wave <= 0 {
			return kshEffect{}, fmt.Errorf("wobble wave length %v: %w", v[5], errEffectParams)
		}
		e.kind = "Wobble"
		e.main = strconv.Itoa(wave)
		e.set("waveLength", "1/"+e.main)
		e.set("loFreq", strconv.Itoa(int(v[3]))+"Hz")
		e.set("hiFreq", strconv.Itoa(int(v[4]))+"Hz")
		e.set("Q", pyFloat(v[6]))
		e.set("mix", rawPercent(v[2]))
	case chart.EffectLowpass:
		freq := strconv.Itoa(int(v[2])) + "Hz"
		e.kind = "Wobble"
		e.main = "1"
		e.set("loFreq", freq)
		e.set("hiFreq", freq)
	case chart.EffectBitcrusher, chart.EffectPitchshift:
		// mix, samples
		e.kind = "BitCrusher"
		e.main = raw[1]
		e.set("reduction", raw[1]+"samples")
		e.set("mix", rawPercent(v[0]))
	case chart.EffectFlanger:
		// mix, samples, depth, period
		if int(v[3]) <= 0 {
			return kshEffect{}, fmt.Errorf("flanger period %v: %w", v[3], errEffectParams)
		}
		e.kind = "Flanger"
		e.main = pyFloat(float64(int(v[1])) / 10)
		e.set("depth", raw[2]+"samples")
		e.set("period", division(v[3]))
		e.set("mix", rawPercent(v[0]))
	default:
		return kshEffect{}, fmt.Errorf("effect type %d is not supported", def.Type)
	}
	return e, nil
}

// percent renders a 0..1 ratio as a truncated percentage.
func percent(v float64) string {
	return strconv.Itoa(int(v*100)) + "%"
}

// rawPercent renders a value that is already a percentage.
func rawPercent(v float64) string {
	return strconv.Itoa(int(v)) + "%"
}

func division(v float64) string {
	return "1/" + strconv.Itoa(int(v))
}

// pyFloat formats v with at least one fractional digit ("2" becomes "2.0").
func pyFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
