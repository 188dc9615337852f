package chart

// EffectSource tells where an effect definition came from.
type EffectSource int

const (
	// EffectFromInfo is a parameterized entry of FXBUTTON EFFECT INFO.
	EffectFromInfo EffectSource = iota
	// EffectFromSoundID is a legacy `define` sound id.
	EffectFromSoundID
	// EffectFallback replaces a definition that could not be interpreted.
	EffectFallback
)

// VOX effect type ids used by FXBUTTON EFFECT INFO.
const (
	EffectRetrigger           = 1
	EffectGate                = 2
	EffectPhaser              = 3
	EffectTapestop            = 4
	EffectSidechain           = 5
	EffectWobble              = 6
	EffectBitcrusher          = 7
	EffectUpdateableRetrigger = 8
	EffectPitchshift          = 9
	EffectLowpass             = 11
	EffectFlanger             = 12
)

var effectArities = map[int]int{
	EffectRetrigger:           6,
	EffectGate:                3,
	EffectPhaser:              5,
	EffectTapestop:            3,
	EffectSidechain:           5,
	EffectWobble:              7,
	EffectBitcrusher:          2,
	EffectUpdateableRetrigger: 7,
	EffectPitchshift:          2,
	EffectLowpass:             4,
	EffectFlanger:             4,
}

// EffectArity returns the parameter count of a VOX effect type.
func EffectArity(typ int) (int, bool) {
	n, ok := effectArities[typ]
	return n, ok
}

// EffectDefinition is an FX hold effect declared by the chart. Type is the
// VOX effect type for EffectFromInfo and the sound id for EffectFromSoundID.
type EffectDefinition struct {
	Index  int
	Source EffectSource
	Type   int
	Params []string
}
