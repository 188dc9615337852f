package chart

// Button identifies one of the six button tracks.
type Button int

const (
	ButtonBTA Button = iota
	ButtonBTB
	ButtonBTC
	ButtonBTD
	ButtonFXL
	ButtonFXR
)

// Buttons lists every button in output order.
var Buttons = [6]Button{ButtonBTA, ButtonBTB, ButtonBTC, ButtonBTD, ButtonFXL, ButtonFXR}

var buttonTracks = [6]int{3, 4, 5, 6, 2, 7}

// TrackNumber returns the VOX track carrying the button.
func (b Button) TrackNumber() int {
	return buttonTracks[b]
}

// IsFX reports whether the button is an FX button.
func (b Button) IsFX() bool {
	return b == ButtonFXL || b == ButtonFXR
}

// Letter returns "l" or "r" for FX buttons.
func (b Button) Letter() string {
	if b == ButtonFXR {
		return "r"
	}
	return "l"
}

// ButtonForTrack maps a VOX track number to its button.
func ButtonForTrack(track int) (Button, bool) {
	for i, n := range buttonTracks {
		if n == track {
			return Button(i), true
		}
	}
	return 0, false
}

// EffectRef points a FX hold at an entry of Timeline.Effects.
type EffectRef int

const (
	// NoEffect marks notes that carry no effect.
	NoEffect EffectRef = -2
	// FallbackEffect selects the converter's fallback effect.
	FallbackEffect EffectRef = -1
)

// Note is a chip (Duration 0) or a hold over [Start, Start+Duration).
type Note struct {
	Start     Tick
	Duration  int
	Effect    EffectRef
	ChipSound int
}

// IsHold reports whether the note is a hold.
func (n Note) IsHold() bool {
	return n.Duration > 0
}

// End returns the first tick after the note.
func (n Note) End() Tick {
	if n.Duration == 0 {
		return n.Start + 1
	}
	return n.Start + Tick(n.Duration)
}
