package ksh

import (
	"fmt"
	"log/slog"
	"strings"
)

// DefaultAlphabet is the 51-character KSH laser position alphabet.
const DefaultAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmno"

const (
	DefaultFilterGain = 50
	DefaultSlamVolume = 40
)

// Options controls how a timeline is rendered.
type Options struct {
	// Compact collapses each measure to the coarsest line step that keeps
	// every significant tick. The default writes one line per tick.
	Compact bool
	// Alphabet overrides DefaultAlphabet. It must hold at least two distinct
	// printable characters that are not KSH lane separators.
	Alphabet string
	// ChipSounds emits fx-l_se/fx-r_se markers for FX chips with a sound.
	ChipSounds bool
	// FilterGain and SlamVolume fill pfiltergain and chokkakuvol. Zero
	// selects the default.
	FilterGain int
	SlamVolume int
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Alphabet == "" {
		o.Alphabet = DefaultAlphabet
	}
	if o.FilterGain == 0 {
		o.FilterGain = DefaultFilterGain
	}
	if o.SlamVolume == 0 {
		o.SlamVolume = DefaultSlamVolume
	}
	return o
}

// ValidateAlphabet reports whether alphabet can encode laser positions.
func ValidateAlphabet(alphabet string) error {
	if len(alphabet) < 2 {
		return fmt.Errorf("laser alphabet needs at least 2 characters, got %d", len(alphabet))
	}
	seen := make(map[rune]bool, len(alphabet))
	for _, r := range alphabet {
		if r <= ' ' || r > '~' {
			return fmt.Errorf("laser alphabet contains non-printable or non-ASCII character %q", r)
		}
		if strings.ContainsRune(":-|@/=", r) {
			return fmt.Errorf("laser alphabet contains reserved character %q", r)
		}
		if seen[r] {
			return fmt.Errorf("laser alphabet repeats %q", r)
		}
		seen[r] = true
	}
	return nil
}
