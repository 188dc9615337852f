package chart

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrFormat marks malformed or self-inconsistent chart input.
	ErrFormat = errors.New("chart format error")
	// ErrInvariant marks a converter bug detected by a writer-side assertion.
	ErrInvariant = errors.New("converter invariant violated")
)

// Error kinds reported by Classify and by ErrorKind methods.
const (
	KindFormat   = "format"
	KindInternal = "internal"
	KindIO       = "io"
)

// FormatError locates a fault in the input chart. Zero-valued fields are
// omitted from the message.
type FormatError struct {
	Section string
	Track   int
	Line    int
	Field   string
	Msg     string
}

func (e *FormatError) Error() string {
	parts := make([]string, 0, 5)
	if e.Line > 0 {
		parts = append(parts, "line "+strconv.Itoa(e.Line))
	}
	if s := strings.TrimSpace(e.Section); s != "" {
		parts = append(parts, s)
	}
	if e.Track > 0 {
		parts = append(parts, "track "+strconv.Itoa(e.Track))
	}
	if f := strings.TrimSpace(e.Field); f != "" {
		parts = append(parts, "field "+strconv.Quote(f))
	}
	msg := strings.TrimSpace(e.Msg)
	if msg == "" {
		msg = "malformed input"
	}
	parts = append(parts, msg)
	return "vox format: " + strings.Join(parts, ": ")
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// ErrorKind classifies the error for batch reporting.
func (e *FormatError) ErrorKind() string { return KindFormat }

// InvariantError reports an internal assertion failure in the converter.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	if e.Op == "" {
		return "converter invariant: " + e.Msg
	}
	return "converter invariant: " + e.Op + ": " + e.Msg
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

// ErrorKind classifies the error for batch reporting.
func (e *InvariantError) ErrorKind() string { return KindInternal }

// Classify maps an error to "format", "internal", or "io". Nil maps to "".
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFormat):
		return KindFormat
	case errors.Is(err, ErrInvariant):
		return KindInternal
	default:
		return KindIO
	}
}
