// Package chart holds the in-memory timeline shared by the VOX reader and the
// KSH writer.
//
// A Timeline is built once per input chart by the reader, handed to the
// writer unchanged, then discarded. Positions are expressed either as flat
// ticks (48 per beat, whatever the note value) or as zero-based
// (measure, beat, unit) triples; TimingMap converts between the two using
// the chart's time signature changes.
//
// The package also owns the error taxonomy used across the converter:
// FormatError for malformed input and InvariantError for converter bugs.
package chart
