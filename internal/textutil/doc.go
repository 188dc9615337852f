// Package textutil provides filename sanitization for song directories and
// the glyph clean-up applied to music database text.
package textutil
