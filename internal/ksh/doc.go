// Package ksh renders a chart timeline as a K-Shoot Mania chart.
//
// Output is a header block, one block per measure holding a state line per
// emitted tick (buttons, FX, lasers) preceded by marker lines such as tempo or
// effect changes, and a footer of effect definitions. Rendering is
// deterministic: the same timeline and options always produce the same bytes.
package ksh
