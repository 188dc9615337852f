// Package vox parses VOX chart text into a chart.Timeline.
//
// A VOX file is a sequence of `#SECTION` blocks closed by `#END`. Timed lines
// start with a `MMM,BB,UU` position (1-based measure and beat, 0-based unit)
// followed by tab-separated columns whose meaning depends on the section or
// track. Track lines are first decoded into TrackEvent values (LaserEvent or
// ButtonEvent) and then assembled into laser segments and button notes.
//
// Read fails with a *chart.FormatError for input it cannot interpret. Oddities
// that have a sensible interpretation are recorded as Timeline.Warnings.
package vox
