// Package convert runs one chart through the full pipeline: decode the cp932
// VOX file, resolve its metadata from the music database, read it into a
// timeline, render KSH and write it (plus media) into the song directory.
//
// Converter holds no per-chart state, so the batch driver shares one
// instance across its workers.
package convert
