// Package musicdb reads the game's music database (music_db.xml, cp932
// encoded) and builds the metadata record the chart reader needs.
package musicdb
