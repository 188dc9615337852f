package vox

import (
	"strconv"
	"strings"

	"vox2ksh/internal/chart"
)

const (
	defaultVolume = 100
	defaultAudio  = "track.ogg"
)

// resolveMetadata validates the collaborator-supplied record. Title, artist,
// difficulty and level are required.
func (p *parser) resolveMetadata(rec chart.Record) (chart.Metadata, error) {
	sec := &section{name: "metadata"}
	missing := func(field string) error {
		return &chart.FormatError{Section: sec.name, Field: field, Msg: "missing required field"}
	}

	meta := chart.Metadata{
		SongID:          rec.SongID,
		Title:           strings.TrimSpace(rec.Title),
		Artist:          strings.TrimSpace(rec.Artist),
		PreviewOffsetMs: rec.PreviewOffsetMs,
		Jacket:          strings.TrimSpace(rec.Jacket),
		SortTitle:       strings.TrimSpace(rec.SortTitle),
		SortArtist:      strings.TrimSpace(rec.SortArtist),
		Illustrator:     strings.TrimSpace(rec.Illustrator),
		Effector:        strings.TrimSpace(rec.Effector),
		Volume:          defaultVolume,
		Background:      backgroundName(rec.Background),
		Audio:           strings.TrimSpace(rec.Audio),
		BPMLabel:        strings.TrimSpace(rec.BPMLabel),
		Source:          strings.TrimSpace(rec.Source),
		InfiniteVersion: chart.InfiniteVersion(rec.InfiniteVersion),
	}
	if meta.Title == "" {
		return chart.Metadata{}, missing("title")
	}
	if meta.Artist == "" {
		return chart.Metadata{}, missing("artist")
	}

	diff := strings.TrimSpace(rec.Difficulty)
	if diff == "" {
		return chart.Metadata{}, missing("difficulty")
	}
	meta.Difficulty = chart.ParseDifficulty(diff)
	if meta.Difficulty == chart.DifficultyUnknown {
		return chart.Metadata{}, &chart.FormatError{Section: sec.name, Field: "difficulty", Msg: "unknown difficulty " + strconv.Quote(diff)}
	}

	level := strings.TrimSpace(rec.Level)
	if level == "" {
		return chart.Metadata{}, missing("level")
	}
	n, err := strconv.Atoi(level)
	if err != nil || n <= 0 {
		return chart.Metadata{}, &chart.FormatError{Section: sec.name, Field: "level", Msg: "invalid level " + strconv.Quote(level)}
	}
	meta.Level = n

	if v := strings.TrimSpace(rec.Volume); v != "" {
		vol, err := strconv.Atoi(v)
		if err != nil || vol < 0 {
			p.warn(sec, rawLine{}, "invalid volume %q, using %d", v, defaultVolume)
		} else {
			meta.Volume = vol
		}
	}
	if meta.Audio == "" {
		meta.Audio = defaultAudio
	}
	if meta.PreviewOffsetMs < 0 {
		p.warn(sec, rawLine{}, "negative preview offset %d, using 0", meta.PreviewOffsetMs)
		meta.PreviewOffsetMs = 0
	}
	return meta, nil
}

// backgroundName maps a music_db background number to a KSH background.
// Non-numeric values are taken as background names.
func backgroundName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "fallback"
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		return value
	}
	switch {
	case id == 0 || id == 1 || (id >= 14 && id <= 16) || id == 71:
		return "techno"
	case id == 2 || id == 6 || (id >= 11 && id <= 13):
		return "wave"
	case id == 3 || id == 7:
		return "arrow"
	case id == 4 || id == 8:
		return "sakura"
	case id == 63:
		return "smoke"
	case id == 65:
		return "snow"
	}
	return "fallback"
}
