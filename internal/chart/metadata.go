package chart

import "strings"

// Difficulty is a chart difficulty slot.
type Difficulty int

const (
	DifficultyUnknown Difficulty = iota
	DifficultyNovice
	DifficultyAdvanced
	DifficultyExhaust
	DifficultyInfinite
	DifficultyMaximum
)

type difficultyInfo struct {
	letter  string
	kshName string
	abbrev  string
	xmlName string
}

var difficulties = map[Difficulty]difficultyInfo{
	DifficultyNovice:   {letter: "n", kshName: "novice", abbrev: "nov", xmlName: "novice"},
	DifficultyAdvanced: {letter: "a", kshName: "challenge", abbrev: "adv", xmlName: "advanced"},
	DifficultyExhaust:  {letter: "e", kshName: "extended", abbrev: "exh", xmlName: "exhaust"},
	DifficultyInfinite: {letter: "i", kshName: "infinite", abbrev: "inf", xmlName: "infinite"},
	DifficultyMaximum:  {letter: "m", kshName: "infinite", abbrev: "mxm", xmlName: "maximum"},
}

// ParseDifficulty accepts a letter (n/a/e/i/m), an abbreviation, or a full name.
func ParseDifficulty(value string) Difficulty {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return DifficultyUnknown
	}
	for d, info := range difficulties {
		if value == info.letter || value == info.abbrev || value == info.xmlName {
			return d
		}
	}
	return DifficultyUnknown
}

// Letter returns the file-name letter of the difficulty.
func (d Difficulty) Letter() string { return difficulties[d].letter }

// KSHName returns the difficulty name used in KSH headers.
func (d Difficulty) KSHName() string { return difficulties[d].kshName }

// Abbreviation returns the three-letter abbreviation (nov, adv, ...).
func (d Difficulty) Abbreviation() string { return difficulties[d].abbrev }

// XMLName returns the element name used in music_db.xml.
func (d Difficulty) XMLName() string { return difficulties[d].xmlName }

// JacketNumber returns the jacket image index associated with the difficulty.
func (d Difficulty) JacketNumber() int { return int(d) }

func (d Difficulty) String() string {
	if info, ok := difficulties[d]; ok {
		return info.xmlName
	}
	return "unknown"
}

// InfiniteVersion names the fourth difficulty slot of a song.
type InfiniteVersion int

var infiniteAbbrevs = map[InfiniteVersion]string{
	2: "inf",
	3: "grv",
	4: "hvn",
	5: "vvd",
}

// Abbreviation returns inf, grv, hvn or vvd; unknown versions fall back to inf.
func (v InfiniteVersion) Abbreviation() string {
	if abbrev, ok := infiniteAbbrevs[v]; ok {
		return abbrev
	}
	return "inf"
}

// Record is the metadata collaborators resolve for one chart (normally from
// music_db.xml). Empty strings mean the field was not found.
type Record struct {
	SongID          int
	Title           string
	Artist          string
	Difficulty      string
	Level           string
	PreviewOffsetMs int
	Jacket          string
	SortTitle       string
	SortArtist      string
	Illustrator     string
	Effector        string
	Volume          string
	Background      string
	Audio           string
	BPMLabel        string
	Source          string
	InfiniteVersion int
}

// Metadata is the validated header of a chart.
type Metadata struct {
	SongID          int
	Title           string
	Artist          string
	Difficulty      Difficulty
	Level           int
	PreviewOffsetMs int
	Jacket          string
	SortTitle       string
	SortArtist      string
	Illustrator     string
	Effector        string
	Volume          int
	Background      string
	Audio           string
	BPMLabel        string
	Source          string
	InfiniteVersion InfiniteVersion
}

// DifficultyAbbreviation returns the abbreviation used in output file names;
// the infinite slot uses its version name.
func (m Metadata) DifficultyAbbreviation() string {
	if m.Difficulty == DifficultyInfinite {
		return m.InfiniteVersion.Abbreviation()
	}
	return m.Difficulty.Abbreviation()
}
