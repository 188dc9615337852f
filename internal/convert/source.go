package convert

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"vox2ksh/internal/chart"
)

// sourcePattern matches the game's chart file names:
// <game>_<song id>_<name>_<difficulty number><difficulty letter>.vox
var sourcePattern = regexp.MustCompile(`^(\d{3})_(\d{4,})_(.+)_(\d)([naeim])\.vox$`)

// Source identifies a chart file.
type Source struct {
	Path       string
	Game       int
	SongID     int
	Name       string
	Difficulty chart.Difficulty
}

// ParseSource extracts game, song id and difficulty from a chart file name.
func ParseSource(path string) (Source, error) {
	base := filepath.Base(path)
	m := sourcePattern.FindStringSubmatch(base)
	if m == nil {
		return Source{}, fmt.Errorf("%s: not a chart file name (want GGG_SSSS_name_Nd.vox)", base)
	}
	game, _ := strconv.Atoi(m[1])
	songID, err := strconv.Atoi(m[2])
	if err != nil {
		return Source{}, fmt.Errorf("%s: song id: %w", base, err)
	}
	return Source{
		Path:       path,
		Game:       game,
		SongID:     songID,
		Name:       m[3],
		Difficulty: chart.ParseDifficulty(m[5]),
	}, nil
}

// ChartID names the chart in logs and history, e.g. 0781_mxm.
func (s Source) ChartID() string {
	return fmt.Sprintf("%04d_%s", s.SongID, s.Difficulty.Abbreviation())
}
