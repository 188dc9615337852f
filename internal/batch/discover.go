package batch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"vox2ksh/internal/chart"
	"vox2ksh/internal/convert"
	"vox2ksh/internal/logging"
)

// Filter narrows discovery. Zero values match everything.
type Filter struct {
	SongID     int
	Difficulty chart.Difficulty
	Testcase   string
}

// resolve folds a named test case into the song id and difficulty filters.
func (f Filter) resolve() (Filter, error) {
	if strings.TrimSpace(f.Testcase) == "" {
		return f, nil
	}
	if f.SongID != 0 {
		return f, fmt.Errorf("--testcase and --song-id cannot be combined")
	}
	tc, err := LookupTestcase(f.Testcase)
	if err != nil {
		return f, err
	}
	f.SongID = tc.SongID
	if f.Difficulty == chart.DifficultyUnknown {
		f.Difficulty = tc.Difficulty
	}
	return f, nil
}

func (f Filter) matches(src convert.Source) bool {
	if f.SongID != 0 && src.SongID != f.SongID {
		return false
	}
	if f.Difficulty != chart.DifficultyUnknown && src.Difficulty != f.Difficulty {
		return false
	}
	return true
}

// String renders the active filters for the history store.
func (f Filter) String() string {
	var parts []string
	if f.Testcase != "" {
		parts = append(parts, "testcase="+f.Testcase)
	}
	if f.SongID != 0 {
		parts = append(parts, fmt.Sprintf("song_id=%d", f.SongID))
	}
	if f.Difficulty != chart.DifficultyUnknown {
		parts = append(parts, "difficulty="+f.Difficulty.String())
	}
	return strings.Join(parts, " ")
}

type chartKey struct {
	songID     int
	difficulty chart.Difficulty
}

// Discover lists the charts in dir that pass filter. When several games ship
// the same song and difficulty, only the chart from the latest game is kept.
// The result is sorted by song id, then difficulty.
func Discover(dir string, filter Filter, logger *slog.Logger) ([]convert.Source, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	filter, err := filter.resolve()
	if err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.vox"))
	if err != nil {
		return nil, fmt.Errorf("list vox files: %w", err)
	}

	latest := map[chartKey]convert.Source{}
	for _, path := range paths {
		src, err := convert.ParseSource(path)
		if err != nil {
			logger.Debug("ignoring file", logging.String("path", path), logging.Error(err))
			continue
		}
		if !filter.matches(src) {
			continue
		}
		key := chartKey{src.SongID, src.Difficulty}
		if prev, ok := latest[key]; ok {
			if prev.Game >= src.Game {
				logger.Debug("older chart replaced", logging.String("path", path), logging.String("kept", prev.Path))
				continue
			}
			logger.Debug("older chart replaced", logging.String("path", prev.Path), logging.String("kept", path))
		}
		latest[key] = src
	}

	sources := make([]convert.Source, 0, len(latest))
	for _, src := range latest {
		sources = append(sources, src)
	}
	slices.SortFunc(sources, func(a, b convert.Source) int {
		if a.SongID != b.SongID {
			return a.SongID - b.SongID
		}
		return int(a.Difficulty) - int(b.Difficulty)
	})
	return sources, nil
}

// Shard splits sources over workers by song id. Every chart of a song lands
// in the same shard and shards keep the input order.
func Shard(sources []convert.Source, workers int) [][]convert.Source {
	if workers < 1 {
		workers = 1
	}
	shards := make([][]convert.Source, workers)
	for _, src := range sources {
		i := src.SongID % workers
		shards[i] = append(shards[i], src)
	}
	return shards
}
