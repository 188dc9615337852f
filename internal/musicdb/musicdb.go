package musicdb

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"vox2ksh/internal/chart"
	"vox2ksh/internal/textutil"
)

// DefaultFileName is the database read when merging is disabled.
const DefaultFileName = "music_db.xml"

// ErrSongNotFound is returned by Lookup for unknown song ids.
var ErrSongNotFound = errors.New("song not found in music database")

type xmlDB struct {
	Music []xmlMusic `xml:"music"`
}

type xmlMusic struct {
	ID         int                `xml:"id,attr"`
	Info       xmlInfo            `xml:"info"`
	Difficulty xmlDifficultyGroup `xml:"difficulty"`
}

type xmlInfo struct {
	Label          string `xml:"label"`
	TitleName      string `xml:"title_name"`
	TitleYomigana  string `xml:"title_yomigana"`
	ArtistName     string `xml:"artist_name"`
	ArtistYomigana string `xml:"artist_yomigana"`
	ASCII          string `xml:"ascii"`
	BPMMax         string `xml:"bpm_max"`
	BPMMin         string `xml:"bpm_min"`
	Volume         string `xml:"volume"`
	BackgroundNo   string `xml:"bg_no"`
	InfVer         string `xml:"inf_ver"`
	Version        string `xml:"version"`
}

type xmlDifficultyGroup struct {
	Entries []xmlDifficulty `xml:",any"`
}

type xmlDifficulty struct {
	XMLName     xml.Name
	Level       string `xml:"difnum"`
	Illustrator string `xml:"illustrator"`
	EffectedBy  string `xml:"effected_by"`
}

// DifficultyInfo is the per-difficulty part of a song entry.
type DifficultyInfo struct {
	Level       string
	Illustrator string
	Effector    string
}

// Song is one <music> element with its text repaired.
type Song struct {
	ID             int
	ASCII          string
	Title          string
	TitleYomigana  string
	Artist         string
	ArtistYomigana string
	// BPMMin and BPMMax are in hundredths of a beat per minute.
	BPMMin       int
	BPMMax       int
	Volume       string
	Background   string
	InfVer       int
	Difficulties map[chart.Difficulty]DifficultyInfo
	// Source is the database file the entry came from.
	Source string
}

// DB indexes songs by id.
type DB struct {
	songs map[int]*Song
	files []string
	// Shadowed counts entries ignored because an earlier file defined the id.
	Shadowed int
}

// Open loads the music database from dir. With merge set every *.xml file is
// read, music_db.xml first and the rest in name order; the first definition
// of a song id wins. Otherwise only music_db.xml is read.
func Open(dir string, merge bool) (*DB, error) {
	files, err := databaseFiles(dir, merge)
	if err != nil {
		return nil, err
	}
	db := &DB{songs: map[int]*Song{}}
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open music db: %w", err)
		}
		songs, err := Parse(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		for _, song := range songs {
			if _, dup := db.songs[song.ID]; dup {
				db.Shadowed++
				continue
			}
			song.Source = filepath.Base(path)
			db.songs[song.ID] = song
		}
		db.files = append(db.files, path)
	}
	return db, nil
}

func databaseFiles(dir string, merge bool) ([]string, error) {
	primary := filepath.Join(dir, DefaultFileName)
	if !merge {
		if _, err := os.Stat(primary); err != nil {
			return nil, fmt.Errorf("music db: %w", err)
		}
		return []string{primary}, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("list music db files: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("music db: no *.xml files in %s", dir)
	}
	slices.SortFunc(matches, func(a, b string) int {
		pa, pb := filepath.Base(a) == DefaultFileName, filepath.Base(b) == DefaultFileName
		switch {
		case pa && !pb:
			return -1
		case pb && !pa:
			return 1
		}
		return strings.Compare(a, b)
	})
	return matches, nil
}

// Parse decodes a cp932 music database document.
func Parse(r io.Reader) ([]*Song, error) {
	dec := xml.NewDecoder(transform.NewReader(r, japanese.ShiftJIS.NewDecoder()))
	// The body is already UTF-8 once it leaves the transformer; the prolog
	// still names the original charset.
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(label) {
		case "shift-jis", "shift_jis", "sjis", "cp932", "windows-31j", "utf-8":
			return input, nil
		}
		return nil, fmt.Errorf("unsupported charset %q", label)
	}

	var doc xmlDB
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse music db: %w", err)
	}

	songs := make([]*Song, 0, len(doc.Music))
	for _, m := range doc.Music {
		songs = append(songs, newSong(m))
	}
	return songs, nil
}

// ParseBytes is Parse for an in-memory document.
func ParseBytes(data []byte) ([]*Song, error) {
	return Parse(bytes.NewReader(data))
}

func newSong(m xmlMusic) *Song {
	text := func(s string) string {
		return strings.TrimSpace(textutil.FixGlyphs(s))
	}
	song := &Song{
		ID:             m.ID,
		ASCII:          strings.TrimSpace(m.Info.ASCII),
		Title:          text(m.Info.TitleName),
		TitleYomigana:  text(m.Info.TitleYomigana),
		Artist:         text(m.Info.ArtistName),
		ArtistYomigana: text(m.Info.ArtistYomigana),
		BPMMin:         atoi(m.Info.BPMMin),
		BPMMax:         atoi(m.Info.BPMMax),
		Volume:         strings.TrimSpace(m.Info.Volume),
		Background:     strings.TrimSpace(m.Info.BackgroundNo),
		InfVer:         atoi(m.Info.InfVer),
		Difficulties:   map[chart.Difficulty]DifficultyInfo{},
	}
	for _, d := range m.Difficulty.Entries {
		diff := chart.ParseDifficulty(d.XMLName.Local)
		if diff == chart.DifficultyUnknown {
			continue
		}
		song.Difficulties[diff] = DifficultyInfo{
			Level:       strings.TrimSpace(d.Level),
			Illustrator: text(d.Illustrator),
			Effector:    text(d.EffectedBy),
		}
	}
	return song
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// Lookup returns the song with the given id.
func (db *DB) Lookup(songID int) (*Song, error) {
	if db != nil {
		if song, ok := db.songs[songID]; ok {
			return song, nil
		}
	}
	return nil, fmt.Errorf("song %d: %w", songID, ErrSongNotFound)
}

// Len returns the number of distinct songs.
func (db *DB) Len() int { return len(db.songs) }

// Files returns the database files read, in load order.
func (db *DB) Files() []string { return append([]string(nil), db.files...) }

// BPMLabel renders the t= header value from the database BPM range.
func (s *Song) BPMLabel() string {
	lo, hi := s.BPMMin/100, s.BPMMax/100
	if lo <= 0 && hi <= 0 {
		return ""
	}
	if lo == hi || hi <= 0 {
		return strconv.Itoa(lo)
	}
	if lo <= 0 {
		return strconv.Itoa(hi)
	}
	return strconv.Itoa(lo) + "-" + strconv.Itoa(hi)
}

// Record builds the metadata record of one difficulty. Fields the database
// does not have stay empty; the reader decides whether that is fatal.
func (s *Song) Record(diff chart.Difficulty) chart.Record {
	info := s.Difficulties[diff]
	return chart.Record{
		SongID:          s.ID,
		Title:           s.Title,
		Artist:          s.Artist,
		Difficulty:      diff.XMLName(),
		Level:           info.Level,
		SortTitle:       s.TitleYomigana,
		SortArtist:      s.ArtistYomigana,
		Illustrator:     info.Illustrator,
		Effector:        info.Effector,
		Volume:          s.Volume,
		Background:      s.Background,
		BPMLabel:        s.BPMLabel(),
		InfiniteVersion: s.InfVer,
	}
}
