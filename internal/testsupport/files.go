package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"

	"vox2ksh/internal/chart"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// EncodeCP932 converts UTF-8 text to the game's code page.
func EncodeCP932(t testing.TB, text string) []byte {
	t.Helper()

	out, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(text))
	if err != nil {
		t.Fatalf("encode cp932: %v", err)
	}
	return out
}

// VoxName returns the file name the game uses for a chart.
func VoxName(game, songID int, name string, diff chart.Difficulty) string {
	return fmt.Sprintf("%03d_%04d_%s_%d%s.vox", game, songID, name, int(diff), diff.Letter())
}

// WriteVox writes a cp932 chart into dir and returns its path.
func WriteVox(t testing.TB, dir string, game, songID int, name string, diff chart.Difficulty, body string) string {
	t.Helper()

	path := filepath.Join(dir, VoxName(game, songID, name, diff))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, EncodeCP932(t, body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// SampleVox returns a small valid chart: 4/4 at 120 BPM, one chip on BT-A,
// one hold on BT-B, an FX chip with chip sound 3 and a left laser sweep
// that ends in a slam.
func SampleVox() string {
	return strings.Join([]string{
		"//====================================",
		"// SOUND VOLTEX OUTPUT TEXT FILE",
		"//====================================",
		"",
		"#FORMAT VERSION",
		"10",
		"#END",
		"",
		"#BEAT INFO",
		"001,01,00\t4\t4",
		"#END",
		"",
		"#BPM INFO",
		"001,01,00\t120.00\t4",
		"#END",
		"",
		"#TILT MODE INFO",
		"001,01,00\t0",
		"#END",
		"",
		"#END POSITION",
		"003,01,00",
		"#END",
		"",
		"#TRACK1",
		"001,01,00\t0\t1\t0\t0\t1\t0",
		"001,03,00\t127\t0\t0\t0\t1\t0",
		"001,03,00\t0\t2\t0\t0\t1\t0",
		"#END",
		"",
		"#TRACK2",
		"002,01,00\t0\t3",
		"#END",
		"",
		"#TRACK3",
		"001,01,00\t0\t0",
		"#END",
		"",
		"#TRACK4",
		"001,02,00\t96\t0",
		"#END",
		"",
		"#TRACK5",
		"#END",
		"",
		"#TRACK6",
		"#END",
		"",
		"#TRACK7",
		"#END",
		"",
		"#TRACK8",
		"#END",
		"",
	}, "\n")
}

// MusicDBEntry describes one song for WriteMusicDB.
type MusicDBEntry struct {
	ID     int
	Title  string
	Artist string
	ASCII  string
	// Levels maps difficulties to their level; missing ones are omitted.
	Levels map[chart.Difficulty]int
}

// WriteMusicDB writes a cp932 music database named name into dir.
func WriteMusicDB(t testing.TB, dir, name string, entries ...MusicDBEntry) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"shift-jis\"?>\n<mdb>\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "  <music id=\"%d\">\n    <info>\n", e.ID)
		fmt.Fprintf(&b, "      <title_name>%s</title_name>\n", e.Title)
		fmt.Fprintf(&b, "      <artist_name>%s</artist_name>\n", e.Artist)
		fmt.Fprintf(&b, "      <ascii>%s</ascii>\n", e.ASCII)
		b.WriteString("      <bpm_max __type=\"u32\">12000</bpm_max>\n")
		b.WriteString("      <bpm_min __type=\"u32\">12000</bpm_min>\n")
		b.WriteString("      <volume __type=\"u16\">95</volume>\n")
		b.WriteString("      <inf_ver __type=\"u8\">2</inf_ver>\n")
		b.WriteString("    </info>\n    <difficulty>\n")
		for _, diff := range []chart.Difficulty{
			chart.DifficultyNovice,
			chart.DifficultyAdvanced,
			chart.DifficultyExhaust,
			chart.DifficultyInfinite,
			chart.DifficultyMaximum,
		} {
			level, ok := e.Levels[diff]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "      <%s>\n        <difnum __type=\"u8\">%d</difnum>\n", diff.XMLName(), level)
			b.WriteString("        <illustrator>illust</illustrator>\n        <effected_by>effector</effected_by>\n")
			fmt.Fprintf(&b, "      </%s>\n", diff.XMLName())
		}
		b.WriteString("    </difficulty>\n  </music>\n")
	}
	b.WriteString("</mdb>\n")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, EncodeCP932(t, b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
