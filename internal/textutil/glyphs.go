package textutil

import "strings"

// glyphFixer repairs music database text. The game stores a handful of
// decorated letters in private kanji slots that decode to unrelated CJK
// characters; they are dropped, and the overline becomes a tilde.
var glyphFixer = strings.NewReplacer(
	"‾", "~",
	"〜", "",
	"䧺", "",
	"彜", "",
	"曦", "",
	"曩", "",
	"罇", "",
	"躔", "",
	"騫", "",
	"驩", "",
	"驫", "",
	"驪", "",
	"骭", "",
	"鬯", "",
	"黷", "",
	"齣", "",
	"齧", "",
	"霻", "",
	"齪", "",
	"鑈", "",
	"齲", "",
	"齶", "",
	"齷", "",
)

// FixGlyphs applies the music database glyph repairs to s.
func FixGlyphs(s string) string {
	return glyphFixer.Replace(s)
}
