package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  Hello World ": "Hello World",
		"a/b\\c:d*e":     "a-b-c-d-e",
		`what?"<>|`:      "what",
		"../escape":      "-escape",
		"...":            "",
		"max_burning!!":  "max_burning!!",
		"":               "",
		"tab\there. .":   "tabhere",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFixGlyphs(t *testing.T) {
	cases := map[string]string{
		"plain":     "plain",
		"a‾b":       "a~b",
		"驫STAR齲":    "STAR",
		"question?": "question?",
		"〜wave〜":    "wave",
	}
	for in, want := range cases {
		if got := FixGlyphs(in); got != want {
			t.Errorf("FixGlyphs(%q) = %q, want %q", in, got, want)
		}
	}
}
