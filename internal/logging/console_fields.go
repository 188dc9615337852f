package logging

import (
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
)

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 8

// infoHighlightKeys are listed first, in this order, under an info line.
var infoHighlightKeys = []string{
	FieldEventType,
	"error",
	FieldErrorKind,
	FieldErrorHint,
	"field",
	"line",
	"song_id",
	"difficulty",
	"title",
	"status",
	"charts",
	"converted",
	"failed",
	"skipped",
	"warnings",
	"output",
	"output_bytes",
	"elapsed",
}

// selectInfoFields orders fields by infoHighlightKeys and formats at most limit
// of them; limit 0 means no limit. It also reports how many were left out.
func selectInfoFields(fields []field, limit int) ([]infoField, int) {
	ordered := make([]field, 0, len(fields))
	placed := make(map[string]bool, len(infoHighlightKeys))
	for _, key := range infoHighlightKeys {
		for _, f := range fields {
			if f.key == key {
				ordered = append(ordered, f)
				placed[key] = true
				break
			}
		}
	}
	for _, f := range fields {
		if !placed[f.key] {
			ordered = append(ordered, f)
		}
	}

	var shown []infoField
	hidden := 0
	for _, f := range ordered {
		switch {
		case skipInfoKey(f.key):
		case isDebugOnlyKey(f.key), limit > 0 && len(shown) >= limit:
			hidden++
		default:
			shown = append(shown, infoField{label: displayLabel(f.key), value: formatValueForKey(f.key, f.value)})
		}
	}
	return shown, hidden
}

// formatValueForKey renders sizes and booleans for people rather than parsers.
func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	if isByteSizeKey(key) {
		switch v.Kind() {
		case slog.KindInt64:
			if v.Int64() >= 0 {
				return humanize.Bytes(uint64(v.Int64()))
			}
		case slog.KindUint64:
			return humanize.Bytes(v.Uint64())
		}
	}
	if v.Kind() == slog.KindBool {
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	value := formatValue(v)
	if key == "error" {
		value = truncateErrorValue(value)
	}
	return value
}

func isByteSizeKey(key string) bool {
	return strings.HasSuffix(key, "_bytes") || key == "size"
}

func truncateErrorValue(value string) string {
	const maxLen = 200
	value = strings.TrimSpace(value)
	if len(value) > maxLen {
		value = value[:maxLen] + "…"
	}
	return value
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldComponent, FieldRunID, FieldChartID:
		return true
	}
	return false
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case "source", "path", "alphabet", "workers":
		return true
	}
	return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorKind:
		return "Kind"
	case FieldErrorHint:
		return "Hint"
	case "song_id":
		return "Song"
	case "output_bytes":
		return "Size"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	if key == "" {
		return ""
	}
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		parts[i] = capitalizeASCII(part)
	}
	return strings.Join(parts, " ")
}

func capitalizeASCII(value string) string {
	switch len(value) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(value)
	default:
		lower := strings.ToLower(value)
		return strings.ToUpper(lower[:1]) + lower[1:]
	}
}
