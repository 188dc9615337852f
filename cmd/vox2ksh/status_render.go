package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"vox2ksh/internal/history"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	statusLabelWidth = 28
	statusIndent     = "  "
)

// palette colours CLI output. A disabled palette returns text unchanged.
type palette struct {
	enabled bool
}

func newPalette(w io.Writer) palette {
	return palette{enabled: shouldColorize(w)}
}

func (p palette) paint(attr color.Attribute, s string) string {
	c := color.New(attr)
	if p.enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

func (p palette) kind(kind statusKind, s string) string {
	return p.paint(statusKindColor(kind), s)
}

func renderStatusLine(label string, kind statusKind, message string, p palette) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	return p.kind(kind, fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText))
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) color.Attribute {
	switch kind {
	case statusOK:
		return color.FgGreen
	case statusWarn:
		return color.FgYellow
	case statusError:
		return color.FgRed
	default:
		return color.FgBlue
	}
}

func resultStatusKind(status history.Status) statusKind {
	switch status {
	case history.StatusConverted:
		return statusOK
	case history.StatusSkipped:
		return statusWarn
	case history.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}

func runStatusKind(status history.RunStatus) statusKind {
	switch status {
	case history.RunCompleted:
		return statusOK
	case history.RunAborted:
		return statusError
	default:
		return statusWarn
	}
}

func renderSectionHeader(title string, p palette) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	return []string{p.kind(statusInfo, line), p.kind(statusInfo, rule)}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isTerminal(file)
}

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
