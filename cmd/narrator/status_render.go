package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type checkLevel int

const (
	levelInfo checkLevel = iota
	levelOK
	levelWarn
	levelFail
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const checkLabelWidth = 22

func (l checkLevel) label() string {
	switch l {
	case levelOK:
		return "OK"
	case levelWarn:
		return "WARN"
	case levelFail:
		return "FAIL"
	default:
		return "INFO"
	}
}

func (l checkLevel) color() string {
	switch l {
	case levelOK:
		return ansiGreen
	case levelWarn:
		return ansiYellow
	case levelFail:
		return ansiRed
	default:
		return ansiBlue
	}
}

// checkLine renders "  Label:   [OK] detail", colored when colorize is set.
func checkLine(label string, level checkLevel, detail string, colorize bool) string {
	status := "[" + level.label() + "]"
	if detail != "" {
		status += " " + detail
	}
	line := fmt.Sprintf("  %-*s %s", checkLabelWidth, label+":", status)
	if colorize {
		return level.color() + line + ansiReset
	}
	return line
}

func sectionHeader(title string, colorize bool) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if colorize {
		return ansiBlue + line + ansiReset
	}
	return line
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
