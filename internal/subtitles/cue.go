package subtitles

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"narrator/internal/services"
)

// Format identifies a subtitle container.
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// Cue is one timed subtitle entry.
type Cue struct {
	StartMs int64
	EndMs   int64
	Text    string
}

// DurationMs returns the cue length, never negative.
func (c Cue) DurationMs() int64 {
	if c.EndMs <= c.StartMs {
		return 0
	}
	return c.EndMs - c.StartMs
}

// FormatForPath infers the subtitle format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT, nil
	case ".vtt":
		return FormatVTT, nil
	default:
		return "", services.Wrap(services.ErrValidation, "subtitles", "detect format",
			fmt.Sprintf("unsupported subtitle extension %q", filepath.Ext(path)), nil)
	}
}

// ParseFile reads the subtitle file at path.
func ParseFile(path string) ([]Cue, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "subtitles", "open", path, err)
	}
	defer f.Close()
	cues, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cues, nil
}

// Parse reads cues from r. Blocks without a valid timing line are skipped;
// a timing line that cannot be parsed is an error.
func Parse(r io.Reader, format Format) ([]Cue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var (
		cues    []Cue
		block   []string
		lineNum int
	)
	flush := func() error {
		defer func() { block = block[:0] }()
		cue, ok, err := parseBlock(block, format)
		if err != nil {
			return services.Wrap(services.ErrValidation, "subtitles", "parse", fmt.Sprintf("block ending at line %d", lineNum), err)
		}
		if ok {
			cues = append(cues, cue)
		}
		return nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if len(block) > 0 {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan subtitles: %w", err)
	}
	if len(block) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return cues, nil
}

func parseBlock(lines []string, format Format) (Cue, bool, error) {
	timing := -1
	for i, line := range lines {
		if strings.Contains(line, "-->") {
			timing = i
			break
		}
	}
	// WEBVTT header, NOTE, STYLE, and REGION blocks carry no timing line.
	if timing < 0 {
		return Cue{}, false, nil
	}
	if format == FormatVTT && isVTTMetadata(lines[0]) {
		return Cue{}, false, nil
	}
	start, end, err := parseTimingLine(lines[timing])
	if err != nil {
		return Cue{}, false, err
	}
	text := cleanText(lines[timing+1:])
	return Cue{StartMs: start, EndMs: end, Text: text}, true, nil
}

func isVTTMetadata(first string) bool {
	for _, prefix := range []string{"WEBVTT", "NOTE", "STYLE", "REGION"} {
		if strings.HasPrefix(first, prefix) {
			return true
		}
	}
	return false
}

func parseTimingLine(line string) (int64, int64, error) {
	parts := strings.SplitN(line, "-->", 2)
	start, err := parseTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}
	// WebVTT cue settings follow the end timestamp.
	endField := strings.Fields(parts[1])
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp in %q", line)
	}
	end, err := parseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	assStylePattern = regexp.MustCompile(`\{\\[^}]*\}`)
)

func cleanText(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = tagPattern.ReplaceAllString(line, "")
		line = assStylePattern.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
