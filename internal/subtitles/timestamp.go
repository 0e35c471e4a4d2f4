package subtitles

import (
	"fmt"
	"strconv"
	"strings"
)

// parseTimestamp accepts HH:MM:SS,mmm, HH:MM:SS.mmm, and the WebVTT short
// form MM:SS.mmm, returning milliseconds.
func parseTimestamp(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	normalized := strings.ReplaceAll(value, ",", ".")
	clock, fraction, hasFraction := strings.Cut(normalized, ".")

	fields := strings.Split(clock, ":")
	if len(fields) == 2 {
		fields = append([]string{"0"}, fields...)
	}
	if len(fields) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(fields[0])
	minutes, errM := strconv.Atoi(fields[1])
	seconds, errS := strconv.Atoi(fields[2])
	if errH != nil || errM != nil || errS != nil || hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}

	var millis int
	if hasFraction {
		if fraction == "" || len(fraction) > 3 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		// "5" means 500ms, "05" means 50ms.
		padded := fraction + strings.Repeat("0", 3-len(fraction))
		ms, err := strconv.Atoi(padded)
		if err != nil || ms < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		millis = ms
	}
	total := int64(hours)*3_600_000 + int64(minutes)*60_000 + int64(seconds)*1000 + int64(millis)
	return total, nil
}

// FormatTimestamp renders milliseconds as HH:MM:SS,mmm.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}
