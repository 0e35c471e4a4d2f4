package playerrun

import (
	"fmt"
	"io"

	"narrator/internal/events"
)

// writeErrorSummary prints the errors the session raised while the terminal
// UI owned the screen. Nothing is written when there were none.
func writeErrorSummary(w io.Writer, recent []events.Event, logPath string) {
	var lines []string
	for _, evt := range recent {
		switch evt.Kind {
		case events.Error, events.GenerationError:
		default:
			continue
		}
		line := evt.Message
		if evt.Entry != "" {
			line = evt.Entry + ": " + line
		}
		if evt.Err != nil {
			line += ": " + evt.Err.Error()
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "%d error(s) during this session (full log: %s)\n", len(lines), logPath)
	for _, line := range lines {
		fmt.Fprintf(w, "  %s\n", line)
	}
}
