package narration

import "fmt"

// SynthesisError reports the cue whose synthesis aborted a run.
type SynthesisError struct {
	CueIndex int
	Text     string
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize cue %d (%q): %v", e.CueIndex+1, e.Text, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
