package subtitles

import "unicode"

// Speakable reports whether a cue has anything a voice can read: at least one
// letter or digit. Music markers and bare punctuation are not speakable.
func Speakable(c Cue) bool {
	for _, r := range c.Text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
