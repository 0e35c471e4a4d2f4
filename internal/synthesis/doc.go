// Package synthesis turns narration text into audio files.
//
// Service is the seam the narration workflow depends on. EdgeTTS implements
// it by running the edge-tts command line tool once per clip and moving the
// finished file into place, so a file present at the output path always
// holds a complete clip.
package synthesis
