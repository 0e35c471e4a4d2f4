package playlist

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"narrator/internal/textutil"
)

// Entry is one video with its subtitle track and narration state.
type Entry struct {
	VideoPath    string
	SubtitlePath string
	Voice        string
	// NarrationDir is empty until narration has been generated.
	NarrationDir   string
	NarrationReady bool
}

// Title is the video file name without its extension.
func (e Entry) Title() string {
	base := filepath.Base(e.VideoPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Key identifies the entry's narration: the sanitized title plus a short
// hash of the video, subtitle and voice. Changing any of them yields a new
// key and therefore a fresh narration directory.
func (e Entry) Key() string {
	sum := sha256.Sum256([]byte(e.VideoPath + "\x00" + e.SubtitlePath + "\x00" + strings.ToLower(e.Voice)))
	return textutil.SanitizeToken(e.Title()) + "-" + hex.EncodeToString(sum[:4])
}

// NarrationDirFor returns where the entry's narration clips live under root.
func NarrationDirFor(root string, e Entry) string {
	return filepath.Join(root, e.Key())
}
