package playlist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Version is the playlist file format version.
const Version = 1

type fileEntry struct {
	VideoPath      *string `json:"video_path"`
	SubtitlePath   *string `json:"subtitle_path"`
	NarrationDir   *string `json:"narration_dir"`
	Voice          *string `json:"voice"`
	NarrationReady *bool   `json:"narration_ready"`
}

type fileDoc struct {
	Version      *int        `json:"version"`
	CurrentIndex *int        `json:"current_index"`
	Entries      []fileEntry `json:"entries"`
}

// Load reads the playlist at path. A missing file yields an empty playlist
// and no error; an unreadable or invalid file yields an empty playlist and
// the reason.
func Load(path string) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return New(), fmt.Errorf("read playlist: %w", err)
	}
	p, err := Decode(bytes.NewReader(data))
	if err != nil {
		return New(), fmt.Errorf("decode playlist %s: %w", path, err)
	}
	return p, nil
}

// Decode parses a playlist document.
func Decode(r io.Reader) (*Playlist, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc fileDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after playlist document")
	}
	if doc.Version == nil {
		return nil, errors.New("missing version")
	}
	if *doc.Version != Version {
		return nil, fmt.Errorf("unsupported version %d", *doc.Version)
	}
	if doc.CurrentIndex == nil {
		return nil, errors.New("missing current_index")
	}

	p := New()
	for i, fe := range doc.Entries {
		e, err := fe.entry()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		p.entries = append(p.entries, e)
	}

	idx := *doc.CurrentIndex
	switch {
	case len(p.entries) == 0 && idx != -1:
		return nil, fmt.Errorf("current_index %d on empty playlist", idx)
	case len(p.entries) > 0 && (idx < 0 || idx >= len(p.entries)):
		return nil, fmt.Errorf("current_index %d out of range", idx)
	}
	p.current = idx
	return p, nil
}

func (fe fileEntry) entry() (Entry, error) {
	var missing []string
	if fe.VideoPath == nil || strings.TrimSpace(*fe.VideoPath) == "" {
		missing = append(missing, "video_path")
	}
	if fe.SubtitlePath == nil || strings.TrimSpace(*fe.SubtitlePath) == "" {
		missing = append(missing, "subtitle_path")
	}
	if fe.Voice == nil {
		missing = append(missing, "voice")
	}
	if fe.NarrationReady == nil {
		missing = append(missing, "narration_ready")
	}
	if len(missing) > 0 {
		return Entry{}, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	e := Entry{
		VideoPath:      *fe.VideoPath,
		SubtitlePath:   *fe.SubtitlePath,
		Voice:          *fe.Voice,
		NarrationReady: *fe.NarrationReady,
	}
	if fe.NarrationDir != nil {
		e.NarrationDir = *fe.NarrationDir
	}
	if e.NarrationReady && e.NarrationDir == "" {
		return Entry{}, errors.New("narration_ready without narration_dir")
	}
	return e, nil
}

// Encode writes p as an indented JSON document.
func Encode(w io.Writer, p *Playlist) error {
	version := Version
	current := p.current
	doc := fileDoc{Version: &version, CurrentIndex: &current, Entries: make([]fileEntry, 0, len(p.entries))}
	for _, e := range p.entries {
		fe := fileEntry{
			VideoPath:      &e.VideoPath,
			SubtitlePath:   &e.SubtitlePath,
			Voice:          &e.Voice,
			NarrationReady: &e.NarrationReady,
		}
		if e.NarrationDir != "" {
			fe.NarrationDir = &e.NarrationDir
		}
		doc.Entries = append(doc.Entries, fe)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Save writes p to path atomically.
func Save(path string, p *Playlist) error {
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return fmt.Errorf("encode playlist: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create playlist directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".playlist-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// PurgeNarration deletes an entry's narration directory. Directories outside
// root are never touched.
func PurgeNarration(root string, e Entry) error {
	dir := e.NarrationDir
	if dir == "" {
		dir = NarrationDirFor(root, e)
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to delete %s: outside narration root %s", dir, root)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove narration directory: %w", err)
	}
	return nil
}
