package playlist

import (
	"fmt"
	"strings"

	"narrator/internal/services"
)

// Playlist is an ordered list of entries with a current selection.
// It is not safe for concurrent use.
type Playlist struct {
	entries []Entry
	current int
}

// New returns an empty playlist.
func New() *Playlist {
	return &Playlist{current: -1}
}

func (p *Playlist) Len() int {
	return len(p.entries)
}

// Entries returns a copy of the entries.
func (p *Playlist) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// At returns entry i.
func (p *Playlist) At(i int) (Entry, error) {
	if err := p.checkIndex(i); err != nil {
		return Entry{}, err
	}
	return p.entries[i], nil
}

// CurrentIndex is -1 for an empty playlist.
func (p *Playlist) CurrentIndex() int {
	return p.current
}

// Current returns the selected entry.
func (p *Playlist) Current() (Entry, bool) {
	if p.current < 0 || p.current >= len(p.entries) {
		return Entry{}, false
	}
	return p.entries[p.current], true
}

// Add appends an entry and returns its index. The first entry added becomes
// current.
func (p *Playlist) Add(e Entry) (int, error) {
	e.VideoPath = strings.TrimSpace(e.VideoPath)
	e.SubtitlePath = strings.TrimSpace(e.SubtitlePath)
	e.Voice = strings.TrimSpace(e.Voice)
	if e.VideoPath == "" || e.SubtitlePath == "" {
		return -1, services.Wrap(services.ErrValidation, "playlist", "add", "video and subtitle paths are required", nil)
	}
	for i, existing := range p.entries {
		if existing.Key() == e.Key() {
			return i, services.Wrap(services.ErrValidation, "playlist", "add",
				fmt.Sprintf("%s is already entry %d", e.Title(), i+1), nil)
		}
	}
	p.entries = append(p.entries, e)
	if p.current < 0 {
		p.current = 0
	}
	return len(p.entries) - 1, nil
}

// Remove deletes entry i and returns it. The selection stays on the same
// entry when possible, otherwise it moves to the entry that took i's place.
func (p *Playlist) Remove(i int) (Entry, error) {
	if err := p.checkIndex(i); err != nil {
		return Entry{}, err
	}
	removed := p.entries[i]
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
	switch {
	case len(p.entries) == 0:
		p.current = -1
	case i < p.current:
		p.current--
	case p.current >= len(p.entries):
		p.current = len(p.entries) - 1
	}
	return removed, nil
}

// Select makes entry i current.
func (p *Playlist) Select(i int) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	p.current = i
	return nil
}

// Next advances the selection. It reports false at the end of the list.
func (p *Playlist) Next() (Entry, bool) {
	if p.current+1 >= len(p.entries) {
		return Entry{}, false
	}
	p.current++
	return p.entries[p.current], true
}

// Previous moves the selection back. It reports false at the start.
func (p *Playlist) Previous() (Entry, bool) {
	if p.current <= 0 {
		return Entry{}, false
	}
	p.current--
	return p.entries[p.current], true
}

// MarkReady records generated narration for entry i. It reports false when
// the entry was already ready, leaving it untouched.
func (p *Playlist) MarkReady(i int, dir string) (bool, error) {
	if err := p.checkIndex(i); err != nil {
		return false, err
	}
	if p.entries[i].NarrationReady {
		return false, nil
	}
	p.entries[i].NarrationDir = dir
	p.entries[i].NarrationReady = true
	return true, nil
}

// IndexOf finds the entry with the given key.
func (p *Playlist) IndexOf(key string) int {
	for i, e := range p.entries {
		if e.Key() == key {
			return i
		}
	}
	return -1
}

func (p *Playlist) checkIndex(i int) error {
	if i < 0 || i >= len(p.entries) {
		return services.Wrap(services.ErrNotFound, "playlist", "lookup",
			fmt.Sprintf("entry %d out of range (playlist has %d)", i+1, len(p.entries)), nil)
	}
	return nil
}
