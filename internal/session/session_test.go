package session_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"narrator/internal/config"
	"narrator/internal/events"
	"narrator/internal/jobstore"
	"narrator/internal/narration"
	"narrator/internal/player"
	"narrator/internal/playlist"
	"narrator/internal/segments"
	"narrator/internal/services"
	"narrator/internal/session"
	"narrator/internal/subtitles"
	"narrator/internal/synthesis"
	"narrator/internal/testsupport"
)

type fakeTransport struct {
	mu       sync.Mutex
	calls    []string
	attached *segments.Index
	state    player.PlaybackState
	loadErr  error
}

func (f *fakeTransport) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTransport) Load(_ context.Context, resource string, _ player.RenderTarget) error {
	f.record("load " + filepath.Base(resource))
	if f.loadErr != nil {
		return f.loadErr
	}
	f.mu.Lock()
	f.state.Loaded = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) AttachSegments(_ context.Context, idx *segments.Index) error {
	f.record(fmt.Sprintf("attach %d", idx.Len()))
	f.mu.Lock()
	f.attached = idx
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Play(context.Context) error {
	f.record("play")
	f.mu.Lock()
	f.state.State = player.Playing
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) TogglePlayback(context.Context) error { f.record("toggle"); return nil }

func (f *fakeTransport) Stop(context.Context) error {
	f.record("stop")
	f.mu.Lock()
	f.state.State = player.Stopped
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Seek(_ context.Context, fraction float64) error {
	f.record(fmt.Sprintf("seek %.2f", fraction))
	return nil
}

func (f *fakeTransport) SeekBy(_ context.Context, delta time.Duration) error {
	f.record("seekby " + delta.String())
	return nil
}

func (f *fakeTransport) AdjustVolume(_ context.Context, delta int) error {
	f.record(fmt.Sprintf("volume %+d", delta))
	return nil
}

func (f *fakeTransport) ToggleNarration(_ context.Context, enabled bool) error {
	f.record(fmt.Sprintf("narration %v", enabled))
	f.mu.Lock()
	f.state.NarrationEnabled = enabled
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) State(context.Context) (player.PlaybackState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

type fileSynth struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (f *fileSynth) Synthesize(_ context.Context, req synthesis.Request) error {
	f.mu.Lock()
	f.calls++
	fail := f.fail
	f.mu.Unlock()
	if fail != nil {
		return fail
	}
	return os.WriteFile(req.OutputPath, []byte("mp3:"+req.Text), 0o644)
}

func (f *fileSynth) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) Kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Kind, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.Kind)
	}
	return out
}

func (r *recorder) Progress() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, evt := range r.events {
		if evt.Kind == events.GenerationProgress {
			out = append(out, evt.Percent)
		}
	}
	return out
}

type harness struct {
	cfg       *config.Config
	store     *jobstore.Store
	transport *fakeTransport
	synth     *fileSynth
	bus       *recorder
	session   *session.Session
	video     string
	subtitle  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	h := &harness{
		cfg:       cfg,
		store:     testsupport.MustOpenStore(t, cfg),
		transport: &fakeTransport{state: player.PlaybackState{ActiveSegment: -1}},
		synth:     &fileSynth{},
		bus:       &recorder{},
	}
	h.session = h.open(t)
	h.video, h.subtitle = h.media(t, "film")
	return h
}

func (h *harness) open(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New(context.Background(), session.Options{
		Config:    h.cfg,
		Transport: h.transport,
		Generator: narration.NewWorkflow(h.synth, nil, nil),
		Store:     h.store,
		Bus:       h.bus,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return s
}

func (h *harness) media(t *testing.T, name string) (string, string) {
	t.Helper()
	dir := testsupport.BaseDir(h.cfg)
	video := filepath.Join(dir, "videos", name+".mkv")
	subtitle := filepath.Join(dir, "videos", name+".srt")
	testsupport.WriteFile(t, video, "video")
	testsupport.WriteSRT(t, subtitle,
		subtitles.Cue{StartMs: 0, EndMs: 2000, Text: "Selamat datang"},
		subtitles.Cue{StartMs: 2000, EndMs: 4000, Text: "♪ ♪"},
		subtitles.Cue{StartMs: 4000, EndMs: 6000, Text: "Sampai jumpa"},
	)
	return video, subtitle
}

func (h *harness) addAndPlay(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.session.Add(ctx, h.video, h.subtitle, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.session.PlayCurrent(ctx); err != nil {
		t.Fatalf("play: %v", err)
	}
	h.session.Wait()
}

func TestAddValidatesInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.session.Add(ctx, "/missing.mkv", h.subtitle, ""); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := h.session.Add(ctx, h.video, h.video, ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected unsupported subtitle error, got %v", err)
	}
	if _, err := h.session.Add(ctx, h.video, h.subtitle, "robot"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected unknown voice error, got %v", err)
	}

	idx, err := h.session.Add(ctx, h.video, h.subtitle, "wanita")
	if err != nil || idx != 0 {
		t.Fatalf("add = %d, %v", idx, err)
	}
	saved, err := playlist.Load(h.cfg.Paths.PlaylistFile)
	if err != nil || saved.Len() != 1 {
		t.Fatalf("saved playlist = %v, %v", saved, err)
	}
	entry, _ := saved.At(0)
	job, _ := h.store.Get(ctx, entry.Key())
	if job == nil || job.Status != jobstore.StatusPending || job.Voice != "wanita" {
		t.Fatalf("job = %+v", job)
	}
}

func TestPlayCurrentGeneratesThenPlays(t *testing.T) {
	h := newHarness(t)
	h.addAndPlay(t)

	want := []string{"stop", "load film.mkv", "attach 2", "play"}
	if got := h.transport.Calls(); !slices.Equal(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	if h.synth.Calls() != 2 {
		t.Fatalf("synth calls = %d, want 2", h.synth.Calls())
	}
	if got := h.bus.Progress(); !slices.Equal(got, []int{33, 66, 100}) {
		t.Fatalf("progress = %v", got)
	}
	kinds := h.bus.Kinds()
	if !slices.Contains(kinds, events.GenerationStarted) || !slices.Contains(kinds, events.GenerationComplete) {
		t.Fatalf("events = %v", kinds)
	}

	snap, err := h.session.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	entry := snap.Entries[0]
	if !entry.NarrationReady || entry.NarrationDir != playlist.NarrationDirFor(h.cfg.Paths.NarrationDir, entry) {
		t.Fatalf("entry = %+v", entry)
	}
	if snap.Preparing != "" {
		t.Fatalf("preparing = %q after completion", snap.Preparing)
	}

	job, _ := h.store.Get(context.Background(), entry.Key())
	if job.Status != jobstore.StatusReady || job.SegmentCount != 2 || job.Synthesized != 2 || job.Silent != 1 {
		t.Fatalf("job = %+v", job)
	}
	if _, err := os.Stat(filepath.Join(entry.NarrationDir, "segment_3.mp3")); err != nil {
		t.Fatalf("clip missing: %v", err)
	}
}

func TestReadyEntryReusesManifest(t *testing.T) {
	h := newHarness(t)
	h.addAndPlay(t)

	if err := h.session.PlayCurrent(context.Background()); err != nil {
		t.Fatalf("replay: %v", err)
	}
	h.session.Wait()
	if h.synth.Calls() != 2 {
		t.Fatalf("replay synthesized again: %d calls", h.synth.Calls())
	}
	h.transport.mu.Lock()
	attached := h.transport.attached
	h.transport.mu.Unlock()
	if attached.Len() != 2 || attached.At(1).StartMs != 4000 {
		t.Fatalf("attached = %+v", attached.Segments())
	}
}

func TestGenerationFailurePlaysWithoutNarration(t *testing.T) {
	h := newHarness(t)
	h.synth.fail = errors.New("edge-tts exited 1")
	h.transport.state.NarrationEnabled = true
	h.addAndPlay(t)

	want := []string{"stop", "load film.mkv", "attach 0", "narration false", "play"}
	if got := h.transport.Calls(); !slices.Equal(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	if !slices.Contains(h.bus.Kinds(), events.GenerationError) {
		t.Fatalf("events = %v", h.bus.Kinds())
	}

	snap, _ := h.session.Snapshot(context.Background())
	if snap.Entries[0].NarrationReady {
		t.Fatal("failed entry must not be ready")
	}
	job, _ := h.store.Get(context.Background(), snap.Entries[0].Key())
	if job.Status != jobstore.StatusFailed || job.ErrorMessage == "" {
		t.Fatalf("job = %+v", job)
	}
	if err := h.session.ToggleNarration(context.Background()); !errors.Is(err, session.ErrNarrationNotReady) {
		t.Fatalf("expected ErrNarrationNotReady, got %v", err)
	}
}

func TestToggleNarrationWhenReady(t *testing.T) {
	h := newHarness(t)
	h.addAndPlay(t)
	ctx := context.Background()

	if err := h.session.ToggleNarration(ctx); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := h.session.ToggleNarration(ctx); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	calls := h.transport.Calls()
	if !slices.Equal(calls[len(calls)-2:], []string{"narration true", "narration false"}) {
		t.Fatalf("calls = %v", calls)
	}
}

func TestRemoveCurrentPurgesNarration(t *testing.T) {
	h := newHarness(t)
	h.addAndPlay(t)
	ctx := context.Background()
	snap, _ := h.session.Snapshot(ctx)
	entry := snap.Entries[0]

	if err := h.session.Remove(ctx, 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	calls := h.transport.Calls()
	if calls[len(calls)-1] != "stop" {
		t.Fatalf("remove should stop playback: %v", calls)
	}
	if _, err := os.Stat(entry.NarrationDir); !os.IsNotExist(err) {
		t.Fatal("narration directory should be deleted")
	}
	if job, _ := h.store.Get(ctx, entry.Key()); job != nil {
		t.Fatalf("job should be deleted: %+v", job)
	}
	if err := h.session.PlayCurrent(ctx); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected empty playlist error, got %v", err)
	}
}

// heldGenerator blocks before delegating, standing in for the subtitle and
// ledger work that runs ahead of the workflow.
type heldGenerator struct {
	entered chan struct{}
	release chan struct{}
	next    session.Generator
}

func (g *heldGenerator) Generate(ctx context.Context, req narration.Request, progress narration.ProgressFunc) (narration.Result, error) {
	close(g.entered)
	<-g.release
	return g.next.Generate(ctx, req, progress)
}

func TestRemoveWaitsForCancelledPreparation(t *testing.T) {
	h := newHarness(t)
	gen := &heldGenerator{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		next:    narration.NewWorkflow(h.synth, nil, nil),
	}
	s, err := session.New(context.Background(), session.Options{
		Config:    h.cfg,
		Transport: h.transport,
		Generator: gen,
		Store:     h.store,
		Bus:       h.bus,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	ctx := context.Background()
	if _, err := s.Add(ctx, h.video, h.subtitle, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	snap, _ := s.Snapshot(ctx)
	entry := snap.Entries[0]
	dir := playlist.NarrationDirFor(h.cfg.Paths.NarrationDir, entry)

	if err := s.PlayCurrent(ctx); err != nil {
		t.Fatalf("play: %v", err)
	}
	<-gen.entered

	removed := make(chan error, 1)
	go func() { removed <- s.Remove(ctx, 0) }()
	deadline := time.Now().Add(5 * time.Second)
	for {
		snap, _ := s.Snapshot(ctx)
		if len(snap.Entries) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("entry was never removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	select {
	case err := <-removed:
		t.Fatalf("remove returned before preparation finished: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(gen.release)
	if err := <-removed; err != nil {
		t.Fatalf("remove: %v", err)
	}
	s.Wait()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		entries, _ := os.ReadDir(dir)
		t.Fatalf("narration directory %s outlived its entry: %v", dir, entries)
	}
	if job, _ := h.store.Get(ctx, entry.Key()); job != nil {
		t.Fatalf("job should be deleted: %+v", job)
	}
	if h.synth.Calls() != 0 {
		t.Fatalf("cancelled preparation synthesized %d clips", h.synth.Calls())
	}
}

func TestNextPreviousAtBounds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.session.Add(ctx, h.video, h.subtitle, "")
	otherVideo, otherSub := h.media(t, "sequel")
	h.session.Add(ctx, otherVideo, otherSub, "")

	if err := h.session.Previous(ctx); err != nil {
		t.Fatalf("previous: %v", err)
	}
	if len(h.transport.Calls()) != 0 {
		t.Fatal("previous at the start must not play")
	}

	if err := h.session.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	h.session.Wait()
	if !slices.Contains(h.transport.Calls(), "load sequel.mkv") {
		t.Fatalf("calls = %v", h.transport.Calls())
	}
	before := len(h.transport.Calls())
	h.session.Next(ctx)
	if len(h.transport.Calls()) != before {
		t.Fatal("next at the end must not play")
	}

	if err := h.session.Select(ctx, 0); err != nil {
		t.Fatalf("select: %v", err)
	}
	h.session.Wait()
	calls := h.transport.Calls()
	if calls[len(calls)-1] != "play" || !slices.Contains(calls[before:], "load film.mkv") {
		t.Fatalf("calls = %v", calls)
	}
}

func TestClosePersistsAndReloads(t *testing.T) {
	h := newHarness(t)
	h.addAndPlay(t)
	if err := h.session.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := h.open(t)
	snap, err := reopened.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Entries) != 1 || snap.Current != 0 || !snap.Entries[0].NarrationReady {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestMalformedPlaylistStartsEmpty(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteFile(t, h.cfg.Paths.PlaylistFile, `{"version":1,"bogus":true}`)

	s := h.open(t)
	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Entries) != 0 || snap.Current != -1 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestTransportPassthrough(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.session.TogglePlayback(ctx)
	h.session.Seek(ctx, 0.5)
	h.session.SeekBy(ctx, -5*time.Second)
	h.session.AdjustVolume(ctx, 5)
	h.session.Stop(ctx)

	want := []string{"toggle", "seek 0.50", "seekby -5s", "volume +5", "stop"}
	if got := h.transport.Calls(); !slices.Equal(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestDescribe(t *testing.T) {
	if got := session.Describe(session.ErrNarrationNotReady); got != "Narration is not ready for this video yet" {
		t.Fatalf("describe = %q", got)
	}
	err := &narration.SynthesisError{CueIndex: 3, Text: "x", Err: errors.New("boom")}
	if got := session.Describe(err); got != "Narration failed at cue 4: boom" {
		t.Fatalf("describe = %q", got)
	}
	if session.Describe(nil) != "" {
		t.Fatal("nil error describes as empty")
	}
}
