package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"narrator/internal/config"
	"narrator/internal/playerrun"
	"narrator/internal/subtitles"
	"narrator/internal/testsupport"
)

const edgeTTSStub = `while [ $# -gt 0 ]; do
  if [ "$1" = "--write-media" ]; then
    shift
    printf 'mp3' > "$1"
  fi
  shift
done
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("mpv", "ffprobe"))
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	testsupport.StubBinary(t, base, "edge-tts", edgeTTSStub)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nnarration_dir = %q\nlog_dir = %q\nplaylist_file = %q\n\n[ffprobe]\nprobe_clips = false\n",
		cfg.Paths.DataDir,
		cfg.Paths.NarrationDir,
		cfg.Paths.LogDir,
		cfg.Paths.PlaylistFile,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func (env *cliTestEnv) media(t *testing.T, name string) (string, string) {
	t.Helper()
	video := filepath.Join(env.baseDir, "videos", name+".mp4")
	subtitle := filepath.Join(env.baseDir, "videos", name+".srt")
	testsupport.WriteFile(t, video, "video")
	testsupport.WriteSRT(t, subtitle,
		subtitles.Cue{StartMs: 1000, EndMs: 3000, Text: "Halo semua"},
		subtitles.Cue{StartMs: 3000, EndMs: 4000, Text: "♪ ♪"},
		subtitles.Cue{StartMs: 5000, EndMs: 7000, Text: "Terima kasih"},
	)
	return video, subtitle
}

func TestPlaylistCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	first, firstSub := env.media(t, "Episode One")
	second, secondSub := env.media(t, "Episode Two")

	out, _, err := runCLI(t, env.configPath, "playlist", "list")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	requireContains(t, out, "Playlist is empty")

	out, _, err = runCLI(t, env.configPath, "playlist", "add", first, firstSub)
	if err != nil {
		t.Fatalf("add first: %v", err)
	}
	requireContains(t, out, "Added #1 Episode One (voice pria)")

	out, _, err = runCLI(t, env.configPath, "playlist", "add", "--voice", "wanita", second, secondSub)
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	requireContains(t, out, "Added #2 Episode Two (voice wanita)")

	if _, _, err := runCLI(t, env.configPath, "playlist", "add", first, firstSub); err == nil {
		t.Fatal("duplicate add should fail")
	}
	if _, _, err := runCLI(t, env.configPath, "playlist", "add", first, first); err == nil {
		t.Fatal("unsupported subtitle should fail")
	}

	out, _, err = runCLI(t, env.configPath, "playlist", "select", "2")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	requireContains(t, out, "Current entry: #2 Episode Two")

	out, _, err = runCLI(t, env.configPath, "playlist", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "Episode One")
	requireContains(t, out, "wanita")

	out, _, err = runCLI(t, env.configPath, "jobs")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, "episode_one-")
	requireContains(t, out, "2 pending")

	out, _, err = runCLI(t, env.configPath, "playlist", "remove", "1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	requireContains(t, out, "Removed Episode One")

	if _, _, err := runCLI(t, env.configPath, "playlist", "remove", "5"); err == nil {
		t.Fatal("out of range remove should fail")
	}

	out, _, err = runCLI(t, env.configPath, "jobs", "--status", "pending")
	if err != nil {
		t.Fatalf("jobs filtered: %v", err)
	}
	if strings.Contains(out, "episode_one-") {
		t.Fatalf("removed entry still in ledger:\n%s", out)
	}
	if _, _, err := runCLI(t, env.configPath, "jobs", "--status", "bogus"); err == nil {
		t.Fatal("unknown status should fail")
	}
}

func TestPlaylistEditsRefusedWhilePlayerRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	video, subtitle := env.media(t, "Locked")
	if err := env.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	lock, err := playerrun.AcquireLock(env.cfg)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer lock.Unlock()

	_, _, err = runCLI(t, env.configPath, "playlist", "add", video, subtitle)
	if err == nil {
		t.Fatal("add should fail while the player runs")
	}
	requireContains(t, err.Error(), "quit the player")

	if _, _, err := runCLI(t, env.configPath, "playlist", "list"); err != nil {
		t.Fatalf("list is read-only and should work: %v", err)
	}
}

func TestGenerateCommandIsIdempotent(t *testing.T) {
	env := setupCLITestEnv(t)
	_, subtitle := env.media(t, "Film")
	outDir := filepath.Join(env.baseDir, "out")

	out, _, err := runCLI(t, env.configPath, "generate", subtitle, "--out", outDir, "--voice", "en-US-AriaNeural")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	requireContains(t, out, "with en-US-AriaNeural at speed 1.15")
	requireContains(t, out, "100%")
	requireContains(t, out, "Done: 2 segments (2 synthesized, 0 cached, 1 silent)")
	for _, name := range []string{"segment_1.mp3", "segment_3.mp3"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "segment_2.mp3")); !os.IsNotExist(err) {
		t.Fatal("silent cue should have no clip")
	}

	out, _, err = runCLI(t, env.configPath, "generate", subtitle, "--out", outDir, "--speed", "2")
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	requireContains(t, out, "at speed 2.00")
	requireContains(t, out, "(0 synthesized, 2 cached, 1 silent)")
}

func TestGenerateRejectsUnknownVoice(t *testing.T) {
	env := setupCLITestEnv(t)
	_, subtitle := env.media(t, "Film")
	if _, _, err := runCLI(t, env.configPath, "generate", subtitle, "--voice", "robot"); err == nil {
		t.Fatal("unknown voice should fail")
	}
}

func TestSegmentsCommandReportsStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	video, subtitle := env.media(t, "Pending")
	if _, _, err := runCLI(t, env.configPath, "playlist", "add", video, subtitle); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, _, err := runCLI(t, env.configPath, "segments", "1")
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	requireContains(t, out, "is pending")

	if _, _, err := runCLI(t, env.configPath, "segments", "missing-key"); err == nil {
		t.Fatal("unknown key should fail")
	}
}

func TestDoctorCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env.configPath, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "[OK]")
	requireContains(t, out, "All required checks passed")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env.configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications are disabled")
}

func TestFormatMs(t *testing.T) {
	tests := map[int64]string{
		0:         "0:00:00.000",
		1500:      "0:00:01.500",
		3_725_042: "1:02:05.042",
	}
	for ms, want := range tests {
		if got := formatMs(ms); got != want {
			t.Errorf("formatMs(%d) = %q, want %q", ms, got, want)
		}
	}
}

func TestLogsCommandPrintsTail(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "logs")
	if err != nil {
		t.Fatalf("logs without file: %v", err)
	}
	requireContains(t, out, "No log output")

	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(env.cfg.LogFilePath(), []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	out, _, err = runCLI(t, env.configPath, "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second\nthird\n" {
		t.Fatalf("unexpected tail %q", out)
	}
}
