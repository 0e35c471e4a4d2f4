package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"narrator/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckPlaylistFile(t *testing.T) {
	dir := t.TempDir()
	missing := CheckPlaylistFile(filepath.Join(dir, "absent.json"))
	if !missing.Passed {
		t.Fatalf("missing playlist should pass: %s", missing.Detail)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"version":9}`), 0o644)
	if result := CheckPlaylistFile(bad); result.Passed {
		t.Fatal("expected failure for unsupported version")
	}

	good := filepath.Join(dir, "good.json")
	os.WriteFile(good, []byte(`{"version":1,"current_index":-1,"entries":[]}`), 0o644)
	result := CheckPlaylistFile(good)
	if !result.Passed || !strings.Contains(result.Detail, "0 entries") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckNtfy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/narrator/json" || r.URL.Query().Get("poll") != "1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckNtfy(context.Background(), srv.URL+"/narrator/"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckNtfy(context.Background(), srv.URL+"/other"); result.Passed {
		t.Fatal("expected failure for unknown topic")
	}
	if result := CheckNtfy(context.Background(), " "); result.Passed {
		t.Fatal("expected failure for missing topic")
	}
}

func TestCheckNtfy_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	result := CheckNtfy(context.Background(), srv.URL+"/topic")
	if result.Passed || !strings.Contains(result.Detail, "authentication") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.NarrationDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.PlaylistFile = filepath.Join(cfg.Paths.DataDir, "playlist.json")
	cfg.Notifications.NtfyTopic = ""

	results := RunAll(context.Background(), &cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_NtfyFailureIsOptional(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.NarrationDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.PlaylistFile = filepath.Join(cfg.Paths.DataDir, "playlist.json")
	cfg.Notifications.NtfyTopic = srv.URL + "/topic"

	results := RunAll(context.Background(), &cfg)
	if len(results) != 6 || results[5].Passed {
		t.Fatalf("expected failing ntfy check, got %+v", results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("ntfy is optional, got failures %+v", failed)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := config.Default()
	cfg.Player.MpvBinary = "clearly-missing-mpv"
	cfg.FFprobe.ProbeClips = false

	statuses := CheckSystemDeps(context.Background(), &cfg)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[0].Available {
		t.Fatal("mpv stub should be missing")
	}
	if !statuses[2].Optional {
		t.Fatal("ffprobe is optional when probing is disabled")
	}
}

func TestCheckJobStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	result := CheckJobStore(context.Background(), path)
	if !result.Passed || !strings.Contains(result.Detail, "0 jobs") {
		t.Fatalf("fresh ledger: %+v", result)
	}

	dir := t.TempDir()
	if r := CheckJobStore(context.Background(), dir); r.Passed {
		t.Fatalf("directory as ledger should fail: %+v", r)
	}
}
