package textutil_test

import (
	"testing"

	"narrator/internal/textutil"
)

func TestSanitizeToken(t *testing.T) {
	cases := map[string]string{
		"":                      "unknown",
		"   ":                   "unknown",
		"Pelajaran 01":          "pelajaran_01",
		"Café Crème":            "cafe_creme",
		"a//b::c":               "a_b_c",
		"__Lecture-Intro__.mp4": "lecture-intro_mp4",
		"日本語":                   "unknown",
		"Episode  (Part 2)":     "episode_part_2",
	}
	for input, want := range cases {
		if got := textutil.SanitizeToken(input); got != want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := textutil.Truncate("hello", 10); got != "hello" {
		t.Fatalf("unexpected %q", got)
	}
	if got := textutil.Truncate("héllo world", 5); got != "héll…" {
		t.Fatalf("unexpected %q", got)
	}
	if got := textutil.Truncate("abc", 0); got != "" {
		t.Fatalf("unexpected %q", got)
	}
}
