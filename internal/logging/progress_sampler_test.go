package logging

import "testing"

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		percent int
		key     string
		want    bool
	}{
		{0, "lecture-1", true},
		{10, "lecture-1", false},
		{25, "lecture-1", true},
		{49, "lecture-1", false},
		{50, "lecture-1", true},
		{100, "lecture-1", true},
		{100, "lecture-1", false},
		{0, "lecture-2", true},
		{-1, "lecture-2", false},
		{130, "lecture-2", true},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.percent, step.key); got != step.want {
			t.Fatalf("step %d: ShouldLog(%d, %q) = %v, want %v", i, step.percent, step.key, got, step.want)
		}
	}
}

func TestProgressSamplerWithoutKey(t *testing.T) {
	s := NewProgressSampler(0)
	var emitted []int
	for p := 0; p <= 100; p += 5 {
		if s.ShouldLog(p, "") {
			emitted = append(emitted, p)
		}
	}
	if len(emitted) != 11 || emitted[0] != 0 || emitted[10] != 100 {
		t.Fatalf("emitted = %v", emitted)
	}
}

func TestProgressSamplerResetAndNil(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(50, "lecture-1")
	s.Reset()
	if !s.ShouldLog(50, "lecture-1") {
		t.Fatal("expected emit after reset")
	}
	var nilSampler *ProgressSampler
	if !nilSampler.ShouldLog(1, "x") {
		t.Fatal("nil sampler should always log")
	}
	nilSampler.Reset()
}
