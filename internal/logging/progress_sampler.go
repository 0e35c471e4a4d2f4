package logging

// ProgressSampler thins out progress reporting to one line per bucket of
// percent. Switching to a different key starts the buckets over.
type ProgressSampler struct {
	step int
	key  string
	next int
}

// NewProgressSampler returns a sampler that reports every step percent;
// step <= 0 means 10.
func NewProgressSampler(step int) *ProgressSampler {
	if step <= 0 {
		step = 10
	}
	return &ProgressSampler{step: step}
}

// ShouldLog reports whether percent for key deserves a log line. Negative
// percent is treated as unknown and only a key change reports it. A nil
// sampler reports everything.
func (s *ProgressSampler) ShouldLog(percent int, key string) bool {
	if s == nil {
		return true
	}
	report := false
	if key != "" && key != s.key {
		s.key = key
		s.next = 0
		report = true
	}
	if percent < 0 {
		return report
	}
	percent = min(percent, 100)
	if percent >= s.next {
		s.next = (percent/s.step + 1) * s.step
		report = true
	}
	return report
}

// Reset forgets the current key and bucket.
func (s *ProgressSampler) Reset() {
	if s != nil {
		*s = ProgressSampler{step: s.step}
	}
}
