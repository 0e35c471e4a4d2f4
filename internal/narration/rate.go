package narration

import (
	"math"

	"narrator/internal/synthesis"
)

const (
	baseWordsPerMinute = 100
	charsPerWord       = 5
	minDurationMs      = 1000
	minRatePercent     = -30
	maxRatePercent     = 150
)

// SpeechRate returns the integer percent adjustment, clamped to [-30, 150],
// that fits textLength characters into durationMs at the given global speed.
// Durations below one second are treated as one second. A non-positive or
// non-finite speed is treated as 1.
func SpeechRate(textLength, durationMs int, globalSpeed float64) int {
	if textLength < 0 {
		textLength = 0
	}
	if durationMs < minDurationMs {
		durationMs = minDurationMs
	}
	if globalSpeed <= 0 || math.IsNaN(globalSpeed) || math.IsInf(globalSpeed, 0) {
		globalSpeed = 1
	}
	words := float64(textLength) / charsPerWord
	minutes := float64(durationMs) / 60000
	targetWPM := words / minutes * globalSpeed
	percent := math.Round((targetWPM/baseWordsPerMinute - 1) * 100)
	switch {
	case percent < minRatePercent:
		return minRatePercent
	case percent > maxRatePercent:
		return maxRatePercent
	default:
		return int(percent)
	}
}

// FormatRate renders a rate percent the way it is passed to the synthesizer.
func FormatRate(percent int) string {
	return synthesis.FormatRate(percent)
}
