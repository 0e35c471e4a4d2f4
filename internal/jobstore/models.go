package jobstore

import "time"

// Status is a job's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusGenerating, StatusReady, StatusFailed}
}

// Job is one entry's narration generation record.
type Job struct {
	ID           int64
	Key          string
	VideoPath    string
	SubtitlePath string
	Voice        string
	OutputDir    string
	Status       Status
	Progress     int
	ErrorMessage string
	RunID        string
	CueCount     int
	SegmentCount int
	Synthesized  int
	Cached       int
	Silent       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// Counts summarizes a finished generation.
type Counts struct {
	Synthesized int
	Cached      int
	Silent      int
}

// interruptedMessage marks jobs that were generating when the process died.
const interruptedMessage = "interrupted: generation did not finish"
