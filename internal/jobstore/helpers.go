package jobstore

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, entry_key, video_path, subtitle_path, voice, output_dir, status, progress, error_message, run_id, cue_count, segment_count, synthesized, cached, silent, created_at, updated_at, completed_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job          Job
		status       string
		errorMessage sql.NullString
		runID        sql.NullString
		createdRaw   string
		updatedRaw   string
		completedRaw sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.Key,
		&job.VideoPath,
		&job.SubtitlePath,
		&job.Voice,
		&job.OutputDir,
		&status,
		&job.Progress,
		&errorMessage,
		&runID,
		&job.CueCount,
		&job.SegmentCount,
		&job.Synthesized,
		&job.Cached,
		&job.Silent,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.ErrorMessage = errorMessage.String
	job.RunID = runID.String
	if created, err := parseTime(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTime(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTime(completedRaw.String); err == nil {
			job.CompletedAt = &completed
		}
	}
	return &job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	b := make([]byte, 0, count*2)
	for i := range count {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}
