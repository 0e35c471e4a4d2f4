package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"narrator/internal/segments"
	"narrator/internal/services"
)

// Register creates the job for key, or refreshes its paths and voice when
// it already exists. An existing job keeps its status.
func (s *Store) Register(ctx context.Context, job Job) (*Job, error) {
	if strings.TrimSpace(job.Key) == "" {
		return nil, services.Wrap(services.ErrValidation, "jobstore", "register", "job key required", nil)
	}
	ts := now()
	if _, err := s.exec(ctx,
		`INSERT INTO narration_jobs (entry_key, video_path, subtitle_path, voice, output_dir, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(entry_key) DO UPDATE SET
             video_path = excluded.video_path,
             subtitle_path = excluded.subtitle_path,
             voice = excluded.voice,
             output_dir = excluded.output_dir,
             updated_at = excluded.updated_at`,
		job.Key, job.VideoPath, job.SubtitlePath, job.Voice, job.OutputDir, StatusPending, ts, ts,
	); err != nil {
		return nil, fmt.Errorf("register job: %w", err)
	}
	return s.Get(ctx, job.Key)
}

// Get returns the job for key, or nil when none exists.
func (s *Store) Get(ctx context.Context, key string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM narration_jobs WHERE entry_key = ?`, key)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs, newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM narration_jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + placeholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY updated_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Begin marks the job generating under runID.
func (s *Store) Begin(ctx context.Context, key, runID string, cueCount int) error {
	return s.update(ctx, key, "begin job",
		`UPDATE narration_jobs SET status = ?, progress = 0, error_message = NULL, run_id = ?, cue_count = ?,
             completed_at = NULL, updated_at = ? WHERE entry_key = ?`,
		StatusGenerating, runID, cueCount, now(), key)
}

// UpdateProgress records a generation percentage.
func (s *Store) UpdateProgress(ctx context.Context, key string, percent int) error {
	percent = min(max(percent, 0), 100)
	return s.update(ctx, key, "update progress",
		`UPDATE narration_jobs SET progress = ?, updated_at = ? WHERE entry_key = ?`,
		percent, now(), key)
}

// Complete marks the job ready and replaces its segment manifest.
func (s *Store) Complete(ctx context.Context, key string, segs []segments.Segment, counts Counts) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM narration_jobs WHERE entry_key = ?`, key).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return services.Wrap(services.ErrNotFound, "jobstore", "complete", "no job for "+key, nil)
			}
			return fmt.Errorf("find job: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM narration_segments WHERE job_id = ?`, id); err != nil {
			return fmt.Errorf("clear segments: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO narration_segments (job_id, ordinal, audio_path, start_ms, end_ms, text, rate_applied, clip_ms)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare segment insert: %w", err)
		}
		defer stmt.Close()
		for i, seg := range segs {
			if _, err := stmt.ExecContext(ctx, id, i, seg.AudioPath, seg.StartMs, seg.EndMs, seg.Text, seg.RateApplied, seg.ClipMs); err != nil {
				return fmt.Errorf("insert segment %d: %w", i, err)
			}
		}
		ts := now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE narration_jobs SET status = ?, progress = 100, error_message = NULL, segment_count = ?,
                 synthesized = ?, cached = ?, silent = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
			StatusReady, len(segs), counts.Synthesized, counts.Cached, counts.Silent, ts, ts, id,
		); err != nil {
			return fmt.Errorf("mark ready: %w", err)
		}
		return nil
	})
}

// Fail marks the job failed with message.
func (s *Store) Fail(ctx context.Context, key, message string) error {
	return s.update(ctx, key, "fail job",
		`UPDATE narration_jobs SET status = ?, error_message = ?, updated_at = ? WHERE entry_key = ?`,
		StatusFailed, nullableString(message), now(), key)
}

// Delete removes the job and its manifest.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.exec(ctx, `DELETE FROM narration_jobs WHERE entry_key = ?`, key); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// Segments returns the stored manifest for key in playback order.
func (s *Store) Segments(ctx context.Context, key string) ([]segments.Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.audio_path, s.start_ms, s.end_ms, s.text, s.rate_applied, s.clip_ms
         FROM narration_segments s JOIN narration_jobs j ON j.id = s.job_id
         WHERE j.entry_key = ? ORDER BY s.ordinal`, key)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var out []segments.Segment
	for rows.Next() {
		var seg segments.Segment
		if err := rows.Scan(&seg.AudioPath, &seg.StartMs, &seg.EndMs, &seg.Text, &seg.RateApplied, &seg.ClipMs); err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

func (s *Store) update(ctx context.Context, key, op, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "jobstore", op, "no job for "+key, nil)
	}
	return nil
}
