package jobstore

import (
	"context"
	"fmt"
)

// ResetStuck fails jobs left generating by a previous process.
func (s *Store) ResetStuck(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE narration_jobs SET status = ?, error_message = ?, updated_at = ? WHERE status = ?`,
		StatusFailed, interruptedMessage, now(), StatusGenerating)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// Stats counts jobs by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM narration_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Ping verifies the database answers queries.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
