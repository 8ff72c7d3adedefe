package storage

import (
	"fmt"
	"time"
)

// AppendHistory records a fired alert. History is append-only; there is no
// update or delete path.
func (s *Store) AppendHistory(entry HistoryEntry) error {
	query := `
	INSERT INTO alert_history (user_id, ticker, kind, trigger_value, triggered_at, message)
	VALUES (?, ?, ?, ?, ?, ?);`

	triggeredAt := entry.TriggeredAt
	if triggeredAt.IsZero() {
		triggeredAt = time.Now().In(s.loc)
	}

	_, err := s.db.Exec(query, entry.UserID, entry.Ticker, entry.Kind,
		entry.TriggerValue, triggeredAt.In(s.loc).Format(time.RFC3339), entry.Message)
	if err != nil {
		return fmt.Errorf("failed to append alert history: %w", err)
	}
	return nil
}

// ListHistory fetches a user's alert history, most recent first.
func (s *Store) ListHistory(userID int64, limit int) ([]HistoryEntry, error) {
	query := `SELECT id, user_id, ticker, kind, trigger_value, triggered_at, message
	FROM alert_history WHERE user_id = ? ORDER BY triggered_at DESC, id DESC LIMIT ?;`

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var triggeredAt string
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Ticker, &entry.Kind,
			&entry.TriggerValue, &triggeredAt, &entry.Message); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, triggeredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse triggered_at: %w", err)
		}
		entry.TriggeredAt = ts.In(s.loc)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountHistory counts a user's history entries.
func (s *Store) CountHistory(userID int64) (int64, error) {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM alert_history WHERE user_id = ?;`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count alert history: %w", err)
	}
	return count, nil
}
