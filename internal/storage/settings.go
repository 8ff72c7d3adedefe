package storage

import (
	"fmt"
)

// EnsureSettings lazily creates the settings row with its defaults on a
// user's first interaction, then returns it.
func (s *Store) EnsureSettings(userID int64) (UserSettings, error) {
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO user_settings (user_id) VALUES (?);`, userID); err != nil {
		return UserSettings{}, fmt.Errorf("failed to ensure user settings: %w", err)
	}

	query := `SELECT user_id, auto_digest, digest_time, panic_check_time, digest_last_date, panic_last_date
	FROM user_settings WHERE user_id = ?;`

	var settings UserSettings
	var auto int
	err := s.db.QueryRow(query, userID).Scan(
		&settings.UserID, &auto, &settings.DigestTime, &settings.PanicCheckTime,
		&settings.DigestLastDate, &settings.PanicLastDate,
	)
	if err != nil {
		return UserSettings{}, fmt.Errorf("failed to query user settings: %w", err)
	}
	settings.AutoDigest = auto != 0
	return settings, nil
}

// SetAutoDigest toggles the automatic daily digest.
func (s *Store) SetAutoDigest(userID int64, enabled bool) error {
	if _, err := s.EnsureSettings(userID); err != nil {
		return err
	}
	if _, err := s.db.Exec(`UPDATE user_settings SET auto_digest = ? WHERE user_id = ?;`, boolToInt(enabled), userID); err != nil {
		return fmt.Errorf("failed to update auto digest: %w", err)
	}
	return nil
}

// SetDigestTime stores the user's digest time of day ("HH:MM").
func (s *Store) SetDigestTime(userID int64, timeOfDay string) error {
	if _, err := s.EnsureSettings(userID); err != nil {
		return err
	}
	if _, err := s.db.Exec(`UPDATE user_settings SET digest_time = ? WHERE user_id = ?;`, timeOfDay, userID); err != nil {
		return fmt.Errorf("failed to update digest time: %w", err)
	}
	return nil
}

// SetPanicCheckTime stores the user's panic check time of day ("HH:MM").
func (s *Store) SetPanicCheckTime(userID int64, timeOfDay string) error {
	if _, err := s.EnsureSettings(userID); err != nil {
		return err
	}
	if _, err := s.db.Exec(`UPDATE user_settings SET panic_check_time = ? WHERE user_id = ?;`, timeOfDay, userID); err != nil {
		return fmt.Errorf("failed to update panic check time: %w", err)
	}
	return nil
}

// UpdateSettings replaces all user-editable preference fields at once, the
// dashboard's settings form.
func (s *Store) UpdateSettings(userID int64, autoDigest bool, digestTime, panicCheckTime string) error {
	if _, err := s.EnsureSettings(userID); err != nil {
		return err
	}
	query := `UPDATE user_settings SET auto_digest = ?, digest_time = ?, panic_check_time = ? WHERE user_id = ?;`
	if _, err := s.db.Exec(query, boolToInt(autoDigest), digestTime, panicCheckTime, userID); err != nil {
		return fmt.Errorf("failed to update user settings: %w", err)
	}
	return nil
}

// DueForDigest returns users whose automatic digest should run: digest
// enabled, the local clock has reached their digest time, and the digest has
// not run yet today. now is "HH:MM", today "YYYY-MM-DD", both in the
// reference timezone; the time comparison is lexicographic.
func (s *Store) DueForDigest(now, today string) ([]int64, error) {
	query := `SELECT user_id FROM user_settings
	WHERE auto_digest = 1 AND digest_time <= ? AND digest_last_date != ?;`
	return s.scanUserIDs(query, now, today)
}

// MarkDigestSent records that the user's digest schedule ran today.
func (s *Store) MarkDigestSent(userID int64, today string) error {
	if _, err := s.db.Exec(`UPDATE user_settings SET digest_last_date = ? WHERE user_id = ?;`, today, userID); err != nil {
		return fmt.Errorf("failed to mark digest sent: %w", err)
	}
	return nil
}

// DueForPanicCheck returns users whose panic check should run, with the same
// once-per-day semantics as DueForDigest.
func (s *Store) DueForPanicCheck(now, today string) ([]int64, error) {
	query := `SELECT user_id FROM user_settings
	WHERE panic_check_time <= ? AND panic_last_date != ?;`
	return s.scanUserIDs(query, now, today)
}

// MarkPanicChecked records that the user's panic schedule ran today,
// whether or not any alert actually fired.
func (s *Store) MarkPanicChecked(userID int64, today string) error {
	if _, err := s.db.Exec(`UPDATE user_settings SET panic_last_date = ? WHERE user_id = ?;`, today, userID); err != nil {
		return fmt.Errorf("failed to mark panic checked: %w", err)
	}
	return nil
}

func (s *Store) scanUserIDs(query string, args ...interface{}) ([]int64, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query due users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
