package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetDashboardUser fetches a dashboard account.
func (s *Store) GetDashboardUser(userID int64) (DashboardUser, bool, error) {
	query := `SELECT user_id, key_hash, COALESCE(username, ''), theme, COALESCE(last_login, '')
	FROM dashboard_users WHERE user_id = ?;`

	var user DashboardUser
	err := s.db.QueryRow(query, userID).Scan(&user.UserID, &user.KeyHash, &user.Username, &user.Theme, &user.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return DashboardUser{}, false, nil
	}
	if err != nil {
		return DashboardUser{}, false, fmt.Errorf("failed to query dashboard user: %w", err)
	}
	return user, true, nil
}

// CreateDashboardUser provisions a dashboard account. Returns false when the
// user already has one.
func (s *Store) CreateDashboardUser(userID int64, keyHash, username string) (bool, error) {
	query := `INSERT OR IGNORE INTO dashboard_users (user_id, key_hash, username, theme) VALUES (?, ?, ?, 'dark');`

	res, err := s.db.Exec(query, userID, keyHash, username)
	if err != nil {
		return false, fmt.Errorf("failed to create dashboard user: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// UpdateDashboardKeyHash rotates the stored access key hash.
func (s *Store) UpdateDashboardKeyHash(userID int64, keyHash string) error {
	if _, err := s.db.Exec(`UPDATE dashboard_users SET key_hash = ? WHERE user_id = ?;`, keyHash, userID); err != nil {
		return fmt.Errorf("failed to update dashboard key: %w", err)
	}
	return nil
}

// DeleteDashboardUser removes the account so the bot can provision a fresh
// key on the next /dashboard command.
func (s *Store) DeleteDashboardUser(userID int64) error {
	if _, err := s.db.Exec(`DELETE FROM dashboard_users WHERE user_id = ?;`, userID); err != nil {
		return fmt.Errorf("failed to delete dashboard user: %w", err)
	}
	return nil
}

// TouchDashboardLogin records a successful login.
func (s *Store) TouchDashboardLogin(userID int64) error {
	now := time.Now().In(s.loc).Format(time.RFC3339)
	if _, err := s.db.Exec(`UPDATE dashboard_users SET last_login = ? WHERE user_id = ?;`, now, userID); err != nil {
		return fmt.Errorf("failed to touch last login: %w", err)
	}
	return nil
}
