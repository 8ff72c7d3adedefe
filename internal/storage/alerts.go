package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// ReplacePriceAlert creates or replaces the single price alert for a
// (user, ticker) pair. Replacing always resets the notified flag, re-arming
// the alert.
func (s *Store) ReplacePriceAlert(alert PriceAlert) error {
	query := `
	INSERT OR REPLACE INTO price_alerts (user_id, ticker, target_price, direction, notified)
	VALUES (?, ?, ?, ?, 0);`

	_, err := s.db.Exec(query, alert.UserID, alert.Ticker, alert.TargetPrice, alert.Direction)
	if err != nil {
		return fmt.Errorf("failed to insert price alert: %w", err)
	}
	return nil
}

// GetPriceAlert fetches the price alert for a (user, ticker) pair.
func (s *Store) GetPriceAlert(userID int64, ticker string) (PriceAlert, bool, error) {
	query := `SELECT user_id, ticker, target_price, direction, notified FROM price_alerts WHERE user_id = ? AND ticker = ?;`

	var alert PriceAlert
	var notified int
	err := s.db.QueryRow(query, userID, ticker).Scan(&alert.UserID, &alert.Ticker, &alert.TargetPrice, &alert.Direction, &notified)
	if errors.Is(err, sql.ErrNoRows) {
		return PriceAlert{}, false, nil
	}
	if err != nil {
		return PriceAlert{}, false, fmt.Errorf("failed to query price alert: %w", err)
	}
	alert.Notified = notified != 0
	return alert, true, nil
}

// ListPriceAlerts fetches all of a user's price alerts.
func (s *Store) ListPriceAlerts(userID int64) ([]PriceAlert, error) {
	query := `SELECT user_id, ticker, target_price, direction, notified FROM price_alerts WHERE user_id = ? ORDER BY ticker;`
	return s.scanPriceAlerts(query, userID)
}

// ListPendingPriceAlerts fetches every alert across all users that has not
// fired yet. This is the evaluator's scan set; fired alerts are never
// re-examined until a user edit re-arms them.
func (s *Store) ListPendingPriceAlerts() ([]PriceAlert, error) {
	query := `SELECT user_id, ticker, target_price, direction, notified FROM price_alerts WHERE notified = 0;`
	return s.scanPriceAlerts(query)
}

func (s *Store) scanPriceAlerts(query string, args ...interface{}) ([]PriceAlert, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price alerts: %w", err)
	}
	defer rows.Close()

	var alerts []PriceAlert
	for rows.Next() {
		var alert PriceAlert
		var notified int
		if err := rows.Scan(&alert.UserID, &alert.Ticker, &alert.TargetPrice, &alert.Direction, &notified); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		alert.Notified = notified != 0
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// MarkPriceAlertNotified sets the fired flag so the alert is excluded from
// every later scan until re-armed.
func (s *Store) MarkPriceAlertNotified(userID int64, ticker string) error {
	query := `UPDATE price_alerts SET notified = 1 WHERE user_id = ? AND ticker = ?;`

	_, err := s.db.Exec(query, userID, ticker)
	if err != nil {
		return fmt.Errorf("failed to mark price alert notified: %w", err)
	}
	return nil
}

// UpdatePriceAlert edits the target of an existing alert, re-deriving the
// direction and resetting the notified flag.
func (s *Store) UpdatePriceAlert(userID int64, ticker string, targetPrice float64, direction string) (bool, error) {
	query := `UPDATE price_alerts SET target_price = ?, direction = ?, notified = 0 WHERE user_id = ? AND ticker = ?;`

	res, err := s.db.Exec(query, targetPrice, direction, userID, ticker)
	if err != nil {
		return false, fmt.Errorf("failed to update price alert: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeletePriceAlert removes a price alert.
func (s *Store) DeletePriceAlert(userID int64, ticker string) (bool, error) {
	query := `DELETE FROM price_alerts WHERE user_id = ? AND ticker = ?;`

	res, err := s.db.Exec(query, userID, ticker)
	if err != nil {
		return false, fmt.Errorf("failed to delete price alert: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// UpsertPanicAlert creates or replaces the panic alert for a (user, ticker)
// pair.
func (s *Store) UpsertPanicAlert(alert PanicAlert) error {
	query := `INSERT OR REPLACE INTO panic_alerts (user_id, ticker, active, drop_threshold_pct) VALUES (?, ?, ?, ?);`

	_, err := s.db.Exec(query, alert.UserID, alert.Ticker, boolToInt(alert.Active), alert.DropThresholdPct)
	if err != nil {
		return fmt.Errorf("failed to upsert panic alert: %w", err)
	}
	return nil
}

// ListPanicAlerts fetches all of a user's panic alerts.
func (s *Store) ListPanicAlerts(userID int64) ([]PanicAlert, error) {
	query := `SELECT user_id, ticker, active, drop_threshold_pct FROM panic_alerts WHERE user_id = ? ORDER BY ticker;`
	return s.scanPanicAlerts(query, userID)
}

// ListActivePanicAlerts fetches the user's active panic alerts, the set the
// panic evaluator examines when the user's check time comes due.
func (s *Store) ListActivePanicAlerts(userID int64) ([]PanicAlert, error) {
	query := `SELECT user_id, ticker, active, drop_threshold_pct FROM panic_alerts WHERE user_id = ? AND active = 1;`
	return s.scanPanicAlerts(query, userID)
}

func (s *Store) scanPanicAlerts(query string, args ...interface{}) ([]PanicAlert, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query panic alerts: %w", err)
	}
	defer rows.Close()

	var alerts []PanicAlert
	for rows.Next() {
		var alert PanicAlert
		var active int
		if err := rows.Scan(&alert.UserID, &alert.Ticker, &active, &alert.DropThresholdPct); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		alert.Active = active != 0
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// UpdatePanicAlert edits an existing panic alert.
func (s *Store) UpdatePanicAlert(userID int64, ticker string, active bool, thresholdPct float64) (bool, error) {
	query := `UPDATE panic_alerts SET active = ?, drop_threshold_pct = ? WHERE user_id = ? AND ticker = ?;`

	res, err := s.db.Exec(query, boolToInt(active), thresholdPct, userID, ticker)
	if err != nil {
		return false, fmt.Errorf("failed to update panic alert: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeletePanicAlert removes a panic alert.
func (s *Store) DeletePanicAlert(userID int64, ticker string) (bool, error) {
	query := `DELETE FROM panic_alerts WHERE user_id = ? AND ticker = ?;`

	res, err := s.db.Exec(query, userID, ticker)
	if err != nil {
		return false, fmt.Errorf("failed to delete panic alert: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
