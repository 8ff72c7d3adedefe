package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// UpsertStock adds or replaces a watched stock for a user.
func (s *Store) UpsertStock(stock WatchedStock) error {
	query := `INSERT OR REPLACE INTO watched_stocks (user_id, ticker, reference_price) VALUES (?, ?, ?);`

	_, err := s.db.Exec(query, stock.UserID, stock.Ticker, stock.ReferencePrice)
	if err != nil {
		return fmt.Errorf("failed to upsert watched stock: %w", err)
	}
	return nil
}

// GetStock fetches one watched stock. Found is false when the user does not
// monitor the ticker.
func (s *Store) GetStock(userID int64, ticker string) (WatchedStock, bool, error) {
	query := `SELECT user_id, ticker, reference_price FROM watched_stocks WHERE user_id = ? AND ticker = ?;`

	var stock WatchedStock
	err := s.db.QueryRow(query, userID, ticker).Scan(&stock.UserID, &stock.Ticker, &stock.ReferencePrice)
	if errors.Is(err, sql.ErrNoRows) {
		return WatchedStock{}, false, nil
	}
	if err != nil {
		return WatchedStock{}, false, fmt.Errorf("failed to query watched stock: %w", err)
	}
	return stock, true, nil
}

// ListStocks fetches all stocks a user monitors.
func (s *Store) ListStocks(userID int64) ([]WatchedStock, error) {
	query := `SELECT user_id, ticker, reference_price FROM watched_stocks WHERE user_id = ? ORDER BY ticker;`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watched stocks: %w", err)
	}
	defer rows.Close()

	var stocks []WatchedStock
	for rows.Next() {
		var stock WatchedStock
		if err := rows.Scan(&stock.UserID, &stock.Ticker, &stock.ReferencePrice); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stocks = append(stocks, stock)
	}
	return stocks, rows.Err()
}

// UpdateStockReference changes the display baseline of a watched stock.
func (s *Store) UpdateStockReference(userID int64, ticker string, referencePrice float64) (bool, error) {
	query := `UPDATE watched_stocks SET reference_price = ? WHERE user_id = ? AND ticker = ?;`

	res, err := s.db.Exec(query, referencePrice, userID, ticker)
	if err != nil {
		return false, fmt.Errorf("failed to update watched stock: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteStock removes a watched stock together with its price and panic
// alerts, mirroring the bot's remove command.
func (s *Store) DeleteStock(userID int64, ticker string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM watched_stocks WHERE user_id = ? AND ticker = ?;`, userID, ticker)
	if err != nil {
		return false, fmt.Errorf("failed to delete watched stock: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}

	if _, err := tx.Exec(`DELETE FROM price_alerts WHERE user_id = ? AND ticker = ?;`, userID, ticker); err != nil {
		return false, fmt.Errorf("failed to cascade price alert: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM panic_alerts WHERE user_id = ? AND ticker = ?;`, userID, ticker); err != nil {
		return false, fmt.Errorf("failed to cascade panic alert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}
	return true, nil
}
