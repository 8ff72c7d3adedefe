package storage

import (
	"fmt"
)

// UpsertPosition adds or replaces a portfolio position.
func (s *Store) UpsertPosition(pos PortfolioPosition) error {
	query := `INSERT OR REPLACE INTO portfolio_positions (user_id, ticker, quantity, avg_price) VALUES (?, ?, ?, ?);`

	_, err := s.db.Exec(query, pos.UserID, pos.Ticker, pos.Quantity, pos.AvgPrice)
	if err != nil {
		return fmt.Errorf("failed to upsert portfolio position: %w", err)
	}
	return nil
}

// ListPositions fetches a user's portfolio.
func (s *Store) ListPositions(userID int64) ([]PortfolioPosition, error) {
	query := `SELECT user_id, ticker, quantity, avg_price FROM portfolio_positions WHERE user_id = ? ORDER BY ticker;`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio positions: %w", err)
	}
	defer rows.Close()

	var positions []PortfolioPosition
	for rows.Next() {
		var pos PortfolioPosition
		if err := rows.Scan(&pos.UserID, &pos.Ticker, &pos.Quantity, &pos.AvgPrice); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// DeletePosition removes a portfolio position.
func (s *Store) DeletePosition(userID int64, ticker string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM portfolio_positions WHERE user_id = ? AND ticker = ?;`, userID, ticker)
	if err != nil {
		return false, fmt.Errorf("failed to delete portfolio position: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
