package quotes

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrNotAvailable means the upstream has no data for the symbol or window.
// Callers skip the item and retry on a later tick; it is never fatal.
var ErrNotAvailable = errors.New("quote data not available")

// Window is the size of a requested history slice.
type Window int

const (
	Day1 Window = iota
	Day2
	Day7
)

func (w Window) String() string {
	switch w {
	case Day1:
		return "1d"
	case Day2:
		return "2d"
	case Day7:
		return "7d"
	}
	return "1d"
}

// Quote is the most recent close for a ticker.
type Quote struct {
	Ticker string
	Price  float64
	At     time.Time
}

// ClosePoint is one daily close in a history window.
type ClosePoint struct {
	Date  time.Time
	Close float64
}

// Source fetches market data. Implementations must treat the upstream as
// unreliable and rate limited; History returns points in ascending date
// order.
type Source interface {
	Latest(ctx context.Context, ticker string) (Quote, error)
	History(ctx context.Context, ticker string, window Window) ([]ClosePoint, error)
}
