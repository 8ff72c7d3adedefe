package alert

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lucashahnndev/radar-do-caos/internal/notify"
	"github.com/lucashahnndev/radar-do-caos/internal/quotes"
	"github.com/lucashahnndev/radar-do-caos/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), time.UTC)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// fakeSource serves canned closes per ticker, ascending by date. Tickers in
// errs fail with the configured error.
type fakeSource struct {
	closes map[string][]float64
	errs   map[string]error
	calls  int
}

func (f *fakeSource) History(ctx context.Context, ticker string, window quotes.Window) ([]quotes.ClosePoint, error) {
	f.calls++
	if err, ok := f.errs[ticker]; ok {
		return nil, err
	}
	closes, ok := f.closes[ticker]
	if !ok {
		return nil, quotes.ErrNotAvailable
	}
	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	points := make([]quotes.ClosePoint, len(closes))
	for i, c := range closes {
		points[i] = quotes.ClosePoint{Date: base.AddDate(0, 0, i), Close: c}
	}
	return points, nil
}

func (f *fakeSource) Latest(ctx context.Context, ticker string) (quotes.Quote, error) {
	points, err := f.History(ctx, ticker, quotes.Day1)
	if err != nil {
		return quotes.Quote{}, err
	}
	last := points[len(points)-1]
	return quotes.Quote{Ticker: ticker, Price: last.Close, At: last.Date}, nil
}

type recordingNotifier struct {
	messages []string
	users    []int64
}

func (r *recordingNotifier) Notify(ctx context.Context, userID int64, text string) error {
	r.users = append(r.users, userID)
	r.messages = append(r.messages, text)
	return nil
}

func newTestSink(store *storage.Store) (*notify.Sink, *recordingNotifier) {
	notifier := &recordingNotifier{}
	return notify.NewSink(notifier, store), notifier
}

func clockAt(date, hhmm string) func() time.Time {
	t, _ := time.Parse("2006-01-02 15:04", date+" "+hhmm)
	return func() time.Time { return t.UTC() }
}
