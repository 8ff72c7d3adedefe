package quotes

import (
	"context"
	"testing"
	"time"
)

type countingSource struct {
	calls  int
	points []ClosePoint
	err    error
}

func (c *countingSource) Latest(ctx context.Context, ticker string) (Quote, error) {
	points, err := c.History(ctx, ticker, Day1)
	if err != nil {
		return Quote{}, err
	}
	last := points[len(points)-1]
	return Quote{Ticker: ticker, Price: last.Close, At: last.Date}, nil
}

func (c *countingSource) History(ctx context.Context, ticker string, window Window) ([]ClosePoint, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.points, nil
}

func TestCachedSourceHit(t *testing.T) {
	upstream := &countingSource{points: []ClosePoint{{Date: time.Now(), Close: 10}}}
	cached := NewCachedSource(upstream, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := cached.History(context.Background(), "PETR4.SA", Day7); err != nil {
			t.Fatalf("History: %v", err)
		}
	}
	if upstream.calls != 1 {
		t.Fatalf("expected a single upstream call, got %d", upstream.calls)
	}
}

func TestCachedSourceKeyIncludesWindow(t *testing.T) {
	upstream := &countingSource{points: []ClosePoint{{Date: time.Now(), Close: 10}}}
	cached := NewCachedSource(upstream, time.Minute)

	if _, err := cached.History(context.Background(), "PETR4.SA", Day7); err != nil {
		t.Fatalf("History: %v", err)
	}
	if _, err := cached.History(context.Background(), "PETR4.SA", Day2); err != nil {
		t.Fatalf("History: %v", err)
	}
	if upstream.calls != 2 {
		t.Fatalf("different windows must not share cache entries, got %d calls", upstream.calls)
	}
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	upstream := &countingSource{err: ErrNotAvailable}
	cached := NewCachedSource(upstream, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cached.History(context.Background(), "NOPE.SA", Day1); err == nil {
			t.Fatal("expected error")
		}
	}
	if upstream.calls != 2 {
		t.Fatalf("errors must not be cached, got %d calls", upstream.calls)
	}
}

func TestCachedSourceExpiry(t *testing.T) {
	upstream := &countingSource{points: []ClosePoint{{Date: time.Now(), Close: 10}}}
	cached := NewCachedSource(upstream, 10*time.Millisecond)

	if _, err := cached.History(context.Background(), "PETR4.SA", Day1); err != nil {
		t.Fatalf("History: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := cached.History(context.Background(), "PETR4.SA", Day1); err != nil {
		t.Fatalf("History: %v", err)
	}
	if upstream.calls != 2 {
		t.Fatalf("expired entry must refetch, got %d calls", upstream.calls)
	}
}
