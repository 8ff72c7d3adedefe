package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/lucashahnndev/radar-do-caos/internal/storage"
)

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, userID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

type fakeHistory struct {
	entries []storage.HistoryEntry
	err     error
}

func (f *fakeHistory) AppendHistory(entry storage.HistoryEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func TestSinkFireDeliversAndRecords(t *testing.T) {
	notifier := &fakeNotifier{}
	history := &fakeHistory{}
	sink := NewSink(notifier, history)

	var fired []string
	sink.OnFire = func(kind string) { fired = append(fired, kind) }

	sink.Fire(context.Background(), 1, "PETR4.SA", storage.KindPrice, 42.5, "alerta")

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(notifier.sent))
	}
	if len(history.entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history.entries))
	}
	entry := history.entries[0]
	if entry.UserID != 1 || entry.Ticker != "PETR4.SA" || entry.Kind != storage.KindPrice || entry.TriggerValue != 42.5 {
		t.Errorf("unexpected history entry: %+v", entry)
	}
	if len(fired) != 1 || fired[0] != storage.KindPrice {
		t.Errorf("OnFire hook not invoked: %v", fired)
	}
}

func TestSinkFireRecordsDespiteDeliveryFailure(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("blocked by user")}
	history := &fakeHistory{}
	sink := NewSink(notifier, history)

	sink.Fire(context.Background(), 1, "VALE3.SA", storage.KindPanic, 7.1, "alerta")

	if len(history.entries) != 1 {
		t.Fatal("history must be written even when delivery fails")
	}
}
