package alert

import (
	"context"
	"testing"
	"time"

	"github.com/lucashahnndev/radar-do-caos/internal/storage"
)

func newPanicFixture(t *testing.T, closes []float64, threshold float64) (*storage.Store, *PanicEvaluator, *recordingNotifier) {
	t.Helper()
	store := newTestStore(t)
	source := &fakeSource{closes: map[string][]float64{"PETR4.SA": closes}}
	sink, notifier := newTestSink(store)

	if _, err := store.EnsureSettings(1); err != nil {
		t.Fatalf("EnsureSettings: %v", err)
	}
	err := store.UpsertPanicAlert(storage.PanicAlert{
		UserID: 1, Ticker: "PETR4.SA", Active: true, DropThresholdPct: threshold,
	})
	if err != nil {
		t.Fatalf("UpsertPanicAlert: %v", err)
	}

	return store, NewPanicEvaluator(store, source, sink, time.UTC), notifier
}

func TestPanicFiresOncePerDay(t *testing.T) {
	_, evaluator, notifier := newPanicFixture(t, []float64{100, 90}, 5)

	// Default check time is 18:00. A tick before it must not fire.
	evaluator.now = clockAt("2025-03-10", "17:55")
	evaluator.Run(context.Background())
	if len(notifier.messages) != 0 {
		t.Fatal("check must not run before the scheduled time")
	}

	// The first tick at or after the scheduled minute runs the check, even
	// when it lands late.
	evaluator.now = clockAt("2025-03-10", "18:03")
	evaluator.Run(context.Background())
	if len(notifier.messages) != 1 {
		t.Fatalf("expected one panic alert, got %d", len(notifier.messages))
	}

	// Later ticks the same day are consumed.
	evaluator.now = clockAt("2025-03-10", "18:08")
	evaluator.Run(context.Background())
	evaluator.now = clockAt("2025-03-10", "23:59")
	evaluator.Run(context.Background())
	if len(notifier.messages) != 1 {
		t.Fatalf("panic check must run once per day, got %d alerts", len(notifier.messages))
	}

	// The next day the schedule is armed again.
	evaluator.now = clockAt("2025-03-11", "18:00")
	evaluator.Run(context.Background())
	if len(notifier.messages) != 2 {
		t.Fatalf("expected a second alert the next day, got %d", len(notifier.messages))
	}
}

func TestPanicThresholdInclusive(t *testing.T) {
	// 100 -> 95 is exactly a 5% drop.
	_, evaluator, notifier := newPanicFixture(t, []float64{100, 95}, 5)

	evaluator.now = clockAt("2025-03-10", "18:00")
	evaluator.Run(context.Background())

	if len(notifier.messages) != 1 {
		t.Fatalf("a drop equal to the threshold must fire, got %d alerts", len(notifier.messages))
	}
}

func TestPanicBelowThresholdStillConsumesDay(t *testing.T) {
	store, evaluator, notifier := newPanicFixture(t, []float64{100, 98}, 5)

	evaluator.now = clockAt("2025-03-10", "18:00")
	evaluator.Run(context.Background())
	if len(notifier.messages) != 0 {
		t.Fatal("a 2% drop must not fire a 5% alert")
	}

	// The day was consumed even though nothing fired.
	due, err := store.DueForPanicCheck("23:59", "2025-03-10")
	if err != nil {
		t.Fatalf("DueForPanicCheck: %v", err)
	}
	if len(due) != 0 {
		t.Fatal("the schedule must be consumed regardless of the outcome")
	}
}

func TestPanicNeedsTwoCloses(t *testing.T) {
	_, evaluator, notifier := newPanicFixture(t, []float64{100}, 5)

	evaluator.now = clockAt("2025-03-10", "18:00")
	evaluator.Run(context.Background())

	if len(notifier.messages) != 0 {
		t.Fatal("a single close gives no drawdown to evaluate")
	}
}

func TestPanicIgnoresInactiveAlerts(t *testing.T) {
	store, evaluator, notifier := newPanicFixture(t, []float64{100, 80}, 5)

	if _, err := store.UpdatePanicAlert(1, "PETR4.SA", false, 5); err != nil {
		t.Fatalf("UpdatePanicAlert: %v", err)
	}

	evaluator.now = clockAt("2025-03-10", "18:00")
	evaluator.Run(context.Background())

	if len(notifier.messages) != 0 {
		t.Fatal("inactive alerts must not fire")
	}
}
