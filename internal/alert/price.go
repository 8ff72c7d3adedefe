package alert

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lucashahnndev/radar-do-caos/internal/notify"
	"github.com/lucashahnndev/radar-do-caos/internal/quotes"
	"github.com/lucashahnndev/radar-do-caos/internal/storage"
	"github.com/lucashahnndev/radar-do-caos/lib/helpers"
	"github.com/lucashahnndev/radar-do-caos/lib/translation"
)

// PriceEvaluator scans pending price alerts and fires the ones whose target
// was crossed. Each alert fires at most once until the user re-arms it.
type PriceEvaluator struct {
	store  *storage.Store
	quotes quotes.Source
	sink   *notify.Sink
}

func NewPriceEvaluator(store *storage.Store, source quotes.Source, sink *notify.Sink) *PriceEvaluator {
	return &PriceEvaluator{store: store, quotes: source, sink: sink}
}

// Run executes one evaluation pass. Per-item failures are logged and
// skipped; the pass never aborts because of one ticker or one user.
func (e *PriceEvaluator) Run(ctx context.Context) {
	log.Debug("🔄 Checking price alerts...")

	alerts, err := e.store.ListPendingPriceAlerts()
	if err != nil {
		log.Errorf("❌ Failed to fetch price alerts: %v", err)
		return
	}

	for _, alert := range alerts {
		quote, err := e.quotes.Latest(ctx, alert.Ticker)
		if err != nil {
			// NotAvailable or transient upstream failure: retry next tick.
			log.Warnf("⚠️ No quote for %s, skipping: %v", alert.Ticker, err)
			continue
		}

		if !priceTriggered(alert, quote.Price) {
			continue
		}

		emoji := "🚀"
		if alert.Direction == storage.DirectionDown {
			emoji = "📉"
		}
		message := fmt.Sprintf(
			translation.Translate("%s *Alerta de preço:* %s atingiu R$ %s \\(alvo: R$ %s\\)"),
			emoji,
			helpers.EscapeMarkdownV2(alert.Ticker),
			helpers.FormatPriceUS(quote.Price, true),
			helpers.FormatPriceUS(alert.TargetPrice, true),
		)

		e.sink.Fire(ctx, alert.UserID, alert.Ticker, storage.KindPrice, quote.Price, message)

		// The flag write must land before the next pass reads the scan set,
		// which holds because a job's ticks never overlap.
		if err := e.store.MarkPriceAlertNotified(alert.UserID, alert.Ticker); err != nil {
			log.Errorf("❌ Failed to mark alert notified for user %d ticker %s: %v", alert.UserID, alert.Ticker, err)
			continue
		}

		log.Infof("✅ Price alert fired for user %d, ticker %s", alert.UserID, alert.Ticker)
	}
}

func priceTriggered(alert storage.PriceAlert, current float64) bool {
	switch alert.Direction {
	case storage.DirectionUp:
		return current >= alert.TargetPrice
	case storage.DirectionDown:
		return current <= alert.TargetPrice
	}
	return false
}

// DeriveDirection fixes an alert's direction from the quote observed at
// creation or update time. It is never re-derived afterwards.
func DeriveDirection(targetPrice, currentPrice float64) string {
	if targetPrice > currentPrice {
		return storage.DirectionUp
	}
	return storage.DirectionDown
}

// ResolveDirection derives the direction from a live quote. Alert creation
// refuses tickers the upstream cannot price, so there is no fallback here.
func ResolveDirection(ctx context.Context, source quotes.Source, ticker string, targetPrice float64) (string, error) {
	quote, err := source.Latest(ctx, ticker)
	if err != nil {
		return "", errors.Wrapf(err, "resolving direction for %s", ticker)
	}
	return DeriveDirection(targetPrice, quote.Price), nil
}
