package alert

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lucashahnndev/radar-do-caos/internal/notify"
	"github.com/lucashahnndev/radar-do-caos/internal/quotes"
	"github.com/lucashahnndev/radar-do-caos/internal/storage"
	"github.com/lucashahnndev/radar-do-caos/lib/helpers"
	"github.com/lucashahnndev/radar-do-caos/lib/translation"
)

// PanicEvaluator runs the daily drawdown check. A user is due once per day,
// at the first tick at or after their configured panic_check_time; the day
// is marked consumed whether or not any alert fires.
type PanicEvaluator struct {
	store  *storage.Store
	quotes quotes.Source
	sink   *notify.Sink
	loc    *time.Location
	now    func() time.Time
}

func NewPanicEvaluator(store *storage.Store, source quotes.Source, sink *notify.Sink, loc *time.Location) *PanicEvaluator {
	return &PanicEvaluator{store: store, quotes: source, sink: sink, loc: loc, now: time.Now}
}

func (e *PanicEvaluator) Run(ctx context.Context) {
	now := e.now().In(e.loc)
	hhmm := now.Format("15:04")
	today := now.Format("2006-01-02")

	due, err := e.store.DueForPanicCheck(hhmm, today)
	if err != nil {
		log.Errorf("❌ Failed to fetch users due for panic check: %v", err)
		return
	}

	for _, userID := range due {
		// Consume the day before scanning so a mid-scan failure cannot
		// replay today's check on the next tick.
		if err := e.store.MarkPanicChecked(userID, today); err != nil {
			log.Errorf("❌ Failed to mark panic check for user %d: %v", userID, err)
			continue
		}
		e.checkUser(ctx, userID)
	}
}

func (e *PanicEvaluator) checkUser(ctx context.Context, userID int64) {
	alerts, err := e.store.ListActivePanicAlerts(userID)
	if err != nil {
		log.Errorf("❌ Failed to fetch panic alerts for user %d: %v", userID, err)
		return
	}

	for _, alert := range alerts {
		points, err := e.quotes.History(ctx, alert.Ticker, quotes.Day2)
		if err != nil {
			log.Warnf("⚠️ No history for %s, skipping panic check: %v", alert.Ticker, err)
			continue
		}
		if len(points) < 2 {
			log.Debugf("Not enough closes for %s to compute drawdown", alert.Ticker)
			continue
		}

		previous := points[len(points)-2].Close
		current := points[len(points)-1].Close
		if previous <= 0 {
			continue
		}

		drop := (previous - current) / previous * 100
		if drop < alert.DropThresholdPct {
			continue
		}

		message := fmt.Sprintf(
			translation.Translate("🚨 *ALERTA DE PÂNICO:* %s caiu %s hoje \\(R$ %s\\)"),
			helpers.EscapeMarkdownV2(alert.Ticker),
			helpers.EscapeMarkdownV2(helpers.FormatPercent(-drop)),
			helpers.FormatPriceUS(current, true),
		)

		e.sink.Fire(ctx, userID, alert.Ticker, storage.KindPanic, drop, message)
		log.Infof("✅ Panic alert fired for user %d, ticker %s (drop %.2f%%)", userID, alert.Ticker, drop)
	}
}
