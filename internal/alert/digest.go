package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lucashahnndev/radar-do-caos/internal/notify"
	"github.com/lucashahnndev/radar-do-caos/internal/quotes"
	"github.com/lucashahnndev/radar-do-caos/internal/storage"
	"github.com/lucashahnndev/radar-do-caos/lib/helpers"
	"github.com/lucashahnndev/radar-do-caos/lib/translation"
)

// DigestComposer builds the per-user portfolio summary. The bot's /resumo
// command and the automatic daily digest share it.
type DigestComposer struct {
	store  *storage.Store
	quotes quotes.Source
}

func NewDigestComposer(store *storage.Store, source quotes.Source) *DigestComposer {
	return &DigestComposer{store: store, quotes: source}
}

// Compose renders the summary for one user's watched stocks. Tickers the
// upstream cannot price get a "Sem dados" line instead of failing the
// whole digest.
func (d *DigestComposer) Compose(ctx context.Context, userID int64) (string, error) {
	stocks, err := d.store.ListStocks(userID)
	if err != nil {
		return "", err
	}
	if len(stocks) == 0 {
		return translation.Translate("📭 Você não está monitorando nenhuma ação\\."), nil
	}

	var sb strings.Builder
	sb.WriteString(translation.Translate("📊 *RESUMO DAS AÇÕES*"))
	sb.WriteString("\n\n")

	for _, stock := range stocks {
		points, err := d.quotes.History(ctx, stock.Ticker, quotes.Day7)
		if err != nil || len(points) == 0 {
			sb.WriteString(fmt.Sprintf(
				translation.Translate("▫️ *%s*: Sem dados\n"),
				helpers.EscapeMarkdownV2(stock.Ticker),
			))
			continue
		}
		sb.WriteString(digestLine(stock.Ticker, points))
	}

	return sb.String(), nil
}

// digestLine formats one stock row with its day and week change. With fewer
// than two closes the day change is zero; with fewer than five the week
// change falls back to the previous close.
func digestLine(ticker string, points []quotes.ClosePoint) string {
	current := points[len(points)-1].Close

	previous := current
	if len(points) >= 2 {
		previous = points[len(points)-2].Close
	}

	weekRef := previous
	if len(points) >= 5 {
		weekRef = points[0].Close
	}

	dayPct := percentChange(previous, current)
	weekPct := percentChange(weekRef, current)

	emoji := "🟢"
	if dayPct < 0 {
		emoji = "🔴"
	}

	return fmt.Sprintf(
		"%s *%s*: R$ %s \\| Dia: %s \\| Semana: %s\n",
		emoji,
		helpers.EscapeMarkdownV2(ticker),
		helpers.FormatPriceUS(current, true),
		helpers.EscapeMarkdownV2(helpers.FormatPercent(dayPct)),
		helpers.EscapeMarkdownV2(helpers.FormatPercent(weekPct)),
	)
}

func percentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}

// DigestJob delivers the daily summary to every user whose auto digest is
// enabled and due. Like the panic check, a user's day is consumed on the
// first tick at or after their digest_time.
type DigestJob struct {
	store    *storage.Store
	composer *DigestComposer
	notifier notify.Notifier
	loc      *time.Location
	now      func() time.Time
}

func NewDigestJob(store *storage.Store, composer *DigestComposer, notifier notify.Notifier, loc *time.Location) *DigestJob {
	return &DigestJob{store: store, composer: composer, notifier: notifier, loc: loc, now: time.Now}
}

func (j *DigestJob) Run(ctx context.Context) {
	now := j.now().In(j.loc)
	hhmm := now.Format("15:04")
	today := now.Format("2006-01-02")

	due, err := j.store.DueForDigest(hhmm, today)
	if err != nil {
		log.Errorf("❌ Failed to fetch users due for digest: %v", err)
		return
	}

	for _, userID := range due {
		if err := j.store.MarkDigestSent(userID, today); err != nil {
			log.Errorf("❌ Failed to mark digest sent for user %d: %v", userID, err)
			continue
		}

		text, err := j.composer.Compose(ctx, userID)
		if err != nil {
			log.Errorf("❌ Failed to compose digest for user %d: %v", userID, err)
			continue
		}
		if err := j.notifier.Notify(ctx, userID, text); err != nil {
			log.Errorf("❌ Failed to deliver digest to user %d: %v", userID, err)
			continue
		}
		log.Infof("✅ Digest sent to user %d", userID)
	}
}
