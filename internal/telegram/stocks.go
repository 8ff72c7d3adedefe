package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/lucashahnndev/radar-do-caos/internal/chart"
	"github.com/lucashahnndev/radar-do-caos/internal/quotes"
	"github.com/lucashahnndev/radar-do-caos/internal/storage"
	"github.com/lucashahnndev/radar-do-caos/lib/helpers"
	"github.com/lucashahnndev/radar-do-caos/lib/translation"
)

func (b *Bot) handleStart(userID int64) string {
	if _, err := b.store.EnsureSettings(userID); err != nil {
		log.Errorf("failed to ensure settings for user %d: %v", userID, err)
	}
	return helpMessage()
}

func (b *Bot) handleAdd(ctx context.Context, userID int64, args string) string {
	ticker := normalizeTicker(args)
	if ticker == "" {
		return translation.Translate("Uso: /add TICKER \\(ex\\.: /add PETR4\\.SA\\)")
	}

	quote, err := b.quotes.Latest(ctx, ticker)
	if err != nil {
		log.Warnf("failed to quote %s: %v", ticker, err)
		return fmt.Sprintf(
			translation.Translate("❌ Não consegui obter o preço de *%s*\\. Verifique o ticker\\."),
			helpers.EscapeMarkdownV2(ticker),
		)
	}

	err = b.store.UpsertStock(storage.WatchedStock{
		UserID:         userID,
		Ticker:         ticker,
		ReferencePrice: quote.Price,
	})
	if err != nil {
		log.Errorf("failed to add stock %s for user %d: %v", ticker, userID, err)
		return translation.Translate("❌ Erro ao salvar\\. Tente novamente\\.")
	}

	return fmt.Sprintf(
		translation.Translate("✅ *%s* adicionada com preço de referência R$ %s"),
		helpers.EscapeMarkdownV2(ticker),
		helpers.FormatPriceUS(quote.Price, true),
	)
}

func (b *Bot) handleRemove(userID int64, args string) string {
	ticker := normalizeTicker(args)
	if ticker == "" {
		return translation.Translate("Uso: /remove TICKER")
	}

	removed, err := b.store.DeleteStock(userID, ticker)
	if err != nil {
		log.Errorf("failed to remove stock %s for user %d: %v", ticker, userID, err)
		return translation.Translate("❌ Erro ao remover\\. Tente novamente\\.")
	}
	if !removed {
		return fmt.Sprintf(
			translation.Translate("🤷 *%s* não está na sua lista\\."),
			helpers.EscapeMarkdownV2(ticker),
		)
	}

	return fmt.Sprintf(
		translation.Translate("🗑 *%s* removida, junto com seus alertas\\."),
		helpers.EscapeMarkdownV2(ticker),
	)
}

func (b *Bot) handleList(userID int64) string {
	stocks, err := b.store.ListStocks(userID)
	if err != nil {
		log.Errorf("failed to list stocks for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao buscar sua lista\\.")
	}
	if len(stocks) == 0 {
		return translation.Translate("📭 Você não está monitorando nenhuma ação\\. Use /add TICKER\\.")
	}

	var sb strings.Builder
	sb.WriteString(translation.Translate("📋 *AÇÕES MONITORADAS*"))
	sb.WriteString("\n\n")
	for _, stock := range stocks {
		sb.WriteString(fmt.Sprintf(
			"▫️ *%s* \\- ref\\.: R$ %s\n",
			helpers.EscapeMarkdownV2(stock.Ticker),
			helpers.FormatPriceUS(stock.ReferencePrice, true),
		))
	}
	return sb.String()
}

func (b *Bot) handleSummary(ctx context.Context, userID int64) string {
	text, err := b.composer.Compose(ctx, userID)
	if err != nil {
		log.Errorf("failed to compose summary for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao montar o resumo\\.")
	}
	return text
}

func (b *Bot) handleChart(ctx context.Context, u tgbotapi.Update) string {
	ticker := normalizeTicker(u.Message.CommandArguments())
	if ticker == "" {
		return translation.Translate("Uso: /grafico TICKER")
	}

	points, err := b.quotes.History(ctx, ticker, quotes.Day7)
	if err != nil {
		log.Warnf("failed to fetch history for %s: %v", ticker, err)
		return fmt.Sprintf(
			translation.Translate("❌ Sem dados para *%s*\\."),
			helpers.EscapeMarkdownV2(ticker),
		)
	}

	png, err := chart.RenderCloses(ticker, points)
	if err != nil {
		log.Errorf("failed to render chart for %s: %v", ticker, err)
		return fmt.Sprintf(
			translation.Translate("❌ Sem dados para *%s*\\."),
			helpers.EscapeMarkdownV2(ticker),
		)
	}

	photo := tgbotapi.NewPhoto(u.Message.Chat.ID, tgbotapi.FileBytes{
		Name:  "chart.png",
		Bytes: png,
	})
	photo.Caption = fmt.Sprintf(
		translation.Translate("📈 *%s* \\- últimos 7 dias"),
		helpers.EscapeMarkdownV2(ticker),
	)
	photo.ParseMode = "MarkdownV2"
	photo.ReplyToMessageID = u.Message.MessageID
	if _, err := b.Bot.Send(photo); err != nil {
		log.Error("error sending chart:", err)
	}
	return ""
}

func normalizeTicker(args string) string {
	ticker, _ := ParseArguments(args)
	return strings.ToUpper(strings.TrimSpace(ticker))
}
