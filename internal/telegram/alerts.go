package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/lucashahnndev/radar-do-caos/internal/alert"
	"github.com/lucashahnndev/radar-do-caos/internal/storage"
	"github.com/lucashahnndev/radar-do-caos/lib/helpers"
	"github.com/lucashahnndev/radar-do-caos/lib/translation"
)

// handlePriceAlert creates a price alert, or lists the user's alerts when
// called without arguments. The direction is fixed here from the live quote
// and never re-derived while the alert waits.
func (b *Bot) handlePriceAlert(ctx context.Context, userID int64, args string) string {
	if strings.TrimSpace(args) == "" {
		return b.listPriceAlerts(userID)
	}

	rawTicker, rawTarget := ParseArguments(args)
	ticker := strings.ToUpper(strings.TrimSpace(rawTicker))
	target, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(rawTarget), ",", "."), 64)
	if err != nil || ticker == "" {
		return translation.Translate("Uso: /alerta TICKER PREÇO \\(ex\\.: /alerta PETR4\\.SA 42\\.50\\)")
	}
	if target <= 0 {
		return translation.Translate("❌ O preço alvo deve ser maior que zero\\.")
	}

	direction, err := alert.ResolveDirection(ctx, b.quotes, ticker, target)
	if err != nil {
		log.Warnf("failed to resolve direction for %s: %v", ticker, err)
		return fmt.Sprintf(
			translation.Translate("❌ Não consegui obter o preço de *%s*\\. Verifique o ticker\\."),
			helpers.EscapeMarkdownV2(ticker),
		)
	}

	err = b.store.ReplacePriceAlert(storage.PriceAlert{
		UserID:      userID,
		Ticker:      ticker,
		TargetPrice: target,
		Direction:   direction,
	})
	if err != nil {
		log.Errorf("failed to save price alert for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao salvar o alerta\\. Tente novamente\\.")
	}

	arrow := "🚀"
	if direction == storage.DirectionDown {
		arrow = "📉"
	}
	return fmt.Sprintf(
		translation.Translate("%s Alerta criado: *%s* a R$ %s"),
		arrow,
		helpers.EscapeMarkdownV2(ticker),
		helpers.FormatPriceUS(target, true),
	)
}

func (b *Bot) listPriceAlerts(userID int64) string {
	alerts, err := b.store.ListPriceAlerts(userID)
	if err != nil {
		log.Errorf("failed to list price alerts for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao buscar seus alertas\\.")
	}
	if len(alerts) == 0 {
		return translation.Translate("🔕 Nenhum alerta de preço\\. Use /alerta TICKER PREÇO\\.")
	}

	var sb strings.Builder
	sb.WriteString(translation.Translate("🔔 *ALERTAS DE PREÇO*"))
	sb.WriteString("\n\n")
	for _, a := range alerts {
		arrow := "🚀"
		if a.Direction == storage.DirectionDown {
			arrow = "📉"
		}
		status := ""
		if a.Notified {
			status = translation.Translate(" \\(disparado\\)")
		}
		sb.WriteString(fmt.Sprintf(
			"%s *%s* \\- R$ %s%s\n",
			arrow,
			helpers.EscapeMarkdownV2(a.Ticker),
			helpers.FormatPriceUS(a.TargetPrice, true),
			status,
		))
	}
	return sb.String()
}

func (b *Bot) handleRemovePriceAlert(userID int64, args string) string {
	ticker := normalizeTicker(args)
	if ticker == "" {
		return translation.Translate("Uso: /remover\\_alerta TICKER")
	}

	removed, err := b.store.DeletePriceAlert(userID, ticker)
	if err != nil {
		log.Errorf("failed to delete price alert for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao remover o alerta\\.")
	}
	if !removed {
		return fmt.Sprintf(
			translation.Translate("🤷 Nenhum alerta de preço para *%s*\\."),
			helpers.EscapeMarkdownV2(ticker),
		)
	}
	return fmt.Sprintf(
		translation.Translate("🗑 Alerta de *%s* removido\\."),
		helpers.EscapeMarkdownV2(ticker),
	)
}

// handlePanicAlert sets a daily drawdown alert. "/panico TICKER off" disables
// it; without arguments the active alerts are listed.
func (b *Bot) handlePanicAlert(userID int64, args string) string {
	if strings.TrimSpace(args) == "" {
		return b.listPanicAlerts(userID)
	}

	rawTicker, rawValue := ParseArguments(args)
	ticker := strings.ToUpper(strings.TrimSpace(rawTicker))
	value := strings.ToLower(strings.TrimSpace(rawValue))
	if ticker == "" || value == "" {
		return translation.Translate("Uso: /panico TICKER QUEDA \\(ex\\.: /panico PETR4\\.SA 5\\) ou /panico TICKER off")
	}

	if value == "off" {
		disabled, err := b.store.DeletePanicAlert(userID, ticker)
		if err != nil {
			log.Errorf("failed to disable panic alert for user %d: %v", userID, err)
			return translation.Translate("❌ Erro ao desativar o alerta\\.")
		}
		if !disabled {
			return fmt.Sprintf(
				translation.Translate("🤷 Nenhum alerta de pânico para *%s*\\."),
				helpers.EscapeMarkdownV2(ticker),
			)
		}
		return fmt.Sprintf(
			translation.Translate("🔕 Alerta de pânico de *%s* desativado\\."),
			helpers.EscapeMarkdownV2(ticker),
		)
	}

	threshold, err := strconv.ParseFloat(strings.TrimSuffix(strings.ReplaceAll(value, ",", "."), "%"), 64)
	if err != nil || threshold <= 0 {
		return translation.Translate("❌ A queda deve ser um percentual maior que zero\\.")
	}

	err = b.store.UpsertPanicAlert(storage.PanicAlert{
		UserID:           userID,
		Ticker:           ticker,
		Active:           true,
		DropThresholdPct: threshold,
	})
	if err != nil {
		log.Errorf("failed to save panic alert for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao salvar o alerta\\. Tente novamente\\.")
	}

	return fmt.Sprintf(
		translation.Translate("🚨 Alerta de pânico: *%s* com queda de %s ou mais"),
		helpers.EscapeMarkdownV2(ticker),
		helpers.EscapeMarkdownV2(fmt.Sprintf("%.1f%%", threshold)),
	)
}

func (b *Bot) listPanicAlerts(userID int64) string {
	alerts, err := b.store.ListActivePanicAlerts(userID)
	if err != nil {
		log.Errorf("failed to list panic alerts for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao buscar seus alertas\\.")
	}
	if len(alerts) == 0 {
		return translation.Translate("🔕 Nenhum alerta de pânico\\. Use /panico TICKER QUEDA\\.")
	}

	var sb strings.Builder
	sb.WriteString(translation.Translate("🚨 *ALERTAS DE PÂNICO*"))
	sb.WriteString("\n\n")
	for _, a := range alerts {
		sb.WriteString(fmt.Sprintf(
			"▫️ *%s* \\- queda ≥ %s\n",
			helpers.EscapeMarkdownV2(a.Ticker),
			helpers.EscapeMarkdownV2(fmt.Sprintf("%.1f%%", a.DropThresholdPct)),
		))
	}
	return sb.String()
}
