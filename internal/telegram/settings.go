package telegram

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/lucashahnndev/radar-do-caos/internal/storage"
	"github.com/lucashahnndev/radar-do-caos/lib/helpers"
	"github.com/lucashahnndev/radar-do-caos/lib/translation"
)

func (b *Bot) handleAutoDigest(userID int64) string {
	settings, err := b.store.EnsureSettings(userID)
	if err != nil {
		log.Errorf("failed to load settings for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao carregar suas configurações\\.")
	}

	enabled := !settings.AutoDigest
	if err := b.store.SetAutoDigest(userID, enabled); err != nil {
		log.Errorf("failed to toggle auto digest for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao salvar\\. Tente novamente\\.")
	}

	if enabled {
		return fmt.Sprintf(
			translation.Translate("🔔 Resumo automático *ligado* \\(às %s\\)"),
			helpers.EscapeMarkdownV2(settings.DigestTime),
		)
	}
	return translation.Translate("🔕 Resumo automático *desligado*")
}

func (b *Bot) handleDigestTime(userID int64, args string) string {
	timeOfDay, err := helpers.ParseTimeOfDay(args)
	if err != nil {
		return translation.Translate("Uso: /horario HH:MM \\(ex\\.: /horario 18:00\\)")
	}

	if _, err := b.store.EnsureSettings(userID); err != nil {
		log.Errorf("failed to ensure settings for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao salvar\\. Tente novamente\\.")
	}
	if err := b.store.SetDigestTime(userID, timeOfDay); err != nil {
		log.Errorf("failed to set digest time for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao salvar\\. Tente novamente\\.")
	}

	return fmt.Sprintf(
		translation.Translate("⏰ Resumo automático agendado para *%s*"),
		helpers.EscapeMarkdownV2(timeOfDay),
	)
}

func (b *Bot) handlePanicTime(userID int64, args string) string {
	timeOfDay, err := helpers.ParseTimeOfDay(args)
	if err != nil {
		return translation.Translate("Uso: /horario\\_panico HH:MM \\(ex\\.: /horario\\_panico 18:00\\)")
	}

	if _, err := b.store.EnsureSettings(userID); err != nil {
		log.Errorf("failed to ensure settings for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao salvar\\. Tente novamente\\.")
	}
	if err := b.store.SetPanicCheckTime(userID, timeOfDay); err != nil {
		log.Errorf("failed to set panic time for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao salvar\\. Tente novamente\\.")
	}

	return fmt.Sprintf(
		translation.Translate("⏰ Verificação de pânico agendada para *%s*"),
		helpers.EscapeMarkdownV2(timeOfDay),
	)
}

func (b *Bot) handleHistory(userID int64, args string) string {
	limit := 0
	if trimmed := strings.TrimSpace(args); trimmed != "" {
		if n, err := strconv.Atoi(trimmed); err == nil {
			limit = n
		}
	}

	entries, err := b.store.ListHistory(userID, limit)
	if err != nil {
		log.Errorf("failed to list history for user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao buscar o histórico\\.")
	}
	if len(entries) == 0 {
		return translation.Translate("📭 Nenhum alerta disparado ainda\\.")
	}

	var sb strings.Builder
	sb.WriteString(translation.Translate("🗂 *HISTÓRICO DE ALERTAS*"))
	sb.WriteString("\n\n")
	for _, entry := range entries {
		emoji := "🔔"
		if entry.Kind == storage.KindPanic {
			emoji = "🚨"
		}
		sb.WriteString(fmt.Sprintf(
			"%s *%s* \\- %s \\(%s\\)\n",
			emoji,
			helpers.EscapeMarkdownV2(entry.Ticker),
			helpers.FormatPriceUS(entry.TriggerValue, true),
			helpers.EscapeMarkdownV2(humanize.Time(entry.TriggeredAt)),
		))
	}
	return sb.String()
}

// handleDashboard provisions web dashboard access. Each call issues a fresh
// key; only its bcrypt hash is stored.
func (b *Bot) handleDashboard(userID int64, username string) string {
	key, err := generateAccessKey()
	if err != nil {
		log.Errorf("failed to generate dashboard key: %v", err)
		return translation.Translate("❌ Erro ao gerar a chave de acesso\\.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		log.Errorf("failed to hash dashboard key: %v", err)
		return translation.Translate("❌ Erro ao gerar a chave de acesso\\.")
	}

	created, err := b.store.CreateDashboardUser(userID, string(hash), username)
	if err != nil {
		log.Errorf("failed to create dashboard user %d: %v", userID, err)
		return translation.Translate("❌ Erro ao salvar o acesso\\. Tente novamente\\.")
	}
	if !created {
		if err := b.store.UpdateDashboardKeyHash(userID, string(hash)); err != nil {
			log.Errorf("failed to rotate dashboard key for user %d: %v", userID, err)
			return translation.Translate("❌ Erro ao salvar o acesso\\. Tente novamente\\.")
		}
	}

	return fmt.Sprintf(
		translation.Translate("🔑 *Painel web*\n\nLink: %s\nID: `%d`\nChave: `%s`\n\n⚠️ Guarde a chave, ela não será mostrada de novo\\."),
		helpers.EscapeMarkdownV2(fmt.Sprintf("%s/?user_id=%d", b.Config.DashboardBaseURL, userID)),
		userID,
		key,
	)
}

func generateAccessKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
