package telegram

import (
	"context"
	"regexp"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lucashahnndev/radar-do-caos/internal/alert"
	"github.com/lucashahnndev/radar-do-caos/internal/quotes"
	"github.com/lucashahnndev/radar-do-caos/internal/storage"
	"github.com/lucashahnndev/radar-do-caos/lib/translation"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, store *storage.Store, source quotes.Source, composer *alert.DigestComposer, loc *time.Location) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:      bot,
		Config:   c,
		store:    store,
		quotes:   source,
		composer: composer,
		loc:      loc,
	}, nil
}

// GetUpdatesChannel gets new updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(int64(m.ChatID), m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message: %v", m)
}

// ParseArguments splits command arguments into the ticker and the rest.
func ParseArguments(args string) (string, string) {
	re := regexp.MustCompile(`^(\S+)\s*(.+)?$`)
	matches := re.FindStringSubmatch(args)

	if len(matches) >= 2 {
		ticker := matches[1]
		rest := ""
		if len(matches) == 3 {
			rest = matches[2]
		}
		return ticker, rest
	}
	return "", ""
}

// HandleUpdate processes Telegram updates
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) string {
	text := helpMessage()
	log.Debugf("received command: %s", u.Message.Command())

	userID := u.Message.Chat.ID
	args := u.Message.CommandArguments()

	switch u.Message.Command() {
	case "start":
		text = b.handleStart(userID)
	case "add":
		text = b.handleAdd(ctx, userID, args)
	case "remove":
		text = b.handleRemove(userID, args)
	case "lista":
		text = b.handleList(userID)
	case "resumo":
		text = b.handleSummary(ctx, userID)
	case "alerta":
		text = b.handlePriceAlert(ctx, userID, args)
	case "remover_alerta":
		text = b.handleRemovePriceAlert(userID, args)
	case "panico":
		text = b.handlePanicAlert(userID, args)
	case "auto":
		text = b.handleAutoDigest(userID)
	case "horario":
		text = b.handleDigestTime(userID, args)
	case "horario_panico":
		text = b.handlePanicTime(userID, args)
	case "historico":
		text = b.handleHistory(userID, args)
	case "grafico":
		return b.handleChart(ctx, u)
	case "dashboard":
		text = b.handleDashboard(userID, u.Message.Chat.UserName)
	}

	return text
}

func helpMessage() string {
	return translation.Translate(
		"📈 *Radar do Caos*\n\n" +
			"/add TICKER \\- monitorar uma ação\n" +
			"/remove TICKER \\- parar de monitorar\n" +
			"/lista \\- ações monitoradas\n" +
			"/resumo \\- resumo das ações\n" +
			"/alerta TICKER PREÇO \\- alerta de preço\n" +
			"/remover\\_alerta TICKER \\- remover alerta\n" +
			"/panico TICKER QUEDA \\- alerta de pânico\n" +
			"/auto \\- ligar/desligar resumo automático\n" +
			"/horario HH:MM \\- horário do resumo\n" +
			"/horario\\_panico HH:MM \\- horário do pânico\n" +
			"/historico \\- alertas disparados\n" +
			"/grafico TICKER \\- gráfico de fechamento\n" +
			"/dashboard \\- acesso ao painel web",
	)
}
