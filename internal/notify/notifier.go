package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// Notifier delivers a message to one user. Implementations are injected into
// every job and command handler; there is no ambient global instance.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// TelegramNotifier sends MarkdownV2 messages through the bot API.
type TelegramNotifier struct {
	api *tgbotapi.BotAPI
}

func NewTelegramNotifier(api *tgbotapi.BotAPI) *TelegramNotifier {
	return &TelegramNotifier{api: api}
}

func (n *TelegramNotifier) Notify(ctx context.Context, userID int64, text string) error {
	if n == nil || n.api == nil {
		return errors.New("telegram notifier not configured")
	}

	msg := tgbotapi.NewMessage(userID, text)
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := n.api.Send(msg)
	return errors.Wrapf(err, "could not send message to user %d", userID)
}

var _ Notifier = (*TelegramNotifier)(nil)
