package telegram

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lucashahnndev/radar-do-caos/internal/alert"
	"github.com/lucashahnndev/radar-do-caos/internal/quotes"
	"github.com/lucashahnndev/radar-do-caos/internal/storage"
)

// BotConfig holds telegram bot configuration
type BotConfig struct {
	Token            string
	Debug            bool
	UpdatesTimeout   int
	DashboardBaseURL string
}

// Bot is the telegram bot
type Bot struct {
	Bot    *tgbotapi.BotAPI
	Config BotConfig

	store    *storage.Store
	quotes   quotes.Source
	composer *alert.DigestComposer
	loc      *time.Location
}

// Message is the message to send
type Message struct {
	ChatID    int
	MessageID int
	Text      string
}
