package notifier

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// botLogger routes the Bot API library's own logging through zerolog.
type botLogger struct{}

func (botLogger) Println(v ...interface{}) {
	log.Warn().Str("component", "tgbotapi").Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (botLogger) Printf(format string, v ...interface{}) {
	log.Warn().Str("component", "tgbotapi").Msgf(format, v...)
}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is
// cancelled. Messages from chats other than the configured one are ignored.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	logger := log.With().Str("component", "telegram").Logger()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			if update.Message.Chat.ID != t.chatID {
				logger.Debug().Int64("chat_id", update.Message.Chat.ID).Msg("ignoring message from unknown chat")
				continue
			}
			text := strings.TrimSpace(update.Message.Text)
			logger.Info().Str("command", text).Msg("received command")

			reply := handler(ctx, text)
			if reply == "" {
				continue
			}
			if err := t.sendTo(ctx, update.Message.Chat.ID, reply, 2); err != nil {
				logger.Error().Err(err).Msg("send reply")
			}
		}
	}
}
