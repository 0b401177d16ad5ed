package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// MaxMessageLength is the Telegram limit for a single text message.
const MaxMessageLength = 4096

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	newBackOff func() backoff.BackOff
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken string, chatID int64, proxyURL string) (*TelegramNotifier, error) {
	return NewTelegramNotifierWithEndpoint(botToken, chatID, proxyURL, tgbotapi.APIEndpoint)
}

// NewTelegramNotifierWithEndpoint is NewTelegramNotifier against a custom Bot
// API endpoint of the form "https://host/bot%s/%s".
func NewTelegramNotifierWithEndpoint(botToken string, chatID int64, proxyURL, endpoint string) (*TelegramNotifier, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	// Long polling holds requests open for 30s.
	client := &http.Client{
		Timeout:   60 * time.Second,
		Transport: transport,
	}
	if err := tgbotapi.SetLogger(botLogger{}); err != nil {
		log.Warn().Str("component", "telegram").Err(err).Msg("route bot api logs")
	}
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	log.Info().Str("component", "telegram").Str("bot", bot.Self.UserName).Msg("authorized")

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			return b
		},
	}, nil
}

// Send sends a message to the configured chat, split into as many parts as
// the length limit requires.
func (t *TelegramNotifier) Send(text string) error {
	return t.sendTo(context.Background(), t.chatID, text, 0)
}

// SendWithRetry sends a message, retrying each part with exponential backoff.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	return t.sendTo(ctx, t.chatID, text, maxRetries)
}

func (t *TelegramNotifier) sendTo(ctx context.Context, chatID int64, text string, maxRetries int) error {
	parts := SplitMessage(text, MaxMessageLength)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.DisableWebPagePreview = true

		attempt := 0
		op := func() error {
			attempt++
			_, err := t.bot.Send(msg)
			if err == nil {
				return nil
			}
			var apiErr *tgbotapi.Error
			if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			if attempt <= maxRetries {
				log.Warn().Str("component", "telegram").Err(err).
					Int("attempt", attempt).Int("max", maxRetries+1).Msg("send failed, retrying")
			}
			return err
		}

		b := backoff.WithContext(backoff.WithMaxRetries(t.newBackOff(), uint64(maxRetries)), ctx)
		if err := backoff.Retry(op, b); err != nil {
			return fmt.Errorf("send part %d/%d: %w", i+1, len(parts), err)
		}
	}
	return nil
}

// SplitMessage breaks text into chunks of at most limit characters, cutting on
// line boundaries. A single line longer than limit is cut mid-line.
func SplitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		parts []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if n > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			n = 0
		}
	}
	for _, line := range strings.Split(text, "\n") {
		for utf8.RuneCountInString(line) > limit {
			flush()
			r := []rune(line)
			parts = append(parts, string(r[:limit]))
			line = string(r[limit:])
		}
		ln := utf8.RuneCountInString(line)
		sep := 0
		if n > 0 {
			sep = 1
		}
		if n+sep+ln > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
		n += sep + ln
	}
	flush()
	return parts
}
