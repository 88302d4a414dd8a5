// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"time"

	domainTelegram "homework_status_bot/internal/domain/telegram"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// chatRecipient addresses a chat by numeric id or @username.
type chatRecipient string

func (r chatRecipient) Recipient() string { return string(r) }

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot     *telebot.Bot
	limiter *rate.Limiter
}

var _ domainTelegram.Client = (*TelebotAdapter)(nil)

// NewTelebotAdapter spaces outbound messages at least interval apart.
// A non-positive interval disables throttling.
func NewTelebotAdapter(b *telebot.Bot, interval time.Duration) *TelebotAdapter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &TelebotAdapter{bot: b, limiter: rate.NewLimiter(limit, 1)}
}

// SendMessage sends a plain text message to chatID.
func (tba *TelebotAdapter) SendMessage(ctx context.Context, chatID string, text string) error {
	if err := tba.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "wait for send slot")
	}
	_, err := tba.bot.Send(chatRecipient(chatID), text, &telebot.SendOptions{DisableWebPagePreview: true})
	return err
}
