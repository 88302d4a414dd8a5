package telegram

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// CommandPoller runs telebot long polling for chat commands. The bot is built
// offline, so its identity is fetched here with retries; until that succeeds
// commands are simply not served and sending is unaffected.
type CommandPoller struct {
	bot        *telebot.Bot
	logger     *logrus.Entry
	retryDelay time.Duration
}

func NewCommandPoller(b *telebot.Bot, retryDelay time.Duration, logger *logrus.Entry) *CommandPoller {
	return &CommandPoller{bot: b, logger: logger, retryDelay: retryDelay}
}

// Run blocks until ctx is cancelled.
func (p *CommandPoller) Run(ctx context.Context) {
	for attempt := 1; ; attempt++ {
		err := p.resolveIdentity()
		if err == nil {
			break
		}
		p.logger.WithError(err).WithField("attempt", attempt).Warn("Could not reach Telegram, commands postponed")
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.retryDelay):
		}
	}
	p.logger.WithField("bot_username", p.bot.Me.Username).Info("Command polling started")

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		p.bot.Stop()
	}()
	p.bot.Start()
	<-stopped
	p.logger.Info("Command polling stopped")
}

func (p *CommandPoller) resolveIdentity() error {
	data, err := p.bot.Raw("getMe", nil)
	if err != nil {
		return errors.Wrap(err, "getMe")
	}
	var resp struct {
		Result *telebot.User `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return errors.Wrap(err, "decode getMe")
	}
	if resp.Result == nil {
		return errors.New("getMe returned no user")
	}
	p.bot.Me = resp.Result
	return nil
}
