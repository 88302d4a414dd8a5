// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const historyLimit = 5

// StatusProvider exposes the poller state to chat commands.
type StatusProvider interface {
	Snapshot() app.Snapshot
}

// RegisterBotCommands wires /start, /status and /history. Only the configured
// chat gets answers; everyone else is ignored.
func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	chatID string,
	status StatusProvider,
	journal notification.Journal, // optional
	baseLogger *logrus.Entry,
) {
	cmdLogger := baseLogger.WithField("handler_group", "commands")

	guard := func(command string, next func(c telebot.Context, logCtx *logrus.Entry) error) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			logCtx := cmdLogger.WithField("command", command)
			if c.Sender() != nil {
				logCtx = logCtx.WithField("sender_id", c.Sender().ID)
			}
			if !isConfiguredChat(c.Chat(), chatID) {
				logCtx.Warn("Ignoring command from foreign chat")
				return nil
			}
			logCtx.Info("Processing command")
			return next(c, logCtx)
		}
	}

	b.Handle("/start", guard("/start", func(c telebot.Context, _ *logrus.Entry) error {
		var help strings.Builder
		help.WriteString("Я слежу за статусом проверки домашней работы и пишу сюда, когда он меняется.\n\n")
		help.WriteString("/status - состояние опроса\n")
		help.WriteString("/history - последние отправленные уведомления")
		return c.Send(help.String())
	}))

	b.Handle("/status", guard("/status", func(c telebot.Context, _ *logrus.Entry) error {
		return c.Send(FormatStatus(status.Snapshot()))
	}))

	b.Handle("/history", guard("/history", func(c telebot.Context, logCtx *logrus.Entry) error {
		if journal == nil {
			return c.Send("Журнал уведомлений не подключён.")
		}
		entries, err := journal.ListRecent(ctx, historyLimit)
		if err != nil {
			logCtx.WithError(err).Error("Error reading notification journal")
			return c.Send("Не удалось прочитать журнал уведомлений. Попробуйте позже.")
		}
		return c.Send(FormatHistory(entries))
	}))
}

// isConfiguredChat matches a numeric chat id or an @username.
func isConfiguredChat(chat *telebot.Chat, chatID string) bool {
	if chat == nil {
		return false
	}
	if strings.HasPrefix(chatID, "@") {
		return chat.Username != "" && strings.EqualFold("@"+chat.Username, chatID)
	}
	return strconv.FormatInt(chat.ID, 10) == chatID
}

// FormatStatus renders a poller snapshot for the /status command.
func FormatStatus(snap app.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("Бот работает.\n")
	if snap.Cycles == 0 {
		sb.WriteString("Опросов ещё не было.\n")
	} else {
		fmt.Fprintf(&sb, "Последний опрос: %s (всего: %d)\n", snap.LastCycleAt.Format("2006-01-02 15:04:05"), snap.Cycles)
	}
	fmt.Fprintf(&sb, "Метка from_date: %d\n", snap.Cursor)

	if snap.Report.IsEmpty() {
		sb.WriteString("Последнее сообщение: нет\n")
	} else {
		fmt.Fprintf(&sb, "Последнее сообщение: %s\n", snap.Report.Text)
	}

	if snap.LastError == "" {
		sb.WriteString("Последняя ошибка: нет")
	} else {
		fmt.Fprintf(&sb, "Последняя ошибка (%s): %s", snap.LastKind, snap.LastError)
	}
	return sb.String()
}

// FormatHistory renders journal entries, newest first.
func FormatHistory(entries []*notification.Entry) string {
	if len(entries) == 0 {
		return "Уведомлений пока не было."
	}
	var sb strings.Builder
	sb.WriteString("Последние уведомления:")
	for _, e := range entries {
		fmt.Fprintf(&sb, "\n%s [%s] %s", e.SentAt.In(time.Local).Format("2006-01-02 15:04"), e.Kind, e.Text)
	}
	return sb.String()
}
