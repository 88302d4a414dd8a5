// internal/app/notification_service.go
package app

import (
	"context"
	"sync"
	"time"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"
	domainTelegram "homework_status_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

const (
	startupMessage       = "Бот запущен"
	failureMessagePrefix = "Сбой в работе программы: "
)

// NotificationService decides when a report is worth a message and delivers it
// to the configured chat. It remembers the last delivered report so identical
// consecutive states are sent only once.
type NotificationService struct {
	telegramClient domainTelegram.Client
	journal        notification.Journal // optional
	chatID         string
	logger         *logrus.Entry
	now            func() time.Time

	sendMu   sync.Mutex // serializes NotifyReport calls
	mu       sync.Mutex // guards previous only, never held across a send
	previous homework.Report
}

func NewNotificationService(
	tc domainTelegram.Client,
	journal notification.Journal,
	chatID string,
	logger *logrus.Entry,
) *NotificationService {
	return &NotificationService{
		telegramClient: tc,
		journal:        journal,
		chatID:         chatID,
		logger:         logger,
		now:            time.Now,
	}
}

// Announce sends the one-time startup message.
func (s *NotificationService) Announce(ctx context.Context) error {
	if err := s.send(ctx, notification.KindStartup, startupMessage); err != nil {
		s.logger.WithError(err).Error("Failed to send startup message")
		return err
	}
	return nil
}

// NotifyReport sends report when it differs from the previous one. An empty
// report never produces a message but still becomes the new baseline.
// Delivery failures are returned as SendMessageError and leave the baseline
// untouched so the message is retried next cycle.
func (s *NotificationService) NotifyReport(ctx context.Context, report homework.Report) (bool, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if report == s.Previous() {
		s.logger.WithField("report_key", report.Key).Debug("Report unchanged, nothing to send")
		return false, nil
	}
	if report.IsEmpty() {
		s.setPrevious(report)
		return false, nil
	}

	if err := s.send(ctx, notification.KindForReport(report), report.Text); err != nil {
		return false, err
	}
	s.setPrevious(report)
	return true, nil
}

// NotifyFailure turns a cycle failure into an error report and sends it when it
// differs from the previous report. It never fails: delivery problems are logged.
func (s *NotificationService) NotifyFailure(ctx context.Context, cause error) {
	report := homework.ErrorReport(FailureMessage(cause))
	if _, err := s.NotifyReport(ctx, report); err != nil {
		s.logger.WithError(err).Error("Failed to send error notification")
	}
}

// Previous returns the last delivered report.
func (s *NotificationService) Previous() homework.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previous
}

func (s *NotificationService) setPrevious(r homework.Report) {
	s.mu.Lock()
	s.previous = r
	s.mu.Unlock()
}

// FailureMessage is the user-facing text for a failed cycle.
func FailureMessage(cause error) string {
	return failureMessagePrefix + cause.Error()
}

func (s *NotificationService) send(ctx context.Context, kind notification.Kind, text string) error {
	logCtx := s.logger.WithFields(logrus.Fields{
		"chat_id": s.chatID,
		"kind":    kind,
	})

	if err := s.telegramClient.SendMessage(ctx, s.chatID, text); err != nil {
		return homework.NewSendMessageError(s.chatID, err)
	}
	logCtx.WithField("text", text).Info("Bot sent message")

	if s.journal == nil {
		return nil
	}
	entry := &notification.Entry{
		CycleID: CycleIDFrom(ctx),
		ChatID:  s.chatID,
		Kind:    kind,
		Text:    text,
		SentAt:  s.now(),
	}
	if err := s.journal.Append(ctx, entry); err != nil {
		logCtx.WithError(err).Warn("Failed to record message in journal")
	}
	return nil
}
