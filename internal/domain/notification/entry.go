// internal/domain/notification/entry.go
package notification

import (
	"time"

	"homework_status_bot/internal/domain/homework"
)

// Kind tells what a delivered message was about.
type Kind string

const (
	KindStartup Kind = "STARTUP"
	KindVerdict Kind = "VERDICT"
	KindError   Kind = "ERROR"
)

// KindForReport maps a report slot to the journal kind.
func KindForReport(r homework.Report) Kind {
	if r.Key == homework.ReportKeyError {
		return KindError
	}
	return KindVerdict
}

// Entry is one message that reached the chat.
// Corresponds to the 'notification_journal' table.
type Entry struct {
	ID      int64
	CycleID string // empty for messages sent outside a poll cycle
	ChatID  string
	Kind    Kind
	Text    string
	SentAt  time.Time
}
