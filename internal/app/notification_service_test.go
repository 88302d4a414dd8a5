package app

import (
	"context"
	"testing"
	"time"

	"homework_status_bot/internal/domain/homework"
	"homework_status_bot/internal/domain/notification"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyReport_IdenticalReportsSentOnce(t *testing.T) {
	client := &fakeClient{}
	logger, _ := newTestLogger()
	svc := NewNotificationService(client, nil, "42", logger)
	ctx := context.Background()

	report := homework.VerdictReport("hw reviewing")

	sent, err := svc.NotifyReport(ctx, report)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = svc.NotifyReport(ctx, report)
	require.NoError(t, err)
	assert.False(t, sent)

	require.Len(t, client.sent, 1)
	assert.Equal(t, sentMessage{chatID: "42", text: "hw reviewing"}, client.sent[0])
	assert.Equal(t, report, svc.Previous())
}

func TestNotifyReport_EmptyReportResetsBaselineWithoutSending(t *testing.T) {
	client := &fakeClient{}
	logger, _ := newTestLogger()
	svc := NewNotificationService(client, nil, "42", logger)
	ctx := context.Background()

	_, err := svc.NotifyReport(ctx, homework.ErrorReport("boom"))
	require.NoError(t, err)

	sent, err := svc.NotifyReport(ctx, homework.Report{})
	require.NoError(t, err)
	assert.False(t, sent)
	assert.True(t, svc.Previous().IsEmpty())

	// the same error after a clean cycle is news again
	sent, err = svc.NotifyReport(ctx, homework.ErrorReport("boom"))
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, []string{"boom", "boom"}, client.texts())
}

func TestNotifyReport_SendFailureKeepsBaseline(t *testing.T) {
	client := &fakeClient{failNext: 1}
	logger, _ := newTestLogger()
	svc := NewNotificationService(client, nil, "42", logger)
	ctx := context.Background()
	report := homework.VerdictReport("hw approved")

	sent, err := svc.NotifyReport(ctx, report)
	require.Error(t, err)
	assert.False(t, sent)
	assert.Equal(t, homework.KindSendMessage, homework.KindOf(err))
	assert.True(t, svc.Previous().IsEmpty())

	sent, err = svc.NotifyReport(ctx, report)
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestNotifyFailure_DeduplicatesSameError(t *testing.T) {
	client := &fakeClient{}
	logger, _ := newTestLogger()
	svc := NewNotificationService(client, nil, "42", logger)
	ctx := context.Background()
	cause := errors.New("endpoint is down")

	svc.NotifyFailure(ctx, cause)
	svc.NotifyFailure(ctx, cause)
	svc.NotifyFailure(ctx, errors.New("another failure"))

	assert.Equal(t, []string{
		"Сбой в работе программы: endpoint is down",
		"Сбой в работе программы: another failure",
	}, client.texts())
}

func TestNotifyFailure_DeliveryErrorIsLogged(t *testing.T) {
	client := &fakeClient{failNext: 1}
	logger, hook := newTestLogger()
	svc := NewNotificationService(client, nil, "42", logger)

	assert.NotPanics(t, func() {
		svc.NotifyFailure(context.Background(), errors.New("boom"))
	})

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "Failed to send error notification", hook.LastEntry().Message)
	assert.Empty(t, client.sent)
}

func TestAnnounce(t *testing.T) {
	client := &fakeClient{}
	journal := &fakeJournal{}
	logger, _ := newTestLogger()
	svc := NewNotificationService(client, journal, "42", logger)

	require.NoError(t, svc.Announce(context.Background()))
	assert.Equal(t, []string{"Бот запущен"}, client.texts())
	require.Len(t, journal.entries, 1)
	assert.Equal(t, notification.KindStartup, journal.entries[0].Kind)
	assert.True(t, svc.Previous().IsEmpty(), "startup message is not a report")
}

func TestJournal_RecordsDeliveredMessages(t *testing.T) {
	client := &fakeClient{}
	journal := &fakeJournal{}
	logger, _ := newTestLogger()
	svc := NewNotificationService(client, journal, "42", logger)
	ctx := WithCycleID(context.Background(), "cycle-1")

	_, err := svc.NotifyReport(ctx, homework.VerdictReport("v"))
	require.NoError(t, err)
	svc.NotifyFailure(ctx, errors.New("e"))

	require.Len(t, journal.entries, 2)
	assert.Equal(t, notification.KindVerdict, journal.entries[0].Kind)
	assert.Equal(t, "cycle-1", journal.entries[0].CycleID)
	assert.Equal(t, "42", journal.entries[0].ChatID)
	assert.Equal(t, notification.KindError, journal.entries[1].Kind)
	assert.False(t, journal.entries[1].SentAt.IsZero())
}

func TestJournal_FailureDoesNotBreakDelivery(t *testing.T) {
	client := &fakeClient{}
	journal := &fakeJournal{err: errors.New("db down")}
	logger, hook := newTestLogger()
	svc := NewNotificationService(client, journal, "42", logger)

	sent, err := svc.NotifyReport(context.Background(), homework.VerdictReport("v"))
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

// blockingClient holds every send until release is closed.
type blockingClient struct {
	entered chan struct{}
	release chan struct{}
}

func (c *blockingClient) SendMessage(ctx context.Context, _ string, _ string) error {
	close(c.entered)
	select {
	case <-c.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestPrevious_NotBlockedBySlowSend(t *testing.T) {
	client := &blockingClient{entered: make(chan struct{}), release: make(chan struct{})}
	logger, _ := newTestLogger()
	svc := NewNotificationService(client, nil, "42", logger)

	report := homework.VerdictReport("hw approved")
	done := make(chan error, 1)
	go func() {
		_, err := svc.NotifyReport(context.Background(), report)
		done <- err
	}()
	<-client.entered

	got := make(chan homework.Report, 1)
	go func() { got <- svc.Previous() }()
	select {
	case prev := <-got:
		assert.True(t, prev.IsEmpty(), "baseline changes only after delivery")
	case <-time.After(2 * time.Second):
		t.Fatal("Previous blocked while a message was being sent")
	}

	close(client.release)
	require.NoError(t, <-done)
	assert.Equal(t, report, svc.Previous())
}
