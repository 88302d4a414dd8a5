package app

import (
	"context"
	"sync"

	"homework_status_bot/internal/domain/notification"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type sentMessage struct {
	chatID string
	text   string
}

// fakeClient records messages and fails while failNext > 0.
type fakeClient struct {
	mu       sync.Mutex
	sent     []sentMessage
	failNext int
}

func (c *fakeClient) SendMessage(_ context.Context, chatID string, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext > 0 {
		c.failNext--
		return errors.New("telegram: Bad Gateway (502)")
	}
	c.sent = append(c.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (c *fakeClient) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.sent))
	for _, m := range c.sent {
		out = append(out, m.text)
	}
	return out
}

type fetchResult struct {
	raw any
	err error
}

// fakeSource replays results in order and records the cursors it was asked for.
type fakeSource struct {
	results []fetchResult
	cursors []int64
}

func (s *fakeSource) Fetch(ctx context.Context, cursor int64) (any, error) {
	s.cursors = append(s.cursors, cursor)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.results) == 0 {
		return map[string]any{"homeworks": []any{}}, nil
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.raw, r.err
}

type fakeJournal struct {
	entries []*notification.Entry
	err     error
}

func (j *fakeJournal) Append(_ context.Context, e *notification.Entry) error {
	if j.err != nil {
		return j.err
	}
	j.entries = append(j.entries, e)
	return nil
}

func (j *fakeJournal) ListRecent(_ context.Context, limit int) ([]*notification.Entry, error) {
	if limit > len(j.entries) {
		limit = len(j.entries)
	}
	return j.entries[len(j.entries)-limit:], nil
}

func newTestLogger() (*logrus.Entry, *test.Hook) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(l), hook
}

func homeworkPayload(name, status string, currentDate int64) map[string]any {
	return map[string]any{
		"homeworks": []any{
			map[string]any{"homework_name": name, "status": status},
		},
		"current_date": float64(currentDate),
	}
}
