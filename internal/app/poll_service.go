// internal/app/poll_service.go
package app

import (
	"context"
	"sync"
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Poller is what the scheduler drives.
type Poller interface {
	// Announce sends the one-time startup notification.
	Announce(ctx context.Context) error
	// Cycle runs one poll cycle. Failures are already reported to the chat
	// when it returns; the error is for the caller's log.
	Cycle(ctx context.Context) error
}

// Snapshot is a read-only view of the poller state.
type Snapshot struct {
	Cursor      int64
	Cycles      int
	LastCycleAt time.Time
	LastError   string
	LastKind    homework.Kind
	Report      homework.Report
}

// PollService fetches homework statuses, validates them and hands the verdict
// to the NotificationService. It owns the poll cursor.
type PollService struct {
	source    homework.Source
	validator homework.Validator
	notifier  *NotificationService
	logger    *logrus.Entry
	now       func() time.Time

	mu          sync.RWMutex
	cursor      int64
	cycles      int
	lastCycleAt time.Time
	lastErr     error
}

func NewPollService(
	source homework.Source,
	notifier *NotificationService,
	logger *logrus.Entry,
	startCursor int64,
) *PollService {
	return &PollService{
		source:    source,
		validator: homework.Validator{Policy: homework.TakeFirstElement},
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
		cursor:    startCursor,
	}
}

// SetListPolicy changes how a top-level list response is normalized. Call it
// before the first cycle.
func (s *PollService) SetListPolicy(p homework.ListPolicy) {
	s.validator.Policy = p
}

// Announce sends the startup message. A failure is logged by the notifier.
func (s *PollService) Announce(ctx context.Context) error {
	return s.notifier.Announce(ctx)
}

// Cycle runs one fetch-validate-translate-notify pass. Any failure except
// context cancellation is converted into a best-effort error notification.
func (s *PollService) Cycle(ctx context.Context) error {
	cycleID := uuid.NewString()
	ctx = WithCycleID(ctx, cycleID)
	logCtx := s.logger.WithField("cycle_id", cycleID)

	err := s.runCycle(ctx, logCtx)

	s.mu.Lock()
	s.cycles++
	s.lastCycleAt = s.now()
	s.lastErr = err
	s.mu.Unlock()

	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	kind := homework.KindOf(err)
	errLog := logCtx.WithError(err).WithField("error_kind", kind)
	var rce *homework.ResponseCodeError
	if errors.As(err, &rce) {
		errLog = errLog.WithField("status_code", rce.StatusCode)
		errLog.Error(rce.Summary())
	}
	errLog.Error(FailureMessage(err))

	s.notifier.NotifyFailure(ctx, err)
	return err
}

func (s *PollService) runCycle(ctx context.Context, logCtx *logrus.Entry) error {
	cursor := s.Cursor()

	raw, err := s.source.Fetch(ctx, cursor)
	if err != nil {
		return errors.Wrap(err, "fetch homework statuses")
	}

	resp, err := s.validator.Validate(raw)
	if err != nil {
		return errors.Wrap(err, "check response")
	}

	if resp.CurrentDate != nil {
		s.mu.Lock()
		s.cursor = *resp.CurrentDate
		s.mu.Unlock()
	}

	report := homework.Report{}
	if len(resp.Homeworks) == 0 {
		logCtx.WithField("from_date", cursor).Debug("Homework status did not change")
	} else {
		logCtx.WithField("homeworks_count", len(resp.Homeworks)).Info("Homework statuses received")
		text, err := homework.Translate(resp.Homeworks[0])
		if err != nil {
			return errors.Wrap(err, "parse status")
		}
		report = homework.VerdictReport(text)
	}

	if _, err := s.notifier.NotifyReport(ctx, report); err != nil {
		return err
	}
	return nil
}

// Cursor returns the from_date used by the next fetch.
func (s *PollService) Cursor() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// Snapshot returns the current state for status reporting.
func (s *PollService) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		Cursor:      s.cursor,
		Cycles:      s.cycles,
		LastCycleAt: s.lastCycleAt,
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
		snap.LastKind = homework.KindOf(s.lastErr)
	}
	s.mu.RUnlock()

	snap.Report = s.notifier.Previous()
	return snap
}
