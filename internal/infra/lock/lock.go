package lock

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
)

// ErrLocked means another bot process already holds the lock file.
var ErrLocked = errors.New("another instance is already running")

// InstanceLock keeps two pollers from sharing one chat and one cursor.
type InstanceLock struct {
	fl *flock.Flock
}

func New(path string) *InstanceLock {
	return &InstanceLock{fl: flock.New(path)}
}

// TryLock acquires the lock without blocking.
func (l *InstanceLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o755); err != nil {
		return errors.Wrapf(err, "create lock directory for %s", l.fl.Path())
	}
	ok, err := l.fl.TryLock()
	if err != nil {
		return errors.Wrapf(err, "lock %s", l.fl.Path())
	}
	if !ok {
		return errors.Wrapf(ErrLocked, "lock %s", l.fl.Path())
	}
	return nil
}

func (l *InstanceLock) Unlock() error {
	return l.fl.Unlock()
}

func (l *InstanceLock) Path() string { return l.fl.Path() }
