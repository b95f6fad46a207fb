// Package lockfile keeps a single calculator server per state directory.
// The lock file records who holds it so a second instance can say where
// the first one is listening.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLocked is matched by errors returned when another live process holds the lock
var ErrLocked = errors.New("server is already running")

// Holder describes the process owning a lock
type Holder struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
}

// LockedError is returned by TryAcquire when the lock is held
type LockedError struct {
	Holder Holder
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%v: pid %d listening on %s since %s",
		ErrLocked, e.Holder.PID, e.Holder.Addr, e.Holder.StartedAt.Format(time.RFC3339))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// Lockfile represents a file-based lock
type Lockfile struct {
	path   string
	holder Holder
	locked bool
}

// New creates a new lockfile instance
func New(path string) *Lockfile {
	return &Lockfile{path: path}
}

// TryAcquire takes the lock for a server listening on addr. Locks left by
// processes that are gone are taken over.
func (l *Lockfile) TryAcquire(addr string) error {
	if l.locked {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lockfile directory: %w", err)
	}

	holder := Holder{PID: os.Getpid(), Addr: addr, StartedAt: time.Now().UTC()}

	err := l.create(holder)
	if errors.Is(err, os.ErrExist) {
		existing, stale := l.inspect()
		if !stale {
			return &LockedError{Holder: existing}
		}
		if removeErr := os.Remove(l.path); removeErr != nil && !os.IsNotExist(removeErr) {
			return fmt.Errorf("failed to remove stale lockfile: %w", removeErr)
		}
		err = l.create(holder)
	}
	if err != nil {
		return fmt.Errorf("failed to create lockfile: %w", err)
	}

	l.holder = holder
	l.locked = true
	return nil
}

func (l *Lockfile) create(holder Holder) error {
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(file).Encode(holder); err != nil {
		file.Close()
		os.Remove(l.path)
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(l.path)
		return err
	}
	return file.Close()
}

// inspect reads the current holder; unreadable files and dead holders are stale
func (l *Lockfile) inspect() (Holder, bool) {
	var holder Holder

	data, err := os.ReadFile(l.path)
	if err != nil {
		return holder, true
	}
	if err := json.Unmarshal(data, &holder); err != nil || holder.PID <= 0 {
		return holder, true
	}
	if holder.PID == os.Getpid() {
		// left behind by an earlier run that reused our pid
		return holder, true
	}

	return holder, !isProcessRunning(holder.PID)
}

// Release removes the lock file if this instance holds it
func (l *Lockfile) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}

// Holder returns the recorded owner; zero until acquired
func (l *Lockfile) Holder() Holder {
	return l.holder
}

// Locked returns true if the lock is held
func (l *Lockfile) Locked() bool {
	return l.locked
}

// Path returns the lockfile path
func (l *Lockfile) Path() string {
	return l.path
}
