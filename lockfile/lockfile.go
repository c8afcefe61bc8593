// Package lockfile provides advisory, non-blocking file locks used to elect
// roles among processes that share one image directory: a migration lock, a
// watcher lock, and a bounded set of sidecar-creation slots. Losing a lock is
// a normal branch, not an error; on platforms where lock files do not work
// the layer degrades to no coordination rather than failing.
package lockfile

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	MigrationLockName = "migrate.lock"
	WatcherLockName   = "watcher.lock"

	slotLockPattern = "sidecar-slot-%d.lock"
)

// Lock is one advisory exclusive lock backed by a lock file.
type Lock struct {
	name     string
	fl       *flock.Flock
	held     bool
	degraded bool
}

// New creates a lock over the given file path. The parent directory must
// already exist.
func New(path string) *Lock {
	return &Lock{name: filepath.Base(path), fl: flock.New(path)}
}

// TryAcquire attempts a non-blocking exclusive acquisition. It returns true
// when this process should assume the locked role: either the lock was
// actually won, or the platform refused the lock primitive entirely and the
// layer degrades to uncoordinated operation.
func (l *Lock) TryAcquire() bool {
	if l.held {
		return true
	}
	locked, err := l.fl.TryLock()
	if err != nil {
		log.Printf("lockfile: %s unavailable (%v), proceeding without coordination", l.name, err)
		l.degraded = true
		return true
	}
	l.held = locked
	return locked
}

// Release drops the lock if it is actually held.
func (l *Lock) Release() {
	if !l.held {
		return
	}
	if err := l.fl.Unlock(); err != nil {
		log.Printf("lockfile: error releasing %s: %v", l.name, err)
	}
	l.held = false
}

// Held reports whether this process genuinely holds the lock (false when
// operating in degraded, uncoordinated mode).
func (l *Lock) Held() bool { return l.held }

// Degraded reports whether the lock primitive failed and coordination was
// abandoned.
func (l *Lock) Degraded() bool { return l.degraded }

// MigrationLock returns the startup migration/enrichment election lock.
func MigrationLock(locksDir string) *Lock {
	return New(filepath.Join(locksDir, MigrationLockName))
}

// WatcherLock returns the periodic-watcher election lock.
func WatcherLock(locksDir string) *Lock {
	return New(filepath.Join(locksDir, WatcherLockName))
}

// SlotLimiter is a counting semaphore built from N named advisory locks. It
// bounds how many processes create sidecars concurrently when a fleet boots
// against the same directory.
type SlotLimiter struct {
	locksDir string
	slots    int
}

func NewSlotLimiter(locksDir string, slots int) *SlotLimiter {
	if slots < 1 {
		slots = 1
	}
	return &SlotLimiter{locksDir: locksDir, slots: slots}
}

// Acquire tries each slot in turn without blocking. On success it returns a
// release function; when every slot is taken it returns ok=false and the
// caller proceeds without sidecar creation for this pass. A platform-level
// lock failure counts as an acquired slot (no coordination).
func (sl *SlotLimiter) Acquire() (release func(), ok bool) {
	for i := 0; i < sl.slots; i++ {
		slot := New(filepath.Join(sl.locksDir, fmt.Sprintf(slotLockPattern, i)))
		if slot.TryAcquire() {
			return slot.Release, true
		}
	}
	return nil, false
}

// EnsureLocksDir creates the directory the lock files live in.
func EnsureLocksDir(locksDir string) error {
	if err := os.MkdirAll(locksDir, 0755); err != nil {
		return fmt.Errorf("lockfile: failed to create locks directory %s: %w", locksDir, err)
	}
	return nil
}
