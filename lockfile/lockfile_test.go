package lockfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLockExclusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	first := New(path)
	if !first.TryAcquire() {
		t.Fatal("first acquisition failed")
	}
	if !first.Held() {
		t.Error("Held() = false after winning the lock")
	}
	if first.Degraded() {
		t.Error("Degraded() = true on a working filesystem")
	}

	second := New(path)
	if second.TryAcquire() {
		t.Fatal("second acquisition succeeded while the lock was held")
	}
	if second.Held() {
		t.Error("loser reports Held() = true")
	}

	first.Release()
	if first.Held() {
		t.Error("Held() = true after Release")
	}
	if !second.TryAcquire() {
		t.Error("acquisition failed after the holder released")
	}
	second.Release()
}

func TestLockAcquireIsIdempotentWhileHeld(t *testing.T) {
	lock := New(filepath.Join(t.TempDir(), "test.lock"))
	if !lock.TryAcquire() {
		t.Fatal("acquisition failed")
	}
	if !lock.TryAcquire() {
		t.Error("re-acquisition by the holder failed")
	}
	lock.Release()
}

func TestLockDegradesWhenPrimitiveUnavailable(t *testing.T) {
	// a lock file in a directory that does not exist cannot be created
	lock := New(filepath.Join(t.TempDir(), "missing", "deep", "test.lock"))
	if !lock.TryAcquire() {
		t.Fatal("degraded acquisition returned false; the caller must still proceed")
	}
	if !lock.Degraded() {
		t.Error("Degraded() = false after a failed lock primitive")
	}
	if lock.Held() {
		t.Error("Held() = true in degraded mode")
	}
}

func TestSlotLimiter(t *testing.T) {
	dir := t.TempDir()
	limiter := NewSlotLimiter(dir, 2)

	release1, ok := limiter.Acquire()
	if !ok {
		t.Fatal("first slot unavailable")
	}
	release2, ok := limiter.Acquire()
	if !ok {
		t.Fatal("second slot unavailable")
	}
	if _, ok := limiter.Acquire(); ok {
		t.Fatal("third acquisition succeeded with 2 slots")
	}

	release1()
	release3, ok := limiter.Acquire()
	if !ok {
		t.Fatal("slot unavailable after release")
	}
	release3()
	release2()
}

func TestSlotLimiterMinimumOneSlot(t *testing.T) {
	limiter := NewSlotLimiter(t.TempDir(), 0)
	release, ok := limiter.Acquire()
	if !ok {
		t.Fatal("zero-slot limiter must clamp to one slot")
	}
	release()
}

func TestNamedLocks(t *testing.T) {
	dir := t.TempDir()

	migrate := MigrationLock(dir)
	watcher := WatcherLock(dir)
	if !migrate.TryAcquire() {
		t.Fatal("migration lock unavailable")
	}
	// independent lock files do not contend
	if !watcher.TryAcquire() {
		t.Fatal("watcher lock blocked by the migration lock")
	}
	migrate.Release()
	watcher.Release()

	for _, name := range []string{MigrationLockName, WatcherLockName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("lock file %s missing: %v", name, err)
		}
	}
}

func TestEnsureLocksDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "locks")
	if err := EnsureLocksDir(dir); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("locks path is not a directory")
	}
}
