package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file next to the catalog.
const LockFileName = ".catalog.lock"

// FileLock is the catalog lock. Reindex passes hold it from Begin to
// Commit; relocation holds it while patching the catalog. The flock covers
// other processes, the semaphore covers goroutines sharing one FileLock.
type FileLock struct {
	path  string
	flock *flock.Flock
	sem   chan struct{}
}

// NewFileLock creates a lock at <dir>/.catalog.lock.
func NewFileLock(dir string) *FileLock {
	path := filepath.Join(dir, LockFileName)
	return &FileLock{
		path:  path,
		flock: flock.New(path),
		sem:   make(chan struct{}, 1),
	}
}

// Lock blocks until the lock is acquired or ctx is done.
func (l *FileLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("failed to acquire catalog lock: %w", ctx.Err())
	}

	ok, err := l.flock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil || !ok {
		<-l.sem
		if err == nil {
			err = ctx.Err()
		}
		return fmt.Errorf("failed to acquire catalog lock: %w", err)
	}
	return nil
}

// TryLock attempts to acquire the lock without blocking.
// Returns false if another holder has it.
func (l *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	select {
	case l.sem <- struct{}{}:
	default:
		return false, nil
	}

	acquired, err := l.flock.TryLock()
	if err != nil || !acquired {
		<-l.sem
		if err != nil {
			return false, fmt.Errorf("failed to acquire catalog lock: %w", err)
		}
		return false, nil
	}
	return true, nil
}

// Unlock releases the lock. Safe to call when not held.
func (l *FileLock) Unlock() error {
	if len(l.sem) == 0 {
		return nil
	}
	err := l.flock.Unlock()
	<-l.sem
	if err != nil {
		return fmt.Errorf("failed to release catalog lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}
