// Package lock guards an export database against concurrent writers using an
// advisory flock on a sibling ".lock" file.
package lock

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
)

// ErrBusy is returned by TryAcquire when another process holds the lock.
var ErrBusy = errors.New("lock held by another process")

// FileLock is an exclusive lock on a path.
type FileLock struct {
	path     string
	file     *os.File
	released bool
	mu       sync.Mutex
}

// PathFor returns the lock file used for target.
func PathFor(target string) string {
	return target + ".lock"
}

// Acquire obtains an exclusive lock for target. Blocks until lock available.
func Acquire(target string) (*FileLock, error) {
	return acquire(target, syscall.LOCK_EX)
}

// TryAcquire obtains the lock for target without blocking, returning ErrBusy
// if it is held elsewhere.
func TryAcquire(target string) (*FileLock, error) {
	return acquire(target, syscall.LOCK_EX|syscall.LOCK_NB)
}

func acquire(target string, how int) (*FileLock, error) {
	path := PathFor(target)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock %s: %w", path, err)
	}

	if err := syscall.Flock(int(file.Fd()), how); err != nil {
		file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, fmt.Errorf("%s: %w", target, ErrBusy)
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	return &FileLock{path: path, file: file}, nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Release unlocks and closes the lock file. Safe to call more than once.
func (l *FileLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return nil
	}
	l.released = true

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
