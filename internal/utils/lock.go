package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
)

// SetupLock serialises data provisioning runs against the same backend from this machine.
type SetupLock struct {
	lock *flock.Flock
	path string
}

// NewSetupLock creates a lock named after name under the firescope state directory.
// An empty dir means the default directory.
func NewSetupLock(dir, name string) (*SetupLock, error) {
	dir, err := GetStateDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve state dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create state dir %s: %w", dir, err)
	}
	lockPath := filepath.Join(dir, name+lockFileSuffix)
	return &SetupLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Path is the lock file location.
func (l *SetupLock) Path() string { return l.path }

// Lock acquires the lock, waiting if necessary.
// It logs a message if it has to wait.
func (l *SetupLock) Lock() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}

	if !locked {
		Log.Warn("Another firescope setup is running against this backend, waiting for it to finish...")
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// TryLock acquires the lock only if it is free.
func (l *SetupLock) TryLock() (bool, error) {
	locked, err := l.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	return locked, nil
}

// Unlock releases the lock.
func (l *SetupLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// GetStateDir resolves the directory for lock files.
func GetStateDir(dir string) (string, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "firescope"), nil
	}
	return filepath.Abs(dir)
}
