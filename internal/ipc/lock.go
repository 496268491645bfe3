// Package ipc serializes housekeeping passes across processes with PID
// lock files. One lock file exists per managed directory; it lives outside
// that directory so a pass never sees its own lock as an entry.
package ipc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
)

const lockFilePrefix = "housekeeper-"

const lockFileExt = ".pid"

// ErrLocked is returned when a live process already holds the lock.
var ErrLocked = errors.New("directory is locked by another housekeeper process")

// Lock is a held PID lock.
type Lock struct {
	path string
	pid  int
}

// LockPath returns the lock file for basePath inside dir. The file name is
// a name-based UUID of the absolute base path.
func LockPath(dir, basePath string) (string, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", basePath, err)
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs)))
	return filepath.Join(dir, lockFilePrefix+id.String()+lockFileExt), nil
}

// Acquire takes the lock for basePath. A lock file left behind by a dead
// process is replaced.
func Acquire(dir, basePath string) (*Lock, error) {
	lockPath, err := LockPath(dir, basePath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory %s: %w", dir, err)
	}

	pid := os.Getpid()
	for attempt := 0; attempt < 2; attempt++ {
		err := createExclusive(lockPath, pid)
		if err == nil {
			return &Lock{path: lockPath, pid: pid}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to write lock file: %w", err)
		}

		holder, readErr := ReadPID(lockPath)
		if readErr == nil && IsRunning(holder) {
			return nil, fmt.Errorf("%w (pid %d)", ErrLocked, holder)
		}

		// Stale lock.
		if err := os.Remove(lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale lock file: %w", err)
		}
	}

	return nil, ErrLocked
}

// createExclusive writes the PID to a temporary file and hard-links it into
// place, so the lock file never exists without its content.
func createExclusive(lockPath string, pid int) error {
	tmp, err := os.CreateTemp(filepath.Dir(lockPath), ".lock-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := fmt.Fprintf(tmp, "%d\n", pid); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Link(tmpPath, lockPath)
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock file if it still belongs to this process.
func (l *Lock) Release() error {
	holder, err := ReadPID(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if holder != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ReadPID reads the PID stored in a lock file
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in %s: %w", path, err)
	}
	return pid, nil
}

// IsRunning reports whether a process with pid exists
func IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 only checks that the process exists. EPERM means it exists
	// but belongs to another user.
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
