package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sqve/tandem/internal/errors"
	"github.com/sqve/tandem/internal/fs"
	"github.com/sqve/tandem/internal/git"
	"github.com/sqve/tandem/internal/logger"
)

const (
	LockFileName   = "tandem.lock"
	maxLockRetries = 3
)

// Lock marks a checkout as being mutated by a tandem run. It lives in the
// git directory so it never shows up as an untracked file.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock locks repo for the current process. A lock left by a process
// that no longer runs is removed.
func AcquireLock(repo *git.Repo, log *logger.Logger) (*Lock, error) {
	gitDir, err := repo.GitDir()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(gitDir, LockFileName)
	for attempt := range maxLockRetries {
		file, done, err := tryAcquireLock(path, attempt, log)
		if done {
			if err != nil {
				return nil, err
			}
			log.Debug("Locked %s", repo.Path())
			return &Lock{path: path, file: file}, nil
		}
	}
	return nil, lockHeld(path, fmt.Sprintf("failed to acquire lock after %d attempts", maxLockRetries))
}

// Release removes the lock. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	closeErr := l.file.Close()
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return closeErr
}

// tryAcquireLock makes a single attempt to acquire the lock.
// Returns (handle, true, nil) on success, (nil, true, err) on permanent failure,
// or (nil, false, nil) if a stale lock was removed and retry is needed.
func tryAcquireLock(path string, attempt int, log *logger.Logger) (*os.File, bool, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fs.FileStrict) //nolint:gosec // Path is inside the git directory
	if err == nil {
		if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
			_ = file.Close()
			_ = os.Remove(path)
			return nil, true, errors.NewTandemError(errors.ErrCodeEnvironment, "failed to write lock file", err).
				WithContext("path", path)
		}
		return file, true, nil
	}

	if !errors.Is(err, os.ErrExist) {
		return nil, true, errors.NewTandemError(errors.ErrCodeEnvironment, "failed to create lock file", err).
			WithContext("path", path)
	}

	content, readErr := os.ReadFile(path) //nolint:gosec // Path is inside the git directory
	if readErr != nil {
		return nil, true, lockHeld(path, "another tandem run is in progress")
	}

	pidStr := strings.TrimSpace(string(content))
	if pidStr == "" {
		// The holder has created the file but not written its PID yet.
		return nil, true, lockHeld(path, "another tandem run is in progress")
	}
	pid, parseErr := strconv.Atoi(pidStr)
	if parseErr != nil {
		log.Debug("Lock file contains invalid PID %q, removing stale lock (attempt %d)", pidStr, attempt+1)
		_ = os.Remove(path)
		return nil, false, nil //nolint:nilerr // invalid PID means a stale lock
	}

	if !isProcessRunning(pid) {
		log.Debug("Lock held by terminated process %d, removing stale lock (attempt %d)", pid, attempt+1)
		_ = os.Remove(path)
		return nil, false, nil
	}

	return nil, true, lockHeld(path, fmt.Sprintf("another tandem run (PID %d) is in progress", pid))
}

func lockHeld(path, msg string) *errors.TandemError {
	return errors.ErrEnvironmentf("%s; if this is wrong, remove %s", msg, path).
		WithContext("path", path)
}
