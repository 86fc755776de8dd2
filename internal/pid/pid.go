package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"codeberg.org/veridian/veridianctl/internal/errors"
)

const pidFile = "veridianctl.pid"

// Write writes the current process ID to a PID file. Fails with
// already_running when a live process still owns the file; a stale
// file left by a crashed instance is overwritten.
func Write() error {
	errFactory := errors.New()
	path := filepath.Join(os.TempDir(), pidFile)

	if contents, err := os.ReadFile(path); err == nil {
		if oldPID, err := strconv.Atoi(string(contents)); err == nil {
			if process, err := os.FindProcess(oldPID); err == nil {
				if process.Signal(syscall.Signal(0)) == nil {
					return errFactory.WithData(errors.ErrAlreadyRunning, oldPID)
				}
			}
		}
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove() error {
	path := filepath.Join(os.TempDir(), pidFile)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}
