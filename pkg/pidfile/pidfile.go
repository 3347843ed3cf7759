package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// PIDFile guards against running two rfwatchd instances against the same
// state directory.
type PIDFile struct {
	path string
	pid  int
}

// New creates a PIDFile handle for the current process.
func New(path string) *PIDFile {
	return &PIDFile{
		path: path,
		pid:  os.Getpid(),
	}
}

// CheckRunning reports whether another live instance holds the PID file,
// and that instance's PID if so.
func (p *PIDFile) CheckRunning() (bool, int, error) {
	if !p.exists() {
		return false, 0, nil
	}

	existingPID, err := p.readExistingPID()
	if err != nil {
		return false, 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	return p.isProcessRunning(existingPID), existingPID, nil
}

// Create writes the PID file, removing a stale one left by a dead process.
func (p *PIDFile) Create() error {
	if p.exists() {
		existingPID, err := p.readExistingPID()
		if err != nil {
			return fmt.Errorf("failed to read existing PID file: %w", err)
		}
		if p.isProcessRunning(existingPID) {
			return fmt.Errorf("daemon already running with PID %d", existingPID)
		}
		if err := os.Remove(p.path); err != nil {
			return fmt.Errorf("failed to remove stale PID file: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	if err := os.WriteFile(p.path, []byte(fmt.Sprintf("%d\n", p.pid)), 0o644); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}

	return nil
}

// Remove deletes the PID file if it still belongs to this process.
func (p *PIDFile) Remove() error {
	if !p.exists() {
		return nil
	}

	existingPID, err := p.readExistingPID()
	if err != nil {
		return os.Remove(p.path)
	}
	if existingPID != p.pid {
		return fmt.Errorf("PID file contains different PID (%d vs %d), not removing", existingPID, p.pid)
	}

	return os.Remove(p.path)
}

// ForceRemove removes the PID file regardless of ownership. Cleanup use only.
func (p *PIDFile) ForceRemove() error {
	return os.Remove(p.path)
}

// Path returns the path of the PID file.
func (p *PIDFile) Path() string {
	return p.path
}

func (p *PIDFile) exists() bool {
	_, err := os.Stat(p.path)
	return err == nil
}

func (p *PIDFile) readExistingPID() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %q", strings.TrimSpace(string(data)))
	}

	return pid, nil
}

// isProcessRunning probes the PID with signal 0, which reports liveness
// without affecting the target.
func (p *PIDFile) isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to another user.
	return errors.Is(err, syscall.EPERM)
}
