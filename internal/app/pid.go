package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
)

const pidFileName = "neppage.pid"

// Signals understood by a running server.
const (
	SignalReload = syscall.SIGUSR1 // refresh pages now
	SignalSync   = syscall.SIGUSR2 // run file sync now
)

// SendSignal delivers sig to the running neppage process.
func SendSignal(sig syscall.Signal) error {
	_, pid, err := findRunningPidFileInLocations(pidLocations())
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(sig); err != nil {
		return fmt.Errorf("failed to send %s: %w", sig, err)
	}
	return nil
}

// pidLocations lists candidate PID file paths, most private first.
func pidLocations() []string {
	var locations []string
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		locations = append(locations, filepath.Join(runtimeDir, "neppage", pidFileName))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".neppage", "run", pidFileName))
	}
	return append(locations, filepath.Join(os.TempDir(), pidFileName))
}

// createPidFile writes the current PID to the first writable location and
// returns its path, or "" when none is writable.
func createPidFile(locations []string, log zerolog.Logger) string {
	pid := os.Getpid()
	for _, location := range locations {
		if err := os.MkdirAll(filepath.Dir(location), 0o700); err != nil {
			continue
		}
		if err := os.WriteFile(location, []byte(strconv.Itoa(pid)), 0o600); err == nil {
			log.Debug().Str("pid_file", location).Int("pid", pid).Msg("created PID file")
			return location
		}
	}

	log.Warn().Int("pid", pid).Msg("failed to create PID file in any location")
	return ""
}

func removePidFile(pidFile string, log zerolog.Logger) {
	if err := os.Remove(pidFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("pid_file", pidFile).Msg("failed to remove PID file")
	}
}

// findRunningPidFileInLocations returns the first PID file whose process is
// alive. Unparseable or stale files are removed along the way.
func findRunningPidFileInLocations(locations []string) (string, int, error) {
	var stale bool
	for _, location := range locations {
		data, err := os.ReadFile(location)
		if err != nil {
			continue
		}

		pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil || pid <= 0 || !processAlive(pid) {
			_ = os.Remove(location)
			stale = true
			continue
		}
		return location, pid, nil
	}

	if stale {
		return "", 0, errors.New("stale neppage PID file removed, is neppage running?")
	}
	return "", 0, errors.New("neppage PID file not found, is neppage running?")
}

func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
