package razerdoctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func checkDaemonInstalled(_ context.Context, c *runConfig) ([]CheckResult, error) {
	_, err := c.commander.LookPath(daemonExecutable)
	return []CheckResult{{
		Check:    CheckDaemonInstalled,
		TestName: c.translate("Daemon is installed"),
		Suggestions: []string{
			c.translate("Install the 'openrazer-meta' package for your distribution."),
		},
		Passed: StatusOf(err == nil),
	}}, nil
}

func checkLibraryInstalled(_ context.Context, c *runConfig) ([]CheckResult, error) {
	return []CheckResult{{
		Check:    CheckLibraryInstalled,
		TestName: c.translate("Python library is installed"),
		Suggestions: []string{
			c.translate("Install the 'python3-openrazer' package for your distribution."),
			c.translate("Check the PYTHONPATH environment variable is correct."),
		},
		Passed: StatusOf(c.lib().Present),
	}}, nil
}

func checkDaemonRunning(_ context.Context, c *runConfig) ([]CheckResult, error) {
	running, err := c.daemonRunning()
	if err != nil {
		return nil, err
	}
	return []CheckResult{{
		Check:    CheckDaemonRunning,
		TestName: c.translate("Daemon is running"),
		Suggestions: []string{
			c.translate("Start the daemon from the terminal. Run this command and look for errors:"),
			"$ openrazer-daemon -Fv",
		},
		Passed: StatusOf(running),
	}}, nil
}

// pidFilePath returns the daemon PID file location, preferring
// $XDG_RUNTIME_DIR and falling back to /run/user/<uid>.
func (c *runConfig) pidFilePath() string {
	dir := c.runtimeDir
	if dir == "" {
		dir = filepath.Join("/run/user", strconv.Itoa(c.uid))
	}
	return c.hostPath(filepath.Join(dir, daemonPIDFile))
}

// daemonRunning reports whether the PID file names a live process.
// A missing PID file means the daemon is not running.
func (c *runConfig) daemonRunning() (bool, error) {
	path := c.pidFilePath()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open pid file: %w", err)
	}
	defer f.Close()

	var line string
	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("read pid file %s: %w", path, err)
	}

	pid, err := strconv.Atoi(line)
	if err != nil {
		return false, fmt.Errorf("parse pid file %s: %w", path, err)
	}
	return pathExists(c.hostPath(filepath.Join("/proc", strconv.Itoa(pid)))), nil
}

// pathExists returns true if a given path exists and false otherwise.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
