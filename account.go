package razerdoctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	plugdevGroup        = "plugdev"
	daemonLogPath       = ".local/share/openrazer/logs/razer.log"
	sysfsPermissionsErr = "Could not access /sys/"
)

func checkPlugdevGroup(ctx context.Context, c *runConfig) ([]CheckResult, error) {
	res, err := c.commander.Run(ctx, "groups")
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return []CheckResult{{
		Check:    CheckPlugdevGroup,
		TestName: c.translate("User account has been added to the 'plugdev' group"),
		Suggestions: []string{
			c.translate("Run this command, log out, then log back in to the computer:"),
			"$ sudo gpasswd -a $USER plugdev",
			c.translate("If you've recently installed, you may need to restart the computer."),
		},
		Passed: StatusOf(strings.Contains(string(res.Output), plugdevGroup)),
	}}, nil
}

// checkSysfsPermissions looks for sysfs permission errors in the daemon log.
// Without a log there is nothing to report.
func checkSysfsPermissions(_ context.Context, c *runConfig) ([]CheckResult, error) {
	if c.homeDir == "" {
		return nil, nil
	}
	logPath := filepath.Join(c.homeDir, daemonLogPath)

	data, err := os.ReadFile(c.hostPath(logPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read daemon log: %w", err)
	}

	return []CheckResult{{
		Check:    CheckSysfsPermissions,
		TestName: c.translate("Check OpenRazer log for plugdev permission errors"),
		Suggestions: []string{
			c.translate("Restarting (or replugging) usually fixes the problem."),
			c.translate("To reset this error, clear the log:") + " " + logPath,
		},
		Passed: StatusOf(!strings.Contains(string(data), sysfsPermissionsErr)),
	}}, nil
}
