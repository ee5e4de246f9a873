package razerdoctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	modulesPath        = "/proc/modules"
	loadedModuleMarker = "razer"
	versionPlaceholder = "x.x.x"
)

// checkDKMS reports on the driver's DKMS sources, build, probe and load state.
func checkDKMS(ctx context.Context, c *runConfig) ([]CheckResult, error) {
	lib := c.lib()

	sources, built := StatusUnknown, StatusUnknown
	dkmsVersion := versionPlaceholder
	if lib.Present {
		dkmsVersion = lib.Version
		sources = StatusOf(pathExists(c.hostPath(filepath.Join(dkmsPackageDir, lib.Version))))
		built = StatusOf(pathExists(c.hostPath(c.dkmsBuildDir())))
	}

	probe, err := c.commander.Run(ctx, "modprobe", "-n", driverModule)
	if err != nil {
		return nil, fmt.Errorf("probe module %s: %w", driverModule, err)
	}

	loaded, err := moduleLoaded(c.hostPath(modulesPath), loadedModuleMarker)
	if err != nil {
		return nil, err
	}

	return []CheckResult{
		{
			Check:    CheckDKMS,
			TestName: c.translate("DKMS sources are installed"),
			Suggestions: []string{
				c.translate("Install the 'openrazer-driver-dkms' package for your distribution."),
			},
			Passed: sources,
		},
		{
			Check:    CheckDKMS,
			TestName: c.translate("DKMS module has been built for this kernel version"),
			Suggestions: []string{
				c.translate("Ensure you have the correct Linux kernel headers package installed for your distribution."),
				c.translate("Your distro's package system might not have rebuilt the DKMS module (this can happen with kernel or OpenRazer updates). Try running:"),
				"$ sudo dkms install -m openrazer-driver/" + dkmsVersion,
			},
			Passed: built,
		},
		{
			Check:    CheckDKMS,
			TestName: c.translate("DKMS module can be probed"),
			Suggestions: []string{
				c.translate("For full error details, run:"),
				"$ sudo modprobe " + driverModule,
			},
			Passed: StatusOf(probe.ExitCode == 0),
		},
		{
			Check:    CheckDKMS,
			TestName: c.translate("DKMS module is currently loaded"),
			Suggestions: []string{
				c.translate("For full error details, run:"),
				"$ sudo modprobe " + driverModule,
			},
			Passed: StatusOf(loaded),
		},
	}, nil
}

// dkmsBuildDir is where DKMS records a build for the running kernel.
func (c *runConfig) dkmsBuildDir() string {
	return filepath.Join(dkmsPackageDir, fmt.Sprintf("kernel-%s-%s", c.host.Release, c.host.Machine))
}

// moduleLoaded reports whether any module listed in path (the /proc/modules
// format that lsmod prints) has a name containing marker.
func moduleLoaded(path, marker string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("read loaded modules: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if strings.Contains(fields[0], marker) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("read loaded modules: %w", err)
	}
	return false, nil
}
