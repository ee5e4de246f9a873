package razerdoctor

import (
	"context"
	"errors"
	"os"
	"strings"

	"go.uber.org/zap"
)

const (
	sigEnforcePath = "/sys/module/module/parameters/sig_enforce"
	lockdownPath   = "/sys/kernel/security/lockdown"
)

// checkModuleSigning reports whether the kernel would refuse the unsigned
// modules DKMS builds, via sig_enforce, CONFIG_MODULE_SIG_FORCE or lockdown.
func checkModuleSigning(_ context.Context, c *runConfig) ([]CheckResult, error) {
	var known, refused bool

	if enforce, err := readSigEnforce(c.hostPath(sigEnforcePath)); err == nil {
		known = true
		refused = refused || enforce
	} else {
		zap.L().Debug("sig_enforce unavailable", zap.Error(err))
	}

	if kc, err := readKernelConfig(c.hostPath, c.host.Release); err == nil {
		known = true
		refused = refused || kc.ModuleSigForce.IsBuiltin() || !kc.Modules.IsEnabled()
	} else {
		zap.L().Debug("kernel config unavailable", zap.Error(err))
	}

	if mode, err := readLockdownFrom(c.hostPath(lockdownPath)); err == nil {
		known = true
		refused = refused || (mode != "" && mode != "none")
	} else {
		zap.L().Debug("lockdown state unavailable", zap.Error(err))
	}

	passed := StatusUnknown
	if known {
		passed = StatusOf(!refused)
	}
	return []CheckResult{{
		Check:    CheckModuleSigning,
		TestName: c.translate("Kernel accepts unsigned modules"),
		Suggestions: []string{
			c.translate("The kernel enforces module signatures. Sign the DKMS modules with a key enrolled in your firmware (MOK), or disable enforcement."),
			c.translate("To inspect the current state, run:"),
			"$ cat " + sigEnforcePath + " " + lockdownPath,
		},
		Passed: passed,
	}}, nil
}

// readSigEnforce reads the module.sig_enforce parameter ("Y" or "N").
func readSigEnforce(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(data)) == "Y", nil
}

// readLockdownFrom returns the active lockdown mode, the bracketed entry of
// e.g. "none [integrity] confidentiality".
func readLockdownFrom(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for _, field := range strings.Fields(string(data)) {
		if strings.HasPrefix(field, "[") && strings.HasSuffix(field, "]") {
			return strings.Trim(field, "[]"), nil
		}
	}
	return "", errors.New("no active lockdown mode")
}
