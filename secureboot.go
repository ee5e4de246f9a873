package razerdoctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const (
	efiFirmwarePath = "/sys/firmware/efi"
	secureBootGlob  = "/sys/firmware/efi/efivars/SecureBoot*"
)

// checkSecureBoot inspects the SecureBoot EFI variable. It contributes
// nothing on systems booted without EFI.
func checkSecureBoot(_ context.Context, c *runConfig) ([]CheckResult, error) {
	if !pathExists(c.hostPath(efiFirmwarePath)) {
		return nil, nil
	}

	reason := c.translate("Secure Boot prevents the driver from loading, as OpenRazer's kernel modules built by DKMS are usually unsigned.")
	name := c.translate("Check Secure Boot (EFI) status")

	status, err := c.secureBootStatus()
	if err != nil {
		return nil, err
	}
	if status == StatusUnknown {
		return []CheckResult{{
			Check:    CheckSecureBoot,
			TestName: name,
			Suggestions: []string{
				c.translate("Unable to automatically check. If it's enabled, turn it off in the system's EFI settings or sign the modules yourself."),
				reason,
			},
			Passed: StatusUnknown,
		}}, nil
	}
	return []CheckResult{{
		Check:    CheckSecureBoot,
		TestName: name,
		Suggestions: []string{
			c.translate("Secure boot is enabled. Turn it off in the system's EFI settings or sign the modules yourself."),
			reason,
		},
		Passed: status,
	}}, nil
}

// secureBootStatus decodes the SecureBoot variable: four attribute bytes
// followed by the value, whose last byte is 1 when enforcement is on.
// Pass means disabled. No variable, or an empty one, is ambiguous.
func (c *runConfig) secureBootStatus() (Status, error) {
	matches, err := filepath.Glob(c.hostPath(secureBootGlob))
	if err != nil {
		return StatusUnknown, fmt.Errorf("glob efivars: %w", err)
	}
	if len(matches) == 0 {
		return StatusUnknown, nil
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		return StatusUnknown, fmt.Errorf("read %s: %w", matches[0], err)
	}
	if len(data) == 0 {
		return StatusUnknown, nil
	}
	return StatusOf(data[len(data)-1] == 0), nil
}
