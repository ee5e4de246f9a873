package razerdoctor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedPlatform is returned when the host is not Linux.
// The troubleshooter only knows how the driver stack is laid out on Linux.
var ErrUnsupportedPlatform = errors.New("troubleshooting requires Linux")

// Status is the tri-state outcome of a check.
type Status int

const (
	// StatusUnknown means the check could not determine an answer.
	StatusUnknown Status = iota
	// StatusPass means the check is satisfied.
	StatusPass
	// StatusFail means the check found a problem.
	StatusFail
)

// StatusOf converts a boolean probe outcome into a [Status].
func StatusOf(ok bool) Status {
	if ok {
		return StatusPass
	}
	return StatusFail
}

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusPass:
		return "pass"
	case StatusFail:
		return "fail"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// MarshalJSON encodes the status as true, false or null.
func (s Status) MarshalJSON() ([]byte, error) {
	switch s {
	case StatusPass:
		return []byte("true"), nil
	case StatusFail:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes true, false or null.
func (s *Status) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true":
		*s = StatusPass
	case "false":
		*s = StatusFail
	case "null":
		*s = StatusUnknown
	default:
		return fmt.Errorf("invalid status %s", data)
	}
	return nil
}

// CheckResult is the outcome of a single diagnostic check.
type CheckResult struct {
	// Check identifies the producer that emitted this result.
	Check CheckID `json:"check"`
	// TestName is the translated, user-facing name of the check.
	TestName string `json:"test_name"`
	// Suggestions are translated remediation hints, in display order.
	Suggestions []string `json:"suggestions"`
	// Passed is the tri-state outcome.
	Passed Status `json:"passed"`
}

// Report is the ordered list of results produced by [Run].
type Report struct {
	Results []CheckResult `json:"results"`
}

// OK reports whether no result failed. Unknown results do not count as failures.
func (r *Report) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the failing results in report order.
func (r *Report) Failed() []CheckResult {
	var failed []CheckResult
	for _, res := range r.Results {
		if res.Passed == StatusFail {
			failed = append(failed, res)
		}
	}
	return failed
}

// RunError is returned when a check hits an unexpected fault.
// The run is aborted and no partial results are reported.
type RunError struct {
	Check CheckID
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("failed to run troubleshooter: check %s: %v", e.Check, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Library describes the OpenRazer client library found on the host.
type Library struct {
	// Present is true if the library could be imported.
	Present bool
	// Version is the library's __version__, empty when not present.
	Version string
}

// CheckID identifies a check producer.
type CheckID int

const (
	// CheckDaemonInstalled verifies openrazer-daemon is on PATH.
	CheckDaemonInstalled CheckID = iota
	// CheckLibraryInstalled verifies the client library is importable.
	CheckLibraryInstalled
	// CheckDaemonRunning verifies the daemon PID file points at a live process.
	CheckDaemonRunning
	// CheckDKMS verifies DKMS sources, build, probe and load state.
	CheckDKMS
	// CheckSecureBoot inspects the EFI SecureBoot variable.
	CheckSecureBoot
	// CheckModuleSigning verifies the kernel accepts unsigned modules.
	CheckModuleSigning
	// CheckPlugdevGroup verifies the user is in the plugdev group.
	CheckPlugdevGroup
	// CheckSysfsPermissions scans the daemon log for sysfs permission errors.
	CheckSysfsPermissions
	// CheckUpToDate compares the installed version with the latest release.
	CheckUpToDate
)

var checkNames = map[CheckID]string{
	CheckDaemonInstalled:  "daemon-installed",
	CheckLibraryInstalled: "library-installed",
	CheckDaemonRunning:    "daemon-running",
	CheckDKMS:             "dkms",
	CheckSecureBoot:       "secure-boot",
	CheckModuleSigning:    "module-signing",
	CheckPlugdevGroup:     "plugdev-group",
	CheckSysfsPermissions: "sysfs-permissions",
	CheckUpToDate:         "up-to-date",
}

var checkDescriptions = map[CheckID]string{
	CheckDaemonInstalled:  "openrazer-daemon is installed",
	CheckLibraryInstalled: "OpenRazer Python library is installed",
	CheckDaemonRunning:    "openrazer-daemon is running",
	CheckDKMS:             "DKMS module sources, build, probe and load state",
	CheckSecureBoot:       "EFI Secure Boot is disabled (EFI systems only)",
	CheckModuleSigning:    "kernel accepts unsigned modules (opt-in)",
	CheckPlugdevGroup:     "user is a member of the plugdev group",
	CheckSysfsPermissions: "daemon log has no sysfs permission errors",
	CheckUpToDate:         "OpenRazer is the latest release",
}

func (id CheckID) String() string {
	if name, ok := checkNames[id]; ok {
		return name
	}
	return fmt.Sprintf("CheckID(%d)", id)
}

// Description returns a one-line English summary of what the check verifies.
func (id CheckID) Description() string {
	return checkDescriptions[id]
}

// MarshalText encodes the check as its stable name.
func (id CheckID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a stable check name.
func (id *CheckID) UnmarshalText(text []byte) error {
	parsed, err := ParseCheckID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// CheckValues returns all check identifiers in report order.
func CheckValues() []CheckID {
	return []CheckID{
		CheckDaemonInstalled,
		CheckLibraryInstalled,
		CheckDaemonRunning,
		CheckDKMS,
		CheckSecureBoot,
		CheckModuleSigning,
		CheckPlugdevGroup,
		CheckSysfsPermissions,
		CheckUpToDate,
	}
}

// CheckNames returns the stable names of all checks in report order.
func CheckNames() []string {
	values := CheckValues()
	names := make([]string, 0, len(values))
	for _, id := range values {
		names = append(names, id.String())
	}
	return names
}

// ParseCheckID parses a check name case-insensitively.
func ParseCheckID(name string) (CheckID, error) {
	name = strings.TrimSpace(name)
	for id, n := range checkNames {
		if strings.EqualFold(n, name) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown check %q", name)
}

// ConfigValue represents a kernel configuration option's state.
type ConfigValue int

const (
	// ConfigNotSet means the option is not set or not found.
	ConfigNotSet ConfigValue = iota
	// ConfigModule means the option is set to =m (module).
	ConfigModule
	// ConfigBuiltin means the option is set to =y (built-in).
	ConfigBuiltin
)

// IsEnabled returns true if the config option is set (either =m or =y).
func (v ConfigValue) IsEnabled() bool {
	return v == ConfigModule || v == ConfigBuiltin
}

// IsBuiltin returns true if the config option is built-in (=y).
func (v ConfigValue) IsBuiltin() bool {
	return v == ConfigBuiltin
}

func (v ConfigValue) String() string {
	switch v {
	case ConfigNotSet:
		return "not set"
	case ConfigModule:
		return "m"
	case ConfigBuiltin:
		return "y"
	default:
		return fmt.Sprintf("ConfigValue(%d)", v)
	}
}

// KernelConfig holds parsed kernel configuration values.
type KernelConfig struct {
	raw map[string]ConfigValue

	Modules        ConfigValue // CONFIG_MODULES
	ModuleSig      ConfigValue // CONFIG_MODULE_SIG
	ModuleSigForce ConfigValue // CONFIG_MODULE_SIG_FORCE
}

// Get returns the ConfigValue for a kernel config key.
// The key should not include the CONFIG_ prefix.
func (kc *KernelConfig) Get(key string) ConfigValue {
	if kc == nil || kc.raw == nil {
		return ConfigNotSet
	}
	return kc.raw[key]
}

// IsSet returns true if the config option is enabled (=m or =y).
func (kc *KernelConfig) IsSet(key string) bool {
	return kc.Get(key).IsEnabled()
}

// NewKernelConfig creates a KernelConfig from a raw config map.
// The map is copied to ensure immutability after construction.
func NewKernelConfig(raw map[string]ConfigValue) *KernelConfig {
	copied := make(map[string]ConfigValue, len(raw))
	for k, v := range raw {
		copied[k] = v
	}
	return &KernelConfig{
		raw:            copied,
		Modules:        copied["MODULES"],
		ModuleSig:      copied["MODULE_SIG"],
		ModuleSigForce: copied["MODULE_SIG_FORCE"],
	}
}
