package razerdoctor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	daemonExecutable = "openrazer-daemon"
	daemonPIDFile    = "openrazer-daemon.pid"
	driverModule     = "razerkbd"
	dkmsPackageDir   = "/var/lib/dkms/openrazer-driver"

	// DefaultVersionURL serves the latest OpenRazer release as a bare version string.
	DefaultVersionURL = "https://openrazer.github.io/api/latest_version.txt"
	// DefaultVersionTimeout bounds the latest-version request.
	DefaultVersionTimeout = 10 * time.Second
)

// Cache for the library probe. Installing or removing the Python package
// while the process runs is not expected, so the interpreter is spawned once.
var (
	cachedLibrary *Library
	libraryMu     sync.Mutex
)

// CommandResult holds the combined output and exit code of a finished command.
type CommandResult struct {
	Output   []byte
	ExitCode int
}

// Commander runs external programs on behalf of checks.
type Commander interface {
	// LookPath resolves an executable on the search path.
	LookPath(file string) (string, error)
	// Run executes a command to completion. A non-zero exit status is
	// reported through CommandResult.ExitCode, not as an error.
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

type execCommander struct{}

func (execCommander) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (execCommander) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return CommandResult{Output: out, ExitCode: exitErr.ExitCode()}, nil
		}
		return CommandResult{}, fmt.Errorf("run %s: %w", name, err)
	}
	return CommandResult{Output: out}, nil
}

// runConfig holds the configuration for a troubleshooting run.
type runConfig struct {
	translate      Translator
	commander      Commander
	library        *Library
	httpClient     *http.Client
	versionURL     string
	versionTimeout time.Duration
	skip           map[CheckID]struct{}
	moduleSigning  bool

	hostRoot   string // prefix for every probed path (for testing)
	homeDir    string
	runtimeDir string
	uid        int
	uname      func() (Uname, error)

	host Uname // populated once the platform check passed
}

// RunOption configures a troubleshooting run.
type RunOption func(*runConfig)

// WithTranslator sets the function used for every user-facing string.
func WithTranslator(t Translator) RunOption {
	return func(c *runConfig) {
		if t != nil {
			c.translate = t
		}
	}
}

// WithLibrary uses a known library state instead of probing for it.
func WithLibrary(lib Library) RunOption {
	return func(c *runConfig) {
		c.library = &lib
	}
}

// WithCommander replaces the executor used for PATH lookups and subprocesses.
func WithCommander(cmd Commander) RunOption {
	return func(c *runConfig) {
		if cmd != nil {
			c.commander = cmd
		}
	}
}

// WithHostRoot resolves every probed filesystem path under root.
// This is primarily for testing and for running inside a container
// with the host filesystem mounted; production code uses "/".
func WithHostRoot(root string) RunOption {
	return func(c *runConfig) {
		c.hostRoot = root
	}
}

// WithHomeDir overrides the home directory holding the daemon log.
func WithHomeDir(dir string) RunOption {
	return func(c *runConfig) {
		c.homeDir = dir
	}
}

// WithRuntimeDir overrides $XDG_RUNTIME_DIR for locating the daemon PID file.
func WithRuntimeDir(dir string) RunOption {
	return func(c *runConfig) {
		c.runtimeDir = dir
	}
}

// WithHTTPClient sets the client used for the latest-version request.
func WithHTTPClient(client *http.Client) RunOption {
	return func(c *runConfig) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithVersionURL overrides [DefaultVersionURL].
func WithVersionURL(url string) RunOption {
	return func(c *runConfig) {
		if url != "" {
			c.versionURL = url
		}
	}
}

// WithVersionTimeout overrides [DefaultVersionTimeout]. Non-positive values are ignored.
func WithVersionTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.versionTimeout = d
		}
	}
}

// WithSkip leaves the given checks out of the report.
func WithSkip(ids ...CheckID) RunOption {
	return func(c *runConfig) {
		for _, id := range ids {
			c.skip[id] = struct{}{}
		}
	}
}

// WithModuleSigning enables the kernel module signature enforcement check.
func WithModuleSigning() RunOption {
	return func(c *runConfig) {
		c.moduleSigning = true
	}
}

func newRunConfig(opts []RunOption) *runConfig {
	c := &runConfig{
		translate:      Identity,
		commander:      execCommander{},
		httpClient:     http.DefaultClient,
		versionURL:     DefaultVersionURL,
		versionTimeout: DefaultVersionTimeout,
		skip:           map[CheckID]struct{}{},
		runtimeDir:     os.Getenv("XDG_RUNTIME_DIR"),
		uid:            os.Getuid(),
		uname:          hostUname,
	}
	if home, err := os.UserHomeDir(); err == nil {
		c.homeDir = home
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HostInfo returns the identification of the running kernel.
func HostInfo() (Uname, error) {
	return hostUname()
}

// hostPath resolves an absolute host path under the configured root.
func (c *runConfig) hostPath(path string) string {
	if c.hostRoot == "" {
		return path
	}
	return filepath.Join(c.hostRoot, path)
}

// lib returns the library state; it is always resolved before checks run.
func (c *runConfig) lib() Library {
	if c.library == nil {
		return Library{}
	}
	return *c.library
}

// DetectLibrary reports whether the OpenRazer client library can be imported
// and which version it is. The result is cached for the process lifetime.
// Use [ResetLibraryCache] to probe again.
func DetectLibrary(ctx context.Context) Library {
	return detectLibrary(ctx, execCommander{})
}

// ResetLibraryCache clears the cached library probe.
// This is primarily useful for testing.
func ResetLibraryCache() {
	libraryMu.Lock()
	defer libraryMu.Unlock()
	cachedLibrary = nil
}

func detectLibrary(ctx context.Context, cmd Commander) Library {
	libraryMu.Lock()
	defer libraryMu.Unlock()

	if cachedLibrary != nil {
		return *cachedLibrary
	}
	lib := probeLibrary(ctx, cmd)
	cachedLibrary = &lib
	return lib
}

const libraryProbeScript = "from openrazer import client; print(client.__version__)"

// probeLibrary imports the client library in a Python interpreter and
// captures its version. Any failure means the library is unusable.
func probeLibrary(ctx context.Context, cmd Commander) Library {
	python, err := cmd.LookPath("python3")
	if err != nil {
		zap.L().Debug("python3 not found", zap.Error(err))
		return Library{}
	}

	res, err := cmd.Run(ctx, python, "-c", libraryProbeScript)
	if err != nil {
		zap.L().Debug("library probe failed", zap.Error(err))
		return Library{}
	}
	if res.ExitCode != 0 {
		zap.L().Debug("openrazer library not importable", zap.Int("exitCode", res.ExitCode))
		return Library{}
	}

	// Import warnings may precede the version on the combined output.
	lines := strings.Split(strings.TrimSpace(string(res.Output)), "\n")
	version := strings.TrimSpace(lines[len(lines)-1])
	if version == "" || strings.ContainsAny(version, " \t") {
		return Library{}
	}
	return Library{Present: true, Version: version}
}
