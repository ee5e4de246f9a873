package razerdoctor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ErrNoKernelConfig is returned when no kernel config source is available.
var ErrNoKernelConfig = errors.New("no kernel config found")

// configSource describes a kernel config file location.
type configSource struct {
	path       string
	compressed bool
}

// readKernelConfig attempts to read and parse kernel configuration.
// Paths are resolved through resolve. It tries sources in priority order:
//  1. /proc/config.gz (requires CONFIG_IKCONFIG_PROC=y)
//  2. /boot/config-$(uname -r)
//  3. /lib/modules/$(uname -r)/config
func readKernelConfig(resolve func(string) string, release string) (*KernelConfig, error) {
	sources := []configSource{
		{path: resolve("/proc/config.gz"), compressed: true},
	}
	if release != "" {
		sources = append(sources,
			configSource{path: resolve("/boot/config-" + release)},
			configSource{path: resolve("/lib/modules/" + release + "/config")},
		)
	}

	var lastErr error
	for _, src := range sources {
		kc, err := parseConfigFrom(src)
		if err == nil {
			return kc, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %w", ErrNoKernelConfig, lastErr)
}

// parseConfigFrom reads and parses a kernel config from the given source.
func parseConfigFrom(src configSource) (*KernelConfig, error) {
	f, err := os.Open(src.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = f
	if src.compressed {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		reader = gr
	}

	return parseConfig(reader)
}

// parseConfig parses kernel configuration from a reader.
// It extracts CONFIG_* entries with =y (builtin) or =m (module) values.
func parseConfig(r io.Reader) (*KernelConfig, error) {
	raw := make(map[string]ConfigValue)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "CONFIG_") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimPrefix(key, "CONFIG_")

		switch value {
		case "y":
			raw[key] = ConfigBuiltin
		case "m":
			raw[key] = ConfigModule
			// Other values (strings, numbers) are ignored.
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return NewKernelConfig(raw), nil
}
