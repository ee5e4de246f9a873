package razerdoctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

// maxVersionBody caps how much of the latest-version response is read.
const maxVersionBody = 1 << 10

// errMalformedVersion is returned for version strings that are not major.minor.patch.
var errMalformedVersion = errors.New("version must have exactly three dot-separated components")

// IsNewer reports whether remote is a later release than local.
// Both must be major.minor.patch.
func IsNewer(remote, local string) (bool, error) {
	rv, err := parseVersion(remote)
	if err != nil {
		return false, err
	}
	lv, err := parseVersion(local)
	if err != nil {
		return false, err
	}
	return rv.GreaterThan(lv), nil
}

func parseVersion(s string) (*semver.Version, error) {
	s = strings.TrimSpace(s)
	if len(strings.Split(s, ".")) != 3 {
		return nil, fmt.Errorf("%q: %w", s, errMalformedVersion)
	}
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s, err)
	}
	return v, nil
}

// checkUpToDate compares the installed library with the latest release.
// Anything that prevents the comparison yields an unknown result.
func checkUpToDate(ctx context.Context, c *runConfig) ([]CheckResult, error) {
	name := c.translate("OpenRazer is the latest version")
	unknown := []CheckResult{{
		Check:    CheckUpToDate,
		TestName: name,
		Suggestions: []string{
			c.translate("Unable to retrieve this data from OpenRazer's website."),
			c.translate("Check the OpenRazer website to confirm your device is listed as supported."),
			c.translate("If you're checking the GitHub repository, check the 'stable' branch."),
		},
		Passed: StatusUnknown,
	}}

	lib := c.lib()
	if !lib.Present {
		return unknown, nil
	}

	remote, ok := c.fetchLatestVersion(ctx)
	if !ok {
		return unknown, nil
	}

	newer, err := IsNewer(remote, lib.Version)
	if err != nil {
		zap.L().Warn("cannot compare OpenRazer versions",
			zap.String("local", lib.Version),
			zap.String("remote", remote),
			zap.Error(err))
		return unknown, nil
	}

	return []CheckResult{{
		Check:    CheckUpToDate,
		TestName: name,
		Suggestions: []string{
			c.translate("There is a new version of OpenRazer available."),
			c.translate("New versions add support for more devices and address device-specific issues."),
			strings.ReplaceAll(c.translate("Your version: 0.0.0"), "0.0.0", lib.Version),
			strings.ReplaceAll(c.translate("Latest version: 0.0.0"), "0.0.0", remote),
		},
		Passed: StatusOf(!newer),
	}}, nil
}

// fetchLatestVersion retrieves the latest release string. Connection errors
// are logged and reported as not available.
func (c *runConfig) fetchLatestVersion(ctx context.Context) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.versionTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.versionURL, nil)
	if err != nil {
		zap.L().Warn("could not retrieve OpenRazer data", zap.String("url", c.versionURL), zap.Error(err))
		return "", false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("could not retrieve OpenRazer data", zap.String("url", c.versionURL), zap.Error(err))
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		zap.L().Debug("unexpected status for latest version",
			zap.String("url", c.versionURL),
			zap.Int("status", resp.StatusCode))
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVersionBody))
	if err != nil {
		zap.L().Warn("could not retrieve OpenRazer data", zap.String("url", c.versionURL), zap.Error(err))
		return "", false
	}

	// Response should be three numbers, e.g. 3.0.1
	remote := strings.TrimSpace(string(body))
	if len(strings.Split(remote, ".")) != 3 {
		zap.L().Debug("malformed latest version", zap.String("body", remote))
		return "", false
	}
	return remote, true
}
