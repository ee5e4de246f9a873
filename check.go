package razerdoctor

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// producer runs one check and returns zero or more results.
// Returning an error aborts the whole run.
type producer func(ctx context.Context, c *runConfig) ([]CheckResult, error)

// producers in report order.
var producers = []struct {
	id      CheckID
	produce producer
}{
	{CheckDaemonInstalled, checkDaemonInstalled},
	{CheckLibraryInstalled, checkLibraryInstalled},
	{CheckDaemonRunning, checkDaemonRunning},
	{CheckDKMS, checkDKMS},
	{CheckSecureBoot, checkSecureBoot},
	{CheckModuleSigning, checkModuleSigning},
	{CheckPlugdevGroup, checkPlugdevGroup},
	{CheckSysfsPermissions, checkSysfsPermissions},
	{CheckUpToDate, checkUpToDate},
}

// Run executes every enabled check in order and returns the report.
//
// On a non-Linux host it returns [ErrUnsupportedPlatform] without running
// any check. If a check hits an unexpected fault the run stops and a
// *[RunError] is returned; results gathered so far are discarded.
func Run(ctx context.Context, opts ...RunOption) (*Report, error) {
	c := newRunConfig(opts)
	if err := c.prepare(ctx); err != nil {
		return nil, err
	}

	results := []CheckResult{}
	for _, p := range producers {
		if !c.enabled(p.id) {
			continue
		}
		res, err := c.invoke(ctx, p.id, p.produce)
		if err != nil {
			return nil, err
		}
		results = append(results, res...)
	}
	return &Report{Results: results}, nil
}

// RunCheck executes a single check with the same options and fault handling as [Run].
// Opt-in checks run when requested explicitly; skip options are ignored.
func RunCheck(ctx context.Context, id CheckID, opts ...RunOption) ([]CheckResult, error) {
	c := newRunConfig(opts)
	if err := c.prepare(ctx); err != nil {
		return nil, err
	}
	for _, p := range producers {
		if p.id == id {
			return c.invoke(ctx, p.id, p.produce)
		}
	}
	return nil, fmt.Errorf("unknown check %s", id)
}

// prepare identifies the host and resolves the library probe.
func (c *runConfig) prepare(ctx context.Context) error {
	host, err := c.uname()
	if err != nil {
		return fmt.Errorf("identify host: %w", err)
	}
	if host.Sysname != "Linux" {
		return ErrUnsupportedPlatform
	}
	c.host = host

	if c.library == nil {
		lib := detectLibrary(ctx, c.commander)
		c.library = &lib
	}
	return nil
}

func (c *runConfig) enabled(id CheckID) bool {
	if _, skipped := c.skip[id]; skipped {
		return false
	}
	if id == CheckModuleSigning {
		return c.moduleSigning
	}
	return true
}

// invoke is the single fault boundary: errors and panics from a producer
// become a *RunError.
func (c *runConfig) invoke(ctx context.Context, id CheckID, fn producer) (results []CheckResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results, err = nil, fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			results = nil
			err = &RunError{Check: id, Err: err}
			zap.L().Error("failed to run troubleshooter", zap.Stringer("check", id), zap.Error(err))
		}
	}()
	return fn(ctx, c)
}
