package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/leodido/structcli"
	"github.com/polychromatic/razerdoctor"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"
	"go.uber.org/zap"
)

// Build metadata injected via ldflags.
// When built without ldflags (e.g., plain `go build`), these remain
// at their zero values and the version command omits them gracefully.
var (
	version = ""
	commit  = ""
	date    = ""
)

// errChecksFailed signals a completed run with failing checks.
var errChecksFailed = errors.New("some checks failed")

func main() {
	root := &cobra.Command{
		Use:   "razerdoctor",
		Short: "Troubleshoot an OpenRazer installation",
		Long: `razerdoctor inspects the OpenRazer driver stack on Linux.

It checks that the daemon and Python library are installed, that the DKMS
kernel module is built, probeable and loaded, that Secure Boot will not block
it, that the user is in the plugdev group, and that OpenRazer is up to date.
Every failing check prints what to do about it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(checkCmd())
	root.AddCommand(listCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// CheckOptions defines flags for the check subcommand.
type CheckOptions struct {
	JSON          bool          `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
	Skip          checkIDs      `flag:"skip" flagshort:"s" flagdescr:"Checks to leave out (see 'razerdoctor checks')" flagcustom:"true"`
	ModuleSigning bool          `flag:"module-signing" flagdescr:"Also check kernel module signature enforcement"`
	Lang          string        `flag:"lang" flagdescr:"Language tag for translated output (requires translations in --config)"`
	Config        string        `flag:"config" flagshort:"c" flagdescr:"Path to a TOML configuration file"`
	Timeout       time.Duration `flag:"timeout" flagdescr:"Timeout for the latest-version request"`
	VersionURL    string        `flag:"version-url" flagdescr:"URL serving the latest OpenRazer version"`
	Verbose       bool          `flag:"verbose" flagshort:"v" flagdescr:"Enable debug logging"`
}

func (o *CheckOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *CheckOptions) DefineSkip(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*checkIDs)
	*fieldPtr = nil
	return fieldPtr, descr
}

func (o *CheckOptions) DecodeSkip(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}

	return parseCheckIDs(s)
}

// CompleteSkip completes comma-separated check names, leaving out
// names that were already given.
func (o *CheckOptions) CompleteSkip(c *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	current := toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
		current = toComplete[i+1:]
	}

	selected := map[string]struct{}{}
	for _, part := range strings.Split(prefix, ",") {
		if name := strings.ToLower(strings.TrimSpace(part)); name != "" {
			selected[name] = struct{}{}
		}
	}

	var candidates []string
	for _, name := range razerdoctor.CheckNames() {
		if _, dup := selected[name]; dup {
			continue
		}
		if strings.HasPrefix(name, strings.ToLower(current)) {
			candidates = append(candidates, prefix+name)
		}
	}
	return candidates, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func checkCmd() *cobra.Command {
	opts := &CheckOptions{Timeout: razerdoctor.DefaultVersionTimeout}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the troubleshooting checklist",
		Long:  checkLongDescription(),
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			logger, err := newLogger(opts.Verbose)
			if err != nil {
				return err
			}
			defer zap.ReplaceGlobals(logger)()
			defer logger.Sync() //nolint:errcheck

			var fc *fileConfig
			if opts.Config != "" {
				if fc, err = loadConfig(opts.Config); err != nil {
					return err
				}
			}

			s, err := resolveSettings(c.Flags(), opts, fc)
			if err != nil {
				return err
			}
			runOpts, err := s.runOptions()
			if err != nil {
				return err
			}

			report, err := razerdoctor.Run(context.Background(), runOpts...)
			return printReport(report, err, opts.JSON)
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// checkOutput is the JSON shape of the check subcommand.
type checkOutput struct {
	Applicable bool                      `json:"applicable"`
	OK         bool                      `json:"ok"`
	Results    []razerdoctor.CheckResult `json:"results"`
	Error      string                    `json:"error,omitempty"`
}

func printReport(report *razerdoctor.Report, runErr error, asJSON bool) error {
	switch {
	case errors.Is(runErr, razerdoctor.ErrUnsupportedPlatform):
		if asJSON {
			return printJSON(checkOutput{Applicable: false, OK: true, Results: []razerdoctor.CheckResult{}})
		}
		fmt.Println("Not applicable: troubleshooting is only available on Linux.")
		return nil
	case runErr != nil:
		if asJSON {
			if err := printJSON(checkOutput{Applicable: true, Results: []razerdoctor.CheckResult{}, Error: runErr.Error()}); err != nil {
				return err
			}
			return errChecksFailed
		}
		return runErr
	}

	if asJSON {
		if err := printJSON(checkOutput{Applicable: true, OK: report.OK(), Results: report.Results}); err != nil {
			return err
		}
	} else {
		fmt.Print(report)
	}
	if !report.OK() {
		return errChecksFailed
	}
	return nil
}

// ListOptions defines flags for the checks subcommand.
type ListOptions struct {
	JSON bool `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *ListOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func listCmd() *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "checks",
		Short: "List the available checks",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			if opts.JSON {
				out := make([]map[string]string, 0, len(razerdoctor.CheckValues()))
				for _, id := range razerdoctor.CheckValues() {
					out = append(out, map[string]string{"name": id.String(), "description": id.Description()})
				}
				return printJSON(out)
			}
			for _, id := range razerdoctor.CheckValues() {
				fmt.Printf("%-18s  %s\n", id, id.Description())
			}
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show tool, kernel and OpenRazer library versions",
		RunE: func(c *cobra.Command, args []string) error {
			if version != "" {
				fmt.Printf("razerdoctor %s", version)
				if commit != "" {
					fmt.Printf(" (%s)", commit)
				}
				if date != "" {
					fmt.Printf(" built %s", date)
				}
				fmt.Println()
			} else {
				fmt.Println("razerdoctor (dev)")
			}

			host, err := razerdoctor.HostInfo()
			if err != nil {
				return err
			}
			fmt.Printf("Kernel: %s %s %s\n", host.Sysname, host.Release, host.Machine)

			lib := razerdoctor.DetectLibrary(context.Background())
			if lib.Present {
				fmt.Printf("OpenRazer library: %s\n", lib.Version)
			} else {
				fmt.Println("OpenRazer library: not installed")
			}
			return nil
		},
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkLongDescription() string {
	return fmt.Sprintf(`Run the OpenRazer troubleshooting checklist.
Exits with code 0 if nothing failed, 1 if any check failed or could not run.
Checks that cannot decide (for example without network access) are reported
as UNKNOWN and do not fail the run.

Available checks:
%s`, formatWrappedList(razerdoctor.CheckNames(), "  ", 80))
}

func formatWrappedList(items []string, indent string, maxWidth int) string {
	if len(items) == 0 {
		return indent + "(none)"
	}

	lines := make([]string, 0, len(items))
	line := indent
	for i, item := range items {
		token := item
		if i < len(items)-1 {
			token += ", "
		}

		if len(line)+len(token) > maxWidth && line != indent {
			lines = append(lines, strings.TrimRight(line, " "))
			line = indent + token
			continue
		}

		line += token
	}

	lines = append(lines, strings.TrimRight(line, " "))
	return strings.Join(lines, "\n")
}

type checkIDs []razerdoctor.CheckID

var checkIdentifierMap = func() map[razerdoctor.CheckID][]string {
	ids := make(map[razerdoctor.CheckID][]string, len(razerdoctor.CheckValues()))
	for _, id := range razerdoctor.CheckValues() {
		ids[id] = []string{id.String()}
	}
	return ids
}()

func (r *checkIDs) String() string {
	names := make([]string, 0, len(*r))
	for _, id := range *r {
		names = append(names, id.String())
	}

	return strings.Join(names, ",")
}

func (r *checkIDs) Set(input string) error {
	ids, err := parseCheckIDs(input)
	if err != nil {
		return err
	}

	*r = append(*r, ids...)
	return nil
}

func (r *checkIDs) Type() string {
	return "check"
}

func parseCheckIDs(input string) (checkIDs, error) {
	if strings.TrimSpace(input) == "" {
		return checkIDs{}, nil
	}

	parts := strings.Split(input, ",")
	ids := make(checkIDs, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}

		var id razerdoctor.CheckID
		enumValue := enumflag.New(&id, "razerdoctor.CheckID", checkIdentifierMap, enumflag.EnumCaseInsensitive)
		if err := enumValue.Set(name); err != nil {
			return nil, fmt.Errorf("unknown check: %q (available: %s)", name, strings.Join(razerdoctor.CheckNames(), ", "))
		}

		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	return ids, nil
}
