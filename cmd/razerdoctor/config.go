package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/polychromatic/razerdoctor"
	"github.com/spf13/pflag"
)

// fileConfig is the TOML configuration accepted by --config.
//
//	language = "de"
//	version_url = "https://openrazer.github.io/api/latest_version.txt"
//	timeout = "5s"
//	skip = ["up-to-date"]
//	module_signing = true
//
//	[translations]
//	"Daemon is installed" = "Daemon ist installiert"
type fileConfig struct {
	Language      string            `toml:"language"`
	VersionURL    string            `toml:"version_url"`
	Timeout       string            `toml:"timeout"`
	Skip          []string          `toml:"skip"`
	ModuleSigning bool              `toml:"module_signing"`
	Translations  map[string]string `toml:"translations"`
}

func loadConfig(path string) (*fileConfig, error) {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	return &fc, nil
}

// settings is the merged result of the config file and the command line.
type settings struct {
	lang          string
	versionURL    string
	timeout       time.Duration
	skip          checkIDs
	moduleSigning bool
	translations  map[string]string
}

// resolveSettings merges the config file (if any) with the command line.
// Flags that were set explicitly win over the file.
func resolveSettings(flags *pflag.FlagSet, opts *CheckOptions, fc *fileConfig) (*settings, error) {
	if fc == nil {
		fc = &fileConfig{}
	}

	s := &settings{
		lang:          fc.Language,
		versionURL:    fc.VersionURL,
		timeout:       opts.Timeout,
		moduleSigning: fc.ModuleSigning,
		translations:  fc.Translations,
	}
	if flags.Changed("lang") || s.lang == "" {
		s.lang = opts.Lang
	}
	if flags.Changed("version-url") || s.versionURL == "" {
		s.versionURL = opts.VersionURL
	}
	if !flags.Changed("timeout") && fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("config timeout %q: %w", fc.Timeout, err)
		}
		s.timeout = d
	}
	if flags.Changed("module-signing") {
		s.moduleSigning = opts.ModuleSigning
	}

	s.skip = append(checkIDs{}, opts.Skip...)
	for _, name := range fc.Skip {
		id, err := razerdoctor.ParseCheckID(name)
		if err != nil {
			return nil, fmt.Errorf("config skip: %w", err)
		}
		if !slices.Contains(s.skip, id) {
			s.skip = append(s.skip, id)
		}
	}

	return s, nil
}

func (s *settings) runOptions() ([]razerdoctor.RunOption, error) {
	runOpts := []razerdoctor.RunOption{
		razerdoctor.WithVersionURL(s.versionURL),
		razerdoctor.WithVersionTimeout(s.timeout),
		razerdoctor.WithSkip(s.skip...),
	}
	if s.moduleSigning {
		runOpts = append(runOpts, razerdoctor.WithModuleSigning())
	}

	if s.lang != "" && len(s.translations) > 0 {
		t, err := razerdoctor.NewCatalogTranslator(s.lang, s.translations)
		if err != nil {
			return nil, err
		}
		runOpts = append(runOpts, razerdoctor.WithTranslator(t))
	}

	return runOpts, nil
}
