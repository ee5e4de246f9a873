package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/polychromatic/razerdoctor"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "razerdoctor.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// parseFlags binds the flags resolveSettings inspects and parses args.
func parseFlags(t *testing.T, args ...string) (*pflag.FlagSet, *CheckOptions) {
	t.Helper()
	opts := &CheckOptions{Timeout: razerdoctor.DefaultVersionTimeout}
	fs := pflag.NewFlagSet("check", pflag.ContinueOnError)
	fs.StringVar(&opts.Lang, "lang", "", "")
	fs.StringVar(&opts.VersionURL, "version-url", "", "")
	fs.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "")
	fs.BoolVar(&opts.ModuleSigning, "module-signing", false, "")
	fs.Var(&opts.Skip, "skip", "")
	require.NoError(t, fs.Parse(args))
	return fs, opts
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
language = "de"
version_url = "https://mirror.example.org/latest_version.txt"
timeout = "3s"
skip = ["up-to-date", "Secure-Boot"]
module_signing = true

[translations]
"Daemon is installed" = "Daemon ist installiert"
`)

	fc, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "de", fc.Language)
	assert.Equal(t, "https://mirror.example.org/latest_version.txt", fc.VersionURL)
	assert.Equal(t, "3s", fc.Timeout)
	assert.Equal(t, []string{"up-to-date", "Secure-Boot"}, fc.Skip)
	assert.True(t, fc.ModuleSigning)
	assert.Equal(t, "Daemon ist installiert", fc.Translations["Daemon is installed"])
}

func TestLoadConfig_UnknownKey(t *testing.T) {
	path := writeConfig(t, "langauge = \"de\"\n")
	_, err := loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "langauge")
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestResolveSettings_FileOnly(t *testing.T) {
	fs, opts := parseFlags(t)
	fc := &fileConfig{
		Language:      "it",
		VersionURL:    "https://mirror.example.org/v.txt",
		Timeout:       "2s",
		Skip:          []string{"dkms", "DKMS"},
		ModuleSigning: true,
	}

	s, err := resolveSettings(fs, opts, fc)
	require.NoError(t, err)
	assert.Equal(t, "it", s.lang)
	assert.Equal(t, "https://mirror.example.org/v.txt", s.versionURL)
	assert.Equal(t, 2*time.Second, s.timeout)
	assert.Equal(t, checkIDs{razerdoctor.CheckDKMS}, s.skip)
	assert.True(t, s.moduleSigning)
}

func TestResolveSettings_FlagsWin(t *testing.T) {
	fs, opts := parseFlags(t,
		"--lang", "fr",
		"--version-url", "https://flag.example.org/v.txt",
		"--timeout", "500ms",
		"--module-signing=false",
		"--skip", "plugdev-group",
	)
	fc := &fileConfig{
		Language:      "it",
		VersionURL:    "https://mirror.example.org/v.txt",
		Timeout:       "2s",
		Skip:          []string{"up-to-date", "plugdev-group"},
		ModuleSigning: true,
	}

	s, err := resolveSettings(fs, opts, fc)
	require.NoError(t, err)
	assert.Equal(t, "fr", s.lang)
	assert.Equal(t, "https://flag.example.org/v.txt", s.versionURL)
	assert.Equal(t, 500*time.Millisecond, s.timeout)
	assert.False(t, s.moduleSigning)
	// Skip lists are merged.
	assert.Equal(t, checkIDs{razerdoctor.CheckPlugdevGroup, razerdoctor.CheckUpToDate}, s.skip)
}

func TestResolveSettings_NoFile(t *testing.T) {
	fs, opts := parseFlags(t)
	s, err := resolveSettings(fs, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, razerdoctor.DefaultVersionTimeout, s.timeout)
	assert.Empty(t, s.skip)
	assert.False(t, s.moduleSigning)

	runOpts, err := s.runOptions()
	require.NoError(t, err)
	assert.Len(t, runOpts, 3)
}

func TestResolveSettings_Errors(t *testing.T) {
	fs, opts := parseFlags(t)

	_, err := resolveSettings(fs, opts, &fileConfig{Timeout: "soon"})
	assert.ErrorContains(t, err, "config timeout")

	_, err = resolveSettings(fs, opts, &fileConfig{Skip: []string{"ciao"}})
	assert.ErrorContains(t, err, "config skip")
}

func TestSettingsRunOptions_Translator(t *testing.T) {
	s := &settings{
		lang:          "de",
		moduleSigning: true,
		translations:  map[string]string{"Daemon is installed": "Daemon ist installiert"},
	}
	runOpts, err := s.runOptions()
	require.NoError(t, err)
	assert.Len(t, runOpts, 5)

	s.lang = "not a language!"
	_, err = s.runOptions()
	assert.Error(t, err)
}
