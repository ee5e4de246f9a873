package razerdoctor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		remote, local string
		want          bool
	}{
		{"3.0.1", "3.0.0", true},
		{"3.0.0", "3.0.0", false},
		{"2.9.9", "3.0.0", false},
		{"3.1.0", "3.0.9", true},
		{"3.0.10", "3.0.9", true},
		{"10.0.0", "9.9.9", true},
		{"3.0.0", "3.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.remote+"_vs_"+tt.local, func(t *testing.T) {
			got, err := IsNewer(tt.remote, tt.local)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsNewer_Malformed(t *testing.T) {
	for _, bad := range [][2]string{
		{"3.0", "3.0.0"},
		{"3.0.0", "3.0.0.1"},
		{"three.0.0", "3.0.0"},
		{"", "3.0.0"},
		{"3.0.0", "3.0.0-rc1.1"},
	} {
		_, err := IsNewer(bad[0], bad[1])
		assert.Error(t, err, "IsNewer(%q, %q)", bad[0], bad[1])
	}
	_, err := IsNewer("1.2", "1.2.3")
	assert.ErrorIs(t, err, errMalformedVersion)
}

func newUpToDateConfig(lib Library, transport http.RoundTripper) *runConfig {
	return newRunConfig([]RunOption{
		WithLibrary(lib),
		WithHTTPClient(&http.Client{Transport: transport}),
		WithVersionURL(testVersionURL),
	})
}

func TestCheckUpToDate(t *testing.T) {
	tests := []struct {
		name      string
		local     string
		body      string
		want      Status
		wantHints int
	}{
		{"current", "3.0.1", "3.0.1\n", StatusPass, 4},
		{"outdated", "3.0.0", "3.0.1\n", StatusFail, 4},
		{"local ahead", "3.1.0", "3.0.1", StatusPass, 4},
		{"malformed body", "3.0.1", "<html>oops</html>", StatusUnknown, 3},
		{"unparseable local", "3.0.dev", "3.0.1", StatusUnknown, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newUpToDateConfig(Library{Present: true, Version: tt.local}, versionTransport(tt.body))

			res, err := checkUpToDate(context.Background(), c)
			require.NoError(t, err)
			require.Len(t, res, 1)
			assert.Equal(t, CheckUpToDate, res[0].Check)
			assert.Equal(t, tt.want, res[0].Passed)
			assert.Len(t, res[0].Suggestions, tt.wantHints)
		})
	}
}

func TestCheckUpToDate_VersionHints(t *testing.T) {
	c := newUpToDateConfig(Library{Present: true, Version: "3.0.0"}, versionTransport("3.0.1"))

	res, err := checkUpToDate(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "Your version: 3.0.0", res[0].Suggestions[2])
	assert.Equal(t, "Latest version: 3.0.1", res[0].Suggestions[3])
}

func TestCheckUpToDate_LibraryAbsent(t *testing.T) {
	transport := versionTransport("3.0.1")
	c := newUpToDateConfig(Library{}, transport)

	res, err := checkUpToDate(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, res[0].Passed)
	assert.Zero(t, transport.GetTotalCallCount(), "no request without a local version")
}

func TestCheckUpToDate_HTTPStatus(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, testVersionURL, httpmock.NewStringResponder(http.StatusNotFound, "3.0.1"))
	c := newUpToDateConfig(Library{Present: true, Version: "3.0.0"}, transport)

	res, err := checkUpToDate(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, res[0].Passed)
}

func TestCheckUpToDate_ConnectionErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, testVersionURL, httpmock.NewErrorResponder(errors.New("dial tcp: no route to host")))
	c := newUpToDateConfig(Library{Present: true, Version: "3.0.0"}, transport)

	res, err := checkUpToDate(context.Background(), c)
	require.NoError(t, err, "connection errors are not faults")
	assert.Equal(t, StatusUnknown, res[0].Passed)
	assert.Equal(t, "Unable to retrieve this data from OpenRazer's website.", res[0].Suggestions[0])

	entries := logs.FilterMessage("could not retrieve OpenRazer data").All()
	require.Len(t, entries, 1)
	assert.Equal(t, testVersionURL, entries[0].ContextMap()["url"])
}

func TestCheckUpToDate_Timeout(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, testVersionURL, func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})
	c := newUpToDateConfig(Library{Present: true, Version: "3.0.0"}, transport)
	c.versionTimeout = 10 * time.Millisecond

	res, err := checkUpToDate(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, res[0].Passed)
}
