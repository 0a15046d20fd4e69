package cli

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidash/internal/collector"
)

const testBase = "https://api.test"

const countriesJSON = `[
	{"name":"Germany","alpha2code":"DE"},
	{"name":"Ghana","alpha2code":"GH"},
	{"name":"France","alpha2code":"FR"}
]`

func noEnv(string) (string, bool) { return "", false }

type harness struct {
	app  *app
	mock *httpmock.MockTransport
	dir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mock := httpmock.NewMockTransport()
	return &harness{
		app:  &app{httpClient: &http.Client{Transport: mock}, lookupEnv: noEnv},
		mock: mock,
		dir:  t.TempDir(),
	}
}

// run executes the command tree against the mock API with an empty config file.
func (h *harness) run(args ...string) (string, error) {
	cmd := h.app.rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args,
		"--config", filepath.Join(h.dir, "missing.toml"),
		"--base-url", testBase,
		"--log-level", "error",
	))
	err := cmd.Execute()
	return out.String(), err
}

func TestSettings_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
key = "from-file"
base-url = "http://file.example"

[loader]
window = "250ms"

[display]
locale = "de"
`), 0o644))

	a := &app{lookupEnv: func(k string) (string, bool) {
		if k == "COVIDASH_API_KEY" {
			return "from-env", true
		}
		return "", false
	}}
	cmd := a.rootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--locale", "fr", "--refresh", "1m"}))

	s, err := a.settings(cmd)
	require.NoError(t, err)

	assert.Equal(t, "from-env", s.Collector.APIKey, "environment beats file")
	assert.Equal(t, "http://file.example", s.Collector.BaseURL, "file beats unset flag default")
	assert.Equal(t, 250*time.Millisecond, s.Loader.Window)
	assert.Equal(t, time.Minute, s.Loader.RefreshInterval)
	assert.Equal(t, "fr", s.Locale, "explicit flag beats file")
}

func TestSettings_Invalid(t *testing.T) {
	a := &app{lookupEnv: noEnv}
	cmd := a.rootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", filepath.Join(t.TempDir(), "none.toml"),
		"--window", "1s", "--refresh", "500ms",
	}))

	_, err := a.settings(cmd)
	var cfgErr *collector.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "RefreshInterval", cfgErr.Field)
}

func TestReportCmd_Country(t *testing.T) {
	h := newHarness(t)
	h.mock.RegisterResponderWithQuery(http.MethodGet, testBase+"/country/code", "code=DE",
		httpmock.NewStringResponder(http.StatusOK,
			`[{"country":"Germany","code":"DE","confirmed":1234567,"recovered":1000000,"critical":10,"deaths":30000}]`))

	out, err := h.run("report", "--country", "DE")
	require.NoError(t, err)

	assert.Contains(t, out, "COVIDASH REPORT")
	assert.Contains(t, out, "Germany")
	assert.Contains(t, out, "1,234,567")
	assert.Contains(t, out, "204,567", "unknown = confirmed - recovered - deaths")
	assert.Equal(t, 1, h.mock.GetTotalCallCount())
}

func TestReportCmd_GlobalWithLocale(t *testing.T) {
	h := newHarness(t)
	h.mock.RegisterResponder(http.MethodGet, testBase+"/totals",
		httpmock.NewStringResponder(http.StatusOK, `[{"confirmed":1234567,"recovered":700,"deaths":50}]`))

	out, err := h.run("report", "--locale", "de")
	require.NoError(t, err)

	assert.Contains(t, out, "Global")
	assert.Contains(t, out, "1.234.567")
}

func TestReportCmd_FetchFailure(t *testing.T) {
	h := newHarness(t)
	h.mock.RegisterResponder(http.MethodGet, testBase+"/totals",
		httpmock.NewStringResponder(http.StatusTooManyRequests, `{"message":"slow down"}`))

	_, err := h.run("report")
	require.Error(t, err)
	assert.True(t, collector.IsStage(err, collector.StageStatistics))

	var se *collector.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
}

func TestCountriesCmd(t *testing.T) {
	h := newHarness(t)
	h.mock.RegisterResponder(http.MethodGet, testBase+"/help/countries",
		httpmock.NewStringResponder(http.StatusOK, countriesJSON))

	out, err := h.run("countries", "GER")
	require.NoError(t, err)
	assert.Contains(t, out, "Germany")
	assert.NotContains(t, out, "Ghana")
	assert.Contains(t, out, "1 entries")

	out, err = h.run("countries")
	require.NoError(t, err)
	assert.Contains(t, out, "All")
	assert.Contains(t, out, "4 entries")

	_, err = h.run("countries", "zz")
	assert.Error(t, err)
}

func TestExportCmd_SVGFile(t *testing.T) {
	h := newHarness(t)
	h.mock.RegisterResponder(http.MethodGet, testBase+"/totals",
		httpmock.NewStringResponder(http.StatusOK, `[{"confirmed":1000,"recovered":700,"deaths":50}]`))

	path := filepath.Join(h.dir, "donut.svg")
	_, err := h.run("export", "--chart", "donut", "--format", "svg", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "<svg"), "expected an SVG document")
}

func TestExportCmd_PNGStdout(t *testing.T) {
	h := newHarness(t)
	h.mock.RegisterResponder(http.MethodGet, testBase+"/totals",
		httpmock.NewStringResponder(http.StatusOK, `[{"confirmed":1000,"recovered":700,"deaths":50}]`))

	out, err := h.run("export", "--out", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "\x89PNG"), "expected a PNG header")
}

func TestExportCmd_BadArguments(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("export", "--chart", "pie", "--out", "-")
	assert.ErrorContains(t, err, "unknown chart")

	_, err = h.run("export", "--format", "gif", "--out", "-")
	assert.ErrorContains(t, err, "unknown image format")

	assert.Equal(t, 0, h.mock.GetTotalCallCount(), "nothing is fetched for bad arguments")
}

func TestConfigCmd_Print(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("config", "--print")
	require.NoError(t, err)
	assert.Contains(t, out, "[api]")
	assert.Contains(t, out, "[loader]")
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, writeTemplate(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "covidash configuration")

	// an existing file is left alone
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0o644))
	require.NoError(t, writeTemplate(path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))
}
