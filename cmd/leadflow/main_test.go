package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/leadflow/cmd/leadflow/server"
	"github.com/thesyncim/leadflow/pkg/formtest"
	"github.com/thesyncim/leadflow/pkg/formtest/config"
	"github.com/thesyncim/leadflow/pkg/formtest/logging"
)

func startReference(t *testing.T, password string) string {
	t.Helper()
	cfg := server.DefaultConfig()
	cfg.Password = password
	srv, err := server.NewServer(cfg)
	require.NoError(t, err)
	_, err = srv.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv.URL()
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "run", "soak", "fixtures", "drift"} {
		assert.Contains(t, names, want)
	}
}

func TestAppLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("LEADFLOW_TIMEOUT", "4s")
	t.Setenv("LEADFLOW_LOG_LEVEL", "warn")

	a := &app{}
	root := a.rootCmd()
	root.SetArgs([]string{
		"fixtures", "--quiet",
		"--headed",
		"--base-url", "http://127.0.0.1:9999",
		"--log-level", "error",
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
	})
	require.NoError(t, root.Execute())

	assert.False(t, a.cfg.Headless)
	assert.Equal(t, "http://127.0.0.1:9999", a.cfg.BaseURL)
	assert.Equal(t, "error", a.cfg.LogLevel)
	assert.Equal(t, 4*time.Second, a.cfg.Timeout, "unset flags leave the environment in charge")
	assert.Equal(t, config.DefaultFormWebhookURL, a.cfg.FormWebhookURL)
	assert.Equal(t, log.ErrorLevel, a.logger.GetLevel())
}

func TestAppLoad_RejectsInvalidConfig(t *testing.T) {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs([]string{"fixtures", "--quiet", "--base-url", "not a url", "--env-file", filepath.Join(t.TempDir(), "missing.env")})
	assert.ErrorContains(t, root.Execute(), "base_url")
}

func TestCheckFixture(t *testing.T) {
	for _, p := range formtest.Profiles() {
		data, err := formtest.Fixture(p)
		require.NoError(t, err)
		assert.NoError(t, checkFixture(data), p)
	}

	bad := formtest.MediumCompany()
	bad.OwnershipInfo.Owners[0].Percentage = "10"
	assert.ErrorContains(t, checkFixture(bad), "ownership totals")
}

func TestSoakResult_Stats(t *testing.T) {
	r := soakResult{
		Requested:  4,
		Iterations: 4,
		Passed:     3,
		Failed:     1,
		Durations:  []time.Duration{3 * time.Second, time.Second, 2 * time.Second},
	}
	assert.InDelta(t, 0.25, r.FlakeRate(), 1e-9)
	assert.Equal(t, 2*time.Second, r.percentile(0.5))
	assert.Equal(t, 3*time.Second, r.percentile(1))
	assert.Zero(t, soakResult{}.FlakeRate())
	assert.Zero(t, soakResult{}.percentile(0.5))
}

func TestRunSoak_CancelledContextStartsNoWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &app{cfg: config.Default(), logger: logging.Discard()}
	res, err := runSoak(ctx, a, "http://127.0.0.1:1", formtest.Profiles(), 5, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Iterations)
	assert.Equal(t, 5, res.Requested)
}

func TestFetchPage_OpenApp(t *testing.T) {
	base := startReference(t, "")
	page, err := fetchPage(base, "", 5*time.Second)
	require.NoError(t, err)

	drift, err := formtest.CheckDOM(formtest.DefaultSchema(), bytes.NewReader(page))
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func TestFetchPage_UnlocksGate(t *testing.T) {
	base := startReference(t, "preview")

	_, err := fetchPage(base, "", 5*time.Second)
	assert.ErrorContains(t, err, "password protected")

	_, err = fetchPage(base, "wrong", 5*time.Second)
	assert.Error(t, err)

	page, err := fetchPage(base, "preview", 5*time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(page), `id="wizard"`)
}
