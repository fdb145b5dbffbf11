//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thesyncim/leadflow/cmd/leadflow/server"
	"github.com/thesyncim/leadflow/pkg/formtest"
	"github.com/thesyncim/leadflow/pkg/formtest/config"
	"github.com/thesyncim/leadflow/pkg/formtest/driver"
	"github.com/thesyncim/leadflow/pkg/formtest/interceptor"
	"github.com/thesyncim/leadflow/pkg/formtest/logging"
	"github.com/thesyncim/leadflow/pkg/formtest/testutil"
)

// harness is one test's browser, page, driver and webhook interception,
// pointed at either LEADFLOW_BASE_URL or a private reference app.
type harness struct {
	cfg config.Config
	// local is set when the test owns a reference app.
	local   bool
	browser *testutil.BrowserClient
	d       *driver.Driver
	ic      *interceptor.Interceptor
	schema  formtest.Schema
}

type harnessOptions struct {
	password      string
	webhookStatus int
}

type harnessOption func(*harnessOptions)

// withPassword gates the reference app behind password.
func withPassword(p string) harnessOption {
	return func(o *harnessOptions) { o.password = p }
}

// withWebhookStatus makes intercepted webhooks answer with status.
func withWebhookStatus(status int) harnessOption {
	return func(o *harnessOptions) { o.webhookStatus = status }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	var ho harnessOptions
	for _, opt := range opts {
		opt(&ho)
	}

	cfg, err := config.Load(config.LoadOptions{})
	require.NoError(t, err)
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Output: os.Stderr, Prefix: t.Name()})

	local := false
	if cfg.BaseURL == "" {
		scfg := server.DefaultConfig()
		scfg.FormWebhookURL = cfg.FormWebhookURL
		scfg.FileWebhookURL = cfg.FileWebhookURL
		if ho.password != "" {
			scfg.Password = ho.password
			cfg.Password = ho.password
		}
		srv, err := server.NewServer(scfg)
		require.NoError(t, err)
		_, err = srv.Start()
		require.NoError(t, err)
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				t.Errorf("server shutdown error: %v", err)
			}
		})
		cfg.BaseURL = srv.URL()
		local = true
	} else if ho.password != "" {
		t.Skip("password gate scenarios need the reference app")
	}

	bc := testutil.DefaultBrowserConfig()
	bc.Headless = cfg.Headless
	bc.SlowMotion = cfg.SlowMotion
	bc.Timeout = cfg.Timeout
	browser, err := testutil.NewBrowserClient(bc)
	require.NoError(t, err)

	h := &harness{cfg: cfg, local: local, browser: browser, schema: formtest.DefaultSchema()}
	t.Cleanup(func() {
		if t.Failed() {
			h.screenshot(t)
		}
		if err := browser.Close(); err != nil {
			t.Errorf("browser close error: %v", err)
		}
	})

	page, err := browser.NewPage()
	require.NoError(t, err)
	h.d, err = driver.New(page, cfg, driver.WithLogger(logger))
	require.NoError(t, err)

	var icOpts []interceptor.Option
	if ho.webhookStatus != 0 {
		icOpts = append(icOpts, interceptor.WithStatus(ho.webhookStatus))
	}
	h.ic, err = h.d.MockAPICalls(icOpts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := h.ic.Stop(); err != nil {
			t.Errorf("interceptor stop error: %v", err)
		}
	})

	return h
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (h *harness) screenshot(t *testing.T) {
	if h.cfg.ScreenshotsDir == "" || h.browser.Page() == nil {
		return
	}
	path := filepath.Join(h.cfg.ScreenshotsDir, unsafeFileChars.ReplaceAllString(t.Name(), "_")+".png")
	if err := h.browser.Screenshot(path); err != nil {
		t.Logf("screenshot failed: %v", err)
		return
	}
	t.Logf("screenshot saved to %s", path)
}

// stableFor is how long the page must stay idle after loading.
const stableFor = 200 * time.Millisecond

// start opens the app on step 1 and waits for its scripts to settle.
func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.d.NavigateToApp())
	require.NoError(t, h.browser.WaitStable(stableFor))
}

// hidden reports whether the element matching selector has the hidden property set.
func (h *harness) hidden(t *testing.T, selector string) bool {
	t.Helper()
	v, err := h.browser.Eval(fmt.Sprintf(`() => document.querySelector(%q).hidden`, selector))
	require.NoError(t, err)
	hidden, ok := v.(bool)
	require.True(t, ok, "%s: no such element", selector)
	return hidden
}

// advanceTo opens the app and fills every step before target.
func (h *harness) advanceTo(t *testing.T, target int, data formtest.TestFormData) {
	t.Helper()
	h.start(t)
	require.NoError(t, h.d.FillAllPreviousSteps(target, data))
}

// eachFixture runs fn once per fixture profile as a subtest.
func eachFixture(t *testing.T, fn func(t *testing.T, data formtest.TestFormData)) {
	for _, p := range formtest.Profiles() {
		data, err := formtest.Fixture(p)
		require.NoError(t, err)
		t.Run(p, func(t *testing.T) {
			fn(t, data)
		})
	}
}

// fieldValue reads the named input or fails the test.
func (h *harness) fieldValue(t *testing.T, name string) string {
	t.Helper()
	v, err := h.d.FieldValue(name)
	require.NoError(t, err)
	return v
}
