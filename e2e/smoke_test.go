//go:build e2e

package e2e

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/leadflow/pkg/formtest"
	"github.com/thesyncim/leadflow/pkg/formtest/driver"
)

// TestApp_LoadsFirstStep verifies the browser reaches the wizard and the
// first step renders with its progress.
func TestApp_LoadsFirstStep(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	heading, err := h.d.Heading()
	require.NoError(t, err)
	assert.Equal(t, "Get Funding", heading)

	n, err := h.d.CurrentStep()
	require.NoError(t, err)
	assert.Equal(t, formtest.StepPersonal, n)

	require.NoError(t, h.d.WaitForProgress(h.schema.Progress(formtest.StepPersonal)))

	for _, name := range []string{"firstname", "lastname", "email", "phone"} {
		visible, err := h.d.FieldVisible(name)
		require.NoError(t, err)
		assert.True(t, visible, "%s should be visible", name)
	}
}

func TestApp_HealthEndpoint(t *testing.T) {
	h := newHarness(t)
	if !h.local {
		t.Skip("health endpoint belongs to the reference app")
	}

	_, err := h.browser.Navigate(h.cfg.BaseURL + "/healthz")
	require.NoError(t, err)
	v, err := h.browser.Eval(`() => document.body.innerText`)
	require.NoError(t, err)
	text, ok := v.(string)
	require.True(t, ok)

	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, h.schema.Version, health.Version)
}

func TestApp_PasswordGate(t *testing.T) {
	const password = "stage-left"
	h := newHarness(t, withPassword(password))

	t.Run("missing password", func(t *testing.T) {
		cfg := h.cfg
		cfg.Password = ""
		d, err := driver.New(h.d.Page(), cfg)
		require.NoError(t, err)
		err = d.NavigateToApp()
		assert.True(t, errors.Is(err, driver.ErrPasswordRequired), "got %v", err)
	})

	t.Run("wrong password", func(t *testing.T) {
		cfg := h.cfg
		cfg.Password = "curtain-call"
		d, err := driver.New(h.d.Page(), cfg)
		require.NoError(t, err)
		err = d.NavigateToApp()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "password rejected")
	})

	t.Run("correct password", func(t *testing.T) {
		h.start(t)
		require.NoError(t, h.d.ExpectStepNumber(formtest.StepPersonal))
	})

	t.Run("session survives reload", func(t *testing.T) {
		require.NoError(t, h.d.NavigateToStep(formtest.StepCompany))
		n, err := h.d.CurrentStep()
		require.NoError(t, err)
		assert.Equal(t, formtest.StepCompany, n)
	})
}
