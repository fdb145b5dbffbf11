// browser.go provides browser automation utilities for E2E testing.
// It wraps Rod to provide a headless Chrome suited to driving the wizard.
package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserConfig configures Chrome launch options.
type BrowserConfig struct {
	Headless   bool          // Run in headless mode (default: true)
	Timeout    time.Duration // Navigation timeout (default: 30s)
	SlowMotion time.Duration // Delay between inputs, for headed debugging
	Width      int           // Viewport width (default: 1280)
	Height     int           // Viewport height (default: 900)
}

// DefaultBrowserConfig returns sensible defaults for E2E testing.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless: true,
		Timeout:  30 * time.Second,
		Width:    1280,
		Height:   900,
	}
}

// BrowserClient wraps Rod with a form-testing Chrome configuration.
type BrowserClient struct {
	browser *rod.Browser
	page    *rod.Page
	cfg     BrowserConfig
}

// NewBrowserClient launches Chrome. The browser is configured with:
//   - No sandbox (for container compatibility)
//   - No GPU
//   - No first-run or default-browser prompts
func NewBrowserClient(cfg BrowserConfig) (*BrowserClient, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if cfg.SlowMotion > 0 {
		browser = browser.SlowMotion(cfg.SlowMotion)
	}
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	if cfg.Width == 0 || cfg.Height == 0 {
		def := DefaultBrowserConfig()
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	return &BrowserClient{browser: browser, cfg: cfg}, nil
}

// Navigate opens url in a fresh page with timeout.
// Returns the page for further interaction.
func (c *BrowserClient) Navigate(url string) (*rod.Page, error) {
	page, err := c.NewPage()
	if err != nil {
		return nil, err
	}

	err = page.Timeout(c.cfg.Timeout).Navigate(url)
	if err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.Timeout(c.cfg.Timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed waiting for %s to load: %w", url, err)
	}
	return page, nil
}

// NewPage opens a blank page sized to the configured viewport and makes it
// the current page. The driver navigates it itself.
func (c *BrowserClient) NewPage() (*rod.Page, error) {
	page, err := c.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             c.cfg.Width,
		Height:            c.cfg.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	c.page = page
	return page, nil
}

// Page returns the current page, or nil if none open.
func (c *BrowserClient) Page() *rod.Page {
	return c.page
}

// Eval executes JavaScript on the current page and returns the result.
// Requires Navigate() or NewPage() to have been called first.
func (c *BrowserClient) Eval(js string) (interface{}, error) {
	if c.page == nil {
		return nil, errors.New("no page open, call Navigate first")
	}
	result, err := c.page.Eval(js)
	if err != nil {
		return nil, fmt.Errorf("eval failed: %w", err)
	}
	return result.Value.Val(), nil
}

// WaitStable waits until the current page's DOM and network have been idle
// for quiet, giving up after the configured timeout.
func (c *BrowserClient) WaitStable(quiet time.Duration) error {
	if c.page == nil {
		return errors.New("no page open")
	}
	return c.page.Timeout(c.cfg.Timeout).WaitStable(quiet)
}

// Screenshot writes a full-page PNG of the current page to path, creating
// parent directories as needed.
func (c *BrowserClient) Screenshot(path string) error {
	if c.page == nil {
		return errors.New("no page open")
	}
	img, err := c.page.Screenshot(true, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, img, 0o644)
}

// Close cleans up browser resources.
// Always call this (via defer) to prevent orphaned Chrome processes.
func (c *BrowserClient) Close() error {
	if c.browser != nil {
		return c.browser.Close()
	}
	return nil
}
