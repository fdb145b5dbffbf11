// Package driver fills and navigates the funding application wizard
// through a Rod page.
//
// A Driver owns no browser: the page is injected by the caller, one per
// test. Every wait is a bounded poll of an observable DOM condition
// (heading text, transition flag, progress width, element presence); a
// condition that never holds fails with an error wrapping
// internal.ErrTimeout.
//
// Fill operations assume their step is the one currently rendered. They do
// not advance the wizard; GoToNextStep does.
package driver

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/thesyncim/leadflow/pkg/formtest"
	"github.com/thesyncim/leadflow/pkg/formtest/config"
	"github.com/thesyncim/leadflow/pkg/formtest/internal"
	"github.com/thesyncim/leadflow/pkg/formtest/logging"
)

var (
	// ErrPasswordRequired is returned when the app shows its password gate
	// and no password is configured.
	ErrPasswordRequired = errors.New("application is password protected and no password is configured")

	// ErrSubmitFailed is returned when the app shows its submission error banner.
	ErrSubmitFailed = errors.New("submission failed")

	// ErrElementMissing is returned when a selector matches nothing.
	ErrElementMissing = errors.New("element not found")
)

// Driver performs user-level actions on the wizard.
type Driver struct {
	page   *rod.Page
	cfg    config.Config
	schema formtest.Schema
	logger *log.Logger
	clock  internal.Clock

	timeout      time.Duration
	settle       time.Duration
	pollInterval time.Duration
}

// Option configures a Driver.
type Option func(*Driver) error

// WithLogger sets the driver's logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Driver) error {
		if l == nil {
			return errors.New("nil logger")
		}
		d.logger = l
		return nil
	}
}

// WithSchema overrides the step schema the driver fills against.
func WithSchema(s formtest.Schema) Option {
	return func(d *Driver) error {
		if s.Len() == 0 {
			return errors.New("empty schema")
		}
		d.schema = s
		return nil
	}
}

// WithClock sets the clock used by polls.
func WithClock(c internal.Clock) Option {
	return func(d *Driver) error {
		if c == nil {
			return errors.New("nil clock")
		}
		d.clock = c
		return nil
	}
}

// WithPollInterval sets how often wait conditions are re-evaluated.
// Default: config PollInterval
func WithPollInterval(interval time.Duration) Option {
	return func(d *Driver) error {
		if interval <= 0 {
			return fmt.Errorf("poll interval must be positive, got %v", interval)
		}
		d.pollInterval = interval
		return nil
	}
}

// WithSettleTimeout bounds the wait for a step transition to finish.
// Default: config Timeout
func WithSettleTimeout(timeout time.Duration) Option {
	return func(d *Driver) error {
		if timeout <= 0 {
			return fmt.Errorf("settle timeout must be positive, got %v", timeout)
		}
		d.settle = timeout
		return nil
	}
}

// New creates a Driver for page.
func New(page *rod.Page, cfg config.Config, opts ...Option) (*Driver, error) {
	if page == nil {
		return nil, errors.New("nil page")
	}
	d := &Driver{
		page:         page,
		cfg:          cfg,
		schema:       formtest.DefaultSchema(),
		logger:       logging.Discard(),
		clock:        internal.RealClock{},
		timeout:      cfg.Timeout,
		settle:       cfg.Timeout,
		pollInterval: cfg.PollInterval,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	if d.timeout <= 0 {
		d.timeout = config.Default().Timeout
	}
	if d.settle <= 0 {
		d.settle = d.timeout
	}
	return d, nil
}

// Page returns the underlying page.
func (d *Driver) Page() *rod.Page {
	return d.page
}

// Schema returns the schema the driver fills against.
func (d *Driver) Schema() formtest.Schema {
	return d.schema
}

func (d *Driver) poller(timeout time.Duration) internal.Poller {
	return internal.Poller{Clock: d.clock, Timeout: timeout, Interval: d.pollInterval}
}

func (d *Driver) until(what string, cond internal.Condition) error {
	return d.poller(d.timeout).Until(what, cond)
}

// NavigateToApp loads the application root, unlocks the password gate if
// one is shown, and waits for the first step's heading.
func (d *Driver) NavigateToApp() error {
	d.logger.Info("Navigating to app", "url", d.cfg.BaseURL)
	if err := d.load(d.cfg.BaseURL); err != nil {
		return err
	}
	if err := d.unlock(); err != nil {
		return err
	}
	first, err := d.schema.Step(1)
	if err != nil {
		return err
	}
	return d.ExpectStep(first.Title)
}

// NavigateToStep loads the application directly at step n.
func (d *Driver) NavigateToStep(n int) error {
	st, err := d.schema.Step(n)
	if err != nil {
		return err
	}
	if err := d.load(d.cfg.StepURL(n)); err != nil {
		return err
	}
	if err := d.unlock(); err != nil {
		return err
	}
	return d.ExpectStep(st.Title)
}

func (d *Driver) load(url string) error {
	page := d.page.Timeout(d.timeout)
	defer page.CancelTimeout()

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s to load: %w", url, err)
	}
	return nil
}

func (d *Driver) unlock() error {
	gated, input, err := d.page.Has(formtest.SelectorPassword)
	if err != nil {
		return fmt.Errorf("check password gate: %w", err)
	}
	if !gated {
		return nil
	}
	if d.cfg.Password == "" {
		return ErrPasswordRequired
	}
	d.logger.Debug("Unlocking password gate")

	if err := input.Timeout(d.timeout).Input(d.cfg.Password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	page := d.page.Timeout(d.timeout)
	defer page.CancelTimeout()
	wait := page.WaitNavigation(proto.PageLifecycleEventNameLoad)
	if err := d.click(formtest.SelectorUnlock); err != nil {
		return err
	}
	wait()

	still, _, err := d.page.Has(formtest.SelectorPassword)
	if err != nil {
		return fmt.Errorf("check password gate: %w", err)
	}
	if still {
		return errors.New("password rejected")
	}
	return nil
}

// GoToNextStep clicks Next and waits until the wizard has settled. It does
// not verify that the step advanced; validation may have blocked it.
func (d *Driver) GoToNextStep() error {
	if err := d.click(formtest.SelectorNext); err != nil {
		return err
	}
	return d.waitSettled()
}

// GoToPreviousStep clicks Back and waits until the wizard has settled.
func (d *Driver) GoToPreviousStep() error {
	if err := d.click(formtest.SelectorBack); err != nil {
		return err
	}
	return d.waitSettled()
}

func (d *Driver) waitSettled() error {
	return d.poller(d.settle).Until("step transition", func() (bool, string, error) {
		v, err := d.evalString(`(sel) => {
			const w = document.querySelector(sel);
			return w ? (w.dataset.transitioning || 'false') : 'missing';
		}`, formtest.SelectorWizard)
		if err != nil {
			return false, "", err
		}
		return v == "false", "transitioning=" + v, nil
	})
}

// ExpectStep waits until the step heading contains title.
func (d *Driver) ExpectStep(title string) error {
	return d.until(fmt.Sprintf("heading %q", title), func() (bool, string, error) {
		h, err := d.Heading()
		if err != nil {
			// The heading is briefly absent while a page loads.
			return false, err.Error(), nil
		}
		return containsFold(h, title), h, nil
	})
}

// ExpectStepNumber waits until step n is rendered.
func (d *Driver) ExpectStepNumber(n int) error {
	st, err := d.schema.Step(n)
	if err != nil {
		return err
	}
	return d.ExpectStep(st.Title)
}

// Heading returns the current step heading text.
func (d *Driver) Heading() (string, error) {
	return d.evalString(`(sel) => {
		const h = document.querySelector(sel);
		if (!h) throw new Error('no heading');
		return h.textContent.trim();
	}`, formtest.SelectorHeading)
}

// CurrentStep returns the step number the wizard reports as rendered.
func (d *Driver) CurrentStep() (int, error) {
	n, err := d.evalInt(`(sel) => {
		const w = document.querySelector(sel);
		return w ? Number(w.dataset.step || 0) : 0;
	}`, formtest.SelectorWizard)
	if err != nil {
		return 0, fmt.Errorf("read current step: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("wizard %s: %w", formtest.SelectorWizard, ErrElementMissing)
	}
	return n, nil
}

// WaitForProgress waits until the progress fill's inline width is exactly
// width, e.g. "45%".
func (d *Driver) WaitForProgress(width string) error {
	return d.until("progress "+width, func() (bool, string, error) {
		w, err := d.evalString(`(sel) => {
			const el = document.querySelector(sel);
			return el ? el.style.width : '';
		}`, formtest.SelectorProgress)
		if err != nil {
			return false, "", err
		}
		return w == width, w, nil
	})
}

// FillAllPreviousSteps fills and advances every step before target, then
// waits for target to render. The wizard must be on step 1. Reaching the
// confirmation step submits the application.
func (d *Driver) FillAllPreviousSteps(target int, data formtest.TestFormData) error {
	if _, err := d.schema.Step(target); err != nil {
		return err
	}
	for n := 1; n < target; n++ {
		if err := d.ExpectStepNumber(n); err != nil {
			return err
		}
		if err := d.FillStep(n, data); err != nil {
			return err
		}
		if n == formtest.StepAuthorization {
			if err := d.Submit(); err != nil {
				return err
			}
			continue
		}
		if err := d.GoToNextStep(); err != nil {
			return fmt.Errorf("advance from step %d: %w", n, err)
		}
	}
	return d.ExpectStepNumber(target)
}

// Submit clicks the submit control and waits for either the confirmation
// step or the submission error banner.
func (d *Driver) Submit() error {
	if err := d.click(formtest.SelectorSubmit); err != nil {
		return err
	}
	var failure string
	err := d.until("submission outcome", func() (bool, string, error) {
		msg, err := d.visibleText(formtest.SelectorSubmitError)
		if err != nil {
			return false, "", err
		}
		if msg != "" {
			failure = msg
			return true, msg, nil
		}
		n, err := d.CurrentStep()
		if err != nil {
			return false, "", err
		}
		return n == d.schema.Len(), fmt.Sprintf("step %d", n), nil
	})
	if err != nil {
		return err
	}
	if failure != "" {
		return fmt.Errorf("%w: %s", ErrSubmitFailed, failure)
	}
	d.logger.Info("Application submitted")
	return nil
}

// ConfirmationID waits for and returns the reference shown on the
// confirmation step.
func (d *Driver) ConfirmationID() (string, error) {
	var id string
	err := d.until("confirmation id", func() (bool, string, error) {
		v, err := d.evalString(`() => {
			const el = document.querySelector('[data-confirmation-id]');
			return el ? el.dataset.confirmationId : '';
		}`)
		if err != nil {
			return false, "", err
		}
		id = v
		return v != "", v, nil
	})
	return id, err
}
