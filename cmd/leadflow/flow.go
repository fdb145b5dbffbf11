package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/thesyncim/leadflow/pkg/formtest"
	"github.com/thesyncim/leadflow/pkg/formtest/config"
	"github.com/thesyncim/leadflow/pkg/formtest/driver"
	"github.com/thesyncim/leadflow/pkg/formtest/interceptor"
	"github.com/thesyncim/leadflow/pkg/formtest/testutil"
)

// flowResult summarises one pass of a fixture through the wizard.
type flowResult struct {
	Fixture        string
	Reached        int
	Duration       time.Duration
	Submission     *formtest.SubmissionPayload
	Uploads        int
	ConfirmationID string
}

// flow fills a fixture into a fresh page, step by step, up to toStep.
// Reaching the confirmation step submits the application and verifies the
// intercepted webhook traffic.
type flow struct {
	cfg    config.Config
	logger *log.Logger
	// onStep is called after each step is reached, including step 1.
	onStep func(n int, title string)
}

// run stops at the next browser call once ctx is done.
func (f flow) run(ctx context.Context, browser *testutil.BrowserClient, data formtest.TestFormData, toStep int) (flowResult, error) {
	start := time.Now()
	res := flowResult{Fixture: data.Profile}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	page, err := browser.NewPage()
	if err != nil {
		return res, err
	}
	defer page.Close()

	d, err := driver.New(page.Context(ctx), f.cfg, driver.WithLogger(f.logger))
	if err != nil {
		return res, err
	}
	schema := d.Schema()
	if _, err := schema.Step(toStep); err != nil {
		return res, err
	}

	ic, err := d.MockAPICalls()
	if err != nil {
		return res, err
	}
	defer ic.Stop()

	if err := d.NavigateToApp(); err != nil {
		return res, err
	}
	f.reached(schema, 1, &res)

	for n := 1; n < toStep; n++ {
		if err := d.FillStep(n, data); err != nil {
			return res, err
		}
		if n == formtest.StepAuthorization {
			err = d.Submit()
		} else {
			err = d.GoToNextStep()
		}
		if err != nil {
			return res, fmt.Errorf("leave step %d: %w", n, err)
		}
		if err := d.ExpectStepNumber(n + 1); err != nil {
			return res, err
		}
		if err := d.WaitForProgress(schema.Progress(n + 1)); err != nil {
			return res, err
		}
		f.reached(schema, n+1, &res)
	}

	if toStep == schema.Len() {
		if err := f.verifySubmission(ic.Recorder(), data, &res); err != nil {
			return res, err
		}
		if res.ConfirmationID, err = d.ConfirmationID(); err != nil {
			return res, err
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (f flow) reached(schema formtest.Schema, n int, res *flowResult) {
	res.Reached = n
	if f.onStep == nil {
		return
	}
	st, _ := schema.Step(n)
	f.onStep(n, st.Title)
}

func (f flow) verifySubmission(rec *interceptor.Recorder, data formtest.TestFormData, res *flowResult) error {
	forms, err := rec.Wait(interceptor.EndpointFormData, 1, f.cfg.Timeout)
	if err != nil {
		return err
	}
	if err := formtest.ValidateSubmission(forms[0].Body); err != nil {
		return err
	}
	sub, err := forms[0].Submission()
	if err != nil {
		return err
	}
	if sub.Contact.Firstname != data.PersonalInfo.Firstname || sub.Contact.Email != data.PersonalInfo.Email {
		return fmt.Errorf("submitted contact %s <%s>, fixture has %s <%s>",
			sub.Contact.Firstname, sub.Contact.Email, data.PersonalInfo.Firstname, data.PersonalInfo.Email)
	}
	res.Submission = &sub

	uploads, err := rec.Wait(interceptor.EndpointFileUpload, len(data.Documents.Files), f.cfg.Timeout)
	if err != nil {
		return err
	}
	res.Uploads = len(uploads)

	if unknown := rec.ByEndpoint(interceptor.EndpointUnknown); len(unknown) > 0 {
		return fmt.Errorf("%d calls to unknown webhook paths, first %s", len(unknown), unknown[0].URL)
	}
	return nil
}

func newBrowser(cfg config.Config) (*testutil.BrowserClient, error) {
	bc := testutil.DefaultBrowserConfig()
	bc.Headless = cfg.Headless
	bc.SlowMotion = cfg.SlowMotion
	bc.Timeout = cfg.Timeout
	return testutil.NewBrowserClient(bc)
}
