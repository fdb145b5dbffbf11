//go:build e2e

package e2e

import (
	"errors"
	"net/http"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/leadflow/pkg/formtest"
	"github.com/thesyncim/leadflow/pkg/formtest/driver"
	"github.com/thesyncim/leadflow/pkg/formtest/interceptor"
)

func TestSubmission_ContactReachesWebhook(t *testing.T) {
	eachFixture(t, func(t *testing.T, data formtest.TestFormData) {
		h := newHarness(t)
		h.advanceTo(t, formtest.StepConfirmation, data)

		forms, err := h.ic.Recorder().Wait(interceptor.EndpointFormData, 1, h.cfg.Timeout)
		require.NoError(t, err)
		require.Len(t, forms, 1)

		require.NoError(t, formtest.ValidateSubmission(forms[0].Body))
		sub, err := forms[0].Submission()
		require.NoError(t, err)
		assert.Equal(t, data.PersonalInfo.Firstname, sub.Contact.Firstname)
		assert.Equal(t, data.PersonalInfo.Email, sub.Contact.Email)

		want := formtest.BuildSubmission(h.schema, data)
		want.SubmittedAt, sub.SubmittedAt = "", ""
		assert.Equal(t, want, sub)
	})
}

func TestSubmission_SmallCompanyIsJean(t *testing.T) {
	h := newHarness(t)
	h.advanceTo(t, formtest.StepConfirmation, formtest.SmallCompany())

	forms, err := h.ic.Recorder().Wait(interceptor.EndpointFormData, 1, h.cfg.Timeout)
	require.NoError(t, err)
	assert.Contains(t, string(forms[0].Body), `"firstname":"Jean"`)
	assert.Equal(t, http.MethodPost, forms[0].Method)
}

func TestSubmission_UploadsEveryDocument(t *testing.T) {
	h := newHarness(t)
	data := formtest.LargeCompany()
	h.advanceTo(t, formtest.StepConfirmation, data)

	uploads, err := h.ic.Recorder().Wait(interceptor.EndpointFileUpload, len(data.Documents.Files), h.cfg.Timeout)
	require.NoError(t, err)
	require.Len(t, uploads, len(data.Documents.Files))

	var got, want []string
	for _, u := range uploads {
		for _, field := range []string{"email", "documentType", "file"} {
			assert.True(t, u.HasField(field), "upload %s lacks %s", u.ID, field)
		}
		assert.Equal(t, data.PersonalInfo.Email, u.Values["email"])
		got = append(got, u.Values["documentType"]+"/"+u.Files["file"])
	}
	for _, doc := range data.Documents.Files {
		want = append(want, doc.Field+"/"+doc.FileName)
	}
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)

	assert.Empty(t, h.ic.Recorder().ByEndpoint(interceptor.EndpointUnknown))
}

func TestSubmission_ConfirmationShowsWebhookID(t *testing.T) {
	h := newHarness(t)
	h.advanceTo(t, formtest.StepConfirmation, formtest.MediumCompany())
	require.NoError(t, h.d.WaitForProgress("100%"))

	id, err := h.d.ConfirmationID()
	require.NoError(t, err)

	forms := h.ic.Recorder().ByEndpoint(interceptor.EndpointFormData)
	require.Len(t, forms, 1)
	assert.Equal(t, forms[0].ID, id)
}

func TestSubmission_WebhookFailureShowsError(t *testing.T) {
	h := newHarness(t, withWebhookStatus(http.StatusInternalServerError))
	data := formtest.SmallCompany()
	h.advanceTo(t, formtest.StepAuthorization, data)

	require.NoError(t, h.d.FillAuthorization(data))
	err := h.d.Submit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, driver.ErrSubmitFailed), "got %v", err)
	assert.Contains(t, err.Error(), "500")

	require.NoError(t, h.d.ExpectStepNumber(formtest.StepAuthorization))
	assert.Empty(t, h.ic.Recorder().ByEndpoint(interceptor.EndpointFileUpload), "uploads must not follow a failed submission")
}

func TestSubmission_UncheckedTermsBlockSubmit(t *testing.T) {
	h := newHarness(t)
	data := formtest.SmallCompany()
	h.advanceTo(t, formtest.StepAuthorization, data)

	unchecked := data.Clone()
	unchecked.Authorization.AgreeToTerms = false
	require.NoError(t, h.d.FillAuthorization(unchecked))

	_, err := h.d.Page().Eval(`(sel) => document.querySelector(sel).click()`, formtest.SelectorSubmit)
	require.NoError(t, err)
	msg, err := h.d.WaitFieldError("agreeToTerms")
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	assert.Empty(t, h.ic.Recorder().Captures())
}
