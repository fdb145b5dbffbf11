//go:build e2e

package e2e

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/leadflow/pkg/formtest"
	"github.com/thesyncim/leadflow/pkg/formtest/interceptor"
)

func TestNavigation_BackKeepsValues(t *testing.T) {
	h := newHarness(t)
	data := formtest.SmallCompany()
	h.advanceTo(t, formtest.StepTicketing, data)

	require.NoError(t, h.d.GoToPreviousStep())
	require.NoError(t, h.d.ExpectStepNumber(formtest.StepCompany))
	require.NoError(t, h.d.WaitForProgress(h.schema.Progress(formtest.StepCompany)))
	assert.Equal(t, data.CompanyInfo.CompanyName, h.fieldValue(t, "companyName"))
	assert.Equal(t, data.CompanyInfo.BusinessType, h.fieldValue(t, "businessType"))

	require.NoError(t, h.d.GoToPreviousStep())
	require.NoError(t, h.d.ExpectStepNumber(formtest.StepPersonal))
	assert.Equal(t, data.PersonalInfo.Firstname, h.fieldValue(t, "firstname"))

	// Forward again without refilling.
	require.NoError(t, h.d.GoToNextStep())
	require.NoError(t, h.d.GoToNextStep())
	require.NoError(t, h.d.ExpectStepNumber(formtest.StepTicketing))
}

// displayed is the value an input shows after blur formatting.
func displayed(s formtest.Schema, name, v string) string {
	kind := formtest.KindText
	if f, _, ok := s.Field(name); ok {
		kind = f.Kind
	}
	if strings.HasPrefix(name, "debt") && strings.HasSuffix(name, formtest.DebtBalance) {
		kind = formtest.KindCurrency
	}
	switch kind {
	case formtest.KindCurrency:
		return formtest.FormatCurrency(v)
	case formtest.KindPhone:
		return formtest.FormatPhone(v)
	}
	return v
}

// assertStepValues reads back every input of step n.
func (h *harness) assertStepValues(t *testing.T, n int, data formtest.TestFormData) {
	t.Helper()
	values, err := data.Values(n)
	require.NoError(t, err)
	for name, v := range values {
		if n == formtest.StepDocuments {
			names, err := h.d.FileNames(name)
			require.NoError(t, err)
			assert.Equal(t, []string{v}, names, "step %d upload %s", n, name)
			continue
		}
		if v == "" {
			continue
		}
		assert.Equal(t, displayed(h.schema, name, v), h.fieldValue(t, name), "step %d field %s", n, name)
	}

	switch n {
	case formtest.StepOwnership:
		owners, err := h.d.OwnerCount()
		require.NoError(t, err)
		assert.Equal(t, len(data.OwnershipInfo.Owners), owners)
	case formtest.StepFinances:
		debts, err := h.d.DebtCount()
		require.NoError(t, err)
		assert.Equal(t, len(data.FinancesInfo.Debts), debts)
	}
}

// TestNavigation_RoundTripKeepsEveryValue fills steps 1 to 8, walks back
// to step 1 and forward again, reading every input on the way, then
// submits without refilling anything.
func TestNavigation_RoundTripKeepsEveryValue(t *testing.T) {
	h := newHarness(t)
	data := formtest.LargeCompany()
	data.PersonalInfo.Phone = "(555) 246-8100"
	data.FundsInfo.FundingAmount = "5000000"
	data.FinancesInfo.Debts[1].Balance = "340000"
	require.GreaterOrEqual(t, len(data.OwnershipInfo.Owners), 2)
	require.GreaterOrEqual(t, len(data.FinancesInfo.Debts), 2)

	h.advanceTo(t, formtest.StepReview, data)

	for n := formtest.StepDocuments; n >= formtest.StepPersonal; n-- {
		require.NoError(t, h.d.GoToPreviousStep())
		require.NoError(t, h.d.ExpectStepNumber(n))
		require.NoError(t, h.d.WaitForProgress(h.schema.Progress(n)))
		h.assertStepValues(t, n, data)
	}
	assert.Equal(t, "+1-555-246-8100", h.fieldValue(t, "phone"))

	for n := formtest.StepCompany; n <= formtest.StepDocuments; n++ {
		require.NoError(t, h.d.GoToNextStep())
		require.NoError(t, h.d.ExpectStepNumber(n))
		h.assertStepValues(t, n, data)
	}

	require.NoError(t, h.d.GoToNextStep())
	require.NoError(t, h.d.ExpectStepNumber(formtest.StepReview))
	owners, err := h.d.Summary("ownerCount")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(len(data.OwnershipInfo.Owners)), owners)
	docs, err := h.d.Summary("documentCount")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(len(data.Documents.Files)), docs)

	require.NoError(t, h.d.GoToNextStep())
	require.NoError(t, h.d.ExpectStepNumber(formtest.StepAuthorization))
	require.NoError(t, h.d.FillAuthorization(data))
	require.NoError(t, h.d.Submit())

	forms, err := h.ic.Recorder().Wait(interceptor.EndpointFormData, 1, h.cfg.Timeout)
	require.NoError(t, err)
	sub, err := forms[0].Submission()
	require.NoError(t, err)
	want := formtest.BuildSubmission(h.schema, data)
	want.SubmittedAt, sub.SubmittedAt = "", ""
	assert.Equal(t, want, sub)
}

// TestNavigation_FormatsOnBlur enters raw digits and expects the formatted
// value to persist across a round trip.
func TestNavigation_FormatsOnBlur(t *testing.T) {
	h := newHarness(t)
	data := formtest.SmallCompany()
	data.PersonalInfo.Phone = "5551234567"
	data.FundsInfo.FundingAmount = "75000"
	h.start(t)

	require.NoError(t, h.d.FillPersonalInfo(data))
	assert.Equal(t, formtest.FormatPhone("5551234567"), h.fieldValue(t, "phone"))

	require.NoError(t, h.d.FillAllPreviousSteps(formtest.StepFunds, data))
	require.NoError(t, h.d.FillFundsInfo(data))
	assert.Equal(t, "$75,000", h.fieldValue(t, "fundingAmount"))

	require.NoError(t, h.d.GoToNextStep())
	require.NoError(t, h.d.ExpectStepNumber(formtest.StepOwnership))
	require.NoError(t, h.d.GoToPreviousStep())
	require.NoError(t, h.d.ExpectStepNumber(formtest.StepFunds))
	assert.Equal(t, "$75,000", h.fieldValue(t, "fundingAmount"))
}

func TestNavigation_BackHiddenOnFirstStep(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	assert.True(t, h.hidden(t, formtest.SelectorBack))
}
