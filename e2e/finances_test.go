//go:build e2e

package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/leadflow/pkg/formtest"
)

// TestFinances_QuestionsRevealInOrder answers the questions one at a time
// and checks that only the next one appears.
func TestFinances_QuestionsRevealInOrder(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.d.NavigateToStep(formtest.StepFinances))

	questions := h.schema.FinanceQuestions()
	require.Len(t, questions, 5)

	for i, q := range questions {
		for _, later := range questions[i+1:] {
			visible, err := h.d.QuestionVisible(later)
			require.NoError(t, err)
			assert.False(t, visible, "%s revealed before %s was answered", later, q)
		}
		visible, err := h.d.QuestionVisible(q)
		require.NoError(t, err)
		require.True(t, visible, "%s should be revealed", q)

		_, err = h.d.Page().Eval(`(sel) => document.querySelector(sel).click()`, formtest.RadioSelector(q, "no"))
		require.NoError(t, err)
		assert.Equal(t, "no", h.fieldValue(t, q))
	}
}

func TestFinances_DebtEntriesFollowAnswer(t *testing.T) {
	h := newHarness(t)
	data := formtest.LargeCompany()
	require.NoError(t, h.d.NavigateToStep(formtest.StepFinances))

	visible, err := h.d.FieldVisible(formtest.DebtFieldName(0, formtest.DebtType))
	require.NoError(t, err)
	assert.False(t, visible, "debt entry hidden before the question is answered")

	require.NoError(t, h.d.FillFinancesInfo(data.FinancesInfo))

	n, err := h.d.DebtCount()
	require.NoError(t, err)
	require.Equal(t, len(data.FinancesInfo.Debts), n)
	for i, debt := range data.FinancesInfo.Debts {
		assert.Equal(t, debt.Type, h.fieldValue(t, formtest.DebtFieldName(i, formtest.DebtType)))
		assert.Equal(t, debt.Balance, h.fieldValue(t, formtest.DebtFieldName(i, formtest.DebtBalance)))
	}
	assert.Equal(t, data.FinancesInfo.LeaseEndDate, h.fieldValue(t, formtest.FieldLeaseEndDate))

	// Removing the first entry shifts the second into its place.
	require.NoError(t, h.d.RemoveDebt(0))
	second := data.FinancesInfo.Debts[1]
	assert.Equal(t, second.Type, h.fieldValue(t, formtest.DebtFieldName(0, formtest.DebtType)))
	assert.Equal(t, "yes", h.fieldValue(t, formtest.QuestionBusinessDebt))

	// Removing the last entry reverts the answer.
	require.NoError(t, h.d.RemoveDebt(0))
	n, err = h.d.DebtCount()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "no", h.fieldValue(t, formtest.QuestionBusinessDebt))
}

func TestFinances_RefillWithFewerDebtsDropsExtraRows(t *testing.T) {
	h := newHarness(t)
	data := formtest.LargeCompany()
	require.NoError(t, h.d.NavigateToStep(formtest.StepFinances))
	require.NoError(t, h.d.FillFinancesInfo(data.FinancesInfo))

	fewer := data.Clone().FinancesInfo
	fewer.Debts = fewer.Debts[:1]
	require.NoError(t, h.d.FillFinancesInfo(fewer))

	n, err := h.d.DebtCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, fewer.Debts[0].Type, h.fieldValue(t, formtest.DebtFieldName(0, formtest.DebtType)))
	assert.Equal(t, "yes", h.fieldValue(t, formtest.QuestionBusinessDebt))

	require.NoError(t, h.d.GoToNextStep())
	require.NoError(t, h.d.ExpectStepNumber(formtest.StepDocuments))
}

func TestFinances_LeaseDateOnlyWhenLeasing(t *testing.T) {
	h := newHarness(t)
	data := formtest.SmallCompany()
	require.NoError(t, h.d.NavigateToStep(formtest.StepFinances))

	require.NoError(t, h.d.FillFinancesInfo(data.FinancesInfo))
	visible, err := h.d.FieldVisible(formtest.FieldLeaseEndDate)
	require.NoError(t, err)
	assert.False(t, visible)

	leasing := data.Clone().FinancesInfo
	leasing.LeasesVenue = true
	leasing.LeaseEndDate = "2030-06-30"
	require.NoError(t, h.d.FillFinancesInfo(leasing))
	visible, err = h.d.FieldVisible(formtest.FieldLeaseEndDate)
	require.NoError(t, err)
	assert.True(t, visible)
	assert.Equal(t, "2030-06-30", h.fieldValue(t, formtest.FieldLeaseEndDate))
}

func TestFinances_UnansweredQuestionBlocksNext(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.d.NavigateToStep(formtest.StepFinances))

	require.NoError(t, h.d.GoToNextStep())
	msg, err := h.d.WaitFieldError(formtest.QuestionBusinessDebt)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	require.NoError(t, h.d.ExpectStepNumber(formtest.StepFinances))
}
