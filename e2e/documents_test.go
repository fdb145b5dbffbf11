//go:build e2e

package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/leadflow/pkg/formtest"
)

func TestDocuments_InputsMatchSchema(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.d.NavigateToStep(formtest.StepDocuments))

	st, err := h.schema.Step(formtest.StepDocuments)
	require.NoError(t, err)
	for _, f := range st.Fields {
		accept, err := h.d.FileInputAttr(f.Name, "accept")
		require.NoError(t, err)
		assert.Equal(t, f.Accept, accept, "%s accept", f.Name)

		res, err := h.d.Page().Eval(`(sel) => document.querySelector(sel).hasAttribute('multiple')`, formtest.FieldSelector(f))
		require.NoError(t, err)
		assert.Equal(t, f.Multiple, res.Value.Bool(), "%s multiple", f.Name)
	}
}

func TestDocuments_UploadTestFile(t *testing.T) {
	eachFixture(t, func(t *testing.T, data formtest.TestFormData) {
		h := newHarness(t)
		require.NoError(t, h.d.NavigateToStep(formtest.StepDocuments))

		require.NoError(t, h.d.FillDocuments(data.Documents))
		for _, doc := range data.Documents.Files {
			names, err := h.d.FileNames(doc.Field)
			require.NoError(t, err)
			assert.Equal(t, []string{doc.FileName}, names)
		}

		require.NoError(t, h.d.GoToNextStep())
		require.NoError(t, h.d.ExpectStepNumber(formtest.StepReview))
	})
}

func TestDocuments_MultipleFilesAccumulate(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.d.NavigateToStep(formtest.StepDocuments))

	require.NoError(t, h.d.UploadTestFile("bankStatements", "july.pdf"))
	require.NoError(t, h.d.UploadTestFile("bankStatements", "august.pdf"))
	names, err := h.d.FileNames("bankStatements")
	require.NoError(t, err)
	assert.Equal(t, []string{"july.pdf", "august.pdf"}, names)

	// Single-file inputs replace.
	require.NoError(t, h.d.UploadTestFile("driversLicense", "front.pdf"))
	require.NoError(t, h.d.UploadTestFile("driversLicense", "front-retake.pdf"))
	names, err = h.d.FileNames("driversLicense")
	require.NoError(t, err)
	assert.Equal(t, []string{"front-retake.pdf"}, names)
}

func TestDocuments_RequiredUploadBlocksNext(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.d.NavigateToStep(formtest.StepDocuments))

	require.NoError(t, h.d.UploadTestFile("bankStatements", "statements.pdf"))
	require.NoError(t, h.d.GoToNextStep())

	msg, err := h.d.WaitFieldError("driversLicense")
	require.NoError(t, err)
	assert.Contains(t, msg, "upload")
	require.NoError(t, h.d.ExpectStepNumber(formtest.StepDocuments))
}
