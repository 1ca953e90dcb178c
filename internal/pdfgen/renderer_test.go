package pdfgen

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	r := New()

	data, err := r.Render("What is 2+2?", "The answer is 4.")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "output must be a PDF document")
	assert.Greater(t, len(data), 500)
}

func TestRenderer_RenderWithoutQuestion(t *testing.T) {
	r := New()

	data, err := r.Render("", "Solution only.")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRenderer_RenderMultilineSolution(t *testing.T) {
	r := New()

	data, err := r.Render("Q", "line one\n\nline two\nline three")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
