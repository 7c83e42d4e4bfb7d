package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("report.pdf", nil))
	assert.True(t, IsPDF("REPORT.PDF", nil))
	assert.True(t, IsPDF("upload", []byte("%PDF-1.7\n")))
	assert.False(t, IsPDF("notes.txt", []byte("plain words")))
}

func TestExtractText_PlainText(t *testing.T) {
	got, err := ExtractText("notes.txt", []byte("Go is fun."))
	require.NoError(t, err)
	assert.Equal(t, "Go is fun.", got)
}

func TestExtractText_MalformedPDF(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("not really a pdf"),
		[]byte("%PDF-1.4\n%%EOF"),
		nil,
	} {
		got, err := ExtractText("broken.pdf", data)
		assert.Error(t, err)
		assert.Empty(t, got)
	}
}
