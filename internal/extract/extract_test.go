package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported(MimePlainText))
	assert.True(t, Supported(MimePDF))
	assert.True(t, Supported(MimeDOCX))

	assert.False(t, Supported("text/html"))
	assert.False(t, Supported("image/png"))
	assert.False(t, Supported(""))
}

func TestText_UnsupportedMime(t *testing.T) {
	_, err := Text([]byte("content"), "application/json")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestText_PlainText(t *testing.T) {
	text, err := Text([]byte("  The capital of Lirathia is Voskend.\n"), MimePlainText)
	require.NoError(t, err)
	assert.Equal(t, "The capital of Lirathia is Voskend.", text)
}

func TestText_PlainTextInvalidUTF8(t *testing.T) {
	_, err := Text([]byte{0xff, 0xfe, 0xfd}, MimePlainText)
	assert.Error(t, err)
}

// buildDOCX assembles a minimal DOCX archive in memory.
func buildDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	doc, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	fmt.Fprint(doc, `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		fmt.Fprintf(doc, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	fmt.Fprint(doc, `</w:body></w:document>`)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestText_DOCX(t *testing.T) {
	content := buildDOCX(t, []string{"First paragraph.", "Second paragraph."})

	text, err := Text(content, MimeDOCX)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestText_DOCXNotAnArchive(t *testing.T) {
	_, err := Text([]byte("plain bytes, not a zip"), MimeDOCX)
	assert.Error(t, err)
}

func TestText_DOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("unrelated.txt")
	require.NoError(t, err)
	fmt.Fprint(f, "nothing")
	require.NoError(t, zw.Close())

	_, err = Text(buf.Bytes(), MimeDOCX)
	assert.Error(t, err)
}

func TestText_PDFGarbage(t *testing.T) {
	_, err := Text([]byte("not a pdf at all"), MimePDF)
	assert.Error(t, err)
}
