package extract

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextTxtPassthrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("The capital of France is Paris.\n"), 0o644))

	got, err := Text(path, "txt")
	require.NoError(t, err)
	require.Equal(t, "The capital of France is Paris.\n", got)
}

func TestTextEmptyTxtIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	got, err := Text(path, "txt")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestTextUnsupportedFormat(t *testing.T) {
	_, err := Text("/tmp/whatever.exe", "exe")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTextCaseInsensitiveType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	got, err := Text(path, "TXT")
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestTextDocxParagraphs(t *testing.T) {
	path := writeDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>   </w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	got, err := Text(path, "docx")
	require.NoError(t, err)
	require.Equal(t, "First paragraph.\n\nSecond paragraph.", got)
}

func TestTextDocxMissingDocumentXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/other.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = Text(path, "docx")
	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	require.Equal(t, "docx", extractErr.FileType)
}

func TestTextCorruptPDFSurfacesExtractionError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err := Text(path, "pdf")
	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	require.Equal(t, "pdf", extractErr.FileType)
	require.Error(t, errors.Unwrap(err))
}

func TestSupported(t *testing.T) {
	require.True(t, Supported("pdf"))
	require.True(t, Supported("DOCX"))
	require.False(t, Supported("exe"))
}

func writeDocx(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}
