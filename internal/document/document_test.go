package document

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Question 1:</w:t></w:r><w:r><w:t xml:space="preserve"> define IPv6</w:t></w:r></w:p>
    <w:p><w:r><w:t>Question 2: subnet a /64</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, path, documentXML string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func TestExtractDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.docx")
	writeDocx(t, path, sampleDocumentXML)

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "Question 1: define IPv6\nQuestion 2: subnet a /64", text)
}

func TestExtractDocxWithoutDocumentPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = ExtractText(path)
	assert.Error(t, err)
}

func TestExtractTxt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answer.TXT")
	require.NoError(t, os.WriteFile(path, []byte("  my answer\n"), 0o644))

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "my answer", text)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := ExtractText("/tmp/slides.pptx")
	var unsupported *UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "Unsupported file type: pptx", err.Error())
}

func TestExtractInvalidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err := ExtractText(path)
	assert.Error(t, err)
}

func TestLocatorFallbackOrder(t *testing.T) {
	primary := t.TempDir()
	extra := t.TempDir()
	l := NewLocator(KindAssignments, primary, "", extra)

	assert.Equal(t, []string{
		filepath.Join(primary, "assignments", "a1", "f.txt"),
		filepath.Join(extra, "assignments", "a1", "f.txt"),
		filepath.Join(primary, "a1", "f.txt"),
		filepath.Join(extra, "a1", "f.txt"),
		filepath.Join(primary, "f.txt"),
		filepath.Join(extra, "f.txt"),
	}, l.Candidates("a1", "f.txt"))

	require.NoError(t, os.WriteFile(filepath.Join(extra, "f.txt"), []byte("flat"), 0o644))
	path, err := l.Resolve("a1", "f.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(extra, "f.txt"), path)

	require.NoError(t, os.MkdirAll(filepath.Join(primary, "a1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(primary, "a1", "f.txt"), []byte("nested"), 0o644))
	text, err := l.ReadText("a1", "f.txt")
	require.NoError(t, err)
	assert.Equal(t, "nested", text)
}

func TestLocatorStripsDirectories(t *testing.T) {
	root := t.TempDir()
	l := NewLocator(KindMaterials, root)
	assert.Equal(t, filepath.Join(root, "passwd"), l.Candidates("", "../../etc/passwd")[0])
}

func TestLocatorNotFound(t *testing.T) {
	l := NewLocator(KindAssignments, t.TempDir())
	_, err := l.ReadText("a1", "missing.pdf")
	require.ErrorIs(t, err, ErrFileNotFound)
	assert.Equal(t, "File not found: missing.pdf", err.Error())
}
