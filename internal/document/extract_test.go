package document

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct{ name, content string }{
		{"[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{"word/document.xml", `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_PlainText(t *testing.T) {
	got, err := Extract([]byte("  Members borrow books.\r\nLibrarians manage the catalogue.\n"))
	require.NoError(t, err)
	assert.Equal(t, FormatText, got.Format)
	assert.Equal(t, "Members borrow books.\nLibrarians manage the catalogue.", got.Content)
}

func TestExtract_SourceCode(t *testing.T) {
	got, err := Extract([]byte("package main\n\ntype Order struct {\n\tID int\n}\n"))
	require.NoError(t, err)
	assert.Equal(t, FormatText, got.Format)
	assert.Contains(t, got.Content, "type Order struct")
}

func TestExtract_Empty(t *testing.T) {
	_, err := Extract([]byte("   \n\t"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestExtract_UnsupportedBinary(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	_, err := Extract(png)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDocxText(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>Users place</w:t></w:r><w:r><w:t xml:space="preserve"> orders.</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Admins</w:t><w:tab/><w:t>approve.</w:t></w:r></w:p>`)

	text, err := docxText(data)
	require.NoError(t, err)
	assert.Equal(t, "Users place orders.\nAdmins\tapprove.\n", text)
}

func TestDocxText_MissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = docxText(buf.Bytes())
	assert.Error(t, err)
}
