package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"content-rag/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeZip(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for entry, content := range files {
		fw, err := w.Create(entry)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractText_Text(t *testing.T) {
	got, err := ExtractText(writeFile(t, "notes.txt", "\n  plain notes \n"))
	require.NoError(t, err)
	assert.Equal(t, "plain notes", got)
}

func TestExtractText_Markdown(t *testing.T) {
	src := "# Title\n\nSome *emphasis* and a [link](https://example.com).\nSecond line.\n\n- item one\n- item two\n\n```go\nfmt.Println(1)\n```\n"
	got, err := ExtractText(writeFile(t, "readme.md", src))
	require.NoError(t, err)
	assert.Equal(t, "Title\nSome emphasis and a link. Second line.\nitem one\nitem two\nfmt.Println(1)", got)
}

func TestExtractText_HTML(t *testing.T) {
	got, err := ExtractText(writeFile(t, "page.html", "<html><body><script>x()</script><p>Hello <i>there</i></p></body></html>"))
	require.NoError(t, err)
	assert.Equal(t, "Hello there", got)
}

func TestExtractText_DOCX(t *testing.T) {
	document := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First</w:t></w:r><w:r><w:t xml:space="preserve"> paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Second &amp; last</w:t></w:r></w:p>
</w:body>
</w:document>`
	rels := `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

	path := writeZip(t, "doc.docx", map[string]string{
		"word/document.xml":            document,
		"word/_rels/document.xml.rels": rels,
	})

	got, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond & last", got)
}

func TestExtractText_PPTX(t *testing.T) {
	slide := func(text string) string {
		return `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:sld>`
	}
	path := writeZip(t, "deck.pptx", map[string]string{
		"ppt/slides/slide10.xml":           slide("tenth"),
		"ppt/slides/slide2.xml":            slide("second"),
		"ppt/slides/slide1.xml":            slide("first"),
		"ppt/slides/_rels/slide1.xml.rels": "<Relationships/>",
	})

	got, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\ntenth", got)
}

func TestExtractText_PPTXMultiParagraphSlides(t *testing.T) {
	const ns = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
	path := writeZip(t, "deck.pptx", map[string]string{
		"ppt/slides/slide1.xml": `<p:sld ` + ns + `><a:p><a:r><a:t>title</a:t></a:r></a:p><a:p><a:r><a:t>bullet</a:t></a:r></a:p></p:sld>`,
		"ppt/slides/slide2.xml": `<p:sld ` + ns + `><a:p><a:r><a:t>one</a:t></a:r></a:p></p:sld>`,
		"ppt/slides/slide3.xml": `<p:sld ` + ns + `><a:p><a:r><a:t>two</a:t></a:r></a:p></p:sld>`,
	})

	got, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "title\nbullet\none\ntwo", got)
	assert.NotContains(t, got, "\n\n")
}

func TestExtractText_Spreadsheets(t *testing.T) {
	for _, name := range []string{"book.xlsx", "book.xlsm"} {
		t.Run(name, func(t *testing.T) {
			f := excelize.NewFile()
			require.NoError(t, f.SetCellValue("Sheet1", "A1", "name"))
			require.NoError(t, f.SetCellValue("Sheet1", "B1", "lang"))
			require.NoError(t, f.SetCellValue("Sheet1", "A2", "gopher"))
			require.NoError(t, f.SetCellValue("Sheet1", "B2", "go"))

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, f.SaveAs(path))
			require.NoError(t, f.Close())

			got, err := ExtractText(path)
			require.NoError(t, err)
			assert.Contains(t, got, "## Sheet: Sheet1")
			assert.Contains(t, got, "name\tlang")
			assert.Contains(t, got, "gopher\tgo")
		})
	}
}

func TestExtractText_Unsupported(t *testing.T) {
	_, err := ExtractText(writeFile(t, "image.png", "x"))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestExtractText_MissingFile(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
