package resume

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDOCX(t *testing.T, doc *docx.Docx) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := doc.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExtractText_TXT(t *testing.T) {
	text, err := ExtractText("cv.TXT", strings.NewReader("Jane   Doe\r\n\r\n\r\n\r\nPython,  SQL  "))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n\nPython, SQL", text)
}

func TestExtractText_DOCX(t *testing.T) {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("Jane Doe")
	skills := doc.AddParagraph()
	skills.AddText("Skills: Go")
	skills.AddTab()
	skills.AddText("SQL")

	text, err := ExtractText("resume.docx", bytes.NewReader(writeDOCX(t, doc)))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSkills: Go SQL", text)
}

func TestExtractText_DOCXTables(t *testing.T) {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("Experience")
	tbl := doc.AddTable(1, 2, 0, nil)
	tbl.TableRows[0].TableCells[0].AddParagraph().AddText("Acme Analytics")
	tbl.TableRows[0].TableCells[1].AddParagraph().AddText("Tableau dashboards")

	text, err := ExtractText("resume.docx", bytes.NewReader(writeDOCX(t, doc)))
	require.NoError(t, err)
	assert.Equal(t, "Experience\nAcme Analytics\nTableau dashboards", text)
}

func TestExtractText_BrokenDOCX(t *testing.T) {
	tests := []struct {
		name string
		data func(t *testing.T) []byte
		want string
	}{
		{
			name: "not a zip",
			data: func(*testing.T) []byte { return []byte("definitely not a docx") },
			want: "failed to open DOCX",
		},
		{
			name: "no document body",
			data: func(t *testing.T) []byte {
				var buf bytes.Buffer
				zw := zip.NewWriter(&buf)
				_, err := zw.Create("word/styles.xml")
				require.NoError(t, err)
				require.NoError(t, zw.Close())
				return buf.Bytes()
			},
			want: "DOCX has no document body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractText("resume.docx", bytes.NewReader(tt.data(t)))
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.want, pe.Message)
		})
	}
}

func TestExtractText_BrokenPDF(t *testing.T) {
	_, err := ExtractText("resume.pdf", strings.NewReader("definitely not a pdf"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestExtractText_UnsupportedFormat(t *testing.T) {
	_, err := ExtractText("resume.odt", strings.NewReader("x"))
	var ue *UnsupportedFormatError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ".odt", ue.Ext)
	assert.Contains(t, err.Error(), "use .pdf, .docx, or .txt")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "hél", Truncate("héllo", 3))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "a b\n\nc", CleanText("  a \t b \n\n\n\n c "))
}
