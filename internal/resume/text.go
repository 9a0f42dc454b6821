// Package resume turns an uploaded resume into plain text and asks the model which
// job titles it fits.
package resume

import (
	"bytes"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
)

// Supported resume extensions
const (
	ExtPDF  = ".pdf"
	ExtDOCX = ".docx"
	ExtTXT  = ".txt"
)

// MaxUploadBytes caps how much of an upload is read.
const MaxUploadBytes = 10 << 20

// ExtractText reads the resume in r, choosing the decoder by the extension of filename.
func ExtractText(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ExtPDF, ExtDOCX, ExtTXT:
	default:
		return "", &UnsupportedFormatError{Ext: ext}
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes))
	if err != nil {
		return "", &ParseError{Message: "failed to read upload", Cause: err}
	}

	var text string
	switch ext {
	case ExtPDF:
		text, err = pdfText(data)
	case ExtDOCX:
		text, err = docxText(data)
	default:
		text = string(data)
	}
	if err != nil {
		return "", err
	}

	return CleanText(text), nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ParseError{Message: "failed to open PDF", Cause: err}
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", &ParseError{Message: "failed to extract PDF text", Cause: err}
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", &ParseError{Message: "failed to extract PDF text", Cause: err}
	}
	return buf.String(), nil
}

// docxText collects the text of body paragraphs and of table cells, in document order.
func docxText(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ParseError{Message: "failed to open DOCX", Cause: err}
	}
	items := doc.Document.Body.Items
	if len(items) == 0 {
		return "", &ParseError{Message: "DOCX has no document body"}
	}

	var sb strings.Builder
	for _, item := range items {
		switch it := item.(type) {
		case *docx.Paragraph:
			writeParagraph(&sb, it)
		case *docx.Table:
			writeTable(&sb, it)
		}
	}
	return sb.String(), nil
}

func writeParagraph(sb *strings.Builder, p *docx.Paragraph) {
	sb.WriteString(p.String())
	sb.WriteByte('\n')
}

func writeTable(sb *strings.Builder, t *docx.Table) {
	for _, row := range t.TableRows {
		for _, cell := range row.TableCells {
			for _, p := range cell.Paragraphs {
				writeParagraph(sb, p)
			}
			for _, nested := range cell.Tables {
				writeTable(sb, nested)
			}
		}
	}
}

var (
	innerSpace   = regexp.MustCompile(`[ \t\x{00a0}]+`)
	blankLineRun = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes line endings, collapses spaces inside lines and keeps at
// most one blank line between paragraphs.
func CleanText(content string) string {
	if content == "" {
		return ""
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(innerSpace.ReplaceAllString(line, " "))
	}
	content = strings.Join(lines, "\n")
	content = blankLineRun.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// Truncate returns at most n runes of text.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
