// Package document extracts best-effort plain text from uploaded files.
package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

var (
	// ErrEmpty is returned when no text could be extracted.
	ErrEmpty = errors.New("document: no text content")
	// ErrUnsupported is returned for binary formats with no text layer.
	ErrUnsupported = errors.New("document: unsupported format")
)

// Format names reported by Extract.
const (
	FormatText = "text"
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Text is extracted document content.
type Text struct {
	Format  string `json:"format"`
	MIME    string `json:"mime"`
	Content string `json:"content"`
}

// Extract detects the format of data and returns its text.
func Extract(data []byte) (*Text, error) {
	mt := mimetype.Detect(data)

	var (
		format  string
		content string
		err     error
	)
	switch {
	case mt.Is("application/pdf"):
		format = FormatPDF
		content, err = pdfText(data)
	case mt.Is(docxMIME):
		format = FormatDOCX
		content, err = docxText(data)
	case isText(mt):
		format = FormatText
		content = strings.ToValidUTF8(string(data), "")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", format, err)
	}

	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if content == "" {
		return nil, ErrEmpty
	}
	return &Text{Format: format, MIME: mt.String(), Content: content}, nil
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.ToValidUTF8(buf.String(), ""), nil
}

// docxText reads word/document.xml, joining <w:t> runs and breaking lines
// at paragraph ends.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			if body, err = f.Open(); err != nil {
				return "", err
			}
			break
		}
	}
	if body == nil {
		return "", errors.New("word/document.xml not found")
	}
	defer body.Close()

	var (
		sb     strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(body)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText && utf8.Valid(t) {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
