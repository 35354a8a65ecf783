// Package pdfx validates uploaded PDF payloads and extracts their text page by
// page using ledongthuc/pdf.
package pdfx

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"legaleagle.app/api/internal/splitter"
)

const DefaultMaxBytes int64 = 50 * 1024 * 1024

var (
	ErrEmpty    = errors.New("empty PDF content")
	ErrNotPDF   = errors.New("invalid PDF file: missing %PDF header")
	ErrTooLarge = errors.New("file exceeds the maximum upload size")
	ErrNoText   = errors.New("no text could be extracted from the PDF")
)

var magic = []byte("%PDF")

// Validate checks size and magic bytes without parsing the document.
func Validate(content []byte, maxBytes int64) error {
	if len(content) == 0 {
		return ErrEmpty
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return fmt.Errorf("%w (%d MB)", ErrTooLarge, maxBytes/(1024*1024))
	}
	if !bytes.HasPrefix(content, magic) {
		return ErrNotPDF
	}
	return nil
}

// sanitize cuts trailing data appended after the last %%EOF marker, which
// browsers and some mail gateways leave behind.
func sanitize(content []byte) []byte {
	eof := []byte("%%EOF")
	last := bytes.LastIndex(content, eof)
	if last == -1 {
		return content
	}
	end := last + len(eof)
	for end < len(content) && (content[end] == '\n' || content[end] == '\r') {
		end++
	}
	return content[:end]
}

// ExtractPages returns the text of every page that has any, numbered from 0.
// Pages without text are skipped but keep their number.
func ExtractPages(content []byte) (pages []splitter.Page, err error) {
	if err := Validate(content, 0); err != nil {
		return nil, err
	}
	content = sanitize(content)

	// The parser panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	n := r.NumPage()
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text := pageText(p)
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, splitter.Page{Number: i - 1, Text: text})
	}
	if len(pages) == 0 {
		return nil, ErrNoText
	}
	return pages, nil
}

func pageText(p pdf.Page) string {
	rows, err := p.GetTextByRow()
	if err != nil {
		text, err := p.GetPlainText(nil)
		if err != nil {
			return ""
		}
		return text
	}

	var b strings.Builder
	for _, row := range rows {
		var line strings.Builder
		for _, word := range row.Content {
			line.WriteString(word.S)
		}
		if s := strings.TrimSpace(line.String()); s != "" {
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	return b.String()
}
