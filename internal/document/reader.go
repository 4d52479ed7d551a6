// Package document turns uploaded reference files into plain text for generation.
package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/domain"
)

type Kind string

const (
	KindText    Kind = "text"
	KindHTML    Kind = "html"
	KindDocx    Kind = "docx"
	KindPDF     Kind = "pdf"
	KindDoc     Kind = "doc"
	KindUnknown Kind = ""
)

// Reader extracts text from attachments. The zero value is ready to use.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// Detect classifies a file by extension, falling back to its MIME type.
func Detect(name, mimeType string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown":
		return KindText
	case ".html", ".htm":
		return KindHTML
	case ".docx":
		return KindDocx
	case ".pdf":
		return KindPDF
	case ".doc":
		return KindDoc
	}

	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	switch mt {
	case "text/plain", "text/markdown":
		return KindText
	case "text/html":
		return KindHTML
	case config.AllowedUploadTypes[".docx"]:
		return KindDocx
	case "application/pdf":
		return KindPDF
	case "application/msword":
		return KindDoc
	}
	return KindUnknown
}

// Validate checks an upload against the allowed extensions and size limit and
// returns the MIME type to store it under.
func Validate(name string, size, maxSize int64) (string, error) {
	if size > maxSize {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrFileTooLarge, size, maxSize)
	}
	mt, ok := config.AllowedUploadTypes[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedDocument, filepath.Ext(name))
	}
	return mt, nil
}

func (r *Reader) Extract(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch kind := Detect(name, mimeType); kind {
	case KindText:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("read %s: not valid UTF-8", name)
		}
		return string(data), nil
	case KindHTML:
		return htmlText(data)
	case KindDocx:
		return docxText(data)
	case KindPDF:
		return pdfText(data)
	case KindDoc:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedDocument, kind)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedDocument, name)
	}
}

func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// pdfText concatenates the plain text of every page. The parser panics on
// some malformed files, so a panic is reported as a read error.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// docxText reads the text runs of word/document.xml, one line per paragraph.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("open docx: word/document.xml missing")
	}
	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open docx body: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		sb     strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode docx: %w", err)
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
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Preview returns at most n runes of text.
func Preview(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	r := []rune(text)
	return string(r[:n])
}
