package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FileTypes lists the declared file types Text accepts.
var FileTypes = []string{"pdf", "txt", "docx"}

var ErrUnsupportedFormat = errors.New("unsupported file type")

// ExtractionError wraps a read or parse failure with the declared file type.
// Extraction is all-or-nothing; no partial text accompanies the error.
type ExtractionError struct {
	FileType string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract text from %s file: %v", e.FileType, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Supported reports whether the declared type is extractable.
func Supported(fileType string) bool {
	t := strings.ToLower(fileType)
	for _, ft := range FileTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// Text extracts the plain text of the file at path according to its declared
// type. An empty valid file yields empty text, not an error.
func Text(path, fileType string) (string, error) {
	switch strings.ToLower(fileType) {
	case "pdf":
		text, err := pdfText(path)
		if err != nil {
			return "", &ExtractionError{FileType: "pdf", Err: err}
		}
		return text, nil
	case "txt":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", &ExtractionError{FileType: "txt", Err: err}
		}
		return string(b), nil
	case "docx":
		text, err := docxText(path)
		if err != nil {
			return "", &ExtractionError{FileType: "docx", Err: err}
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileType)
	}
}

// pdfText extracts each page in page order and joins pages with a blank line.
func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract pdf page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n\n"), nil
}

// docxText reads word/document.xml out of the docx zip container and collects
// paragraph runs. Paragraphs empty after trimming are skipped; kept paragraphs
// are joined with a blank line.
func docxText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx container: %w", err)
	}
	defer zr.Close()

	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx has no word/document.xml")
	}
	defer doc.Close()

	paragraphs, err := docxParagraphs(doc)
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	paragraphs := make([]string, 0)
	var current strings.Builder
	inParagraph := false
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inText = inParagraph
			case "tab":
				if inParagraph {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inParagraph {
					current.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				inParagraph = false
				if p := current.String(); strings.TrimSpace(p) != "" {
					paragraphs = append(paragraphs, p)
				}
			}
		}
	}
	return paragraphs, nil
}
