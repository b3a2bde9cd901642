package parser

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
	"golang.org/x/text/encoding/charmap"

	"github.com/mvembar/SyllabusAPI/internal/config"
)

func extractPDF(path string) (string, int, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := f.NumPage()
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// keep going with the remaining pages
			logger.Error("failed extracting page content", "page", i, "error", err)
			continue
		}
		pages = append(pages, content)
	}

	if len(pages) == 0 {
		return "", 0, errors.New("no extractable text in pdf")
	}
	return strings.Join(pages, "\n\n"), numPages, nil
}

// protectExtract bounds a single page extraction; the underlying reader can
// hang on malformed content streams.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.PageExtractTimeout):
		return "", errors.New("page extraction timeout")
	}
}

// extractWithCat reads a .docx, .rtf or .odt file through lu4p/cat.
func extractWithCat(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("failed to extract document text: %w", err)
	}
	return text, nil
}

// extractPlainText reads a .txt or .md file, trying UTF-8 first and then a
// fixed list of fallback single-byte encodings.
func extractPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	for _, cm := range []*charmap.Charmap{charmap.ISO8859_1, charmap.Windows1252} {
		decoded, err := cm.NewDecoder().Bytes(data)
		if err == nil {
			return string(decoded), nil
		}
	}
	return "", errors.New("could not decode file with any known encoding")
}
