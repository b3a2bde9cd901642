package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
	"github.com/mvembar/SyllabusAPI/pkg/logger_i"
)

var logger = logger_i.NewLogger("Document Parser")

// FileType is the closed set of formats the parser understands.
// Detection is by extension only, never content sniffing.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypePDF
	FileTypeDOCX
	FileTypeText
)

func (t FileType) String() string {
	switch t {
	case FileTypePDF:
		return "pdf"
	case FileTypeDOCX:
		return "docx"
	case FileTypeText:
		return "txt"
	default:
		return "unknown"
	}
}

var ErrUnsupportedType = errors.New("unsupported file type")

// ParseError wraps any per-file extraction failure. Callers recover from
// it at the file boundary; it never aborts a directory batch.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func DetectFileType(path string) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FileTypePDF
	case ".docx", ".rtf", ".odt":
		return FileTypeDOCX
	case ".txt", ".md":
		return FileTypeText
	default:
		return FileTypeUnknown
	}
}

func CanParse(path string) bool {
	return DetectFileType(path) != FileTypeUnknown
}

// Parse extracts normalized text and best-effort metadata from a file.
func Parse(path string) (ragModel.ParsedDocument, error) {
	fileType := DetectFileType(path)
	logger.Debug("parsing document", "path", path, "type", fileType.String())

	var (
		raw      string
		numPages int
		err      error
	)
	switch fileType {
	case FileTypePDF:
		raw, numPages, err = extractPDF(path)
	case FileTypeDOCX:
		raw, err = extractWithCat(path)
	case FileTypeText:
		raw, err = extractPlainText(path)
	default:
		return ragModel.ParsedDocument{}, &ParseError{Path: path, Err: ErrUnsupportedType}
	}
	if err != nil {
		return ragModel.ParsedDocument{}, &ParseError{Path: path, Err: err}
	}

	content := cleanText(raw)
	metadata := extractMetadata(content, path)
	if numPages > 0 {
		metadata["num_pages"] = numPages
	}

	logger.Info("parsed document", "path", path, "chars", len(content), "pages", numPages)

	return ragModel.ParsedDocument{
		Content:  content,
		Metadata: metadata,
		FileType: fileType.String(),
		NumPages: numPages,
	}, nil
}

// cleanText strips page-number artifact lines (a line holding only digits
// between blank lines) and then collapses whitespace runs to single spaces.
func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		if isPageNumberLine(lines, i) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(strings.Fields(strings.Join(kept, "\n")), " ")
}

func isPageNumberLine(lines []string, i int) bool {
	trimmed := strings.TrimSpace(lines[i])
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return false
		}
	}
	prevBlank := i == 0 || strings.TrimSpace(lines[i-1]) == ""
	nextBlank := i == len(lines)-1 || strings.TrimSpace(lines[i+1]) == ""
	return prevBlank && nextBlank
}
