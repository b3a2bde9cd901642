package parser

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
)

// Heuristics only look at the head of the document; course codes and
// instructor labels deeper in the body are usually false positives.
const (
	courseCodeWindow = 500
	headerWindow     = 1000
)

var (
	courseCodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b([A-Z]{2,4}[-\s]?\d{3,4}[A-Z]?)\b`), // CS101, MATH 201, CSE-101
		regexp.MustCompile(`\b([A-Z]{2,4}\d{3,4}[A-Z]?)\b`),
	}

	instructorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i:instructor|professor|teacher):\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`),
		regexp.MustCompile(`(?i:instructor|professor|teacher)\s*[-–]\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`),
	}

	semesterPattern = regexp.MustCompile(`(?i)\b(Fall|Spring|Summer|Winter)\s+\d{4}\b`)
)

// extractMetadata pulls best-effort course metadata out of normalized text.
// A field that does not match is left unset, never given a placeholder.
func extractMetadata(text string, path string) ragModel.Metadata {
	metadata := ragModel.Metadata{
		ragModel.KeySourceFile: filepath.Base(path),
	}

	head := text
	if len(head) > courseCodeWindow {
		head = head[:courseCodeWindow]
	}
	for _, pattern := range courseCodePatterns {
		if match := pattern.FindStringSubmatch(head); match != nil {
			code := strings.NewReplacer(" ", "", "-", "").Replace(match[1])
			metadata[ragModel.KeyCourseCode] = code
			break
		}
	}

	head = text
	if len(head) > headerWindow {
		head = head[:headerWindow]
	}
	for _, pattern := range instructorPatterns {
		if match := pattern.FindStringSubmatch(head); match != nil {
			metadata[ragModel.KeyInstructor] = strings.TrimSpace(match[1])
			break
		}
	}

	if match := semesterPattern.FindString(head); match != "" {
		metadata[ragModel.KeySemester] = match
	}

	return metadata
}
