package chunker

import (
	"regexp"
	"strings"

	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
)

// Heading heuristics tuned for syllabi: short all-caps lines, numbered or
// roman-numeral headings, and the usual syllabus section keywords.
var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z][A-Z\s]{3,}$`),
	regexp.MustCompile(`^\d+\.\s+[A-Z]`),
	regexp.MustCompile(`^[IVX]+\.\s+[A-Z]`),
	regexp.MustCompile(`^(?:Course|Grading|Schedule|Prerequisites|Textbook|Office Hours)`),
}

func isHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, pattern := range headingPatterns {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// chunkSections splits on recognized headings; each heading opens a new
// section and is kept as its first line. Sections under the minimum size
// are discarded. Headingless input becomes a single chunk, so a non-empty
// document always produces at least one chunk.
func chunkSections(text string, base ragModel.Metadata) []ragModel.TextChunk {
	lines := strings.Split(text, "\n")

	var sections []string
	var current []string
	for _, line := range lines {
		if isHeading(line) && len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}

	var kept []string
	for _, section := range sections {
		if len(strings.TrimSpace(section)) >= config.MinChunkSize {
			kept = append(kept, section)
		}
	}
	if len(kept) == 0 {
		kept = []string{text}
	}

	chunks := make([]ragModel.TextChunk, 0, len(kept))
	pos := 0
	for _, section := range kept {
		chunks = append(chunks, newChunk(section, len(chunks), pos, pos+len(section), base))
		pos += len(section)
	}
	return chunks
}
