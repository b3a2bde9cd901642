package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		path string
		want FileType
	}{
		{"syllabus.pdf", FileTypePDF},
		{"SYLLABUS.PDF", FileTypePDF},
		{"notes.docx", FileTypeDOCX},
		{"notes.rtf", FileTypeDOCX},
		{"notes.odt", FileTypeDOCX},
		{"readme.txt", FileTypeText},
		{"readme.md", FileTypeText},
		{"image.png", FileTypeUnknown},
		{"noextension", FileTypeUnknown},
	}
	for _, tt := range tests {
		if got := DetectFileType(tt.path); got != tt.want {
			t.Errorf("DetectFileType(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParse_UnsupportedType(t *testing.T) {
	_, err := Parse("holiday.png")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("got %v, want ErrUnsupportedType", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Path != "holiday.png" {
		t.Errorf("error should be a ParseError carrying the path, got %v", err)
	}
}

func TestParse_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cs101.txt")
	content := "CS 101 Introduction to Programming\n\nInstructor: Jane Smith.\nOffered in Fall 2025.\n\nGrading: exams 70%, homework 30%."
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.FileType != "txt" {
		t.Errorf("FileType got %q", doc.FileType)
	}
	if doc.Metadata.GetString(ragModel.KeyCourseCode) != "CS101" {
		t.Errorf("course code got %q", doc.Metadata.GetString(ragModel.KeyCourseCode))
	}
	if doc.Metadata.GetString(ragModel.KeyInstructor) != "Jane Smith" {
		t.Errorf("instructor got %q", doc.Metadata.GetString(ragModel.KeyInstructor))
	}
	if doc.Metadata.GetString(ragModel.KeySemester) != "Fall 2025" {
		t.Errorf("semester got %q", doc.Metadata.GetString(ragModel.KeySemester))
	}
	if doc.Metadata.GetString(ragModel.KeySourceFile) != "cs101.txt" {
		t.Errorf("source file got %q", doc.Metadata.GetString(ragModel.KeySourceFile))
	}
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("got %T, want ParseError", err)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses whitespace runs",
			in:   "hello   world\n\n\tagain",
			want: "hello world again",
		},
		{
			name: "strips isolated page numbers",
			in:   "end of page one\n\n12\n\nstart of page two",
			want: "end of page one start of page two",
		},
		{
			name: "keeps digits inside prose",
			in:   "exams are worth\n70\npercent of the grade",
			want: "exams are worth 70 percent of the grade",
		},
		{
			name: "page number at end of text",
			in:   "the last line of content\n\n3",
			want: "the last line of content",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanText(tt.in); got != tt.want {
				t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractMetadata(t *testing.T) {
	t.Run("absent fields stay unset", func(t *testing.T) {
		metadata := extractMetadata("a plain paragraph with no structured header at all", "notes.txt")
		if _, ok := metadata[ragModel.KeyCourseCode]; ok {
			t.Error("course code should be unset")
		}
		if _, ok := metadata[ragModel.KeyInstructor]; ok {
			t.Error("instructor should be unset")
		}
		if _, ok := metadata[ragModel.KeySemester]; ok {
			t.Error("semester should be unset")
		}
		if metadata.GetString(ragModel.KeySourceFile) != "notes.txt" {
			t.Error("source file is always set")
		}
	})

	t.Run("course code variants normalize", func(t *testing.T) {
		tests := []struct {
			text string
			want string
		}{
			{"Welcome to CS101 this semester", "CS101"},
			{"Welcome to MATH 2210 this semester", "MATH2210"},
			{"Welcome to CSE-101A this semester", "CSE101A"},
		}
		for _, tt := range tests {
			metadata := extractMetadata(tt.text, "x.txt")
			if got := metadata.GetString(ragModel.KeyCourseCode); got != tt.want {
				t.Errorf("text %q: code got %q, want %q", tt.text, got, tt.want)
			}
		}
	})

	t.Run("instructor label variants", func(t *testing.T) {
		tests := []string{
			"Instructor: Maria Gonzalez Lopez",
			"PROFESSOR: Maria Gonzalez Lopez",
			"teacher - Maria Gonzalez Lopez",
		}
		for _, text := range tests {
			metadata := extractMetadata(text, "x.txt")
			if got := metadata.GetString(ragModel.KeyInstructor); got != "Maria Gonzalez Lopez" {
				t.Errorf("text %q: instructor got %q", text, got)
			}
		}
	})

	t.Run("deep matches ignored", func(t *testing.T) {
		filler := make([]byte, 1100)
		for i := range filler {
			filler[i] = 'x'
		}
		text := string(filler) + " Instructor: Jane Smith CS101 Fall 2025"
		metadata := extractMetadata(text, "x.txt")
		if _, ok := metadata[ragModel.KeyInstructor]; ok {
			t.Error("instructor past the header window should be ignored")
		}
		if _, ok := metadata[ragModel.KeyCourseCode]; ok {
			t.Error("course code past its window should be ignored")
		}
	})
}
