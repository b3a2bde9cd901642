package vectorDB

import (
	"strings"
	"testing"
	"time"

	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
)

func TestSanitizeMetadata(t *testing.T) {
	stamp := time.Date(2025, 9, 1, 12, 30, 0, 0, time.UTC)

	t.Run("drops nil values", func(t *testing.T) {
		out := SanitizeMetadata(ragModel.Metadata{
			"keep": "yes",
			"gone": nil,
		})
		if _, ok := out["gone"]; ok {
			t.Error("nil value should have been dropped")
		}
		if out["keep"] != "yes" {
			t.Errorf("got %v, want yes", out["keep"])
		}
	})

	t.Run("converts time to RFC3339 string", func(t *testing.T) {
		out := SanitizeMetadata(ragModel.Metadata{"ingested_at": stamp})
		got, ok := out["ingested_at"].(string)
		if !ok {
			t.Fatalf("expected string, got %T", out["ingested_at"])
		}
		if got != "2025-09-01T12:30:00Z" {
			t.Errorf("got %s", got)
		}
	})

	t.Run("truncates oversized strings", func(t *testing.T) {
		out := SanitizeMetadata(ragModel.Metadata{
			"content": strings.Repeat("a", 50000),
		})
		got := out["content"].(string)
		if len(got) != MaxMetadataStringLen {
			t.Errorf("got len %d, want %d", len(got), MaxMetadataStringLen)
		}
	})

	t.Run("keeps scalar lists", func(t *testing.T) {
		out := SanitizeMetadata(ragModel.Metadata{
			"tags": []any{"syllabus", "cs101", 3},
		})
		if _, ok := out["tags"].([]any); !ok {
			t.Errorf("scalar list should pass through, got %T", out["tags"])
		}
	})

	t.Run("stringifies list containing nil", func(t *testing.T) {
		out := SanitizeMetadata(ragModel.Metadata{
			"mixed": []any{"a", nil, "b"},
		})
		if _, ok := out["mixed"].(string); !ok {
			t.Errorf("list with nil element should be stringified, got %T", out["mixed"])
		}
	})

	t.Run("stringifies nested composites", func(t *testing.T) {
		out := SanitizeMetadata(ragModel.Metadata{
			"nested": map[string]int{"pages": 4},
		})
		if _, ok := out["nested"].(string); !ok {
			t.Errorf("map value should be stringified, got %T", out["nested"])
		}
	})

	t.Run("passes numeric and bool scalars untouched", func(t *testing.T) {
		out := SanitizeMetadata(ragModel.Metadata{
			"chunk_index":  3,
			"total_chunks": int64(12),
			"score":        0.91,
			"final":        true,
		})
		if out["chunk_index"] != 3 || out["total_chunks"] != int64(12) || out["score"] != 0.91 || out["final"] != true {
			t.Errorf("scalars mutated: %v", out)
		}
	})
}
