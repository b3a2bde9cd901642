package vectorDB

import (
	"fmt"
	"time"

	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
)

// MaxMetadataStringLen caps stored string values; the backend rejects
// payload strings past 40KB.
const MaxMetadataStringLen = 40000

// SanitizeMetadata flattens metadata to the JSON primitives vector backends
// accept: nil values are dropped, times become RFC3339 strings, long
// strings are truncated, lists survive only when every element is a
// non-nil scalar, and anything else is stringified. Must run before every
// upsert regardless of backend.
func SanitizeMetadata(metadata ragModel.Metadata) ragModel.Metadata {
	sanitized := make(ragModel.Metadata, len(metadata))

	for key, value := range metadata {
		switch v := value.(type) {
		case nil:
			continue
		case time.Time:
			sanitized[key] = v.Format(time.RFC3339)
		case string:
			if len(v) > MaxMetadataStringLen {
				v = v[:MaxMetadataStringLen]
			}
			sanitized[key] = v
		case bool, int, int32, int64, uint, uint32, uint64, float32, float64:
			sanitized[key] = v
		case []string, []int, []int64, []float64, []bool:
			sanitized[key] = v
		case []any:
			if scalarsOnly(v) {
				sanitized[key] = v
			} else {
				sanitized[key] = fmt.Sprintf("%v", v)
			}
		default:
			sanitized[key] = fmt.Sprintf("%v", v)
		}
	}
	return sanitized
}

func scalarsOnly(values []any) bool {
	for _, v := range values {
		switch v.(type) {
		case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		default:
			return false
		}
	}
	return true
}
