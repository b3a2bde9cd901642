package vectorDB

import (
	"context"

	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
)

// Store is the narrow contract any vector backend must satisfy. The
// ingestion and query pipelines share nothing else.
type Store interface {
	// Initialize is idempotent: create the collection if absent, connect if present.
	Initialize(ctx context.Context) error

	// Upsert writes records in backend-sized batches and returns the summed
	// count of records the backend acknowledged.
	Upsert(ctx context.Context, records []ragModel.VectorRecord) (int, error)

	// Search returns up to topK results ordered by similarity descending.
	// filter is an equality constraint over stored scalar metadata fields.
	Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]ragModel.SearchResult, error)

	// DeleteByID removes the named records.
	DeleteByID(ctx context.Context, ids []string) (int, error)

	// DeleteByFilter removes every record matching the filter. The returned
	// count is best-effort; some backends do not report it.
	DeleteByFilter(ctx context.Context, filter map[string]string) (int, error)

	Stats(ctx context.Context) (ragModel.StoreStats, error)
	HealthCheck(ctx context.Context) bool
}
