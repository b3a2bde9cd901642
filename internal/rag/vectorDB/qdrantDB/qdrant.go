package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
	"github.com/mvembar/SyllabusAPI/internal/rag/vectorDB"
	"github.com/mvembar/SyllabusAPI/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var dimension = config.EmbeddingDimension
var collectionName = config.SyllabusCollection

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQdrantClient(ctx context.Context) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient()
		if res != nil {
			qdrantInstance = res
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: qdrantInstance,
	}
}

func newClient() *qdrant.Client {
	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate qdrant client", "error", err)
		return nil
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
}

// Initialize creates the collection when absent; calling it against an
// existing collection is a no-op.
func (db *ClientHolder) Initialize(ctx context.Context) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := db.QObj.CollectionExists(ctx, collectionName)
	if err != nil {
		return translateErr("collection check", err)
	}
	if exists {
		return nil
	}

	err = db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return translateErr("collection create", err)
	}
	logger.Info("created collection", "name", collectionName, "dimension", dimension)
	return nil
}

// Upsert writes records in fixed-size batches. The caller-visible id lives
// in the payload; the point id is a deterministic UUID derived from it,
// since qdrant only accepts integer or UUID point ids.
func (db *ClientHolder) Upsert(ctx context.Context, records []ragModel.VectorRecord) (int, error) {
	total := 0
	for start := 0; start < len(records); start += config.UpsertBatchSize {
		end := start + config.UpsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for i, rec := range batch {
			payload := vectorDB.SanitizeMetadata(rec.Metadata)
			payload["chunk_id"] = rec.ID

			points[i] = &qdrant.PointStruct{
				Id:      pointID(rec.ID),
				Vectors: qdrant.NewVectors(rec.Vector...),
				Payload: qdrant.NewValueMap(payload),
			}
		}

		_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collectionName,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return total, translateErr("upsert", err)
		}
		total += len(batch)
	}
	return total, nil
}

func (db *ClientHolder) Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]ragModel.SearchResult, error) {
	query := &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if f := buildFilter(filter); f != nil {
		query.Filter = f
	}

	hits, err := db.QObj.Query(ctx, query)
	if err != nil {
		return nil, translateErr("search", err)
	}

	results := make([]ragModel.SearchResult, 0, len(hits))
	for _, hit := range hits {
		metadata := payloadToMetadata(hit.Payload)
		results = append(results, ragModel.SearchResult{
			ID:              metadata.GetString("chunk_id"),
			Content:         metadata.GetString(ragModel.KeyContent),
			Metadata:        metadata,
			SimilarityScore: hit.Score,
		})
	}
	return results, nil
}

func (db *ClientHolder) DeleteByID(ctx context.Context, ids []string) (int, error) {
	points := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		points[i] = pointID(id)
	}

	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Points:         qdrant.NewPointsSelector(points...),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, translateErr("delete", err)
	}
	return len(ids), nil
}

// DeleteByFilter removes everything matching the filter. Qdrant does not
// report how many points the filter matched, so the count is 0 on success.
func (db *ClientHolder) DeleteByFilter(ctx context.Context, filter map[string]string) (int, error) {
	f := buildFilter(filter)
	if f == nil {
		return 0, errors.New("refusing delete with empty filter")
	}

	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Points:         qdrant.NewPointsSelectorFilter(f),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, translateErr("delete by filter", err)
	}
	return 0, nil
}

func (db *ClientHolder) Stats(ctx context.Context) (ragModel.StoreStats, error) {
	count, err := db.QObj.Count(ctx, &qdrant.CountPoints{
		CollectionName: collectionName,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return ragModel.StoreStats{}, translateErr("count", err)
	}
	return ragModel.StoreStats{
		TotalVectors:   count,
		Dimension:      dimension,
		CollectionName: collectionName,
	}, nil
}

func (db *ClientHolder) HealthCheck(ctx context.Context) bool {
	_, err := db.QObj.HealthCheck(ctx)
	if err != nil {
		logger.Error("health check failed", "error", err)
		return false
	}
	return true
}

func pointID(id string) *qdrant.PointId {
	return qdrant.NewID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String())
}

func buildFilter(filter map[string]string) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for key, value := range filter {
		conditions = append(conditions, qdrant.NewMatch(key, value))
	}
	return &qdrant.Filter{Must: conditions}
}

func payloadToMetadata(payload map[string]*qdrant.Value) ragModel.Metadata {
	metadata := make(ragModel.Metadata, len(payload))
	for key, value := range payload {
		metadata[key] = valueToAny(value)
	}
	return metadata
}

func valueToAny(value *qdrant.Value) any {
	switch v := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return v.StringValue
	case *qdrant.Value_IntegerValue:
		return v.IntegerValue
	case *qdrant.Value_DoubleValue:
		return v.DoubleValue
	case *qdrant.Value_BoolValue:
		return v.BoolValue
	case *qdrant.Value_ListValue:
		items := v.ListValue.GetValues()
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, valueToAny(item))
		}
		return out
	default:
		return nil
	}
}

// translateErr keeps raw transport failures from crossing the pipeline
// boundary, flagging the unreachable-store case distinctly.
func translateErr(op string, err error) error {
	if s, ok := status.FromError(err); ok && s.Code() == codes.Unavailable {
		return fmt.Errorf("vector store unreachable during %s: %w", op, err)
	}
	return fmt.Errorf("vector store %s failed: %w", op, err)
}
