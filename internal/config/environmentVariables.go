package config

import (
	"errors"
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD                         = false
	LOG_LEVEL_PROD                  = slog.LevelInfo
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, it falls back to an internal in-memory store
	TRACE_ID_KEY                    = "traceId"
	RATE_LIMIT_PER_SECOND           = 2
	BURST_RATE_LIMIT_PER_SECOND     = 5

	//vector collection
	EmbeddingDimension uint64 = 1024 //mistral-embed output size
	SyllabusCollection        = "syllabi"

	//retrieval
	UpsertBatchSize             = 100
	SimilarityThreshold float32 = 0.7
	DefaultTopK                 = 5
	CourseSearchTopK            = 10

	//chunking
	ChunkSize            = 500
	ChunkOverlap         = 50
	MinChunkSize         = 50
	SentenceTargetSz     = 500
	SentenceTol  float64 = 0.2

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 150 * time.Second //must outlast a full streamed answer
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = "127.0.0.1"
	QdrantPort              = 6333 //http
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false //set for https
	QdrantPoolSize          = 1
	QdrantKeepAliveTimeout  = 30 * time.Second

	//job execution
	QueryJobTimeout  = 60 * time.Second
	IngestJobTimeout = 10 * time.Minute

	//llm
	LLMRequestTimeout       = 120 * time.Second
	EmbeddingRequestTimeout = 60 * time.Second
	MistralBaseURL          = "https://api.mistral.ai/v1"
	MistralChatModel        = "mistral-large-latest"
	MistralEmbeddingModel   = "mistral-embed"
	GeminiModelName         = "gemini-2.5-flash-lite-preview-09-2025"
	DefaultLLMProvider      = "mistral"

	//embedding batching
	EmbeddingBatchSize = 10
	EmbeddingMaxChars  = 8000

	ModelTemperature float64 = 0.7
	ModelMaxTokens   int64   = 4096

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//parsing
	PageExtractTimeout = 10 * time.Second

	NoAuthBypass = true

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore     = 0
	RedisMessageStore = 1

	//redis timeouts
	RedisJobStoreTTL     = 24 * time.Hour
	RedisMessageStoreTTL = 24 * time.Hour
)

var (
	AuthToken     = os.Getenv("API_AUTH_TOKEN")
	RedisPassword = os.Getenv("REDIS_PASSWORD")
)

// Secrets holds the values the process cannot run without.
type Secrets struct {
	MistralAPIKey string
	GeminiAPIKey  string
	LLMProvider   string
}

func MustLoadSecrets() (Secrets, error) {
	s := Secrets{
		MistralAPIKey: os.Getenv("MISTRAL_API_KEY"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		LLMProvider:   os.Getenv("LLM_PROVIDER"),
	}
	if s.LLMProvider == "" {
		s.LLMProvider = DefaultLLMProvider
	}
	if s.MistralAPIKey == "" {
		return s, errors.New("MISTRAL_API_KEY is not set")
	}
	if s.LLMProvider == "gemini" && s.GeminiAPIKey == "" {
		return s, errors.New("LLM_PROVIDER=gemini but GEMINI_API_KEY is not set")
	}
	return s, nil
}
