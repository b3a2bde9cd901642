// @title           Syllabus RAG API
// @version         1.0
// @description     Ingests course syllabi and answers questions about them, grounded in the indexed documents
// @termsOfService  http://swagger.io/terms/

// @contact.name    me lol
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/data/store"
	jobmodel "github.com/mvembar/SyllabusAPI/internal/domain/jobModel"
	"github.com/mvembar/SyllabusAPI/internal/handlers"
	"github.com/mvembar/SyllabusAPI/internal/job"
	"github.com/mvembar/SyllabusAPI/internal/rag"
	"github.com/mvembar/SyllabusAPI/internal/rag/chunker"
	"github.com/mvembar/SyllabusAPI/internal/rag/embedding/mistralEmbedding"
	"github.com/mvembar/SyllabusAPI/internal/rag/ingest"
	"github.com/mvembar/SyllabusAPI/internal/rag/llm"
	"github.com/mvembar/SyllabusAPI/internal/rag/llm/gemini"
	"github.com/mvembar/SyllabusAPI/internal/rag/llm/mistral"
	"github.com/mvembar/SyllabusAPI/internal/rag/vectorDB/qdrantDB"
	"github.com/mvembar/SyllabusAPI/internal/server"
	"github.com/mvembar/SyllabusAPI/internal/worker"
	"github.com/mvembar/SyllabusAPI/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	secrets, err := config.MustLoadSecrets()
	if err != nil {
		logger.Error("Missing required configuration", "error", err)
		return
	}

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
	}
	logger.Info("Starting job service")

	//nil checks stay on the concrete pointers; a typed nil inside the
	//interface field would defeat the fallback
	jobStore := store.GetRedisJobStore(serviceContext)
	messageStore := store.GetRedisMessageStore(serviceContext)
	if jobStore == nil || messageStore == nil {
		logger.Error("Redis stores are offline")
		if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
			return
		}
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.MessageStore = store.InitMessageStore()
	} else {
		serviceConfig.JobStore = jobStore
		serviceConfig.MessageStore = messageStore
	}
	service := job.InitJobService(serviceConfig)

	vectorDB := qdrantDB.GetQdrantClient(serviceContext)
	embeddingService := mistralEmbedding.GetMistralEmbeddingClient(serviceContext, config.MistralEmbeddingModel, secrets.MistralAPIKey)
	llmProvider := newLLMProvider(serviceContext, secrets)

	if vectorDB == nil || embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "VectorDB", vectorDB != nil, "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}

	if err := vectorDB.Initialize(serviceContext); err != nil {
		logger.Error("Could not initialize the vector collection", "error", err)
		return
	}

	textChunker, err := newChunker()
	if err != nil {
		logger.Error("Bad chunking configuration", "error", err)
		return
	}

	registry := store.NewFileRegistry()
	ingestService := ingest.NewService(vectorDB, embeddingService, textChunker, registry)
	ragService := rag.NewService(vectorDB, llmProvider, embeddingService, ingestService)

	handlers.InitJobHandler(service)
	handlers.InitRagHandler(ragService, ingestService)

	//init worker pool
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func newLLMProvider(ctx context.Context, secrets config.Secrets) llm.Provider {
	if secrets.LLMProvider == "gemini" {
		return gemini.GetGeminiClient(ctx, config.GeminiModelName, secrets.GeminiAPIKey)
	}
	return mistral.GetMistralClient(ctx, config.MistralChatModel, secrets.MistralAPIKey)
}

func newChunker() (*chunker.Chunker, error) {
	strategy, err := chunker.ParseStrategy(os.Getenv("CHUNKING_STRATEGY"))
	if err != nil {
		return nil, err
	}
	return chunker.New(chunker.Config{Strategy: strategy})
}
