package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/domain/jobModel"
	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
	"github.com/mvembar/SyllabusAPI/internal/metrics"
	"github.com/mvembar/SyllabusAPI/internal/rag/embedding"
	"github.com/mvembar/SyllabusAPI/internal/rag/ingest"
	"github.com/mvembar/SyllabusAPI/internal/rag/llm"
	"github.com/mvembar/SyllabusAPI/internal/rag/vectorDB"
	"github.com/mvembar/SyllabusAPI/pkg/logger_i"
)

// Service is the contract the worker and the handlers program against;
// neither needs to know which vector store or which model sits behind it.
type Service interface {
	ProcessRequest(ctx context.Context, job jobModel.Job, messageHistory []string) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job

	Query(ctx context.Context, question string, topK int, filters map[string]string, messageHistory []string) ragModel.RAGResponse
	StreamQuery(ctx context.Context, question string, topK int, filters map[string]string, messageHistory []string) StreamedAnswer
	GetRelevantCourses(ctx context.Context, query string) ([]ragModel.Course, error)

	Stats(ctx context.Context) (ragModel.StoreStats, error)
	Healthy(ctx context.Context) bool
}

// StreamedAnswer carries retrieval results immediately and the answer as it
// is generated. Fragments is always non-nil and always gets closed.
type StreamedAnswer struct {
	Sources   []ragModel.SearchResult
	Fragments <-chan llm.Fragment
}

type service struct {
	vectorDB    vectorDB.Store
	llmProvider llm.Provider
	embedder    embedding.Embedder
	ingestor    *ingest.Service
	logger      *logger_i.Logger
}

func NewService(vector vectorDB.Store, provider llm.Provider, em embedding.Embedder, ing *ingest.Service) Service {
	return &service{
		vectorDB:    vector,
		llmProvider: provider,
		embedder:    em,
		ingestor:    ing,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

// Query never returns an error: a broken dependency produces an apologetic
// answer with empty sources so chat clients always have something to show.
func (s *service) Query(ctx context.Context, question string, topK int, filters map[string]string, messageHistory []string) ragModel.RAGResponse {
	response := ragModel.RAGResponse{
		Question: question,
		Sources:  []ragModel.SearchResult{},
		Metadata: ragModel.Metadata{},
	}
	if topK <= 0 {
		topK = config.DefaultTopK
	}

	vector, err := s.executeEmbeddingStep(ctx, question)
	if err != nil {
		s.logger.Error("query embedding failed", "error", err)
		return degradeResponse(response, err)
	}

	relevant, err := s.executeSearchStep(ctx, vector, topK, filters)
	if err != nil {
		s.logger.Error("vector search failed", "error", err)
		return degradeResponse(response, err)
	}

	response.Sources = relevant
	response.Metadata["num_sources"] = len(relevant)
	if len(filters) > 0 {
		response.Metadata["filters"] = filters
	}

	if len(relevant) == 0 {
		response.Answer = noContextAnswer
		return response
	}

	prompt := buildPrompt(question, buildContext(relevant))
	answer, err := s.executeLLMStep(ctx, prompt, messageHistory)
	if err != nil {
		s.logger.Error("answer generation failed", "error", err)
		return degradeResponse(response, err)
	}
	response.Answer = answer
	return response
}

// StreamQuery runs retrieval up front, then hands generation to the
// provider's stream. Retrieval failures and the no-context case become a
// single fragment so the transport path is uniform.
func (s *service) StreamQuery(ctx context.Context, question string, topK int, filters map[string]string, messageHistory []string) StreamedAnswer {
	if topK <= 0 {
		topK = config.DefaultTopK
	}

	vector, err := s.executeEmbeddingStep(ctx, question)
	if err != nil {
		s.logger.Error("query embedding failed", "error", err)
		return singleFragmentAnswer(nil, degradedAnswer(err))
	}

	relevant, err := s.executeSearchStep(ctx, vector, topK, filters)
	if err != nil {
		s.logger.Error("vector search failed", "error", err)
		return singleFragmentAnswer(nil, degradedAnswer(err))
	}
	if len(relevant) == 0 {
		return singleFragmentAnswer(relevant, noContextAnswer)
	}

	prompt := buildPrompt(question, buildContext(relevant))
	fragments, err := s.llmProvider.Stream(ctx, prompt, messageHistory)
	if err != nil {
		s.logger.Error("could not start answer stream", "error", err)
		return singleFragmentAnswer(relevant, degradedAnswer(err))
	}
	return StreamedAnswer{Sources: relevant, Fragments: fragments}
}

// GetRelevantCourses deduplicates hits by course code, keeping the
// highest-ranked chunk per course. Hits without a course code are dropped.
func (s *service) GetRelevantCourses(ctx context.Context, query string) ([]ragModel.Course, error) {
	vector, err := s.executeEmbeddingStep(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := s.searchStep(ctx, vector, config.CourseSearchTopK, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	courses := make([]ragModel.Course, 0, len(hits))
	for _, hit := range hits {
		code := hit.Metadata.GetString(ragModel.KeyCourseCode)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		courses = append(courses, ragModel.Course{
			CourseCode:     code,
			SourceFile:     hit.Metadata.GetString(ragModel.KeySourceFile),
			Instructor:     hit.Metadata.GetString(ragModel.KeyInstructor),
			Semester:       hit.Metadata.GetString(ragModel.KeySemester),
			RelevanceScore: hit.SimilarityScore,
		})
	}
	return courses, nil
}

func (s *service) Stats(ctx context.Context) (ragModel.StoreStats, error) {
	return s.vectorDB.Stats(ctx)
}

func (s *service) Healthy(ctx context.Context) bool {
	return s.vectorDB.HealthCheck(ctx)
}

// ProcessRequest is the worker entrypoint for query jobs.
func (s *service) ProcessRequest(ctx context.Context, jobt jobModel.Job, messageHistory []string) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureJobMetrics(string(jobModel.JobTypeQuery), time.Since(start)) }()
	inMethodLogger := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "JobId", jobt.Id)

	jobt.CurrentStep = jobModel.RAGCall
	inMethodLogger.Debug("ProcessRequest", "question_len", len(jobt.JobPayload.Question))

	response := s.Query(ctx, jobt.JobPayload.Question, config.DefaultTopK, jobt.JobPayload.Filters, messageHistory)
	if response.Failed {
		return s.jobError(jobt, fmt.Errorf("%v", response.Metadata["error"]), "RAG_PIPELINE_FAILURE", true)
	}

	jobt.JobPayload.Sources = response.Sources
	return returnOutput(jobt, response.Answer)
}

// IngestDocument is the worker entrypoint for ingestion jobs.
func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureJobMetrics(string(jobModel.JobTypeIngest), time.Since(start)) }()

	job.CurrentStep = jobModel.IngestProcessing
	result := s.ingestor.IngestFile(ctx, job.JobPayload.IngestURL, job.JobPayload.IngestFileName, nil)
	job.JobPayload.IngestResult = &result

	if !result.Success {
		return s.jobError(job, nil, "INGESTION_FAILURE", true)
	}
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	return job
}
