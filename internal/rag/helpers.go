package rag

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/domain/jobModel"
	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
	"github.com/mvembar/SyllabusAPI/internal/metrics"
	"github.com/mvembar/SyllabusAPI/internal/rag/llm"
)

const (
	apologyAnswer   = "I'm sorry, I ran into a problem answering your question. Please try again."
	noContextAnswer = "I couldn't find relevant information in the available syllabi to answer your question."
	emptyContext    = "No relevant information found in the syllabi."
)

// buildContext renders retrieval hits as numbered source blocks so the
// model can cite them. Blocks are divided by a bare --- line.
func buildContext(results []ragModel.SearchResult) string {
	if len(results) == 0 {
		return emptyContext
	}

	blocks := make([]string, 0, len(results))
	for i, hit := range results {
		header := fmt.Sprintf("[Source %d: %s", i+1, hit.Metadata.GetString(ragModel.KeySourceFile))
		if code := hit.Metadata.GetString(ragModel.KeyCourseCode); code != "" {
			header += " (" + code
			if sem := hit.Metadata.GetString(ragModel.KeySemester); sem != "" {
				header += ", " + sem
			}
			header += ")"
		}
		header += "]"
		blocks = append(blocks, header+"\n"+hit.Content)
	}
	return strings.Join(blocks, "\n---\n")
}

func buildPrompt(question, contextText string) string {
	return "You are a helpful assistant answering questions about course syllabi. " +
		"Answer using ONLY the sources below. Cite sources by their number. " +
		"If the sources do not contain the answer, say you could not find it; do not guess.\n\n" +
		"Sources:\n" + contextText + "\n\n" +
		"Question: " + question + "\nAnswer:"
}

// degradedAnswer keeps the apology readable while carrying the underlying
// error, mirroring what the sources metadata cannot say on a failed query.
func degradedAnswer(err error) string {
	return fmt.Sprintf("%s (error: %v)", apologyAnswer, err)
}

// degradeResponse turns a pipeline error into the always-answer shape:
// apologetic answer embedding the error, error text in metadata, and the
// Failed flag for callers that must distinguish failure from a real answer.
func degradeResponse(response ragModel.RAGResponse, err error) ragModel.RAGResponse {
	response.Answer = degradedAnswer(err)
	response.Metadata["error"] = err.Error()
	response.Failed = true
	return response
}

// singleFragmentAnswer wraps a canned answer in the streaming shape.
func singleFragmentAnswer(sources []ragModel.SearchResult, answer string) StreamedAnswer {
	out := make(chan llm.Fragment, 1)
	out <- llm.Fragment{Content: answer}
	close(out)
	if sources == nil {
		sources = []ragModel.SearchResult{}
	}
	return StreamedAnswer{Sources: sources, Fragments: out}
}

func returnOutput(job jobModel.Job, ans string) jobModel.Job {
	job.JobPayload.Answer = ans
	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	return job
}

func (s *service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "error", err)

	job.Error = jobModel.JobError{
		Code:    http.StatusInternalServerError,
		Message: "Internal Server Error",
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	return job
}

func (s *service) executeEmbeddingStep(ctx context.Context, question string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, question)
}

// executeSearchStep retrieves topK candidates and keeps only those at or
// above the similarity threshold. The store is asked for the full topK so
// the cutoff never hides better hits behind weaker ones. The cutoff is an
// answering concern: course discovery uses searchStep directly and ranks
// whatever comes back.
func (s *service) executeSearchStep(ctx context.Context, vector []float32, topK int, filters map[string]string) ([]ragModel.SearchResult, error) {
	hits, err := s.searchStep(ctx, vector, topK, filters)
	if err != nil {
		return nil, err
	}

	relevant := make([]ragModel.SearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit.SimilarityScore >= config.SimilarityThreshold {
			relevant = append(relevant, hit)
		}
	}
	return relevant, nil
}

func (s *service) searchStep(ctx context.Context, vector []float32, topK int, filters map[string]string) ([]ragModel.SearchResult, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.vectorDB.Search(ctx, vector, topK, filters)
}

func (s *service) executeLLMStep(ctx context.Context, prompt string, history []string) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Complete(ctx, prompt, history)
}
