package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mvembar/SyllabusAPI/internal/adapter"
	"github.com/mvembar/SyllabusAPI/internal/adapter/utils"
	"github.com/mvembar/SyllabusAPI/internal/api"
	"github.com/mvembar/SyllabusAPI/internal/rag"
	"github.com/mvembar/SyllabusAPI/internal/rag/ingest"
	"github.com/mvembar/SyllabusAPI/pkg/logger_i"
)

// RagHandler serves the synchronous retrieval endpoints. Queries that need
// chat history or background execution go through the job pipeline instead.
type RagHandler struct {
	ragService rag.Service
	ingestor   *ingest.Service
	logger     *logger_i.Logger
}

var ragHandler *RagHandler

func InitRagHandler(ragService rag.Service, ingestor *ingest.Service) *RagHandler {
	ragHandler = &RagHandler{
		ragService: ragService,
		ingestor:   ingestor,
		logger:     logger_i.NewLogger("RagHandler"),
	}
	return ragHandler
}

// PostQueryHandler godoc
// @Summary Ask a question synchronously
// @Description Runs the full retrieval pipeline and returns the grounded answer in one response
// @Tags rag
// @Accept json
// @Produce json
// @Param request body api.QueryRequest true "Question with optional top_k, filters and chatID"
// @Success 200 {object} api.RAGResponse
// @Failure 400 {object} api.JobResponse
// @Router /rag/query [post]
func PostQueryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	defer closeBody(r.Body)

	var req api.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "question is required")
		return
	}

	messageHistory := []string{}
	if req.ChatID != "" {
		messageHistory = GetMessageHistory(r.Context(), req.ChatID)
	}

	response := ragHandler.ragService.Query(r.Context(), req.Question, req.TopK, req.Filters, messageHistory)
	writeJsonResponse(w, http.StatusOK, adapter.ToQueryResponse(response))
}

// QueryStreamHandler godoc
// @Summary Ask a question and stream the answer
// @Description Server-sent events: one sources event, then answer fragments as they are generated
// @Tags rag
// @Accept json
// @Produce text/event-stream
// @Param request body api.QueryRequest true "Question with optional top_k, filters and chatID"
// @Success 200 {string} string "SSE stream"
// @Failure 400 {object} api.JobResponse
// @Router /rag/query/stream [post]
func QueryStreamHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	defer closeBody(r.Body)

	var req api.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "question is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteErrorResponse(w, http.StatusInternalServerError, "", "streaming unsupported")
		return
	}

	messageHistory := []string{}
	if req.ChatID != "" {
		messageHistory = GetMessageHistory(r.Context(), req.ChatID)
	}

	streamed := ragHandler.ragService.StreamQuery(r.Context(), req.Question, req.TopK, req.Filters, messageHistory)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sources, err := json.Marshal(adapter.ToSources(streamed.Sources))
	if err == nil {
		fmt.Fprintf(w, "event: sources\ndata: %s\n\n", sources)
		flusher.Flush()
	}

	for fragment := range streamed.Fragments {
		if fragment.Err != nil {
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", fragment.Err.Error())
			flusher.Flush()
			return
		}
		data, err := json.Marshal(fragment.Content)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	fmt.Fprint(w, "event: done\ndata: [DONE]\n\n")
	flusher.Flush()
}

// GetCoursesHandler godoc
// @Summary List courses relevant to a query
// @Tags rag
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} api.CoursesResponse
// @Failure 400 {object} api.JobResponse
// @Router /rag/courses [get]
func GetCoursesHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "q parameter is required")
		return
	}

	courses, err := ragHandler.ragService.GetRelevantCourses(r.Context(), query)
	if err != nil {
		ragHandler.logger.Error("course search failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "course search failed")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToCoursesResponse(courses))
}

// GetStatsHandler godoc
// @Summary Vector store statistics
// @Tags rag
// @Produce json
// @Success 200 {object} api.StatsResponse
// @Router /rag/stats [get]
func GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := ragHandler.ragService.Stats(r.Context())
	if err != nil {
		ragHandler.logger.Error("stats lookup failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "stats unavailable")
		return
	}

	writeJsonResponse(w, http.StatusOK, api.StatsResponse{
		TotalVectors:   stats.TotalVectors,
		Dimension:      stats.Dimension,
		CollectionName: stats.CollectionName,
		TrackedFiles:   ragHandler.ingestor.Registry().Len(),
	})
}

// GetRagHealthHandler godoc
// @Summary Retrieval pipeline health
// @Tags rag
// @Produce json
// @Success 200 {object} api.HealthResponse
// @Failure 503 {object} api.HealthResponse
// @Router /rag/health [get]
func GetRagHealthHandler(w http.ResponseWriter, r *http.Request) {
	healthy := ragHandler.ragService.Healthy(r.Context())

	response := api.HealthResponse{Status: "ok", VectorStore: healthy}
	code := http.StatusOK
	if !healthy {
		response.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJsonResponse(w, code, response)
}

// GetFilesHandler godoc
// @Summary List ingested files
// @Tags rag
// @Produce json
// @Success 200 {object} api.FilesResponse
// @Router /rag/files [get]
func GetFilesHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, adapter.ToFilesResponse(ragHandler.ingestor.Registry().List()))
}

// DeleteDocumentHandler godoc
// @Summary Delete all vectors of a document
// @Tags rag
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} api.DeleteResponse
// @Failure 404 {object} api.DeleteResponse
// @Router /rag/documents/{id} [delete]
func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID := utils.GetChiURLParam(r, "id")
	if documentID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "document id is required")
		return
	}

	deleted, err := ragHandler.ingestor.DeleteDocument(r.Context(), documentID)
	if err != nil {
		ragHandler.logger.Error("document delete failed", "documentID", documentID, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, documentID, "delete failed")
		return
	}

	code := http.StatusOK
	if !deleted {
		code = http.StatusNotFound
	}
	writeJsonResponse(w, code, api.DeleteResponse{DocumentID: documentID, Deleted: deleted})
}
