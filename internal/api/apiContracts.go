package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	ChatId    string            `json:"chat_id" example:"chat_550"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Source struct {
	File       string  `json:"file"`
	CourseCode string  `json:"course_code,omitempty"`
	Semester   string  `json:"semester,omitempty"`
	Score      float32 `json:"score"`
	Content    string  `json:"content,omitempty"`
}

type RAGResponse struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
}

type Result struct {
	Status              string       `json:"status"`
	RAGExternalResponse *RAGResponse `json:"rag_response,omitempty"`
	IngestResult        *IngestInfo  `json:"ingest_result,omitempty"`
}

type IngestInfo struct {
	DocumentID     string `json:"document_id"`
	Filename       string `json:"filename"`
	ChunksCreated  int    `json:"chunks_created"`
	ChunksUploaded int    `json:"chunks_uploaded"`
	Error          string `json:"error,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

// requests---------------------

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
	ChatID  string `json:"chatID,omitempty"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}

type QueryRequest struct {
	Question string            `json:"question" validate:"required"`
	TopK     int               `json:"top_k,omitempty"`
	Filters  map[string]string `json:"filters,omitempty"`
	ChatID   string            `json:"chatID,omitempty"`
}

// responses for the synchronous retrieval endpoints ------------

type CourseItem struct {
	CourseCode     string  `json:"course_code"`
	SourceFile     string  `json:"source_file,omitempty"`
	Instructor     string  `json:"instructor,omitempty"`
	Semester       string  `json:"semester,omitempty"`
	RelevanceScore float32 `json:"relevance_score"`
}

type CoursesResponse struct {
	Courses []CourseItem `json:"courses"`
}

type StatsResponse struct {
	TotalVectors   uint64 `json:"total_vectors"`
	Dimension      uint64 `json:"dimension"`
	CollectionName string `json:"collection_name"`
	TrackedFiles   int    `json:"tracked_files"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	VectorStore bool   `json:"vector_store"`
}

type FileItem struct {
	FileID     string    `json:"file_id"`
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunk_count"`
	IngestedAt time.Time `json:"ingested_at"`
}

type FilesResponse struct {
	Files []FileItem `json:"files"`
}

type DeleteResponse struct {
	DocumentID string `json:"document_id"`
	Deleted    bool   `json:"deleted"`
}
