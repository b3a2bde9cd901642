package ragModel

// Metadata is the flat key-value bag attached to documents, chunks and
// stored vectors. Values must survive sanitization (see vectorDB) before
// they reach the index.
type Metadata map[string]any

func (m Metadata) Copy() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// GetString returns the value for key if it is a string, else "".
func (m Metadata) GetString(key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ParsedDocument is the normalized output of the document parser.
// Immutable once returned; owned by the caller.
type ParsedDocument struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	FileType string   `json:"file_type"`
	NumPages int      `json:"num_pages,omitempty"`
}

// TextChunk is a bounded substring of a parsed document, the unit of
// embedding and retrieval. StartChar/EndChar are best-effort offsets into
// the source text; sentence/section strategies keep them approximate.
type TextChunk struct {
	Content   string   `json:"content"`
	Index     int      `json:"index"`
	StartChar int      `json:"start_char"`
	EndChar   int      `json:"end_char"`
	Metadata  Metadata `json:"metadata"`
}

// VectorRecord is the unit stored in the vector index. Metadata here is
// pre-sanitization; the store adapter sanitizes before upsert.
type VectorRecord struct {
	ID       string    `json:"id"`
	Vector   []float32 `json:"vector"`
	Metadata Metadata  `json:"metadata"`
}

// SearchResult is a standardized hit across vector store backends,
// similarity-descending as returned by the store.
type SearchResult struct {
	ID              string   `json:"id"`
	Content         string   `json:"content"`
	Metadata        Metadata `json:"metadata"`
	SimilarityScore float32  `json:"similarity_score"`
}

type StoreStats struct {
	TotalVectors   uint64 `json:"total_vectors"`
	Dimension      uint64 `json:"dimension"`
	CollectionName string `json:"collection_name"`
}

// RAGResponse is the always-returned answer object of a query. A failed
// query carries an apologetic answer and empty sources, never an error.
type RAGResponse struct {
	Answer   string         `json:"answer"`
	Sources  []SearchResult `json:"sources"`
	Question string         `json:"question"`
	Metadata Metadata       `json:"metadata"`

	// Failed marks answers produced by the degradation path instead of the
	// model. Internal signal only; the wire shape carries the error in
	// Metadata["error"].
	Failed bool `json:"-"`
}

// Course is one distinct course surfaced by GetRelevantCourses.
type Course struct {
	CourseCode     string  `json:"course_code"`
	SourceFile     string  `json:"source_file,omitempty"`
	Instructor     string  `json:"instructor,omitempty"`
	Semester       string  `json:"semester,omitempty"`
	RelevanceScore float32 `json:"relevance_score"`
}

// IngestionResult is the per-file outcome of an ingestion run. Created
// once, returned to the caller, never mutated afterward.
type IngestionResult struct {
	Success        bool     `json:"success"`
	DocumentID     string   `json:"document_id"`
	FilePath       string   `json:"file_path"`
	Filename       string   `json:"filename"`
	ChunksCreated  int      `json:"chunks_created"`
	ChunksUploaded int      `json:"chunks_uploaded"`
	Metadata       Metadata `json:"metadata,omitempty"`
	Error          string   `json:"error,omitempty"`
}

type BatchIngestionResult struct {
	TotalFiles  int               `json:"total_files"`
	Successful  int               `json:"successful"`
	Failed      int               `json:"failed"`
	TotalChunks int               `json:"total_chunks"`
	Results     []IngestionResult `json:"results"`
}

// Metadata keys shared across the pipeline.
const (
	KeySourceFile  = "source_file"
	KeyCourseCode  = "course_code"
	KeyInstructor  = "instructor"
	KeySemester    = "semester"
	KeyDocumentID  = "document_id"
	KeyFileID      = "file_id"
	KeyChunkIndex  = "chunk_index"
	KeyTotalChunks = "total_chunks"
	KeyStrategy    = "chunking_strategy"
	KeyContent     = "content"
)
