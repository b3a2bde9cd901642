package store

import (
	"sync"
	"time"

	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
)

// FileRecord is what the registry remembers about one ingested file.
type FileRecord struct {
	FileID     string             `json:"file_id"`
	DocumentID string             `json:"document_id"`
	Filename   string             `json:"filename"`
	ChunkCount int                `json:"chunk_count"`
	Metadata   ragModel.Metadata  `json:"metadata,omitempty"`
	IngestedAt time.Time          `json:"ingested_at"`
}

// FileRegistry tracks ingested files for listing and deletion. It is an
// explicit in-process map, not a database: losing it on restart only loses
// the listing, the vectors themselves stay in the index.
type FileRegistry struct {
	mu    sync.RWMutex
	files map[string]FileRecord
}

func NewFileRegistry() *FileRegistry {
	return &FileRegistry{files: make(map[string]FileRecord)}
}

func (r *FileRegistry) Register(rec FileRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[rec.FileID] = rec
}

func (r *FileRegistry) Get(fileID string) (FileRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.files[fileID]
	return rec, ok
}

func (r *FileRegistry) Remove(fileID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[fileID]; !ok {
		return false
	}
	delete(r.files, fileID)
	return true
}

// List returns a snapshot; callers may not mutate the registry through it.
func (r *FileRegistry) List() []FileRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FileRecord, 0, len(r.files))
	for _, rec := range r.files {
		out = append(out, rec)
	}
	return out
}

func (r *FileRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}
