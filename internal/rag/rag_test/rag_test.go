package rag_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/data/store"
	"github.com/mvembar/SyllabusAPI/internal/domain/jobModel"
	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
	"github.com/mvembar/SyllabusAPI/internal/rag"
	"github.com/mvembar/SyllabusAPI/internal/rag/chunker"
	"github.com/mvembar/SyllabusAPI/internal/rag/ingest"
	"github.com/mvembar/SyllabusAPI/internal/rag/llm"
)

func newTestService(t *testing.T, v *MockVectorDB, l *MockLLM, e *MockEmbedder) rag.Service {
	t.Helper()
	c, err := chunker.New(chunker.Config{})
	if err != nil {
		t.Fatalf("chunker setup failed: %v", err)
	}
	ing := ingest.NewService(v, e, c, store.NewFileRegistry())
	return rag.NewService(v, l, e, ing)
}

func hit(id, content, file string, score float32) ragModel.SearchResult {
	return ragModel.SearchResult{
		ID:              id,
		Content:         content,
		SimilarityScore: score,
		Metadata:        ragModel.Metadata{ragModel.KeySourceFile: file},
	}
}

func TestQuery_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, v *MockVectorDB, l *MockLLM)
		wantAnswer     string
		wantAnswerPart string
		wantSources    int
	}{
		{
			name: "Success_Full_Flow",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnSearch = func(ctx context.Context, vec []float32, topK int, f map[string]string) ([]ragModel.SearchResult, error) {
					return []ragModel.SearchResult{
						hit("a_chunk_0", "grading is 40% exams", "cs101.pdf", 0.92),
						hit("a_chunk_1", "office hours tuesday", "cs101.pdf", 0.81),
					}, nil
				}
				l.OnComplete = func(ctx context.Context, prompt string, h []string) (string, error) {
					return "final answer", nil
				}
			},
			wantAnswer:  "final answer",
			wantSources: 2,
		},
		{
			name: "Threshold_Drops_Weak_Hits",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnSearch = func(ctx context.Context, vec []float32, topK int, f map[string]string) ([]ragModel.SearchResult, error) {
					return []ragModel.SearchResult{
						hit("a_chunk_0", "barely related", "cs101.pdf", 0.42),
						hit("a_chunk_1", "not related", "cs102.pdf", 0.31),
					}, nil
				}
				l.OnComplete = func(ctx context.Context, prompt string, h []string) (string, error) {
					t.Error("LLM should not be called when nothing clears the threshold")
					return "", nil
				}
			},
			wantAnswerPart: "couldn't find relevant information",
			wantSources:    0,
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			wantAnswerPart: "ran into a problem",
			wantSources:    0,
		},
		{
			name: "Failure_Vector_Search",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnSearch = func(ctx context.Context, vec []float32, topK int, f map[string]string) ([]ragModel.SearchResult, error) {
					return nil, errors.New("db timeout")
				}
			},
			wantAnswerPart: "ran into a problem",
			wantSources:    0,
		},
		{
			name: "Failure_LLM_Generation",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnComplete = func(ctx context.Context, prompt string, h []string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			wantAnswerPart: "ran into a problem",
			wantSources:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mVec := &MockVectorDB{}
			mLLM := &MockLLM{}
			tt.setupMocks(mEmbed, mVec, mLLM)

			s := newTestService(t, mVec, mLLM, mEmbed)
			res := s.Query(context.Background(), "what is the grading policy", 0, nil, nil)

			if tt.wantAnswer != "" && res.Answer != tt.wantAnswer {
				t.Errorf("Answer got %q, want %q", res.Answer, tt.wantAnswer)
			}
			if tt.wantAnswerPart != "" && !strings.Contains(res.Answer, tt.wantAnswerPart) {
				t.Errorf("Answer got %q, want it to contain %q", res.Answer, tt.wantAnswerPart)
			}
			if len(res.Sources) != tt.wantSources {
				t.Errorf("Sources got %d, want %d", len(res.Sources), tt.wantSources)
			}
			if res.Sources == nil {
				t.Error("Sources must never be nil")
			}
		})
	}
}

func TestQuery_DegradedAnswerCarriesError(t *testing.T) {
	mEmbed := &MockEmbedder{
		OnGetEmbedding: func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("api limit")
		},
	}
	s := newTestService(t, &MockVectorDB{}, &MockLLM{}, mEmbed)

	res := s.Query(context.Background(), "what is the grading policy", 0, nil, nil)

	if !res.Failed {
		t.Error("Failed should be set on a degraded answer")
	}
	if !strings.Contains(res.Answer, "api limit") {
		t.Errorf("degraded answer should embed the error, got %q", res.Answer)
	}
	if got, _ := res.Metadata["error"].(string); got != "api limit" {
		t.Errorf("Metadata[error] got %q, want %q", got, "api limit")
	}
}

func TestQuery_SuccessIsNotFailed(t *testing.T) {
	s := newTestService(t, &MockVectorDB{}, &MockLLM{}, &MockEmbedder{})

	res := s.Query(context.Background(), "what is the grading policy", 0, nil, nil)
	if res.Failed {
		t.Error("successful query must not be marked Failed")
	}
	if _, present := res.Metadata["error"]; present {
		t.Errorf("successful query should carry no error metadata, got %v", res.Metadata["error"])
	}
}

func TestQuery_PromptCarriesSourceHeaders(t *testing.T) {
	mVec := &MockVectorDB{
		OnSearch: func(ctx context.Context, vec []float32, topK int, f map[string]string) ([]ragModel.SearchResult, error) {
			return []ragModel.SearchResult{
				{
					ID:              "a_chunk_0",
					Content:         "midterm counts 30%",
					SimilarityScore: 0.95,
					Metadata: ragModel.Metadata{
						ragModel.KeySourceFile: "cs101.pdf",
						ragModel.KeyCourseCode: "CS 101",
						ragModel.KeySemester:   "Fall 2025",
					},
				},
				hit("b_chunk_0", "final counts 40%", "cs102.pdf", 0.88),
			}, nil
		},
	}

	var gotPrompt string
	mLLM := &MockLLM{
		OnComplete: func(ctx context.Context, prompt string, h []string) (string, error) {
			gotPrompt = prompt
			return "ok", nil
		},
	}

	s := newTestService(t, mVec, mLLM, &MockEmbedder{})
	s.Query(context.Background(), "how is the grade split", 0, nil, nil)

	if !strings.Contains(gotPrompt, "[Source 1: cs101.pdf (CS 101, Fall 2025)]") {
		t.Errorf("prompt missing annotated source header:\n%s", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "[Source 2: cs102.pdf]") {
		t.Errorf("prompt missing plain source header:\n%s", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "\n---\n") {
		t.Errorf("prompt missing source divider:\n%s", gotPrompt)
	}
}

func TestStreamQuery(t *testing.T) {
	t.Run("streams fragments and returns sources first", func(t *testing.T) {
		mVec := &MockVectorDB{
			OnSearch: func(ctx context.Context, vec []float32, topK int, f map[string]string) ([]ragModel.SearchResult, error) {
				return []ragModel.SearchResult{hit("a_chunk_0", "content", "cs101.pdf", 0.9)}, nil
			},
		}
		s := newTestService(t, mVec, &MockLLM{}, &MockEmbedder{})

		streamed := s.StreamQuery(context.Background(), "question", 0, nil, nil)
		if len(streamed.Sources) != 1 {
			t.Fatalf("Sources got %d, want 1", len(streamed.Sources))
		}

		var answer strings.Builder
		for frag := range streamed.Fragments {
			if frag.Err != nil {
				t.Fatalf("unexpected stream error: %v", frag.Err)
			}
			answer.WriteString(frag.Content)
		}
		if answer.String() != "mocked stream" {
			t.Errorf("assembled answer got %q", answer.String())
		}
	})

	t.Run("no relevant hits yields single canned fragment", func(t *testing.T) {
		mVec := &MockVectorDB{
			OnSearch: func(ctx context.Context, vec []float32, topK int, f map[string]string) ([]ragModel.SearchResult, error) {
				return nil, nil
			},
		}
		mLLM := &MockLLM{
			OnStream: func(ctx context.Context, prompt string, h []string) (<-chan llm.Fragment, error) {
				t.Error("provider stream should not start without context")
				return nil, nil
			},
		}
		s := newTestService(t, mVec, mLLM, &MockEmbedder{})

		streamed := s.StreamQuery(context.Background(), "question", 0, nil, nil)
		var frags []string
		for frag := range streamed.Fragments {
			frags = append(frags, frag.Content)
		}
		if len(frags) != 1 || !strings.Contains(frags[0], "couldn't find relevant information") {
			t.Errorf("got fragments %v", frags)
		}
	})
}

func TestGetRelevantCourses_Dedupes(t *testing.T) {
	mVec := &MockVectorDB{
		OnSearch: func(ctx context.Context, vec []float32, topK int, f map[string]string) ([]ragModel.SearchResult, error) {
			if topK != config.CourseSearchTopK {
				t.Errorf("topK got %d, want %d", topK, config.CourseSearchTopK)
			}
			return []ragModel.SearchResult{
				{ID: "a_chunk_0", SimilarityScore: 0.95, Metadata: ragModel.Metadata{ragModel.KeyCourseCode: "CS 101", ragModel.KeySourceFile: "cs101.pdf"}},
				{ID: "a_chunk_1", SimilarityScore: 0.90, Metadata: ragModel.Metadata{ragModel.KeyCourseCode: "CS 101", ragModel.KeySourceFile: "cs101.pdf"}},
				{ID: "b_chunk_0", SimilarityScore: 0.85, Metadata: ragModel.Metadata{ragModel.KeyCourseCode: "MATH 221"}},
				{ID: "c_chunk_0", SimilarityScore: 0.80, Metadata: ragModel.Metadata{}},
			}, nil
		},
	}
	s := newTestService(t, mVec, &MockLLM{}, &MockEmbedder{})

	courses, err := s.GetRelevantCourses(context.Background(), "intro programming")
	if err != nil {
		t.Fatalf("GetRelevantCourses failed: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("got %d courses, want 2: %v", len(courses), courses)
	}
	if courses[0].CourseCode != "CS 101" || courses[0].RelevanceScore != 0.95 {
		t.Errorf("first course should keep the best-ranked chunk, got %+v", courses[0])
	}
	if courses[1].CourseCode != "MATH 221" {
		t.Errorf("second course got %+v", courses[1])
	}
}

func TestGetRelevantCourses_KeepsHitsBelowAnswerThreshold(t *testing.T) {
	mVec := &MockVectorDB{
		OnSearch: func(ctx context.Context, vec []float32, topK int, f map[string]string) ([]ragModel.SearchResult, error) {
			return []ragModel.SearchResult{
				{ID: "a_chunk_0", SimilarityScore: 0.65, Metadata: ragModel.Metadata{ragModel.KeyCourseCode: "CS 101"}},
				{ID: "b_chunk_0", SimilarityScore: 0.55, Metadata: ragModel.Metadata{ragModel.KeyCourseCode: "MATH 221"}},
			}, nil
		},
	}
	s := newTestService(t, mVec, &MockLLM{}, &MockEmbedder{})

	courses, err := s.GetRelevantCourses(context.Background(), "intro programming")
	if err != nil {
		t.Fatalf("GetRelevantCourses failed: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("course discovery must not apply the answer threshold, got %d courses: %v", len(courses), courses)
	}
}

func TestProcessRequest_ApologyLookalikeAnswerCompletes(t *testing.T) {
	echoed := "I'm sorry, I ran into a problem answering your question. Please try again."
	mLLM := &MockLLM{
		OnComplete: func(ctx context.Context, prompt string, h []string) (string, error) {
			return echoed, nil
		},
	}
	s := newTestService(t, &MockVectorDB{}, mLLM, &MockEmbedder{})

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	job := jobModel.Job{Id: "test-job", JobPayload: jobModel.JobPayload{Question: "q"}}

	result := s.ProcessRequest(ctx, job, []string{})
	if result.Status != jobModel.JobStatusComplete {
		t.Errorf("a model answer that happens to read like the canned apology must still complete, got %v", result.Status)
	}
	if result.JobPayload.Answer != echoed {
		t.Errorf("Answer got %q", result.JobPayload.Answer)
	}
}

func TestProcessRequest_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, v *MockVectorDB, l *MockLLM)
		expectedStatus jobModel.JobStatus
		expectedAnswer string
	}{
		{
			name: "Success_Full_Flow",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnComplete = func(ctx context.Context, prompt string, h []string) (string, error) {
					return "final answer", nil
				}
			},
			expectedStatus: jobModel.JobStatusComplete,
			expectedAnswer: "final answer",
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mVec := &MockVectorDB{}
			mLLM := &MockLLM{}
			tt.setupMocks(mEmbed, mVec, mLLM)

			s := newTestService(t, mVec, mLLM, mEmbed)

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			job := jobModel.Job{
				Id:         "test-job",
				JobPayload: jobModel.JobPayload{Question: "test question"},
			}

			result := s.ProcessRequest(ctx, job, []string{})

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if tt.expectedAnswer != "" && result.JobPayload.Answer != tt.expectedAnswer {
				t.Errorf("Answer got %s, want %s", result.JobPayload.Answer, tt.expectedAnswer)
			}
			if tt.expectedStatus == jobModel.JobStatusError && result.Error.Code != http.StatusInternalServerError {
				t.Errorf("Error Code got %d, want %d", result.Error.Code, http.StatusInternalServerError)
			}
		})
	}
}

func TestIngestDocument_Scenarios(t *testing.T) {
	newDummyFile := func(t *testing.T) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "syllabus.txt")
		content := "CS 101 Introduction to Programming. Instructor: Jane Smith. Fall 2025. " +
			strings.Repeat("The course covers variables, functions and testing. ", 10)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("could not write fixture: %v", err)
		}
		return path
	}

	t.Run("Ingestion_Success", func(t *testing.T) {
		mVec := &MockVectorDB{}
		s := newTestService(t, mVec, &MockLLM{}, &MockEmbedder{})

		job := jobModel.Job{
			Id:      "ingest-job-1",
			JobType: jobModel.JobTypeIngest,
			JobPayload: jobModel.JobPayload{
				IngestFileName: "syllabus.txt",
				IngestURL:      newDummyFile(t),
			},
		}
		result := s.IngestDocument(context.Background(), job)

		if result.Status != jobModel.JobStatusComplete {
			t.Fatalf("Status got %v, want %v (result: %+v)", result.Status, jobModel.JobStatusComplete, result.JobPayload.IngestResult)
		}
		if result.JobPayload.IngestResult == nil || !result.JobPayload.IngestResult.Success {
			t.Fatal("IngestResult should record success")
		}
		if len(mVec.UpsertedRecords) == 0 {
			t.Error("nothing was upserted")
		}
	})

	t.Run("Failure_Upsert", func(t *testing.T) {
		mVec := &MockVectorDB{
			OnUpsert: func(ctx context.Context, records []ragModel.VectorRecord) (int, error) {
				return 0, errors.New("disk full")
			},
		}
		s := newTestService(t, mVec, &MockLLM{}, &MockEmbedder{})

		job := jobModel.Job{
			Id:      "ingest-job-2",
			JobType: jobModel.JobTypeIngest,
			JobPayload: jobModel.JobPayload{
				IngestFileName: "syllabus.txt",
				IngestURL:      newDummyFile(t),
			},
		}
		result := s.IngestDocument(context.Background(), job)

		if result.Status != jobModel.JobStatusError {
			t.Errorf("Status got %v, want %v", result.Status, jobModel.JobStatusError)
		}
		if result.Error.Code != http.StatusInternalServerError {
			t.Errorf("Error Code got %d", result.Error.Code)
		}
	})
}
