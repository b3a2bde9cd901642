package adapter

import (
	"fmt"
	"time"

	"github.com/mvembar/SyllabusAPI/internal/api"
	"github.com/mvembar/SyllabusAPI/internal/data/store"
	"github.com/mvembar/SyllabusAPI/internal/domain/jobModel"
	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:              string(job.Status),
		RAGExternalResponse: ToRAGExternalStatus(job.JobPayload),
		IngestResult:        toIngestInfo(job.JobPayload.IngestResult),
	}

	return api.JobResponse{
		Id:        job.Id,
		ChatId:    job.ChatId,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToRAGExternalStatus(payload jobModel.JobPayload) *api.RAGResponse {
	if payload.Answer == "" && len(payload.Sources) == 0 {
		return nil
	}

	return &api.RAGResponse{
		Question: payload.Question,
		Answer:   payload.Answer,
		Sources:  ToSources(payload.Sources),
	}
}

// ToSources maps retrieval hits to their external shape. Chunk content is
// deliberately omitted from job status responses; the answer already quotes
// what matters.
func ToSources(hits []ragModel.SearchResult) []api.Source {
	sources := make([]api.Source, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, api.Source{
			File:       hit.Metadata.GetString(ragModel.KeySourceFile),
			CourseCode: hit.Metadata.GetString(ragModel.KeyCourseCode),
			Semester:   hit.Metadata.GetString(ragModel.KeySemester),
			Score:      hit.SimilarityScore,
		})
	}
	return sources
}

func ToQueryResponse(res ragModel.RAGResponse) api.RAGResponse {
	return api.RAGResponse{
		Question: res.Question,
		Answer:   res.Answer,
		Sources:  ToSources(res.Sources),
	}
}

func ToCoursesResponse(courses []ragModel.Course) api.CoursesResponse {
	items := make([]api.CourseItem, 0, len(courses))
	for _, c := range courses {
		items = append(items, api.CourseItem{
			CourseCode:     c.CourseCode,
			SourceFile:     c.SourceFile,
			Instructor:     c.Instructor,
			Semester:       c.Semester,
			RelevanceScore: c.RelevanceScore,
		})
	}
	return api.CoursesResponse{Courses: items}
}

func ToFilesResponse(records []store.FileRecord) api.FilesResponse {
	items := make([]api.FileItem, 0, len(records))
	for _, rec := range records {
		items = append(items, api.FileItem{
			FileID:     rec.FileID,
			DocumentID: rec.DocumentID,
			Filename:   rec.Filename,
			ChunkCount: rec.ChunkCount,
			IngestedAt: rec.IngestedAt,
		})
	}
	return api.FilesResponse{Files: items}
}

func toIngestInfo(result *ragModel.IngestionResult) *api.IngestInfo {
	if result == nil {
		return nil
	}
	return &api.IngestInfo{
		DocumentID:     result.DocumentID,
		Filename:       result.Filename,
		ChunksCreated:  result.ChunksCreated,
		ChunksUploaded: result.ChunksUploaded,
		Error:          result.Error,
	}
}

func BadRequest(id string, errorMessage string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		ChatId:    "",
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: errorMessage,
			Retry:   false,
		},
	}
}
