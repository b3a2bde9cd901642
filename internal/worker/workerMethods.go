package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mvembar/SyllabusAPI/internal/config"
	jobmodel "github.com/mvembar/SyllabusAPI/internal/domain/jobModel"
	"github.com/mvembar/SyllabusAPI/internal/metrics"
	"github.com/mvembar/SyllabusAPI/pkg/logger_i"
)

func executeJob(currentJob jobmodel.Job) {
	start := time.Now()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, currentJob.TraceId)

	timeout := config.QueryJobTimeout
	if currentJob.JobType == jobmodel.JobTypeIngest {
		timeout = config.IngestJobTimeout
	}
	ctx, cancel := context.WithTimeout(ctxTrace, timeout)
	defer cancel()

	log := logger.With("traceId", currentJob.TraceId, "jobId", currentJob.Id)
	log.Debug("processing job", "type", currentJob.JobType)

	saveJobState(ctx, currentJob, jobmodel.JobStatusRunning)

	if currentJob.JobType == jobmodel.JobTypeIngest {
		currentJob = _ragService.IngestDocument(ctx, currentJob)
	} else {
		currentJob = processQuery(ctx, currentJob, log)
	}

	currentJob.EndTime = time.Now()
	if currentJob.Status != jobmodel.JobStatusError {
		currentJob.Status = jobmodel.JobStatusComplete
	}
	saveJobState(ctx, currentJob, currentJob.Status)
	metrics.CaptureJobMetrics(string(currentJob.Status), time.Since(start))
}

func processQuery(ctx context.Context, currentJob jobmodel.Job, log *logger_i.Logger) jobmodel.Job {
	currentJob.CurrentStep = jobmodel.HistoryCall
	messageHistory, err := _jobService.MessageStore.GetMessageHistory(ctx, currentJob.ChatId)
	if err != nil {
		log.Error("failed to get message history", "error", err)
	}

	currentJob = _ragService.ProcessRequest(ctx, currentJob, messageHistory)

	if currentJob.Status != jobmodel.JobStatusError {
		if err := _jobService.MessageStore.TrySaveChat(ctx, currentJob.ChatId, currentJob.JobPayload); err != nil {
			log.Error("failed to save chat history", "error", err)
		}
	}
	return currentJob
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&currentWorkerCount))
	metrics.DecrementActiveWorkerCount()
}

func saveJobState(ctx context.Context, currentJob jobmodel.Job, status jobmodel.JobStatus) {
	currentJob.Status = status
	if err := _jobService.JobStore.SaveJob(ctx, currentJob); err != nil {
		logger.Error("failed to persist job state", "error", err)
	}
}
