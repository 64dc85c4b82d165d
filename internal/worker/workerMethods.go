package worker

import (
	"context"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/domain/jobModel"
	"github.com/akolanti/KnowledgeBase/internal/metrics"
)

func (p *Pool) executeJob(job jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.JobType), string(job.Status), time.Since(start))
	}()

	ctxTrace := config.WithTraceID(context.Background(), job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, p.cfg.JobTimeout)
	defer cancel()
	log := p.logger.With("traceId", job.TraceId, "jobId", job.Id)
	log.Debug("Processing job", "type", job.JobType)

	job = p.saveJobState(ctx, job, jobModel.JobStatusRunning)

	if job.JobType == jobModel.JobTypeIngest {
		job.CurrentStep = jobModel.IngestProcessing
		job = p.runner.IngestDocument(ctx, job)
	} else {
		job = p.runner.ProcessRequest(ctx, job)
		if job.Status != jobModel.JobStatusError && job.ChatId != "" {
			job.CurrentStep = jobModel.RedisCall
			if err := p.jobs.MessageStore.TrySaveChat(ctx, job.ChatId, job.JobPayload); err != nil {
				log.Error("Failed to save chat history", "err", err)
			}
			job.CurrentStep = jobModel.Complete
		}
	}

	job.EndTime = time.Now()
	final := jobModel.JobStatusComplete
	if job.Status == jobModel.JobStatusError {
		final = jobModel.JobStatusError
	}
	// the job context may have expired; the final state must still be written
	saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer saveCancel()
	job = p.saveJobState(saveCtx, job, final)
	log.Debug("Job finished", "status", job.Status)
}

func (p *Pool) saveJobState(ctx context.Context, job jobModel.Job, jobStatus jobModel.JobStatus) jobModel.Job {
	job.Status = jobStatus
	if err := p.jobs.JobStore.SaveJob(ctx, job); err != nil {
		p.logger.Error("Failed to update job state", "jobId", job.Id, "err", err)
	}
	return job
}
