package rag

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/domain/jobModel"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/metrics"
	"github.com/akolanti/KnowledgeBase/internal/rag/llm"
	"github.com/akolanti/KnowledgeBase/internal/rag/prompt"
	"github.com/akolanti/KnowledgeBase/internal/rag/retriever"
	"github.com/akolanti/KnowledgeBase/internal/rag/vectorDB"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/google/uuid"
)

const cacheWriteTimeout = 10 * time.Second

func returnOutput(job jobModel.Job, answer kbModel.Answer) jobModel.Job {
	job.JobPayload.Answer = answer.Answer
	job.JobPayload.Sources = answer.Sources
	job.JobPayload.TokensUsed = answer.TokensUsed
	job.JobPayload.Degraded = answer.Degraded
	job.CurrentStep = jobModel.Complete
	return job
}

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("ProcessRequest", "Current Status", job.CurrentStep)
	return job
}

// ErrorCode maps a service error to the HTTP status shown to callers.
func ErrorCode(err error) int {
	switch {
	case kbModel.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, kbModel.ErrDocumentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *service) jobError(job jobModel.Job, err error) jobModel.Job {
	code := ErrorCode(err)
	s.logger.Error("job failed", "jobId", job.Id, "step", job.CurrentStep, "err", err)

	message := "Internal Server Error"
	if code != http.StatusInternalServerError {
		message = err.Error()
	}
	job.Error = jobModel.JobError{
		Code:    code,
		Message: message,
		Retry:   code == http.StatusInternalServerError && !errors.Is(err, kbModel.ErrDimensionMismatch),
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

func (s *service) executeEmbeddingStep(ctx context.Context, question string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.Embed(ctx, question)
}

func (s *service) executeCacheCheckStep(ctx context.Context, log *logger_i.Logger, vector []float32) (kbModel.Answer, bool) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	answer, found, err := s.cache.GetCachedAnswer(ctx, vector)
	if err != nil {
		log.Warn("Answer cache lookup failed", "err", err)
		return kbModel.Answer{}, false
	}
	metrics.CaptureCacheLookup(found)
	return answer, found
}

func (s *service) executeRetrievalStep(ctx context.Context, vector []float32, topK int) (retriever.Result, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.retriever.Retrieve(ctx, vector, topK)
}

func (s *service) executeLLMStep(ctx context.Context, contextBlock string, question string) (llm.Completion, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.synthesizer.Synthesize(ctx, prompt.SystemInstruction, contextBlock, question)
}

// saveToCacheAsync writes the answer in the background so the caller is not kept waiting.
func (s *service) saveToCacheAsync(ctx context.Context, vector []float32, answer kbModel.Answer, generation uint64) {
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	go func() {
		defer cancel()
		err := s.cache.SaveToCache(bg, uuid.NewString(), vector, answer, generation)
		switch {
		case errors.Is(err, vectorDB.ErrStaleAnswer):
			s.logger.Debug("Documents changed while answering, answer not cached")
		case err != nil:
			s.logger.Error("Failed to save to cache", "err", err)
		}
	}()
}

// invalidateCache drops cached answers after the document set changed.
func (s *service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Answer cache invalidation failed", "err", err)
	}
}
