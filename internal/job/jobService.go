package job

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/domain/jobModel"
	"github.com/akolanti/KnowledgeBase/internal/metrics"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/google/uuid"
)

var ErrUnknownChat = errors.New("unknown chat id")

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	MessageStore      jobModel.MessageStore

	requestsPerNewWorker int64
	logger               *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	MessageStore      jobModel.MessageStore
	// RequestsPerNewWorker is how many enqueued jobs trigger one extra worker.
	RequestsPerNewWorker int64
}

func InitJobService(cfg ServiceConfig) *Service {
	perWorker := cfg.RequestsPerNewWorker
	if perWorker <= 0 {
		perWorker = 10
	}
	return &Service{
		JobChannel:           cfg.JobChannel,
		DispatcherChannel:    cfg.DispatcherChannel,
		JobStore:             cfg.JobStore,
		MessageStore:         cfg.MessageStore,
		requestsPerNewWorker: perWorker,
		logger:               logger_i.NewLogger("JobService"),
	}
}

// SubmitAsk queues a question. An empty chatId starts a new chat; an unknown one is rejected.
func (s *Service) SubmitAsk(ctx context.Context, chatId string, question string, topK int) (jobModel.Job, error) {
	if chatId == "" {
		chatId = uuid.NewString()
		if err := s.MessageStore.InitNewChat(ctx, chatId); err != nil {
			s.logger.Error("Error initiating new chat", "chatId", chatId, "err", err)
			return jobModel.Job{}, err
		}
	} else if !s.MessageStore.ValidateChatId(ctx, chatId) {
		return jobModel.Job{}, ErrUnknownChat
	}

	j := newJob(ctx, jobModel.JobTypeAsk, jobModel.AskInit)
	j.ChatId = chatId
	j.JobPayload.Question = question
	j.JobPayload.TopK = topK
	return j, s.enqueue(ctx, j)
}

// SubmitIngest queues ingestion of an uploaded file already written to path.
func (s *Service) SubmitIngest(ctx context.Context, filename string, path string) (jobModel.Job, error) {
	j := newJob(ctx, jobModel.JobTypeIngest, jobModel.IngestInit)
	j.JobPayload.IngestFileName = filename
	j.JobPayload.IngestPath = path
	return j, s.enqueue(ctx, j)
}

func (s *Service) GetJob(ctx context.Context, id string) (jobModel.Job, bool) {
	if id == "" {
		return jobModel.Job{}, false
	}
	return s.JobStore.GetJob(ctx, id)
}

func (s *Service) ChatHistory(ctx context.Context, chatId string) ([]jobModel.JobPayload, error) {
	if !s.MessageStore.ValidateChatId(ctx, chatId) {
		return nil, ErrUnknownChat
	}
	return s.MessageStore.GetMessageHistory(ctx, chatId)
}

func newJob(ctx context.Context, jobType jobModel.JobType, step jobModel.InternalStatus) jobModel.Job {
	return jobModel.Job{
		Id:          uuid.NewString(),
		TraceId:     config.TraceID(ctx),
		JobType:     jobType,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: step,
	}
}

// enqueue records the job as queued and hands it to the workers. The send blocks
// while the buffer is full so callers feel backpressure.
func (s *Service) enqueue(ctx context.Context, j jobModel.Job) error {
	log := s.logger.With("traceId", j.TraceId, "jobId", j.Id)

	if err := s.JobStore.SaveJob(ctx, j); err != nil {
		log.Error("Could not record queued job", "err", err)
		return err
	}

	select {
	case s.JobChannel <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	metrics.IncrementJobsInQueue()
	log.Info("Created new job", "type", j.JobType)

	// a new worker every N requests, and for every ingestion since those run long
	count := atomic.AddInt64(&s.RequestCount, 1)
	if count%s.requestsPerNewWorker == 0 || j.JobType == jobModel.JobTypeIngest {
		select {
		case s.DispatcherChannel <- true:
			metrics.StartDispatcherSignalCount()
		default:
			// a signal is already pending
		}
	}
	return nil
}
