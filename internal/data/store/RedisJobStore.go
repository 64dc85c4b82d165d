package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/data/redisStore"
	"github.com/akolanti/KnowledgeBase/internal/domain/jobModel"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
)

type RedisJobStore struct {
	store  *redisStore.Store
	ttl    time.Duration
	logger *logger_i.Logger
}

func NewRedisJobStore(store *redisStore.Store, ttl time.Duration) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		ttl:    ttl,
		logger: logger_i.NewLogger("JobStore"),
	}
}

func jobKey(jobId string) string {
	return "job:" + jobId
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := s.logger.With("traceId", config.TraceID(ctx), "jobId", job.Id)
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, jobKey(job.Id), data, s.ttl)
	if err == nil {
		log.Debug("Saved job to Redis", "status", job.Status)
	}
	return err
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	log := s.logger.With("traceId", config.TraceID(ctx), "jobId", jobId)

	val, err := s.store.Get(ctx, jobKey(jobId))
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		log.Error("Failed to read job", "err", err)
		return job, false
	}

	if err = json.Unmarshal([]byte(val), &job); err != nil {
		log.Error("Stored job is not valid JSON", "err", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, jobKey(jobID)); err != nil {
		s.logger.Error("Error deleting job from Redis", "jobId", jobID, "err", err)
		return
	}
	s.logger.Debug("Job deleted from Redis", "jobId", jobID)
}
