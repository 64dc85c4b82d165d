package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "ERROR"

	AskInit          InternalStatus = "Init"
	CacheCall        InternalStatus = "CacheCall"
	RetrievalCall    InternalStatus = "Retrieval"
	LLMCall          InternalStatus = "LLM"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"
	RedisCall        InternalStatus = "Redis"

	IngestInit       InternalStatus = "IngestInit"
	IngestExtracting InternalStatus = "IngestExtracting"
	IngestProcessing InternalStatus = "IngestProcessing"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeAsk    JobType = "Ask"
	JobTypeIngest JobType = "Ingest"
)

type Job struct {
	Id          string         `json:"id"`
	ChatId      string         `json:"chat_id,omitempty"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Question   string           `json:"question,omitempty"`
	TopK       int              `json:"top_k,omitempty"`
	Answer     string           `json:"answer,omitempty"`
	Sources    []kbModel.Source `json:"sources,omitempty"`
	TokensUsed int              `json:"tokens_used,omitempty"`
	Degraded   bool             `json:"degraded,omitempty"`

	IngestFileName string `json:"ingest_file_name,omitempty"`
	// IngestPath is the temporary upload location, removed once the job finishes
	IngestPath string `json:"-"`
	DocumentId string `json:"document_id,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// MessageStore keeps the transcript of answered questions per chat.
type MessageStore interface {
	ValidateChatId(ctx context.Context, id string) bool
	TrySaveChat(ctx context.Context, id string, payload JobPayload) error
	InitNewChat(ctx context.Context, id string) error
	GetMessageHistory(ctx context.Context, chatId string) ([]JobPayload, error)
}
