package api

import (
	"time"

	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	ChatId    string            `json:"chat_id,omitempty" example:"chat_550"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type RAGResponse struct {
	Question   string           `json:"question"`
	Answer     string           `json:"answer"`
	Sources    []kbModel.Source `json:"sources"`
	TokensUsed int              `json:"tokens_used"`
	Degraded   bool             `json:"degraded"`
}

type IngestResponse struct {
	DocumentId string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunks_count"`
}

type Result struct {
	Status              string          `json:"status"`
	Step                string          `json:"step,omitempty"`
	RAGExternalResponse *RAGResponse    `json:"rag_response,omitempty"`
	Ingest              *IngestResponse `json:"ingest,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	ChatId    string `json:"chat_id,omitempty"`
	StatusURL string `json:"status_url"`
}

// synchronous endpoints ---------------------

type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Service string `json:"service" example:"RAG Knowledge Base"`
}

type AskResponse struct {
	Answer     string           `json:"answer"`
	Sources    []kbModel.Source `json:"sources"`
	TokensUsed int              `json:"tokens_used"`
	Degraded   bool             `json:"degraded"`
	Cached     bool             `json:"cached"`
}

type UploadResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Document IngestResponse `json:"document"`
}

type DocumentInfo struct {
	Id         string    `json:"id"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunks_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type DocumentsResponse struct {
	Success   bool           `json:"success"`
	Count     int            `json:"count"`
	Documents []DocumentInfo `json:"documents"`
}

type DeletedInfo struct {
	DocumentId    string `json:"document_id"`
	ChunksRemoved int    `json:"chunks_removed"`
}

type DeleteResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Deleted DeletedInfo `json:"deleted"`
}

type StatsResponse struct {
	Success bool          `json:"success"`
	Stats   kbModel.Stats `json:"stats"`
}

type ChatMessage struct {
	Question string           `json:"question"`
	Answer   string           `json:"answer"`
	Sources  []kbModel.Source `json:"sources,omitempty"`
}

type ChatHistoryResponse struct {
	ChatId   string        `json:"chat_id"`
	Messages []ChatMessage `json:"messages"`
}

type ErrorResponse struct {
	Detail string `json:"detail" example:"Document not found"`
}

// requests---------------------

type AskRequest struct {
	Question string `json:"question" validate:"required"`
	TopK     int    `json:"top_k,omitempty" example:"5"`
}

type ChatRequest struct {
	Message string `json:"message" validate:"required" `
	ChatID  string `json:"chatID,omitempty" `
	TopK    int    `json:"top_k,omitempty"`
}
