package kbModel

import (
	"context"
	"time"
)

// Document is created on successful ingestion and only ever removed, together with its chunks.
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ChunkCount  int       `json:"chunk_count"`
	TotalTokens int       `json:"total_tokens"`
	CreatedAt   time.Time `json:"created_at"`
}

type Chunk struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"document_id"`
	DocumentName string    `json:"document_name"`
	ChunkIndex   int       `json:"chunk_index"`
	Text         string    `json:"text"`
	Vector       []float32 `json:"-"`
	TokenCount   int       `json:"token_count"`
}

// ScoredChunk is a retrieval hit. Score is nil when the similarity is unknown.
type ScoredChunk struct {
	Chunk Chunk
	Score *float64
}

type Source struct {
	Document   string   `json:"document"`
	ChunkIndex int      `json:"chunk_index"`
	Score      *float64 `json:"score"`
	Preview    string   `json:"preview"`
}

type Answer struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	TokensUsed int      `json:"tokens_used"`
	Degraded   bool     `json:"degraded"`
	Cached     bool     `json:"cached"`
}

type Stats struct {
	TotalDocuments  int     `json:"total_documents"`
	TotalChunks     int     `json:"total_chunks"`
	TotalTokens     int     `json:"total_tokens"`
	AvgChunksPerDoc float64 `json:"avg_chunks_per_doc"`
}

// DocumentStore persists Document records.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc Document) error
	GetDocument(ctx context.Context, id string) (Document, bool, error)
	ListDocuments(ctx context.Context) ([]Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// ChunkStore persists chunks and their vectors.
type ChunkStore interface {
	UpsertChunks(ctx context.Context, chunks []Chunk) error
	// Sample returns up to limit chunks in a stable, unranked order.
	Sample(ctx context.Context, limit int) ([]Chunk, error)
	ChunksByDocument(ctx context.Context, documentID string) ([]Chunk, error)
	DeleteByDocument(ctx context.Context, documentID string) (int, error)
	CountChunks(ctx context.Context) (int, error)
}

// Searcher is implemented by chunk stores that can rank by vector similarity.
type Searcher interface {
	SimilaritySearch(ctx context.Context, vector []float32, topK int) ([]ScoredChunk, error)
}
