package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/metrics"
	"github.com/akolanti/KnowledgeBase/internal/rag/chunker"
	"github.com/akolanti/KnowledgeBase/internal/rag/embedding"
	"github.com/akolanti/KnowledgeBase/internal/rag/tokenizer"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Pipeline struct {
	chunker     *chunker.Chunker
	tok         tokenizer.Tokenizer
	embedder    embedding.Embedder
	chunks      kbModel.ChunkStore
	docs        kbModel.DocumentStore
	concurrency int
	logger      *logger_i.Logger
}

type PipelineConfig struct {
	Chunker   *chunker.Chunker
	Tokenizer tokenizer.Tokenizer
	Embedder  embedding.Embedder
	Chunks    kbModel.ChunkStore
	Documents kbModel.DocumentStore
	// Concurrency above 1 embeds chunks of one document in parallel.
	Concurrency int
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		chunker:     cfg.Chunker,
		tok:         cfg.Tokenizer,
		embedder:    cfg.Embedder,
		chunks:      cfg.Chunks,
		docs:        cfg.Documents,
		concurrency: max(cfg.Concurrency, 1),
		logger:      logger_i.NewLogger("Document Ingestion"),
	}
}

// Ingest chunks and embeds text, then commits the document. Either the document and
// all of its chunks become visible, or nothing does.
func (p *Pipeline) Ingest(ctx context.Context, filename string, text string) (kbModel.Document, error) {
	log := p.logger.With("traceId", config.TraceID(ctx), "filename", filename)

	if strings.TrimSpace(text) == "" {
		return kbModel.Document{}, kbModel.ErrEmptyText
	}

	split := p.chunker.Split(text)
	if len(split.Chunks) == 0 {
		return kbModel.Document{}, kbModel.ErrNoChunks
	}
	if !split.Exact {
		log.Warn("tokenizer unavailable, chunked by approximate word counts")
	}
	log.Debug("Processing document", "chunks", len(split.Chunks))

	batch := newPendingBatch(kbModel.Document{
		ID:          uuid.NewString(),
		Filename:    filename,
		ChunkCount:  len(split.Chunks),
		TotalTokens: p.tok.Count(text),
		CreatedAt:   time.Now().UTC(),
	})
	log = log.With("documentId", batch.doc.ID)

	start := time.Now()
	vectors, err := p.embedAll(ctx, split.Chunks)
	metrics.CaptureExecutionMetrics("embedding_document", time.Since(start))
	if err != nil {
		log.Error("Embedding failed, discarding document", "err", err)
		batch.discard(ctx, p.chunks, log)
		return kbModel.Document{}, err
	}

	for i, text := range split.Chunks {
		batch.add(kbModel.Chunk{
			ID:           uuid.NewString(),
			DocumentID:   batch.doc.ID,
			DocumentName: filename,
			ChunkIndex:   i,
			Text:         text,
			Vector:       vectors[i],
			TokenCount:   p.tok.Count(text),
		})
	}

	if err := batch.commit(ctx, p.chunks, p.docs); err != nil {
		log.Error("Commit failed, rolling back", "err", err)
		batch.discard(ctx, p.chunks, log)
		return kbModel.Document{}, fmt.Errorf("%w: %w", kbModel.ErrStorageFailed, err)
	}

	metrics.AddChunksIngested(len(batch.chunks))
	log.Info("Document ingested", "chunks", batch.doc.ChunkCount, "tokens", batch.doc.TotalTokens)
	return batch.doc, nil
}

// embedAll returns one vector per chunk in chunk order. The first failure aborts the rest.
func (p *Pipeline) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	if p.concurrency == 1 {
		for i, text := range texts {
			vec, err := p.embedOne(ctx, i, text)
			if err != nil {
				return nil, err
			}
			vectors[i] = vec
		}
		return vectors, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := p.embedOne(gctx, i, text)
			if err != nil {
				return err
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (p *Pipeline) embedOne(ctx context.Context, index int, text string) ([]float32, error) {
	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk %d: %w", kbModel.ErrEmbeddingFailed, index, err)
	}
	if want := p.embedder.Dimensions(); len(vec) != want {
		return nil, fmt.Errorf("%w: chunk %d has %d dimensions, want %d", kbModel.ErrDimensionMismatch, index, len(vec), want)
	}
	return vec, nil
}

// pendingBatch accumulates one document's writes. Chunks are written before the
// document record, so a listed document always has all of its chunks.
type pendingBatch struct {
	doc     kbModel.Document
	chunks  []kbModel.Chunk
	written bool
}

func newPendingBatch(doc kbModel.Document) *pendingBatch {
	return &pendingBatch{doc: doc, chunks: make([]kbModel.Chunk, 0, doc.ChunkCount)}
}

func (b *pendingBatch) add(chunk kbModel.Chunk) {
	b.chunks = append(b.chunks, chunk)
}

func (b *pendingBatch) commit(ctx context.Context, chunks kbModel.ChunkStore, docs kbModel.DocumentStore) error {
	b.written = true
	if err := chunks.UpsertChunks(ctx, b.chunks); err != nil {
		return fmt.Errorf("writing chunks: %w", err)
	}
	if err := docs.SaveDocument(ctx, b.doc); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// discard removes whatever part of the batch reached the store.
func (b *pendingBatch) discard(ctx context.Context, chunks kbModel.ChunkStore, log *logger_i.Logger) {
	metrics.IncrementIngestionRollbacks()
	if !b.written {
		return
	}
	// the request context may be the reason we failed
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	removed, err := chunks.DeleteByDocument(cleanupCtx, b.doc.ID)
	if err != nil {
		log.Error("Rollback could not remove chunks", "documentId", b.doc.ID, "err", err)
		return
	}
	log.Warn("Rolled back partial ingestion", "documentId", b.doc.ID, "chunksRemoved", removed)
}
