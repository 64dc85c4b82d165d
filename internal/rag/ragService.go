package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/domain/jobModel"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/metrics"
	"github.com/akolanti/KnowledgeBase/internal/rag/chunker"
	"github.com/akolanti/KnowledgeBase/internal/rag/embedding"
	"github.com/akolanti/KnowledgeBase/internal/rag/ingest"
	"github.com/akolanti/KnowledgeBase/internal/rag/llm"
	"github.com/akolanti/KnowledgeBase/internal/rag/prompt"
	"github.com/akolanti/KnowledgeBase/internal/rag/retriever"
	"github.com/akolanti/KnowledgeBase/internal/rag/tokenizer"
	"github.com/akolanti/KnowledgeBase/internal/rag/vectorDB"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
)

/*
Service is the public contract used by the HTTP handlers, the MCP tools and the
worker pool. The private service struct holds the collaborators (stores, embedder,
synthesizer) so nothing outside this package reaches them directly, and tests can
swap any of them for mocks through Dependencies.
*/
type Service interface {
	Ask(ctx context.Context, question string, topK int) (kbModel.Answer, error)
	IngestText(ctx context.Context, filename string, text string) (kbModel.Document, error)
	IngestFile(ctx context.Context, filename string, path string) (kbModel.Document, error)
	ListDocuments(ctx context.Context) ([]kbModel.Document, error)
	DeleteDocument(ctx context.Context, id string) (int, error)
	Stats(ctx context.Context) (kbModel.Stats, error)

	ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
}

type Dependencies struct {
	Embedder    embedding.Embedder
	Synthesizer llm.Synthesizer
	Tokenizer   tokenizer.Tokenizer
	Chunker     *chunker.Chunker
	Chunks      kbModel.ChunkStore
	Documents   kbModel.DocumentStore
	// Cache is optional; nil disables the answer cache.
	Cache     vectorDB.AnswerCache
	Retrieval config.RetrievalConfig
	// EmbedConcurrency above 1 embeds the chunks of one document in parallel.
	EmbedConcurrency int
}

type service struct {
	embedder    embedding.Embedder
	synthesizer llm.Synthesizer
	chunks      kbModel.ChunkStore
	docs        kbModel.DocumentStore
	cache       vectorDB.AnswerCache
	retriever   *retriever.Retriever
	pipeline    *ingest.Pipeline
	defaultTopK int
	maxTopK     int
	logger      *logger_i.Logger
}

func NewService(deps Dependencies) Service {
	defaultTopK := deps.Retrieval.DefaultTopK
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	maxTopK := max(deps.Retrieval.MaxTopK, defaultTopK)

	return &service{
		embedder:    deps.Embedder,
		synthesizer: deps.Synthesizer,
		chunks:      deps.Chunks,
		docs:        deps.Documents,
		cache:       deps.Cache,
		retriever:   retriever.New(deps.Chunks),
		pipeline: ingest.NewPipeline(ingest.PipelineConfig{
			Chunker:     deps.Chunker,
			Tokenizer:   deps.Tokenizer,
			Embedder:    deps.Embedder,
			Chunks:      deps.Chunks,
			Documents:   deps.Documents,
			Concurrency: deps.EmbedConcurrency,
		}),
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) Ask(ctx context.Context, question string, topK int) (kbModel.Answer, error) {
	return s.ask(ctx, question, topK, func(jobModel.InternalStatus) {})
}

// ask runs the question pipeline. step is told about each stage as it starts.
func (s *service) ask(ctx context.Context, question string, topK int, step func(jobModel.InternalStatus)) (kbModel.Answer, error) {
	log := s.logger.With("traceId", config.TraceID(ctx))

	question = strings.TrimSpace(question)
	if question == "" {
		return kbModel.Answer{}, fmt.Errorf("%w: question must not be empty", kbModel.ErrInvalidInput)
	}
	if topK == 0 {
		topK = s.defaultTopK
	}
	if topK < 1 || topK > s.maxTopK {
		return kbModel.Answer{}, fmt.Errorf("%w: top_k must be between 1 and %d", kbModel.ErrInvalidInput, s.maxTopK)
	}

	step(jobModel.EmbeddingAPICall)
	vector, err := s.executeEmbeddingStep(ctx, question)
	if err != nil {
		log.Error("Question embedding failed", "err", err)
		return kbModel.Answer{}, fmt.Errorf("%w: %w", kbModel.ErrEmbeddingFailed, err)
	}
	if want := s.embedder.Dimensions(); len(vector) != want {
		log.Error("Question embedding has the wrong size", "got", len(vector), "want", want)
		return kbModel.Answer{}, fmt.Errorf("%w: question has %d dimensions, want %d", kbModel.ErrDimensionMismatch, len(vector), want)
	}

	useCache := s.cache != nil && topK == s.defaultTopK
	var generation uint64
	if useCache {
		// read before retrieval; an invalidation from here on makes this answer stale
		generation = s.cache.Generation()
		step(jobModel.CacheCall)
		if cached, found := s.executeCacheCheckStep(ctx, log, vector); found {
			cached.Cached = true
			return cached, nil
		}
	}

	step(jobModel.RetrievalCall)
	result, err := s.executeRetrievalStep(ctx, vector, topK)
	if err != nil {
		log.Error("Retrieval failed", "err", err)
		return kbModel.Answer{}, fmt.Errorf("%w: %w", kbModel.ErrStorageFailed, err)
	}

	assembly := prompt.Assemble(result.Hits)
	if assembly.Empty() {
		log.Info("No chunks to answer from")
		return kbModel.Answer{
			Answer:   prompt.NoDocumentsAnswer,
			Sources:  []kbModel.Source{},
			Degraded: result.Degraded(),
		}, nil
	}

	step(jobModel.LLMCall)
	completion, err := s.executeLLMStep(ctx, assembly.Context, question)
	if err != nil {
		log.Error("Answer synthesis failed", "err", err)
		return kbModel.Answer{}, fmt.Errorf("%w: %w", kbModel.ErrSynthesisFailed, err)
	}

	answer := kbModel.Answer{
		Answer:     completion.Text,
		Sources:    assembly.Sources,
		TokensUsed: completion.TokensUsed,
		Degraded:   result.Degraded(),
	}

	// unranked answers depend on sample order, not on the question
	if useCache && !answer.Degraded {
		s.saveToCacheAsync(ctx, vector, answer, generation)
	}
	return answer, nil
}

func (s *service) IngestText(ctx context.Context, filename string, text string) (kbModel.Document, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	filename = strings.TrimSpace(filename)
	if filename == "" {
		return kbModel.Document{}, fmt.Errorf("%w: filename must not be empty", kbModel.ErrInvalidInput)
	}

	doc, err := s.pipeline.Ingest(ctx, filename, text)
	if err != nil {
		return kbModel.Document{}, err
	}
	s.invalidateCache(ctx)
	return doc, nil
}

// IngestFile extracts text from the uploaded file at path and ingests it.
// The file is removed whatever the outcome.
func (s *service) IngestFile(ctx context.Context, filename string, path string) (kbModel.Document, error) {
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("could not remove upload", "path", path, "err", err)
		}
	}()

	text, err := ingest.ExtractText(path, filename)
	if err != nil {
		return kbModel.Document{}, err
	}
	if strings.TrimSpace(text) == "" {
		return kbModel.Document{}, kbModel.ErrNoChunks
	}
	return s.IngestText(ctx, filename, text)
}

func (s *service) ListDocuments(ctx context.Context) ([]kbModel.Document, error) {
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kbModel.ErrStorageFailed, err)
	}
	return docs, nil
}

// DeleteDocument removes the document and exactly the chunks carrying its id.
func (s *service) DeleteDocument(ctx context.Context, id string) (int, error) {
	log := s.logger.With("traceId", config.TraceID(ctx), "documentId", id)

	_, found, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", kbModel.ErrStorageFailed, err)
	}
	if !found {
		return 0, kbModel.ErrDocumentNotFound
	}

	removed, err := s.chunks.DeleteByDocument(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", kbModel.ErrStorageFailed, err)
	}
	if err := s.docs.DeleteDocument(ctx, id); err != nil {
		return removed, fmt.Errorf("%w: %w", kbModel.ErrStorageFailed, err)
	}
	s.invalidateCache(ctx)

	log.Info("Document deleted", "chunksRemoved", removed)
	return removed, nil
}

func (s *service) Stats(ctx context.Context) (kbModel.Stats, error) {
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return kbModel.Stats{}, fmt.Errorf("%w: %w", kbModel.ErrStorageFailed, err)
	}
	chunkCount, err := s.chunks.CountChunks(ctx)
	if err != nil {
		return kbModel.Stats{}, fmt.Errorf("%w: %w", kbModel.ErrStorageFailed, err)
	}

	stats := kbModel.Stats{
		TotalDocuments: len(docs),
		TotalChunks:    chunkCount,
	}
	for _, d := range docs {
		stats.TotalTokens += d.TotalTokens
	}
	if len(docs) > 0 {
		stats.AvgChunksPerDoc = math.Round(float64(chunkCount)/float64(len(docs))*10) / 10
	}
	return stats, nil
}

// ProcessRequest answers an asynchronous ask job.
func (s *service) ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.With("traceId", config.TraceID(ctx), "jobId", job.Id)
	job = logOutput(job, jobModel.AskInit, log)

	answer, err := s.ask(ctx, job.JobPayload.Question, job.JobPayload.TopK, func(step jobModel.InternalStatus) {
		job = logOutput(job, step, log)
	})
	if err != nil {
		return s.jobError(job, err)
	}
	return returnOutput(job, answer)
}

// IngestDocument ingests the uploaded file referenced by an asynchronous ingest job.
func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.With("traceId", config.TraceID(ctx), "jobId", job.Id)
	job = logOutput(job, jobModel.IngestExtracting, log)

	doc, err := s.IngestFile(ctx, job.JobPayload.IngestFileName, job.JobPayload.IngestPath)
	if err != nil {
		return s.jobError(job, err)
	}

	job.JobPayload.DocumentId = doc.ID
	job.JobPayload.ChunkCount = doc.ChunkCount
	job.CurrentStep = jobModel.Complete
	return job
}
