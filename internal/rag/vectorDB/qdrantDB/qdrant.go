package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/rag/vectorDB"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var (
	_ vectorDB.ChunkIndex  = (*ChunkStore)(nil)
	_ vectorDB.AnswerCache = (*SemanticCache)(nil)
)

const documentIdField = "document_id"

// ClientHolder owns the gRPC connection shared by the chunk store and the semantic cache.
type ClientHolder struct {
	QObj      *qdrant.Client
	cfg       config.QdrantConfig
	dimension uint64
	logger    *logger_i.Logger
}

// Connect dials Qdrant and makes sure both collections exist with the given vector size.
func Connect(ctx context.Context, cfg config.QdrantConfig, dimension int) (*ClientHolder, error) {
	logger := logger_i.NewLogger("Qdrant")

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		APIKey:   cfg.APIKey,
		UseTLS:   cfg.UseTLS,
		PoolSize: uint(cfg.PoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}

	holder := &ClientHolder{
		QObj:      client,
		cfg:       cfg,
		dimension: uint64(dimension),
		logger:    logger,
	}
	if err := holder.EnsureCollections(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	logger.Info("Qdrant ready", "host", cfg.Host, "port", cfg.Port, "chunks", cfg.ChunkCollection)
	return holder, nil
}

func (db *ClientHolder) EnsureCollections(ctx context.Context) error {
	if err := createCollection(ctx, db.QObj, db.cfg.ChunkCollection, db.dimension); err != nil {
		return fmt.Errorf("collection %s: %w", db.cfg.ChunkCollection, err)
	}
	// deletes filter on document_id, so index it
	_, err := db.QObj.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: db.cfg.ChunkCollection,
		FieldName:      documentIdField,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		db.logger.Warn("could not create payload index", "field", documentIdField, "err", err)
	}
	if err := createCollection(ctx, db.QObj, db.cfg.CacheCollection, db.dimension); err != nil {
		return fmt.Errorf("collection %s: %w", db.cfg.CacheCollection, err)
	}
	return nil
}

func (db *ClientHolder) Close() error {
	db.logger.Info("Shutting down Qdrant")
	return db.QObj.Close()
}

func (db *ClientHolder) Chunks() *ChunkStore {
	return &ChunkStore{db: db, collection: db.cfg.ChunkCollection}
}

func (db *ClientHolder) Cache(cutoff float32) *SemanticCache {
	return &SemanticCache{db: db, collection: db.cfg.CacheCollection, cutoff: cutoff}
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string, dimension uint64) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

// ChunkStore keeps one point per chunk; the point id is the chunk id.
type ChunkStore struct {
	db         *ClientHolder
	collection string
}

func (s *ChunkStore) UpsertChunks(ctx context.Context, chunks []kbModel.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ID),
			Vectors: qdrant.NewVectors(chunk.Vector...),
			Payload: qdrant.NewValueMap(chunkPayload(chunk)),
		}
	}

	_, err := s.db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// Sample scrolls in point id order, which is stable between calls.
func (s *ChunkStore) Sample(ctx context.Context, limit int) ([]kbModel.Chunk, error) {
	if limit <= 0 {
		return []kbModel.Chunk{}, nil
	}
	points, err := s.db.QObj.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant scroll failed: %w", err)
	}
	out := make([]kbModel.Chunk, 0, len(points))
	for _, p := range points {
		out = append(out, chunkFromPayload(p.GetId().GetUuid(), p.GetPayload()))
	}
	return out, nil
}

func (s *ChunkStore) ChunksByDocument(ctx context.Context, documentID string) ([]kbModel.Chunk, error) {
	filter := documentFilter(documentID)
	n, err := s.db.QObj.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant count failed: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	points, err := s.db.QObj.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint32(n)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant scroll failed: %w", err)
	}

	out := make([]kbModel.Chunk, 0, len(points))
	for _, p := range points {
		c := chunkFromPayload(p.GetId().GetUuid(), p.GetPayload())
		c.Vector = p.GetVectors().GetVector().GetData()
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	filter := documentFilter(documentID)
	n, err := s.db.QObj.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count failed: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	_, err = s.db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant delete failed: %w", err)
	}
	s.db.logger.Debug("Deleted chunks", "documentId", documentID, "count", n)
	return int(n), nil
}

func (s *ChunkStore) CountChunks(ctx context.Context) (int, error) {
	n, err := s.db.QObj.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count failed: %w", err)
	}
	return int(n), nil
}

func (s *ChunkStore) SimilaritySearch(ctx context.Context, vector []float32, topK int) ([]kbModel.ScoredChunk, error) {
	loggr := s.db.logger.With("traceId", config.TraceID(ctx))
	result, err := s.db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant", "err", err)
		return nil, err
	}

	hits := make([]kbModel.ScoredChunk, 0, len(result))
	for _, hit := range result {
		score := float64(hit.GetScore())
		hits = append(hits, kbModel.ScoredChunk{
			Chunk: chunkFromPayload(hit.GetId().GetUuid(), hit.GetPayload()),
			Score: &score,
		})
	}
	loggr.Debug("Found matches", "count", len(hits))
	return hits, nil
}

func documentFilter(documentID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(documentIdField, documentID)},
	}
}

func chunkPayload(c kbModel.Chunk) map[string]any {
	return map[string]any{
		"text":          c.Text,
		documentIdField: c.DocumentID,
		"document_name": c.DocumentName,
		"chunk_index":   c.ChunkIndex,
		"token_count":   c.TokenCount,
	}
}

func chunkFromPayload(id string, payload map[string]*qdrant.Value) kbModel.Chunk {
	return kbModel.Chunk{
		ID:           id,
		DocumentID:   payload[documentIdField].GetStringValue(),
		DocumentName: payload["document_name"].GetStringValue(),
		ChunkIndex:   int(payload["chunk_index"].GetIntegerValue()),
		Text:         payload["text"].GetStringValue(),
		TokenCount:   int(payload["token_count"].GetIntegerValue()),
	}
}
