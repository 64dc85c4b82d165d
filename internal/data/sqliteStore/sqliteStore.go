// Package sqliteStore persists documents and chunk vectors in a single SQLite file.
// Similarity search is brute force over the stored vectors.
package sqliteStore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
	"github.com/akolanti/KnowledgeBase/internal/rag/vectorDB"
	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
)

//go:embed migrations/*.up.sql
var migrationFS embed.FS

// fixed width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	_ kbModel.DocumentStore = (*Store)(nil)
	_ vectorDB.ChunkIndex   = (*Store)(nil)
)

type Store struct {
	db     *sql.DB
	path   string
	logger *logger_i.Logger
}

// Open creates the database file if needed and applies pending migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger_i.NewLogger("SQLite Store")}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	s.logger.Info("SQLite store ready", "path", path)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(migrationFS, "migrations/"+name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		s.logger.Debug("Applied migration", "name", name)
	}
	return nil
}

// ==================== Documents ====================

func (s *Store) SaveDocument(ctx context.Context, doc kbModel.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, chunk_count, total_tokens, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			chunk_count = excluded.chunk_count,
			total_tokens = excluded.total_tokens,
			created_at = excluded.created_at
	`, doc.ID, doc.Filename, doc.ChunkCount, doc.TotalTokens, doc.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (kbModel.Document, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, chunk_count, total_tokens, created_at
		FROM documents WHERE id = ?
	`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return kbModel.Document{}, false, nil
	}
	if err != nil {
		return kbModel.Document{}, false, err
	}
	return doc, true, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]kbModel.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, chunk_count, total_tokens, created_at
		FROM documents ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	docs := []kbModel.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (kbModel.Document, error) {
	var doc kbModel.Document
	var created string
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.ChunkCount, &doc.TotalTokens, &created); err != nil {
		return doc, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return doc, fmt.Errorf("parsing created_at of %s: %w", doc.ID, err)
	}
	doc.CreatedAt = t
	return doc, nil
}

// ==================== Chunks ====================

func (s *Store) UpsertChunks(ctx context.Context, chunks []kbModel.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, document_name, chunk_index, text, token_count, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			document_name = excluded.document_name,
			chunk_index = excluded.chunk_index,
			text = excluded.text,
			token_count = excluded.token_count,
			vector = excluded.vector
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.DocumentName, c.ChunkIndex,
			c.Text, c.TokenCount, encodeVector(c.Vector)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// Sample returns chunks in insertion order.
func (s *Store) Sample(ctx context.Context, limit int) ([]kbModel.Chunk, error) {
	return s.queryChunks(ctx, false, `
		SELECT id, document_id, document_name, chunk_index, text, token_count, vector
		FROM chunks ORDER BY rowid LIMIT ?
	`, limit)
}

func (s *Store) ChunksByDocument(ctx context.Context, documentID string) ([]kbModel.Chunk, error) {
	return s.queryChunks(ctx, true, `
		SELECT id, document_id, document_name, chunk_index, text, token_count, vector
		FROM chunks WHERE document_id = ? ORDER BY chunk_index
	`, documentID)
}

func (s *Store) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}

func (s *Store) SimilaritySearch(ctx context.Context, vector []float32, topK int) ([]kbModel.ScoredChunk, error) {
	all, err := s.queryChunks(ctx, true, `
		SELECT id, document_id, document_name, chunk_index, text, token_count, vector
		FROM chunks ORDER BY rowid
	`)
	if err != nil {
		return nil, err
	}

	hits := make([]kbModel.ScoredChunk, 0, len(all))
	for _, c := range all {
		score, err := vectorDB.CosineSimilarity(vector, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		c.Vector = nil
		hits = append(hits, kbModel.ScoredChunk{Chunk: c, Score: &score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return *hits[i].Score > *hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *Store) queryChunks(ctx context.Context, withVectors bool, query string, args ...any) ([]kbModel.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []kbModel.Chunk{}
	for rows.Next() {
		var c kbModel.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.DocumentName, &c.ChunkIndex, &c.Text, &c.TokenCount, &blob); err != nil {
			return nil, err
		}
		if withVectors {
			c.Vector = decodeVector(blob)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// encodeVector stores each component as a little-endian float32.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
