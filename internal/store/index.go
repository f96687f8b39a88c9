// Package store holds the in-memory semantic index over projects and news.
// Documents live in a private SQLite database; nothing is persisted.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"floodguard/internal/embedding"
	"floodguard/internal/logging"
)

// Collection names.
const (
	CollectionProjects = "projects"
	CollectionNews     = "news"
)

var (
	ErrLengthMismatch = errors.New("documents, metadatas and ids must have the same length")
	ErrClosed         = errors.New("vector index is closed")
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	content TEXT NOT NULL,
	embedding TEXT,
	metadata TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (collection, id)
);`

// Hit is one ranked query result.
type Hit struct {
	ID       string         `json:"id"`
	Document string         `json:"document"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// VectorIndex stores documents with optional embeddings. Without an engine,
// queries are scored by term overlap.
type VectorIndex struct {
	db     *sql.DB
	mu     sync.RWMutex
	engine embedding.Engine
	closed bool
}

// NewVectorIndex opens an in-memory index. engine may be nil.
func NewVectorIndex(engine embedding.Engine) (*VectorIndex, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewVectorIndex")
	defer timer.Stop()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	name := "keyword"
	if engine != nil {
		name = engine.Name()
	}
	logging.Store("Vector index ready (scoring=%s)", name)
	return &VectorIndex{db: db, engine: engine}, nil
}

// Semantic reports whether an embedding engine is attached.
func (v *VectorIndex) Semantic() bool { return v.engine != nil }

// Close releases the database.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	return v.db.Close()
}

// Add upserts documents into collection. Embedding failures are logged and
// the documents are stored for keyword scoring only.
func (v *VectorIndex) Add(ctx context.Context, collection string, docs []string, metadatas []map[string]any, ids []string) error {
	if len(docs) != len(ids) || (metadatas != nil && len(metadatas) != len(docs)) {
		return ErrLengthMismatch
	}
	if len(docs) == 0 {
		return nil
	}

	timer := logging.StartTimer(logging.CategoryStore, "VectorIndex.Add")
	defer timer.Stop()

	var vectors [][]float32
	if v.engine != nil {
		vecs, err := v.engine.EmbedBatch(ctx, docs)
		switch {
		case err != nil:
			logging.StoreWarn("embedding %d %s documents failed, storing without vectors: %v", len(docs), collection, err)
		case len(vecs) != len(docs):
			logging.StoreWarn("embedding returned %d vectors for %d documents, storing without vectors", len(vecs), len(docs))
		default:
			vectors = vecs
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO documents (collection, id, content, embedding, metadata) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, doc := range docs {
		var embeddingJSON, metaJSON sql.NullString
		if vectors != nil {
			b, err := json.Marshal(vectors[i])
			if err != nil {
				return fmt.Errorf("failed to serialize embedding: %w", err)
			}
			embeddingJSON = sql.NullString{String: string(b), Valid: true}
		}
		if metadatas != nil && metadatas[i] != nil {
			b, err := json.Marshal(metadatas[i])
			if err != nil {
				return fmt.Errorf("failed to serialize metadata for %s: %w", ids[i], err)
			}
			metaJSON = sql.NullString{String: string(b), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, collection, ids[i], doc, embeddingJSON, metaJSON); err != nil {
			return fmt.Errorf("failed to insert %s: %w", ids[i], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	logging.StoreDebug("added %d documents to %s (embedded=%t)", len(docs), collection, vectors != nil)
	return nil
}

// Count returns the number of documents in collection.
func (v *VectorIndex) Count(ctx context.Context, collection string) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return 0, ErrClosed
	}
	var n int
	err := v.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE collection = ?", collection).Scan(&n)
	return n, err
}

type storedDoc struct {
	id        string
	content   string
	embedding []float32
	metadata  map[string]any
}

// Query returns up to n documents from collection ranked against text.
// filters are exact-match on metadata; slice values mean membership.
func (v *VectorIndex) Query(ctx context.Context, collection, text string, filters map[string]any, n int) ([]Hit, error) {
	if n <= 0 {
		n = 10
	}
	timer := logging.StartTimer(logging.CategoryStore, "VectorIndex.Query")
	defer timer.Stop()

	docs, err := v.load(ctx, collection, filters)
	if err != nil {
		return nil, err
	}

	if v.engine != nil {
		qvec, err := v.engine.Embed(ctx, text)
		if err == nil {
			return semanticHits(qvec, docs, n), nil
		}
		logging.StoreWarn("query embedding failed, using keyword scoring: %v", err)
	}
	return keywordHits(text, docs, n), nil
}

func (v *VectorIndex) load(ctx context.Context, collection string, filters map[string]any) ([]storedDoc, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return nil, ErrClosed
	}

	rows, err := v.db.QueryContext(ctx,
		"SELECT id, content, embedding, metadata FROM documents WHERE collection = ? ORDER BY created_at, rowid", collection)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var docs []storedDoc
	for rows.Next() {
		var d storedDoc
		var embeddingJSON, metaJSON sql.NullString
		if err := rows.Scan(&d.id, &d.content, &embeddingJSON, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if metaJSON.Valid {
			if err := json.Unmarshal([]byte(metaJSON.String), &d.metadata); err != nil {
				logging.StoreWarn("skipping %s: bad metadata: %v", d.id, err)
				continue
			}
		}
		if !matchFilters(d.metadata, filters) {
			continue
		}
		if embeddingJSON.Valid {
			if err := json.Unmarshal([]byte(embeddingJSON.String), &d.embedding); err != nil {
				logging.StoreWarn("ignoring bad embedding for %s: %v", d.id, err)
				d.embedding = nil
			}
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func semanticHits(qvec []float32, docs []storedDoc, n int) []Hit {
	var corpus [][]float32
	var owners []int
	for i, d := range docs {
		if d.embedding != nil {
			corpus = append(corpus, d.embedding)
			owners = append(owners, i)
		}
	}
	top := embedding.FindTopK(qvec, corpus, n)
	hits := make([]Hit, 0, len(top))
	for _, r := range top {
		d := docs[owners[r.Index]]
		hits = append(hits, Hit{ID: d.id, Document: d.content, Score: r.Similarity, Metadata: d.metadata})
	}
	return hits
}

// keywordHits scores documents by the fraction of query terms they contain.
func keywordHits(text string, docs []storedDoc, n int) []Hit {
	terms := queryTerms(text)
	if len(terms) == 0 {
		return []Hit{}
	}

	hits := []Hit{}
	for _, d := range docs {
		content := strings.ToLower(d.content)
		matched := 0
		for _, t := range terms {
			if strings.Contains(content, t) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, Hit{
			ID:       d.id,
			Document: d.content,
			Score:    float64(matched) / float64(len(terms)),
			Metadata: d.metadata,
		})
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(hits) > n {
		hits = hits[:n]
	}
	return hits
}

func queryTerms(text string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.Trim(f, ".,;:!?\"'()")
		if len(f) < 2 || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}
