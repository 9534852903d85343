package vector

import (
	"context"
	"math"
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore is an in-memory SemanticStore. It backs SQLite deployments
// (no pgvector there) and tests; documents live for the process lifetime.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[Collection]map[string]*memoryDoc
	embedder    Embedder
}

type memoryDoc struct {
	id        string
	document  string
	metadata  map[string]any
	embedding []float32
}

// NewMemoryStore creates an in-memory SemanticStore over the embedder.
func NewMemoryStore(embedder Embedder) *MemoryStore {
	return &MemoryStore{
		collections: make(map[Collection]map[string]*memoryDoc),
		embedder:    embedder,
	}
}

func (m *MemoryStore) AddDocument(ctx context.Context, collection Collection, id, text string, metadata map[string]any) error {
	embedding, err := m.embedder.Embedding(ctx, text)
	if err != nil {
		return errors.Wrap(err, "failed to embed document")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string]*memoryDoc)
		m.collections[collection] = docs
	}
	docs[id] = &memoryDoc{
		id:        id,
		document:  text,
		metadata:  metadata,
		embedding: embedding,
	}
	return nil
}

func (m *MemoryStore) Query(ctx context.Context, collection Collection, queryText string, n int, filter map[string]any) ([]QueryResult, error) {
	m.mu.RLock()
	empty := len(m.collections[collection]) == 0
	m.mu.RUnlock()
	if empty {
		return []QueryResult{}, nil
	}

	embedding, err := m.embedder.Embedding(ctx, queryText)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]QueryResult, 0, len(m.collections[collection]))
	for _, doc := range m.collections[collection] {
		if !matchesFilter(doc.metadata, filter) {
			continue
		}
		results = append(results, QueryResult{
			ID:       doc.id,
			Document: doc.document,
			Metadata: doc.metadata,
			Distance: cosineDistance(embedding, doc.embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if n > 0 && len(results) > n {
		results = results[:n]
	}
	return results, nil
}

func (m *MemoryStore) DeleteDocuments(_ context.Context, collection Collection, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.collections[collection]
	for _, id := range ids {
		delete(docs, id)
	}
	return nil
}

func (m *MemoryStore) Count(_ context.Context, collection Collection) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection]), nil
}

// matchesFilter requires every filter entry to equal the stored metadata
// value. DeepEqual because metadata values may hold maps or slices, which
// the == operator panics on.
func matchesFilter(metadata, filter map[string]any) bool {
	for k, v := range filter {
		if metadata == nil || !reflect.DeepEqual(metadata[k], v) {
			return false
		}
	}
	return true
}

// cosineDistance returns 1 - cosine similarity, matching the pgvector <=>
// operator. Mismatched or zero vectors are reported as maximally distant.
func cosineDistance(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}
