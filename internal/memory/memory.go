package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/embedding"
)

// Record is one remembered situation with the lesson learned from it.
type Record struct {
	Situation      string    `json:"situation"`
	Recommendation string    `json:"recommendation"`
	CreatedAt      time.Time `json:"created_at"`

	vector []float64
}

// Match is a retrieved record with its similarity to the query.
type Match struct {
	Record
	Similarity float64 `json:"similarity"`
}

// Store keeps per-agent situation memories and retrieves the most
// similar past situations by embedding distance. Safe for concurrent
// use; retrieval never mutates the store.
type Store struct {
	name     string
	embedder embedding.Embedder

	mu      sync.RWMutex
	records []Record
}

// NewStore creates an empty memory store for one agent.
func NewStore(name string, embedder embedding.Embedder) *Store {
	return &Store{name: name, embedder: embedder}
}

// Name returns the agent this store belongs to.
func (s *Store) Name() string {
	return s.name
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Add embeds and stores situation/recommendation pairs.
func (s *Store) Add(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Situation
	}

	vectors, err := s.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed situations for %s memory: %w", s.name, err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("embedder returned %d vectors for %d situations", len(vectors), len(records))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range records {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now()
		}
		r.vector = vectors[i]
		s.records = append(s.records, r)
	}
	return nil
}

// Retrieve returns up to topK records most similar to the situation,
// ordered by descending similarity. An empty store yields an empty
// slice, not an error.
func (s *Store) Retrieve(ctx context.Context, situation string, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	if len(s.records) == 0 {
		s.mu.RUnlock()
		return nil, nil
	}
	s.mu.RUnlock()

	vectors, err := s.embedder.EmbedStrings(ctx, []string{situation})
	if err != nil {
		return nil, fmt.Errorf("embed query for %s memory: %w", s.name, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}
	query := vectors[0]

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.records))
	for _, r := range s.records {
		matches = append(matches, Match{Record: r, Similarity: cosine(query, r.vector)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// FormatMatches renders retrieved memories for prompt injection. With
// no matches it notes the absence instead of returning empty text.
func FormatMatches(matches []Match) string {
	if len(matches) == 0 {
		return "No past memories found."
	}
	out := ""
	for i, m := range matches {
		out += fmt.Sprintf("Past lesson %d: %s\n", i+1, m.Recommendation)
	}
	return out
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
