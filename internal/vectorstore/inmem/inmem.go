// Package inmem is a brute-force cosine-similarity vector store held in
// process memory. It backs tests and single-node deployments where running
// Qdrant is not worth it.
package inmem

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/queryhub-ai/queryhub/internal/vectorstore"
)

type Store struct {
	mu        sync.RWMutex
	dimension int
	chunks    []vectorstore.Chunk
	vectors   [][]float32
}

func NewStore() *Store { return &Store{} }

var _ vectorstore.Store = (*Store)(nil)

func (s *Store) EnsureCollection(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension {
		return errors.New("collection already exists with a different dimension")
	}
	s.dimension = dimension
	return nil
}

func (s *Store) Ready(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension == 0 {
		return errors.New("collection does not exist")
	}
	return nil
}

func (s *Store) Upsert(_ context.Context, chunks []vectorstore.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return errors.New("collection does not exist")
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *Store) Search(_ context.Context, vector []float32, topK int) ([]vectorstore.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension == 0 {
		return nil, errors.New("collection does not exist")
	}
	if topK <= 0 {
		topK = 3
	}

	results := make([]vectorstore.SearchResult, 0, len(s.vectors))
	for i := range s.vectors {
		results = append(results, vectorstore.SearchResult{
			Chunk: s.chunks[i],
			Score: cosineSimilarity(s.vectors[i], vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func (s *Store) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keptChunks := s.chunks[:0]
	keptVectors := s.vectors[:0]
	for i, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			continue
		}
		keptChunks = append(keptChunks, chunk)
		keptVectors = append(keptVectors, s.vectors[i])
	}
	s.chunks = keptChunks
	s.vectors = keptVectors
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, magA, magB float32
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		magA += v * v
	}
	for _, v := range b {
		magB += v * v
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(magA))) * float32(math.Sqrt(float64(magB))))
}
