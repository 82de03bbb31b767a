package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
type IndexStore struct {
	mu      sync.RWMutex
	indices map[domain.Domain]domain.VectorIndex
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		indices: make(map[domain.Domain]domain.VectorIndex),
	}
}

// Exists reports whether an index was saved for the domain.
func (s *IndexStore) Exists(_ context.Context, d domain.Domain) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indices[d]
	return ok, nil
}

// Load returns a copy of the saved index.
func (s *IndexStore) Load(_ context.Context, d domain.Domain) (*domain.VectorIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[d]
	if !ok {
		return nil, domain.ErrNotFound
	}
	idx.Chunks = append([]domain.IndexedChunk(nil), idx.Chunks...)
	return &idx, nil
}

// Save stores a copy of the index.
func (s *IndexStore) Save(_ context.Context, idx *domain.VectorIndex) error {
	if idx == nil || !idx.Domain.IsValid() {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *idx
	stored.Chunks = append([]domain.IndexedChunk(nil), idx.Chunks...)
	s.indices[idx.Domain] = stored
	return nil
}

// Delete removes the index for the domain.
func (s *IndexStore) Delete(_ context.Context, d domain.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indices, d)
	return nil
}

// Close is a no-op.
func (s *IndexStore) Close() error {
	return nil
}
