package driven

import (
	"context"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

// IndexStore persists one vector index per domain.
//
// Presence is the only freshness signal: once Save succeeds for a domain,
// Exists reports true until Delete is called.
type IndexStore interface {
	// Exists reports whether a persisted index is present for the domain.
	Exists(ctx context.Context, d domain.Domain) (bool, error)

	// Load returns the persisted index. Returns domain.ErrNotFound when absent.
	Load(ctx context.Context, d domain.Domain) (*domain.VectorIndex, error)

	// Save persists the index under idx.Domain.
	Save(ctx context.Context, idx *domain.VectorIndex) error

	// Delete removes the persisted index. Deleting an absent index is not an error.
	Delete(ctx context.Context, d domain.Domain) error

	// Close releases resources.
	Close() error
}
