package driving

import (
	"context"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

// IndexService builds, loads and invalidates the per-domain vector indices.
type IndexService interface {
	// Ensure loads the persisted index, building it first when absent.
	Ensure(ctx context.Context, d domain.Domain) (*domain.VectorIndex, error)

	// EnsureAll ensures every domain, building missing ones concurrently.
	EnsureAll(ctx context.Context) error

	// Invalidate deletes the persisted index so the next Ensure rebuilds it.
	Invalidate(ctx context.Context, d domain.Domain) error

	// Status reports the persisted state of every domain.
	Status(ctx context.Context) ([]domain.IndexStatus, error)
}

// IngestService fetches source data from providers into the relational store.
type IngestService interface {
	// Run fetches, validates and stores records. Provider failures after retries
	// are returned wrapped in domain.ErrProvider alongside the partial summary.
	Run(ctx context.Context, req domain.IngestRequest) (*domain.IngestSummary, error)
}
