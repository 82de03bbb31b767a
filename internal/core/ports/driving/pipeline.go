package driving

import (
	"context"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

// PipelineService answers a question end to end.
type PipelineService interface {
	// Run sequences extraction, fusion, forecasting and report assembly
	// under the configured deadline. A deadline overrun returns domain.ErrTimeout
	// and no result.
	Run(ctx context.Context, question string) (*domain.PipelineResult, error)
}

// ExtractionService maps a question to structured query parameters.
type ExtractionService interface {
	// Extract never fails: unparseable responses yield all-null parameters.
	Extract(ctx context.Context, query string) domain.QueryParameters

	// ExtractDetailed returns the tagged outcome including the raw response.
	ExtractDetailed(ctx context.Context, query string) domain.ExtractionResult
}

// FusionService queries every domain index and synthesises a narrative.
type FusionService interface {
	// Fuse returns the narrative, or a sentinel error string on failure.
	Fuse(ctx context.Context, question string, k int) string

	// Retrieve returns the merged top-k matches per domain in fusion order.
	Retrieve(ctx context.Context, question string, k int) (domain.RetrievalResult, error)
}
