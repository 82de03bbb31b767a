package driven

import (
	"context"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

// ReportRenderer renders an assembled report to a document.
type ReportRenderer interface {
	// Render writes the report and returns the output path.
	Render(ctx context.Context, report *domain.Report) (string, error)
}

// RunGate guards pipeline runs with an API key and minimum interval.
type RunGate interface {
	// Admit returns nil when the run may proceed and records the run time.
	// Returns domain.ErrUnauthorized or domain.ErrRunThrottled otherwise.
	Admit(ctx context.Context) error
}
