package mcp

import (
	"github.com/custodia-labs/finrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server exposes.
type Ports struct {
	// Pipeline answers questions end to end.
	Pipeline driving.PipelineService

	// Extraction maps questions to query parameters.
	Extraction driving.ExtractionService

	// Fusion exposes raw multi-index retrieval.
	Fusion driving.FusionService

	// Forecast fits trends and computes indicators.
	Forecast driving.ForecastService

	// Index reports index state.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipelineService
	}
	return nil
}
