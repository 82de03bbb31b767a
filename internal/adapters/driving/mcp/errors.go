// Package mcp provides an MCP (Model Context Protocol) server adapter for finrag.
// It lets AI assistants ask financial questions and run forecasts through the pipeline.
package mcp

import "errors"

// ErrMissingPipelineService is returned when the pipeline service is not provided.
var ErrMissingPipelineService = errors.New("mcp: pipeline service is required")
