package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

// uriScheme is the custom URI scheme for finrag resources.
const uriScheme = "finrag://"

// registerResources registers the index resources when an index port is set.
func (s *Server) registerResources() {
	if s.ports.Index == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "indices",
		Name:        "indices",
		Description: "Status of every domain vector index",
		MIMEType:    "application/json",
	}, s.handleIndicesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "indices/{domain}",
		Name:        "index",
		Description: "Status of one domain index (news, financial, economic, price)",
		MIMEType:    "application/json",
	}, s.handleIndexResource)
}

func (s *Server) handleIndicesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	statuses, err := s.ports.Index.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("index status: %w", err)
	}
	return jsonResource(req.Params.URI, statuses)
}

func (s *Server) handleIndexResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	d := extractDomain(req.Params.URI)
	if !d.IsValid() {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	statuses, err := s.ports.Index.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("index status: %w", err)
	}
	for _, st := range statuses {
		if st.Domain == d {
			return jsonResource(req.Params.URI, st)
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDomain extracts the domain from a URI like finrag://indices/{domain}.
func extractDomain(uri string) domain.Domain {
	const prefix = uriScheme + "indices/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return domain.Domain(strings.TrimPrefix(uri, prefix))
}
