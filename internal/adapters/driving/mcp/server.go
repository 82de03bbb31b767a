package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/finrag/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// shutdownGrace bounds how long in-flight HTTP requests may run after the
// serving context ends. An ask holds a request for up to the pipeline timeout.
const shutdownGrace = 5 * time.Second

// Server exposes the finrag pipeline, forecasting and index state as MCP
// tools and resources.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a server. Only the pipeline port is required; tools for
// the other ports are registered when they are set.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports}
	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "finrag", Version: Version},
		&mcp.ServerOptions{Instructions: instructions(ports)},
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// instructions tells clients which of the optional tools this server carries.
func instructions(p *Ports) string {
	var b strings.Builder
	b.WriteString("Use ask for financial questions; it answers from news, company reports, ")
	b.WriteString("economic indicators and prices, and forecasts when a company is named.")
	if p.Extraction != nil {
		b.WriteString(" extract_parameters shows the ticker and period a question resolves to.")
	}
	if p.Fusion != nil {
		b.WriteString(" retrieve returns the raw matches per index.")
	}
	if p.Forecast != nil {
		b.WriteString(" forecast and technical_indicators work on stored daily closes and need a ticker.")
	}
	if p.Index != nil {
		b.WriteString(" index_status and the finrag://indices resources report which indices are built.")
	}
	return b.String()
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("mcp: serving on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler for mounting elsewhere.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP listens on addr and serves streamable HTTP until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mcp: listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests for up to shutdownGrace.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: shutdown: %v", err)
		}
	}()

	logger.Info("MCP server listening on %s", ln.Addr())
	err := httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
