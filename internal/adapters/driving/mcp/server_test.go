package mcp

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil pipeline returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingPipelineService)
	})

	t.Run("pipeline only", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipeline{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("all ports", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Pipeline:   &mockPipeline{},
			Extraction: &mockExtraction{},
			Fusion:     &mockFusion{},
			Forecast:   &mockForecast{},
			Index:      &mockIndex{},
		})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	_, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestServer_InstructionsFollowPorts(t *testing.T) {
	t.Run("pipeline only", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipeline{}})
		require.NoError(t, err)

		session := connect(t, server)
		got := session.InitializeResult().Instructions
		assert.Contains(t, got, "Use ask")
		assert.NotContains(t, got, "forecast and technical_indicators")

		tools, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
		require.NoError(t, err)
		require.Len(t, tools.Tools, 1)
		assert.Equal(t, "ask", tools.Tools[0].Name)
	})

	t.Run("forecast and index", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipeline{}, Forecast: &mockForecast{}, Index: &mockIndex{}})
		require.NoError(t, err)

		got := connect(t, server).InitializeResult().Instructions
		assert.Contains(t, got, "forecast and technical_indicators")
		assert.Contains(t, got, "index_status")
		assert.NotContains(t, got, "retrieve")
	})
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{Pipeline: &mockPipeline{}})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownGrace + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
