package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

func TestServices_Close_Nil(t *testing.T) {
	(&Services{}).Close()
}

func TestCreateEmbeddingService(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  bool
	}{
		{"nil settings", nil, true, false},
		{"unconfigured", &domain.EmbeddingSettings{Provider: domain.AIProviderGemini}, true, false},
		{"gemini", &domain.EmbeddingSettings{Provider: domain.AIProviderGemini, APIKey: "k"}, false, false},
		{"openai", &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(ctx, tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
			} else {
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	ctx := context.Background()

	svc, err := CreateLLMService(ctx, &domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", svc.ModelName())

	svc, err = CreateLLMService(ctx, &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", svc.ModelName())

	svc, err = CreateLLMService(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestNewServices_RequiresKeys(t *testing.T) {
	cfg := domain.DefaultAppConfig(t.TempDir())

	_, err := NewServices(context.Background(), &cfg)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	cfg.Embedding.APIKey = "k"
	_, err = NewServices(context.Background(), &cfg)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	cfg.LLM.APIKey = "k"
	services, err := NewServices(context.Background(), &cfg)
	require.NoError(t, err)
	defer services.Close()
	assert.NotNil(t, services.Embedding)
	assert.NotNil(t, services.LLM)
}

func TestConfigValidator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	v := NewConfigValidator()

	assert.NoError(t, v.ValidateEmbedding(nil))
	assert.NoError(t, v.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderOpenAI}))

	assert.NoError(t, v.ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOpenAI, APIKey: "good", BaseURL: server.URL,
	}))

	err := v.ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI, APIKey: "bad", BaseURL: server.URL,
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
