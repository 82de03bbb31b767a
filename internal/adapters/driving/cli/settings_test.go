package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

type mockSettingsService struct {
	cfg         *domain.AppConfig
	set         map[string]string
	setErr      error
	validateErr error
	pingErr     error
}

func newMockSettings() *mockSettingsService {
	cfg := domain.DefaultAppConfig("/tmp/finrag")
	return &mockSettingsService{cfg: &cfg, set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppConfig, error) { return m.cfg, nil }

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string { return []string{"llm.model", "llm.provider"} }

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.pingErr }

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Short key", "abc123", "****"},
		{"Exactly 8 chars", "12345678", "****"},
		{"Long key", "sk-1234567890abcdef", "sk-1...cdef"},
		{"Empty key", "", "(not set)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestIsSecretKey(t *testing.T) {
	assert.True(t, isSecretKey("embedding.api_key"))
	assert.True(t, isSecretKey("ingest.news_api_key"))
	assert.True(t, isSecretKey("store.dsn"))
	assert.False(t, isSecretKey("llm.model"))
}

func TestSettingsShow(t *testing.T) {
	mock := newMockSettings()
	mock.cfg.LLM.APIKey = "sk-1234567890abcdef"
	SetSettingsService(mock)
	defer SetSettingsService(nil)

	out, err := execute(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "AAPL, MSFT")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsSet(t *testing.T) {
	mock := newMockSettings()
	SetSettingsService(mock)
	defer SetSettingsService(nil)

	out, err := execute(t, "settings", "set", "llm.provider", "openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", mock.set["llm.provider"])
	assert.Contains(t, out, "llm.provider = openai")

	out, err = execute(t, "settings", "set", "llm.api_key", "sk-1234567890abcdef")
	require.NoError(t, err)
	assert.Contains(t, out, "llm.api_key = sk-1...cdef")

	_, err = execute(t, "settings", "set", "llm.model")
	assert.Error(t, err)

	mock.setErr = domain.ErrInvalidInput
	_, err = execute(t, "settings", "set", "bogus", "1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsKeys(t *testing.T) {
	SetSettingsService(newMockSettings())
	defer SetSettingsService(nil)

	out, err := execute(t, "settings", "keys")
	require.NoError(t, err)
	assert.Equal(t, "llm.model\nllm.provider\n", out)
}

func TestSettingsValidate(t *testing.T) {
	mock := newMockSettings()
	SetSettingsService(mock)
	defer SetSettingsService(nil)

	out, err := execute(t, "settings", "validate", "--ping")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings: ok")
	assert.Contains(t, out, "LLM provider... ok")

	mock.pingErr = errors.New("unreachable")
	_, err = execute(t, "settings", "validate", "--ping")
	assert.Error(t, err)

	mock.validateErr = domain.ErrInvalidInput
	_, err = execute(t, "settings", "validate")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettings_NotConfigured(t *testing.T) {
	SetSettingsService(nil)
	_, err := execute(t, "settings", "show")
	assert.Error(t, err)
}
