package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "finrag")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigStore_PersistsNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("pipeline.top_k", 12))
	require.NoError(t, store.Set("llm.temperature", 0.2))
	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, store.Set("gate.enabled", true))
	require.NoError(t, store.Set("ingest.symbols", []string{"AAPL", "MSFT"}))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[pipeline]")
	assert.Contains(t, string(raw), "top_k = 12")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 12, reloaded.GetInt("pipeline.top_k"))
	assert.InDelta(t, 0.2, reloaded.GetFloat("llm.temperature"), 1e-9)
	assert.Equal(t, "openai", reloaded.GetString("llm.provider"))
	assert.True(t, reloaded.GetBool("gate.enabled"))
	assert.Equal(t, []string{"AAPL", "MSFT"}, reloaded.GetStringSlice("ingest.symbols"))
}

func TestConfigStore_LoadHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[embedding]
provider = "gemini"
dimensions = 768

[retry]
max_attempts = 3
min_wait_seconds = 2.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "gemini", store.GetString("embedding.provider"))
	assert.Equal(t, 768, store.GetInt("embedding.dimensions"))
	assert.Equal(t, 3, store.GetInt("retry.max_attempts"))
	assert.Equal(t, 2, store.GetInt("retry.min_wait_seconds"))
	assert.InDelta(t, 768.0, store.GetFloat("embedding.dimensions"), 1e-9)
}

func TestConfigStore_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_WrongTypes(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.model", 1))

	assert.Empty(t, store.GetString("llm.model"))
	assert.False(t, store.GetBool("llm.model"))
	assert.Nil(t, store.GetStringSlice("llm.model"))
	assert.Zero(t, store.GetInt("missing"))
}

func TestNestMap_RoundTripsFlatten(t *testing.T) {
	flat := map[string]any{"a.b.c": 1, "a.d": "x", "e": true}

	nested := nestMap(flat)

	assert.Equal(t, "x", nested["a"].(map[string]any)["d"])
	assert.Equal(t, flat, flattenMap(nested, ""))
}

func TestConfigStore_SetMatchesReloadedShape(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("pipeline.degree", 8))
	require.NoError(t, store.Set("ingest.topics", []string{"inflation"}))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)

	for _, key := range []string{"pipeline.degree", "ingest.topics"} {
		before, _ := store.Get(key)
		after, _ := reloaded.Get(key)
		assert.Equal(t, after, before, key)
	}
}
