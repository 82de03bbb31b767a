package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.Equal(t, ":memory:", store.Path())
	assert.Empty(t, store.Snapshot())
}

func TestConfigStore_SetNormalizesLikeTOML(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("pipeline.top_k", 10))
	require.NoError(t, store.Set("pipeline.top_k", 12))
	require.NoError(t, store.Set("ingest.symbols", []string{"AAPL", "MSFT"}))

	val, ok := store.Get("pipeline.top_k")
	assert.True(t, ok)
	assert.Equal(t, int64(12), val)

	val, _ = store.Get("ingest.symbols")
	assert.Equal(t, []any{"AAPL", "MSFT"}, val)

	_, ok = store.Get("pipeline.degree")
	assert.False(t, ok)
	assert.Equal(t, 2, store.Saves())
}

func TestNewConfigStoreFrom(t *testing.T) {
	store := NewConfigStoreFrom(map[string]any{
		"llm.model":       "gemini-1.5-flash",
		"llm.temperature": float32(0.5),
		"pipeline.degree": 8,
		"gate.enabled":    true,
		"ingest.topics":   []string{"inflation", "rates"},
	})

	assert.Equal(t, "gemini-1.5-flash", store.GetString("llm.model"))
	assert.InDelta(t, 0.5, store.GetFloat("llm.temperature"), 1e-9)
	assert.Equal(t, 8, store.GetInt("pipeline.degree"))
	assert.True(t, store.GetBool("gate.enabled"))
	assert.Equal(t, []string{"inflation", "rates"}, store.GetStringSlice("ingest.topics"))
	assert.Zero(t, store.Saves())
}

func TestConfigStore_WrongTypesReturnZeroValues(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("llm.model", 12)
	_ = store.Set("pipeline.top_k", "ten")
	_ = store.Set("gate.enabled", "yes")
	_ = store.Set("ingest.symbols", "AAPL")

	assert.Empty(t, store.GetString("llm.model"))
	assert.Zero(t, store.GetInt("pipeline.top_k"))
	assert.Zero(t, store.GetFloat("pipeline.top_k"))
	assert.False(t, store.GetBool("gate.enabled"))
	assert.Nil(t, store.GetStringSlice("ingest.symbols"))
	assert.Empty(t, store.GetString("missing"))
}

func TestConfigStore_SnapshotIsACopy(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("llm.model", "m")

	snap := store.Snapshot()
	snap["llm.model"] = "changed"

	require.NoError(t, store.Save())
	require.NoError(t, store.Load())
	assert.Equal(t, "m", store.GetString("llm.model"))
	assert.Equal(t, 2, store.Saves())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key.%d", n))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key.%d", i)))
	}
	assert.Equal(t, 50, store.Saves())
}
