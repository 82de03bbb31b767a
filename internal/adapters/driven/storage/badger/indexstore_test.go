package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

func newTestStore(t *testing.T) *IndexStore {
	t.Helper()
	store, err := NewInMemoryIndexStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleIndex(d domain.Domain, n int) *domain.VectorIndex {
	idx := &domain.VectorIndex{Domain: d, Dimension: 3, Model: "text-embedding-004"}
	for i := 0; i < n; i++ {
		idx.Chunks = append(idx.Chunks, domain.IndexedChunk{
			Chunk: domain.Chunk{
				ID:        fmt.Sprintf("chunk-%d", i),
				Domain:    d,
				Text:      fmt.Sprintf("text %d", i),
				SourceTag: "stock_price_summary:AAPL",
				Position:  i,
			},
			Embedding: []float32{float32(i), 1, 0},
		})
	}
	return idx
}

func TestIndexStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Exists(ctx, domain.DomainPrice)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, sampleIndex(domain.DomainPrice, 12)))

	ok, err = store.Exists(ctx, domain.DomainPrice)
	require.NoError(t, err)
	assert.True(t, ok)

	idx, err := store.Load(ctx, domain.DomainPrice)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Dimension)
	assert.Equal(t, "text-embedding-004", idx.Model)
	assert.False(t, idx.CreatedAt.IsZero())
	require.Equal(t, 12, idx.Len())
	for i, c := range idx.Chunks {
		assert.Equal(t, fmt.Sprintf("chunk-%d", i), c.Chunk.ID)
		assert.Equal(t, domain.DomainPrice, c.Chunk.Domain)
		assert.Equal(t, []float32{float32(i), 1, 0}, c.Embedding)
	}
}

func TestIndexStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleIndex(domain.DomainNews, 5)))
	require.NoError(t, store.Save(ctx, sampleIndex(domain.DomainNews, 2)))

	idx, err := store.Load(ctx, domain.DomainNews)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
}

func TestIndexStore_DomainsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleIndex(domain.DomainNews, 3)))
	require.NoError(t, store.Save(ctx, sampleIndex(domain.DomainEconomic, 4)))
	require.NoError(t, store.Delete(ctx, domain.DomainNews))

	_, err := store.Load(ctx, domain.DomainNews)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	idx, err := store.Load(ctx, domain.DomainEconomic)
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())
}

func TestIndexStore_Delete_Absent(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Delete(context.Background(), domain.DomainFinancial))
}

func TestIndexStore_Save_Invalid(t *testing.T) {
	store := newTestStore(t)
	assert.ErrorIs(t, store.Save(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(context.Background(), &domain.VectorIndex{Domain: "weather"}), domain.ErrInvalidInput)
}

func TestIndexStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewIndexStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sampleIndex(domain.DomainFinancial, 3)))
	require.NoError(t, store.Close())

	reopened, err := NewIndexStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	idx, err := reopened.Load(ctx, domain.DomainFinancial)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, dir, reopened.Path())
}
