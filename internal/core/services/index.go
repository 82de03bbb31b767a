package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/core/ports/driving"
	"github.com/custodia-labs/finrag/internal/logger"
	"github.com/custodia-labs/finrag/internal/postprocessors/chunker"
)

// Ensure IndexManager implements the interface.
var _ driving.IndexService = (*IndexManager)(nil)

// defaultEmbedBatch bounds the number of chunks sent per embedding request.
const defaultEmbedBatch = 100

// IndexManager builds and loads one vector index per domain.
//
// Builds are presence-based: when the store already holds an index for a
// domain it is loaded as-is and nothing is re-embedded, even if the source
// data changed since. Invalidate forces the next Ensure to rebuild.
type IndexManager struct {
	store     driven.IndexStore
	embedder  driven.EmbeddingService
	source    BlockSource
	splitter  *chunker.Splitter
	batchSize int
	now       func() time.Time

	mu     sync.Mutex
	locks  map[domain.Domain]*sync.Mutex
	loaded map[domain.Domain]*domain.VectorIndex
}

// NewIndexManager creates an index manager.
func NewIndexManager(
	store driven.IndexStore,
	embedder driven.EmbeddingService,
	source BlockSource,
	splitter *chunker.Splitter,
) *IndexManager {
	if splitter == nil {
		splitter = chunker.New()
	}
	return &IndexManager{
		store:     store,
		embedder:  embedder,
		source:    source,
		splitter:  splitter,
		batchSize: defaultEmbedBatch,
		now:       time.Now,
		locks:     make(map[domain.Domain]*sync.Mutex),
		loaded:    make(map[domain.Domain]*domain.VectorIndex),
	}
}

// SetBatchSize overrides the embedding batch size.
func (m *IndexManager) SetBatchSize(n int) {
	if n > 0 {
		m.batchSize = n
	}
}

func (m *IndexManager) domainLock(d domain.Domain) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[d]
	if !ok {
		l = &sync.Mutex{}
		m.locks[d] = l
	}
	return l
}

func (m *IndexManager) cached(d domain.Domain) *domain.VectorIndex {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded[d]
}

func (m *IndexManager) remember(idx *domain.VectorIndex) {
	CacheNorms(idx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded[idx.Domain] = idx
}

// Ensure loads the persisted index for d, building it first when absent.
// An empty source yields an empty, unpersisted index.
func (m *IndexManager) Ensure(ctx context.Context, d domain.Domain) (*domain.VectorIndex, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("%w: domain %q", domain.ErrInvalidInput, d)
	}

	lock := m.domainLock(d)
	lock.Lock()
	defer lock.Unlock()

	if idx := m.cached(d); idx != nil {
		return idx, nil
	}

	exists, err := m.store.Exists(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", d, err)
	}

	if exists {
		logger.Debug("Index %s present, loading without rebuild", d)
		idx, err := m.store.Load(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("load index %s: %w", d, err)
		}
		if err := m.checkDimension(idx); err != nil {
			return nil, err
		}
		m.remember(idx)
		return idx, nil
	}

	idx, err := m.build(ctx, d)
	if err != nil {
		return nil, err
	}
	if idx.Len() > 0 {
		m.remember(idx)
	}
	return idx, nil
}

func (m *IndexManager) checkDimension(idx *domain.VectorIndex) error {
	if m.embedder == nil || idx.Len() == 0 {
		return nil
	}
	want := m.embedder.Dimensions()
	if want > 0 && idx.Dimension > 0 && want != idx.Dimension {
		return fmt.Errorf("index %s: %w: persisted %d, embedder %d",
			idx.Domain, domain.ErrDimensionMismatch, idx.Dimension, want)
	}
	return nil
}

func (m *IndexManager) build(ctx context.Context, d domain.Domain) (*domain.VectorIndex, error) {
	logger.Section("Index Build: " + d.String())

	blocks, err := m.source.Blocks(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("build index %s: %w", d, err)
	}

	var chunks []domain.Chunk
	for _, b := range blocks {
		chunks = append(chunks, m.splitter.Split(b)...)
	}
	logger.Debug("Derived %d blocks into %d chunks", len(blocks), len(chunks))

	idx := &domain.VectorIndex{Domain: d, CreatedAt: m.now().UTC()}
	if len(chunks) == 0 {
		logger.Warn("No source data for %s index, skipping build", d)
		return idx, nil
	}

	if m.embedder == nil {
		return nil, fmt.Errorf("build index %s: %w", d, domain.ErrEmbeddingUnavailable)
	}
	idx.Model = m.embedder.ModelName()

	idx.Chunks = make([]domain.IndexedChunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += m.batchSize {
		end := min(start+m.batchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		vectors, err := m.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed %s chunks: %w", d, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embed %s chunks: expected %d vectors, got %d", d, len(texts), len(vectors))
		}
		for i, v := range vectors {
			idx.Chunks = append(idx.Chunks, domain.IndexedChunk{Chunk: chunks[start+i], Embedding: v})
		}
	}
	idx.Dimension = len(idx.Chunks[0].Embedding)

	if err := m.store.Save(ctx, idx); err != nil {
		return nil, fmt.Errorf("save index %s: %w", d, err)
	}
	logger.Info("Built %s index: %d chunks, dimension %d", d, idx.Len(), idx.Dimension)
	return idx, nil
}

// EnsureAll ensures every domain. Domains are independent, so builds run concurrently.
func (m *IndexManager) EnsureAll(ctx context.Context) error {
	domains := domain.AllDomains()
	errs := make([]error, len(domains))

	var wg sync.WaitGroup
	for i, d := range domains {
		wg.Add(1)
		go func(i int, d domain.Domain) {
			defer wg.Done()
			_, errs[i] = m.Ensure(ctx, d)
		}(i, d)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Invalidate deletes the persisted index so the next Ensure rebuilds it.
func (m *IndexManager) Invalidate(ctx context.Context, d domain.Domain) error {
	if !d.IsValid() {
		return fmt.Errorf("%w: domain %q", domain.ErrInvalidInput, d)
	}

	lock := m.domainLock(d)
	lock.Lock()
	defer lock.Unlock()

	if err := m.store.Delete(ctx, d); err != nil {
		return fmt.Errorf("invalidate index %s: %w", d, err)
	}
	m.mu.Lock()
	delete(m.loaded, d)
	m.mu.Unlock()

	logger.Info("Invalidated %s index", d)
	return nil
}

// Status reports the persisted state of every domain.
func (m *IndexManager) Status(ctx context.Context) ([]domain.IndexStatus, error) {
	statuses := make([]domain.IndexStatus, 0, len(domain.AllDomains()))
	for _, d := range domain.AllDomains() {
		st := domain.IndexStatus{Domain: d}
		exists, err := m.store.Exists(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("index status %s: %w", d, err)
		}
		if exists {
			idx, err := m.store.Load(ctx, d)
			if err != nil {
				return nil, fmt.Errorf("index status %s: %w", d, err)
			}
			st.Present = true
			st.Chunks = idx.Len()
			st.Dimension = idx.Dimension
			st.Model = idx.Model
			st.CreatedAt = idx.CreatedAt
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
