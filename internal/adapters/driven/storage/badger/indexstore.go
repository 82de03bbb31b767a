// Package badger persists vector indices in an embedded Badger database
// through badgerhold.
//
// Each domain index is stored as one manifest record plus one record per
// chunk. The manifest is written last, so a domain only reports as present
// once all of its chunks are stored.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/logger"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

type indexManifest struct {
	Domain    string
	Dimension int
	Model     string
	Count     int
	CreatedAt time.Time
}

type indexChunk struct {
	Key       string
	Domain    string `badgerhold:"index"`
	Seq       int
	ChunkID   string
	Text      string
	SourceTag string
	Position  int
	Embedding []float32
}

// IndexStore is a badgerhold implementation of driven.IndexStore.
type IndexStore struct {
	store *badgerhold.Store
	dir   string
}

// NewIndexStore opens (or creates) the index database in dir.
func NewIndexStore(dir string) (*IndexStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	store, err := badgerhold.Open(storeOptions(badger.DefaultOptions(dir)))
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	logger.Debug("index store opened at %s", dir)
	return &IndexStore{store: store, dir: dir}, nil
}

// NewInMemoryIndexStore opens a badger database that lives only in memory.
func NewInMemoryIndexStore() (*IndexStore, error) {
	store, err := badgerhold.Open(storeOptions(badger.DefaultOptions("").WithInMemory(true)))
	if err != nil {
		return nil, fmt.Errorf("opening in-memory index database: %w", err)
	}
	return &IndexStore{store: store, dir: ":memory:"}, nil
}

// storeOptions keeps a single version per key and silences badger's logger.
func storeOptions(opts badger.Options) badgerhold.Options {
	options := badgerhold.DefaultOptions
	options.Options = opts.WithLogger(nil).WithNumVersionsToKeep(1)
	return options
}

// Path returns the database directory.
func (s *IndexStore) Path() string {
	return s.dir
}

// Exists reports whether a complete index is stored for the domain.
func (s *IndexStore) Exists(_ context.Context, d domain.Domain) (bool, error) {
	var m indexManifest
	err := s.store.Get(string(d), &m)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s manifest: %w", d, err)
	}
	return true, nil
}

// Load returns the stored index with chunks in build order.
func (s *IndexStore) Load(ctx context.Context, d domain.Domain) (*domain.VectorIndex, error) {
	var m indexManifest
	if err := s.store.Get(string(d), &m); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading %s manifest: %w", d, err)
	}

	var records []indexChunk
	if err := s.store.Find(&records, badgerhold.Where("Domain").Eq(string(d)).Index("Domain").SortBy("Seq")); err != nil {
		return nil, fmt.Errorf("reading %s chunks: %w", d, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(records) != m.Count {
		return nil, fmt.Errorf("%w: %s index has %d chunks, manifest says %d",
			domain.ErrIndexUnavailable, d, len(records), m.Count)
	}

	idx := &domain.VectorIndex{
		Domain:    d,
		Dimension: m.Dimension,
		Model:     m.Model,
		CreatedAt: m.CreatedAt,
		Chunks:    make([]domain.IndexedChunk, len(records)),
	}
	for i, r := range records {
		idx.Chunks[i] = domain.IndexedChunk{
			Chunk: domain.Chunk{
				ID:        r.ChunkID,
				Domain:    d,
				Text:      r.Text,
				SourceTag: r.SourceTag,
				Position:  r.Position,
			},
			Embedding: r.Embedding,
		}
	}
	return idx, nil
}

// Save replaces the stored index for idx.Domain.
func (s *IndexStore) Save(ctx context.Context, idx *domain.VectorIndex) error {
	if idx == nil || !idx.Domain.IsValid() {
		return domain.ErrInvalidInput
	}
	if err := s.Delete(ctx, idx.Domain); err != nil {
		return err
	}

	d := string(idx.Domain)
	for i, c := range idx.Chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := indexChunk{
			Key:       fmt.Sprintf("%s/%08d", d, i),
			Domain:    d,
			Seq:       i,
			ChunkID:   c.Chunk.ID,
			Text:      c.Chunk.Text,
			SourceTag: c.Chunk.SourceTag,
			Position:  c.Chunk.Position,
			Embedding: c.Embedding,
		}
		if err := s.store.Upsert(rec.Key, &rec); err != nil {
			return fmt.Errorf("saving %s chunk %d: %w", d, i, err)
		}
	}

	createdAt := idx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	m := indexManifest{
		Domain:    d,
		Dimension: idx.Dimension,
		Model:     idx.Model,
		Count:     len(idx.Chunks),
		CreatedAt: createdAt,
	}
	if err := s.store.Upsert(d, &m); err != nil {
		return fmt.Errorf("saving %s manifest: %w", d, err)
	}
	logger.Debug("saved %s index: %d chunks", d, len(idx.Chunks))
	return nil
}

// Delete removes the manifest first, then the chunks.
func (s *IndexStore) Delete(_ context.Context, d domain.Domain) error {
	if err := s.store.Delete(string(d), &indexManifest{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("deleting %s manifest: %w", d, err)
	}
	if err := s.store.DeleteMatching(&indexChunk{}, badgerhold.Where("Domain").Eq(string(d)).Index("Domain")); err != nil {
		return fmt.Errorf("deleting %s chunks: %w", d, err)
	}
	return nil
}

// Close closes the database.
func (s *IndexStore) Close() error {
	return s.store.Close()
}
