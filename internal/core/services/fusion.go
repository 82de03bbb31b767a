package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/finrag/internal/core/domain"
	"github.com/custodia-labs/finrag/internal/core/ports/driven"
	"github.com/custodia-labs/finrag/internal/core/ports/driving"
	"github.com/custodia-labs/finrag/internal/logger"
)

// Ensure FusionService implements the interface.
var _ driving.FusionService = (*FusionService)(nil)

// FusionErrorPrefix starts every narrative returned in place of an error.
const FusionErrorPrefix = "Error during combined RAG query: "

// IsFusionError reports whether a narrative is the fusion error sentinel.
func IsFusionError(narrative string) bool {
	return strings.HasPrefix(narrative, FusionErrorPrefix)
}

// IndexProvider hands out loaded domain indices.
type IndexProvider interface {
	Ensure(ctx context.Context, d domain.Domain) (*domain.VectorIndex, error)
}

// FusionService queries every domain index and synthesises one narrative.
type FusionService struct {
	indices  IndexProvider
	embedder driven.EmbeddingService
	llm      driven.LLMService
	prompts  driven.PromptStore
	topK     int
}

// NewFusionService creates a fusion service. prompts may be nil.
func NewFusionService(
	indices IndexProvider,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	topK int,
) *FusionService {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &FusionService{
		indices:  indices,
		embedder: embedder,
		llm:      llm,
		prompts:  prompts,
		topK:     topK,
	}
}

// Retrieve loads all four indices and returns up to k matches from each,
// concatenated in fusion order regardless of similarity. Failing to load any
// single index fails the call.
func (s *FusionService) Retrieve(ctx context.Context, question string, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		k = s.topK
	}
	domains := domain.AllDomains()
	indices := make([]*domain.VectorIndex, len(domains))
	errs := make([]error, len(domains))

	var wg sync.WaitGroup
	for i, d := range domains {
		wg.Add(1)
		go func(i int, d domain.Domain) {
			defer wg.Done()
			indices[i], errs[i] = s.indices.Ensure(ctx, d)
		}(i, d)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return domain.RetrievalResult{}, fmt.Errorf("%w: %s: %w", domain.ErrIndexUnavailable, domains[i], err)
		}
	}

	if s.embedder == nil {
		return domain.RetrievalResult{}, domain.ErrEmbeddingUnavailable
	}
	query, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("embed question: %w", err)
	}

	var result domain.RetrievalResult
	for i, d := range domains {
		hits := SearchIndex(indices[i], query, k)
		logger.Debug("Domain %s: %d matches", d, len(hits))
		result.Chunks = append(result.Chunks, hits...)
	}
	return result, nil
}

// Fuse retrieves context for question and asks the language model for a
// bullet-point synthesis. Any failure is returned as a narrative starting
// with FusionErrorPrefix.
func (s *FusionService) Fuse(ctx context.Context, question string, k int) string {
	logger.Section("Retrieval Fusion")

	result, err := s.Retrieve(ctx, question, k)
	if err != nil {
		return fusionError(err)
	}
	logger.Info("Retrieved %d chunks across %d domains", len(result.Chunks), len(domain.AllDomains()))

	if s.llm == nil {
		return fusionError(domain.ErrLLMUnavailable)
	}

	prompt, err := renderPrompt(s.prompts, driven.PromptFusion, struct {
		Context  string
		Question string
	}{FormatContext(result), question})
	if err != nil {
		return fusionError(err)
	}

	answer, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		return fusionError(err)
	}
	return strings.TrimSpace(answer)
}

// FormatContext joins retrieved chunk texts into one prompt context.
func FormatContext(r domain.RetrievalResult) string {
	texts := make([]string, 0, len(r.Chunks))
	for _, c := range r.Chunks {
		texts = append(texts, c.Chunk.Text)
	}
	return strings.Join(texts, "\n\n")
}

func fusionError(err error) string {
	logger.Warn("Fusion failed: %v", err)
	return FusionErrorPrefix + err.Error()
}
