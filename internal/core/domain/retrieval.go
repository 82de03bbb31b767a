package domain

import "time"

// Domain is one of the four source categories, each with its own vector index.
type Domain string

// Available domains. The string values double as persisted index names.
const (
	DomainNews      Domain = "news"
	DomainFinancial Domain = "financial"
	DomainEconomic  Domain = "economic"
	DomainPrice     Domain = "price"
)

// AllDomains returns every domain in fusion order.
func AllDomains() []Domain {
	return []Domain{DomainNews, DomainFinancial, DomainEconomic, DomainPrice}
}

// IsValid returns true if the domain is recognised.
func (d Domain) IsValid() bool {
	switch d {
	case DomainNews, DomainFinancial, DomainEconomic, DomainPrice:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d Domain) String() string {
	return string(d)
}

// Description returns a human-readable description of the domain.
func (d Domain) Description() string {
	switch d {
	case DomainNews:
		return "News articles"
	case DomainFinancial:
		return "Company financial reports"
	case DomainEconomic:
		return "Macroeconomic indicators"
	case DomainPrice:
		return "Quarterly price summaries"
	default:
		return unknownDescription
	}
}

// TextBlock is natural-language text derived from one source record.
type TextBlock struct {
	Domain    Domain
	Body      string
	SourceTag string
}

// Chunk is a bounded span of derived text, the unit of embedding and retrieval.
type Chunk struct {
	ID        string `json:"id"`
	Domain    Domain `json:"domain"`
	Text      string `json:"text"`
	SourceTag string `json:"source_tag"`
	Position  int    `json:"position"`
}

// IndexedChunk pairs a chunk with its embedding.
type IndexedChunk struct {
	Chunk     Chunk
	Embedding []float32

	// Norm caches the Euclidean norm of Embedding. Zero means not computed.
	Norm float64
}

// VectorIndex holds the embedded chunks of one domain.
// Chunks keep their build order.
type VectorIndex struct {
	Domain    Domain
	Dimension int
	Model     string
	Chunks    []IndexedChunk
	CreatedAt time.Time
}

// Len returns the number of chunks in the index.
func (v *VectorIndex) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Chunks)
}

// RetrievedChunk is a chunk returned by a similarity search.
type RetrievedChunk struct {
	Chunk      Chunk   `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// RetrievalResult is the concatenation of per-domain matches in fusion order.
type RetrievalResult struct {
	Chunks []RetrievedChunk `json:"chunks"`
}

// ByDomain returns the matches that came from d, preserving order.
func (r RetrievalResult) ByDomain(d Domain) []RetrievedChunk {
	var out []RetrievedChunk
	for _, c := range r.Chunks {
		if c.Chunk.Domain == d {
			out = append(out, c)
		}
	}
	return out
}

// IndexStatus describes the persisted state of one domain index.
type IndexStatus struct {
	Domain    Domain    `json:"domain"`
	Present   bool      `json:"present"`
	Chunks    int       `json:"chunks"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
