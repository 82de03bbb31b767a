package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		s := New()
		if s.ChunkSize() != 500 {
			t.Errorf("expected chunkSize 500, got %d", s.ChunkSize())
		}
		if s.Overlap() != 50 {
			t.Errorf("expected overlap 50, got %d", s.Overlap())
		}
	})

	t.Run("custom values", func(t *testing.T) {
		s := New(WithChunkSize(200), WithOverlap(20))
		if s.ChunkSize() != 200 || s.Overlap() != 20 {
			t.Errorf("expected 200/20, got %d/%d", s.ChunkSize(), s.Overlap())
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		s := New(WithChunkSize(100), WithOverlap(150))
		if s.Overlap() != 25 {
			t.Errorf("expected overlap reset to 25, got %d", s.Overlap())
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		s := New(WithChunkSize(0), WithOverlap(-1))
		if s.ChunkSize() != DefaultChunkSize || s.Overlap() != DefaultChunkOverlap {
			t.Errorf("expected defaults, got %d/%d", s.ChunkSize(), s.Overlap())
		}
	})
}

func TestSplitText_Empty(t *testing.T) {
	s := New()
	if got := s.SplitText(""); len(got) != 0 {
		t.Errorf("expected no chunks, got %d", len(got))
	}
	if got := s.SplitText("  \n\n  "); len(got) != 0 {
		t.Errorf("expected no chunks for whitespace, got %d", len(got))
	}
}

func TestSplitText_ShortText(t *testing.T) {
	s := New()
	got := s.SplitText("  Date: 2024-01-01\nIndicator: CPI\nValue: 310.3  ")
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != "Date: 2024-01-01\nIndicator: CPI\nValue: 310.3" {
		t.Errorf("unexpected chunk %q", got[0])
	}
}

func TestSplitText_ParagraphBoundary(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(10))
	a := strings.Repeat("a", 60)
	b := strings.Repeat("b", 60)

	got := s.SplitText(a + "\n\n" + b)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(got), got)
	}
	if got[0] != a || got[1] != b {
		t.Errorf("expected paragraphs kept intact, got %q", got)
	}
}

func TestSplitText_OverlapCarriesContext(t *testing.T) {
	s := New(WithChunkSize(50), WithOverlap(10))
	words := make([]string, 100)
	for i := range words {
		words[i] = fmt.Sprintf("w%03d", i+1)
	}

	got := s.SplitText(strings.Join(words, " "))
	if len(got) < 2 {
		t.Fatalf("expected several chunks, got %d", len(got))
	}
	for i, c := range got {
		if n := utf8.RuneCountInString(c); n > 50 {
			t.Errorf("chunk %d has %d runes, want <= 50", i, n)
		}
	}
	for i := 1; i < len(got); i++ {
		first := strings.Fields(got[i])[0]
		if !strings.Contains(got[i-1], first) {
			t.Errorf("chunk %d does not start inside chunk %d overlap: %q", i, i-1, first)
		}
	}
	if !strings.HasSuffix(got[len(got)-1], "w100") {
		t.Errorf("last chunk should end with final word, got %q", got[len(got)-1])
	}
}

func TestSplitText_CountsRunes(t *testing.T) {
	s := New()
	got := s.SplitText(strings.Repeat("é", 1200))

	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	want := []int{500, 500, 300}
	for i, c := range got {
		if n := utf8.RuneCountInString(c); n != want[i] {
			t.Errorf("chunk %d: expected %d runes, got %d", i, want[i], n)
		}
	}
}

func TestSplitText_RecursesIntoLongParagraph(t *testing.T) {
	s := New(WithChunkSize(40), WithOverlap(5))
	long := strings.TrimSpace(strings.Repeat("alpha beta ", 10))
	text := "short intro\n\n" + long

	got := s.SplitText(text)
	if got[0] != "short intro" {
		t.Errorf("expected intro first, got %q", got[0])
	}
	for i, c := range got {
		if utf8.RuneCountInString(c) > 40 {
			t.Errorf("chunk %d too long: %q", i, c)
		}
	}
}

func TestSplit_Block(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(10))
	block := domain.TextBlock{
		Domain:    domain.DomainNews,
		Body:      strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60),
		SourceTag: "inflation",
	}

	chunks := s.Split(block)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	seen := map[string]bool{}
	for i, c := range chunks {
		if c.Domain != domain.DomainNews {
			t.Errorf("chunk %d: expected news domain, got %s", i, c.Domain)
		}
		if c.SourceTag != "inflation" {
			t.Errorf("chunk %d: expected source tag, got %q", i, c.SourceTag)
		}
		if c.Position != i {
			t.Errorf("chunk %d: expected position %d, got %d", i, i, c.Position)
		}
		if c.ID == "" || seen[c.ID] {
			t.Errorf("chunk %d: expected unique ID, got %q", i, c.ID)
		}
		seen[c.ID] = true
	}

	if got := s.Split(domain.TextBlock{Domain: domain.DomainNews}); got != nil {
		t.Errorf("expected nil for empty body, got %v", got)
	}
}
