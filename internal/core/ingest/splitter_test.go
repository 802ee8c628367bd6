package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func mustSplitter(t *testing.T, size, overlap int) *Splitter {
	t.Helper()
	s, err := NewSplitter(size, overlap)
	if err != nil {
		t.Fatalf("NewSplitter(%d, %d): %v", size, overlap, err)
	}
	return s
}

func TestNewSplitter_RejectsBadGeometry(t *testing.T) {
	if _, err := NewSplitter(0, 0); err == nil {
		t.Error("expected error for zero chunk size")
	}
	if _, err := NewSplitter(100, 100); err == nil {
		t.Error("expected error for overlap == size")
	}
	if _, err := NewSplitter(100, 150); err == nil {
		t.Error("expected error for overlap > size")
	}
	if _, err := NewSplitter(100, -1); err == nil {
		t.Error("expected error for negative overlap")
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s := mustSplitter(t, 100, 10)
	got := s.Split("short text")
	if len(got) != 1 || got[0] != "short text" {
		t.Fatalf("got %v, want single unchanged chunk", got)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	s := mustSplitter(t, 100, 10)
	if got := s.Split("   \n "); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestSplit_RespectsChunkSize(t *testing.T) {
	s := mustSplitter(t, 40, 8)
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("the quick brown fox jumps over the lazy dog. ")
	}
	chunks := s.Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 40 {
			t.Errorf("chunk %d has %d runes, limit 40: %q", i, n, c)
		}
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	s := mustSplitter(t, 30, 0)
	got := s.Split("first paragraph here\n\nsecond paragraph here")
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2: %v", len(got), got)
	}
	if got[0] != "first paragraph here" || got[1] != "second paragraph here" {
		t.Fatalf("got %v, want paragraph-aligned chunks", got)
	}
}

func TestSplit_OverlapCarriesContext(t *testing.T) {
	s := mustSplitter(t, 20, 10)
	got := s.Split("alpha beta gamma delta epsilon zeta eta theta")
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %v", got)
	}
	// Adjacent chunks share at least one word when overlap is on.
	for i := 1; i < len(got); i++ {
		prevWords := strings.Fields(got[i-1])
		last := prevWords[len(prevWords)-1]
		if !strings.Contains(got[i], last) {
			t.Errorf("chunk %d %q does not carry %q from chunk %d %q", i, got[i], last, i-1, got[i-1])
		}
	}
}

func TestSplit_PreservesOrder(t *testing.T) {
	s := mustSplitter(t, 25, 0)
	text := "one two three four five six seven eight nine ten eleven twelve"
	chunks := s.Split(text)
	rejoined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		if !strings.Contains(rejoined, word) {
			t.Errorf("word %q lost in %v", word, chunks)
		}
	}
	// Order check: each word's first occurrence must be non-decreasing.
	pos := -1
	for _, word := range strings.Fields(text) {
		i := strings.Index(rejoined, word)
		if i < pos {
			t.Fatalf("word %q out of order in %v", word, chunks)
		}
		pos = i
	}
}

func TestSplit_UnbrokenRunFallsBackToCharacters(t *testing.T) {
	s := mustSplitter(t, 10, 0)
	got := s.Split(strings.Repeat("x", 35))
	if len(got) != 4 {
		t.Fatalf("got %d chunks, want 4: %v", len(got), got)
	}
	for i, c := range got {
		if n := utf8.RuneCountInString(c); n > 10 {
			t.Errorf("chunk %d has %d runes, limit 10", i, n)
		}
	}
}

func TestSplit_MultiByteRunes(t *testing.T) {
	s := mustSplitter(t, 10, 0)
	got := s.Split(strings.Repeat("深", 25))
	for i, c := range got {
		if n := utf8.RuneCountInString(c); n > 10 {
			t.Errorf("chunk %d has %d runes, limit 10", i, n)
		}
	}
	total := 0
	for _, c := range got {
		total += utf8.RuneCountInString(c)
	}
	if total != 25 {
		t.Fatalf("rune total = %d, want 25", total)
	}
}

func TestSplitDocuments_ClonesMetadata(t *testing.T) {
	s := mustSplitter(t, 15, 0)
	doc := NewDocument("alpha beta gamma delta epsilon", map[string]any{
		MetaSource:   "a.txt",
		MetaCategory: "note",
	})
	chunks := s.SplitDocuments([]Document{doc})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	chunks[0].Metadata[MetaSection] = "mutated"
	if _, ok := chunks[1].Metadata[MetaSection]; ok {
		t.Error("metadata shared between sibling chunks")
	}
	if _, ok := doc.Metadata[MetaSection]; ok {
		t.Error("metadata shared with parent document")
	}
	for i, c := range chunks {
		if c.Metadata[MetaSource] != "a.txt" || c.Metadata[MetaCategory] != "note" {
			t.Errorf("chunk %d lost parent metadata: %v", i, c.Metadata)
		}
	}
}
