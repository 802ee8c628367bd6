package retriever

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-research-kb/internal/core/ingest"
)

// fakeStore returns a canned result set regardless of the query.
type fakeStore struct {
	hits []ingest.Document
	err  error
	k    int
}

func (s *fakeStore) Add(ctx context.Context, chunks []ingest.Document) error { return nil }

func (s *fakeStore) SimilaritySearch(ctx context.Context, query string, k int) ([]ingest.Document, error) {
	s.k = k
	if s.err != nil {
		return nil, s.err
	}
	if len(s.hits) > k {
		return s.hits[:k], nil
	}
	return s.hits, nil
}

// keywordReranker scores a candidate by occurrences of a marker word.
type keywordReranker struct {
	marker string
	err    error
}

func (r *keywordReranker) Score(ctx context.Context, query, candidate string) (float64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return float64(strings.Count(candidate, r.marker)), nil
}

func chunk(content, source string) ingest.Document {
	return ingest.NewDocument(content, map[string]any{ingest.MetaSource: source})
}

func TestHybrid_MergesVectorFirst(t *testing.T) {
	corpus := []ingest.Document{
		chunk("gradient descent converges slowly", "a.txt"),
		chunk("attention is all you need", "b.txt"),
		chunk("unrelated cooking recipe", "c.txt"),
	}
	store := &fakeStore{hits: []ingest.Document{corpus[0]}}
	h := NewHybrid(store, corpus, nil, Params{TopKVector: 2, TopKBM25: 2, TopKFinal: 5})

	got, err := h.Retrieve(context.Background(), "attention")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d docs, want 2: %+v", len(got), got)
	}
	if got[0].Content != "gradient descent converges slowly" {
		t.Errorf("vector hit should come first, got %q", got[0].Content)
	}
	if got[1].Content != "attention is all you need" {
		t.Errorf("lexical hit missing, got %q", got[1].Content)
	}
	if store.k != 2 {
		t.Errorf("vector search asked for k=%d, want 2", store.k)
	}
}

func TestHybrid_DedupeKeepsVectorPosition(t *testing.T) {
	shared := chunk("attention is all you need", "b.txt")
	corpus := []ingest.Document{
		chunk("filler document one", "a.txt"),
		shared,
	}
	store := &fakeStore{hits: []ingest.Document{shared}}
	h := NewHybrid(store, corpus, nil, Params{TopKVector: 5, TopKBM25: 5, TopKFinal: 5})

	got, err := h.Retrieve(context.Background(), "attention")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d docs, want the shared chunk once: %+v", len(got), got)
	}
	if got[0].Content != shared.Content {
		t.Errorf("got %q", got[0].Content)
	}
}

func TestHybrid_DedupeSurvivesJSONNumberTypes(t *testing.T) {
	fromStore := ingest.NewDocument("same chunk content", map[string]any{
		ingest.MetaSource: "a.pdf",
		ingest.MetaPage:   3,
	})
	fromRecords := ingest.NewDocument("same chunk content", map[string]any{
		ingest.MetaSource: "a.pdf",
		ingest.MetaPage:   float64(3),
	})
	store := &fakeStore{hits: []ingest.Document{fromStore}}
	h := NewHybrid(store, []ingest.Document{fromRecords}, nil, Params{TopKVector: 5, TopKBM25: 5, TopKFinal: 5})

	got, err := h.Retrieve(context.Background(), "chunk content")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("int and float64 pages should collapse to one chunk, got %+v", got)
	}
}

func TestHybrid_TruncatesToFinalK(t *testing.T) {
	corpus := []ingest.Document{
		chunk("match alpha", "1.txt"),
		chunk("match beta", "2.txt"),
		chunk("match gamma", "3.txt"),
		chunk("match delta", "4.txt"),
		chunk("match epsilon", "5.txt"),
	}
	store := &fakeStore{}
	h := NewHybrid(store, corpus, nil, Params{TopKVector: 5, TopKBM25: 5, TopKFinal: 3})

	got, err := h.Retrieve(context.Background(), "match")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d docs, want 3", len(got))
	}
}

func TestHybrid_VectorOnlyWithoutCorpus(t *testing.T) {
	store := &fakeStore{hits: []ingest.Document{
		chunk("vector hit one", "a.txt"),
		chunk("vector hit two", "b.txt"),
	}}
	h := NewHybrid(store, nil, nil, Params{TopKVector: 5, TopKBM25: 5, TopKFinal: 2})

	got, err := h.Retrieve(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d docs, want 2", len(got))
	}
	if store.k != 2 {
		t.Errorf("vector-only mode should ask for the final k, got %d", store.k)
	}
}

func TestHybrid_RerankerReorders(t *testing.T) {
	corpus := []ingest.Document{
		chunk("plain match text", "1.txt"),
		chunk("match marker marker marker", "2.txt"),
		chunk("match marker once", "3.txt"),
	}
	store := &fakeStore{}
	h := NewHybrid(store, corpus, &keywordReranker{marker: "marker"}, Params{TopKVector: 5, TopKBM25: 5, TopKFinal: 3})

	got, err := h.Retrieve(context.Background(), "match")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d docs, want 3", len(got))
	}
	if got[0].Content != "match marker marker marker" {
		t.Errorf("best reranked doc first, got %q", got[0].Content)
	}
	if got[1].Content != "match marker once" {
		t.Errorf("second = %q", got[1].Content)
	}
}

func TestHybrid_RerankerErrorPropagates(t *testing.T) {
	corpus := []ingest.Document{chunk("some match", "1.txt")}
	h := NewHybrid(&fakeStore{}, corpus, &keywordReranker{err: errors.New("rerank backend down")}, Params{TopKVector: 5, TopKBM25: 5, TopKFinal: 3})

	if _, err := h.Retrieve(context.Background(), "match"); err == nil {
		t.Fatal("expected reranker error to propagate")
	}
}

func TestHybrid_VectorErrorPropagates(t *testing.T) {
	corpus := []ingest.Document{chunk("some match", "1.txt")}
	h := NewHybrid(&fakeStore{err: errors.New("milvus unavailable")}, corpus, nil, Params{TopKVector: 5, TopKBM25: 5, TopKFinal: 3})

	if _, err := h.Retrieve(context.Background(), "match"); err == nil {
		t.Fatal("expected vector store error to propagate")
	}
}

func TestSwappable(t *testing.T) {
	first := NewHybrid(&fakeStore{hits: []ingest.Document{chunk("old corpus", "a.txt")}}, nil, nil, Params{TopKFinal: 3})
	s := NewSwappable(first)

	got, err := s.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].Content != "old corpus" {
		t.Fatalf("got %+v", got)
	}

	s.Swap(NewHybrid(&fakeStore{hits: []ingest.Document{chunk("new corpus", "b.txt")}}, nil, nil, Params{TopKFinal: 3}))
	got, err = s.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].Content != "new corpus" {
		t.Fatalf("got %+v", got)
	}
}
