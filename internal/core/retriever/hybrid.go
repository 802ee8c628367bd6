package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ai-research-kb/internal/core/ingest"
	"ai-research-kb/pkg/logger"
)

// dedupePrefixLen bounds the content prefix used in the deduplication key.
const dedupePrefixLen = 120

// Params sets the candidate counts for each retrieval stage.
type Params struct {
	TopKVector int
	TopKBM25   int
	TopKFinal  int
}

// Hybrid fuses vector and lexical search over the chunk corpus. With no
// corpus configured it degrades to vector-only search; that is a
// configuration-driven mode, not an error fallback. A nil reranker skips
// the rerank stage silently.
type Hybrid struct {
	store    VectorStore
	corpus   []ingest.Document
	bm25     *BM25
	reranker Reranker
	params   Params
}

// NewHybrid builds the retriever. corpus may be nil or empty, which enables
// vector-only mode.
func NewHybrid(store VectorStore, corpus []ingest.Document, reranker Reranker, params Params) *Hybrid {
	h := &Hybrid{
		store:    store,
		corpus:   corpus,
		reranker: reranker,
		params:   params,
	}
	if len(corpus) > 0 {
		h.bm25 = NewBM25(corpus)
	}
	return h
}

// Retrieve runs the full pipeline for one query: vector search, lexical
// search, merge with vector-first deduplication, optional rerank, truncate.
// Results are built fresh on every call.
func (h *Hybrid) Retrieve(ctx context.Context, query string) ([]ingest.Document, error) {
	if h.bm25 == nil {
		return h.store.SimilaritySearch(ctx, query, h.params.TopKFinal)
	}

	vectorHits, err := h.store.SimilaritySearch(ctx, query, h.params.TopKVector)
	if err != nil {
		return nil, err
	}

	var lexicalHits []ingest.Document
	for _, i := range h.bm25.TopN(query, h.params.TopKBM25) {
		lexicalHits = append(lexicalHits, h.corpus[i])
	}

	merged := dedupe(append(append([]ingest.Document{}, vectorHits...), lexicalHits...))
	logger.WithFields(map[string]interface{}{
		"vector":  len(vectorHits),
		"lexical": len(lexicalHits),
		"merged":  len(merged),
	}).Debug("retriever: candidates merged")

	if h.reranker != nil {
		merged, err = h.rerank(ctx, query, merged)
		if err != nil {
			return nil, err
		}
	}

	if len(merged) > h.params.TopKFinal {
		merged = merged[:h.params.TopKFinal]
	}
	return merged, nil
}

// rerank scores every candidate independently and resorts best-first.
// Reranker failures propagate; silently returning the unranked list would
// mask a collaborator error.
func (h *Hybrid) rerank(ctx context.Context, query string, docs []ingest.Document) ([]ingest.Document, error) {
	scores := make([]float64, len(docs))
	for i, doc := range docs {
		score, err := h.reranker.Score(ctx, query, doc.Content)
		if err != nil {
			return nil, err
		}
		scores[i] = score
	}
	order := make([]int, len(docs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	out := make([]ingest.Document, len(docs))
	for i, j := range order {
		out[i] = docs[j]
	}
	return out, nil
}

// dedupe keeps the first occurrence of each chunk, so a chunk found by both
// searches stays at its vector-search position.
func dedupe(docs []ingest.Document) []ingest.Document {
	seen := make(map[string]struct{}, len(docs))
	out := docs[:0]
	for _, doc := range docs {
		key := dedupeKey(doc)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, doc)
	}
	return out
}

// dedupeKey combines source, page, and a bounded content prefix. The page
// value is formatted, not type-asserted, because JSON round-trips turn ints
// into float64.
func dedupeKey(doc ingest.Document) string {
	source, _ := doc.Metadata[ingest.MetaSource].(string)
	page := ""
	if v, ok := doc.Metadata[ingest.MetaPage]; ok {
		page = fmt.Sprintf("%v", normalizePage(v))
	}
	return source + "|" + page + "|" + contentPrefix(doc.Content)
}

func normalizePage(v any) any {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return int64(f)
	}
	return v
}

func contentPrefix(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) > dedupePrefixLen {
		runes = runes[:dedupePrefixLen]
	}
	return string(runes)
}
