package retriever

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"ai-research-kb/internal/core/ingest"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// BM25 is an immutable lexical index over a fixed chunk corpus. Adding
// chunks means building a new index.
type BM25 struct {
	termFreqs []map[string]int
	docFreq   map[string]int
	docLens   []int
	avgLen    float64
}

// NewBM25 builds the index from the corpus in one pass.
func NewBM25(chunks []ingest.Document) *BM25 {
	idx := &BM25{docFreq: make(map[string]int)}
	total := 0
	for _, chunk := range chunks {
		tokens := Tokenize(chunk.Content)
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		for t := range tf {
			idx.docFreq[t]++
		}
		idx.termFreqs = append(idx.termFreqs, tf)
		idx.docLens = append(idx.docLens, len(tokens))
		total += len(tokens)
	}
	if len(chunks) > 0 {
		idx.avgLen = float64(total) / float64(len(chunks))
	}
	return idx
}

// Tokenize lowercases and splits on any run of non-alphanumeric characters.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Len returns the corpus size.
func (b *BM25) Len() int { return len(b.termFreqs) }

// TopN returns the indices of the n best-scoring chunks for the query,
// best first, ties broken by corpus order. A query with no tokens yields
// an empty ranking; chunks matching no query term are excluded.
func (b *BM25) TopN(query string, n int) []int {
	terms := Tokenize(query)
	if len(terms) == 0 || n <= 0 || b.Len() == 0 {
		return nil
	}

	scores := make([]float64, b.Len())
	corpusSize := float64(b.Len())
	for _, term := range terms {
		df := b.docFreq[term]
		if df == 0 {
			continue
		}
		idf := math.Log(1 + (corpusSize-float64(df)+0.5)/(float64(df)+0.5))
		for i, tf := range b.termFreqs {
			f := float64(tf[term])
			if f == 0 {
				continue
			}
			norm := bm25K1 * (1 - bm25B + bm25B*float64(b.docLens[i])/b.avgLen)
			scores[i] += idf * f * (bm25K1 + 1) / (f + norm)
		}
	}

	ranked := make([]int, 0, b.Len())
	for i, s := range scores {
		if s > 0 {
			ranked = append(ranked, i)
		}
	}
	sort.SliceStable(ranked, func(a, c int) bool {
		return scores[ranked[a]] > scores[ranked[c]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
