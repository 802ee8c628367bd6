package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ai-research-kb/config"
)

// defaultSeparators orders split points from coarsest to finest: paragraph
// break, line break, sentence end, word boundary, then character-level as
// the last resort.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts long text into overlapping chunks of at most chunkSize
// runes, preferring the coarsest separator that still fits.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewSplitter validates the chunk geometry up front; an overlap that is not
// smaller than the size is a configuration error.
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%v: chunk size must be positive, got %d", config.ModuleIngest, chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%v: chunk overlap %d must be in [0, %d)", config.ModuleIngest, chunkOverlap, chunkSize)
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}, nil
}

// Split returns the chunks of text in original order. Every chunk is at most
// chunkSize runes; a fragment with no applicable separator left is emitted
// as-is.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.splitText(text, s.separators)
}

// SplitDocuments splits each document's content, cloning the parent metadata
// onto every derived chunk.
func (s *Splitter) SplitDocuments(docs []Document) []Document {
	var out []Document
	for _, doc := range docs {
		for _, chunk := range s.Split(doc.Content) {
			out = append(out, NewDocument(chunk, doc.Metadata))
		}
	}
	return out
}

func (s *Splitter) splitText(text string, separators []string) []string {
	// Pick the coarsest separator present in the text.
	sep := separators[len(separators)-1]
	var finer []string
	for i, candidate := range separators {
		if candidate == "" {
			sep = ""
			finer = nil
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			finer = separators[i+1:]
			break
		}
	}

	splits := splitOn(text, sep)

	var chunks []string
	var pending []string
	for _, piece := range splits {
		if runeLen(piece) <= s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending, sep)...)
			pending = nil
		}
		if len(finer) == 0 {
			// No separator can split this further.
			chunks = append(chunks, piece)
			continue
		}
		chunks = append(chunks, s.splitText(piece, finer)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending, sep)...)
	}
	return chunks
}

// merge greedily packs consecutive pieces into chunks of at most chunkSize
// runes. When a chunk is finalized, pieces are dropped from its front until
// at most chunkOverlap runes remain; those seed the next chunk.
func (s *Splitter) merge(splits []string, sep string) []string {
	sepLen := runeLen(sep)

	var docs []string
	var current []string
	total := 0
	for _, piece := range splits {
		l := runeLen(piece)
		joint := 0
		if len(current) > 0 {
			joint = sepLen
		}
		if total+l+joint > s.chunkSize && len(current) > 0 {
			if doc := joinPieces(current, sep); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.chunkOverlap || (total+l+joint > s.chunkSize && total > 0) {
				total -= runeLen(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
				if len(current) == 0 {
					break
				}
			}
		}
		current = append(current, piece)
		total += l
		if len(current) > 1 {
			total += sepLen
		}
	}
	if doc := joinPieces(current, sep); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func joinPieces(pieces []string, sep string) string {
	return strings.TrimSpace(strings.Join(pieces, sep))
}

// splitOn splits text by sep, dropping empty fragments. The empty separator
// means a character-level split.
func splitOn(text string, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	raw := strings.Split(text, sep)
	out := raw[:0]
	for _, piece := range raw {
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
