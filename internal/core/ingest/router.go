package ingest

import (
	"strings"

	"ai-research-kb/config"
	"ai-research-kb/pkg/logger"
)

// categoryPaper gets section-aware treatment; every other category is split
// directly.
const categoryPaper = "paper"

// RouteAndSplit groups documents by category and applies that category's
// chunking policy. Paper documents optionally lose their reference tail,
// then pass through the section segmenter, so their chunks carry a section
// tag. Chunks come out with one category's chunks contiguous, categories in
// first-seen order, and source-document order preserved within a category.
func RouteAndSplit(docs []Document, defaults config.ChunkPolicy, overrides map[string]config.ChunkPolicy, stripReferences bool) ([]Document, error) {
	var order []string
	grouped := make(map[string][]Document)
	for _, doc := range docs {
		cat := doc.Category()
		if _, seen := grouped[cat]; !seen {
			order = append(order, cat)
		}
		grouped[cat] = append(grouped[cat], doc)
	}

	var out []Document
	for _, cat := range order {
		policy := config.ResolvePolicy(defaults, overrides, cat)
		splitter, err := NewSplitter(policy.Size, policy.Overlap)
		if err != nil {
			return nil, err
		}

		batch := grouped[cat]
		if cat == categoryPaper {
			if stripReferences {
				batch = stripReferenceTails(batch)
			}
			batch = segmentPapers(batch)
		}
		chunks := splitter.SplitDocuments(batch)
		logger.WithFields(map[string]interface{}{
			"category": cat,
			"docs":     len(grouped[cat]),
			"chunks":   len(chunks),
			"size":     policy.Size,
			"overlap":  policy.Overlap,
		}).Info("ingest: category split")
		out = append(out, chunks...)
	}
	return out, nil
}

// stripReferenceTails truncates each paper at its first reference-family
// heading. Papers arrive as per-page documents in page order, so once a page
// of a source matches, the remaining pages of that source are dropped too.
func stripReferenceTails(docs []Document) []Document {
	stopped := make(map[string]bool)
	var out []Document
	for _, doc := range docs {
		source, _ := doc.Metadata[MetaSource].(string)
		if stopped[source] {
			continue
		}
		text, found := TruncateAtReferences(doc.Content)
		if found {
			stopped[source] = true
			if strings.TrimSpace(text) == "" {
				continue
			}
			out = append(out, Document{Content: text, Metadata: cloneMetadata(doc.Metadata)})
			continue
		}
		out = append(out, doc)
	}
	return out
}

// segmentPapers expands each paper into per-section sub-documents, stamping
// the section label onto the metadata.
func segmentPapers(docs []Document) []Document {
	var out []Document
	for _, doc := range docs {
		for _, sec := range Segment(doc.Content) {
			sub := NewDocument(sec.Text, doc.Metadata)
			sub.Metadata[MetaSection] = sec.Section
			out = append(out, sub)
		}
	}
	return out
}
