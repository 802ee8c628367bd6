package ingest

// Metadata keys carried on documents and chunks.
const (
	MetaSource   = "source"
	MetaCategory = "category"
	MetaSection  = "section"
	MetaPage     = "page"
	MetaPaperID  = "paper_id"
	MetaChunkID  = "chunk_id"
)

// Document is a value object pairing extracted text with its metadata.
// Pipeline stages never mutate a document in place; each stage derives new
// values with cloned metadata.
type Document struct {
	Content  string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// NewDocument builds a document with its own metadata map.
func NewDocument(content string, metadata map[string]any) Document {
	return Document{Content: content, Metadata: cloneMetadata(metadata)}
}

// Category returns the document's category, or "default" when unset.
func (d Document) Category() string {
	if c, ok := d.Metadata[MetaCategory].(string); ok && c != "" {
		return c
	}
	return "default"
}

// WithMeta derives a copy of the document with one metadata field set.
func (d Document) WithMeta(key string, value any) Document {
	meta := cloneMetadata(d.Metadata)
	meta[key] = value
	return Document{Content: d.Content, Metadata: meta}
}

func cloneMetadata(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta)+2)
	for k, v := range meta {
		out[k] = v
	}
	return out
}
