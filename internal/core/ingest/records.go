package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ai-research-kb/pkg/logger"
)

// AssignIDs stamps a stable chunk_id in corpus order and a paper_id per
// distinct source onto every chunk, returning derived copies.
func AssignIDs(chunks []Document) []Document {
	paperIDs := make(map[string]int)
	out := make([]Document, len(chunks))
	for i, chunk := range chunks {
		source, _ := chunk.Metadata[MetaSource].(string)
		if _, ok := paperIDs[source]; !ok {
			paperIDs[source] = len(paperIDs) + 1
		}
		rec := chunk.WithMeta(MetaPaperID, paperIDs[source])
		rec.Metadata[MetaChunkID] = i + 1
		out[i] = rec
	}
	return out
}

// WriteChunkRecords persists chunks as one JSON object per line. The file is
// the durable handoff to the lexical index; each write replaces the previous
// corpus wholesale.
func WriteChunkRecords(path string, chunks []Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, chunk := range chunks {
		if err := enc.Encode(chunk); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	logger.WithFields(map[string]interface{}{
		"path":   path,
		"chunks": len(chunks),
	}).Info("ingest: chunk records written")
	return nil
}

// ReadChunkRecords loads the persisted chunk corpus. A missing or empty file
// yields no chunks and no error; the caller uses the empty result to fall
// back to vector-only retrieval.
func ReadChunkRecords(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var chunks []Document
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var doc Document
		if err := json.Unmarshal(sc.Bytes(), &doc); err != nil {
			return nil, fmt.Errorf("chunk record line %d: %w", line, err)
		}
		chunks = append(chunks, doc)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}
