package ingest

import (
	"context"

	"ai-research-kb/config"
	"ai-research-kb/pkg/logger"
)

// ChunkSink receives the finished chunk corpus; in production it is the
// Milvus store.
type ChunkSink interface {
	Add(ctx context.Context, chunks []Document) error
}

// Service runs the ingestion pipeline: load documents, split per category
// policy, persist chunk records, hand the corpus to the vector store. Each
// run produces a full replacement of the previous index.
type Service struct {
	sink ChunkSink
}

func NewService(sink ChunkSink) *Service {
	return &Service{sink: sink}
}

// Run returns the number of indexed chunks. An empty knowledge base is not
// an error.
func (s *Service) Run(ctx context.Context) (int, error) {
	cfg := config.Cfg

	docs, err := LoadDocuments(ctx, cfg.Paths.KnowledgeBaseDir, cfg.Ingest.Strict)
	if err != nil {
		return 0, err
	}
	logger.WithFields(map[string]interface{}{
		"kb_dir": cfg.Paths.KnowledgeBaseDir,
		"docs":   len(docs),
	}).Info("ingest: documents loaded")
	if len(docs) == 0 {
		return 0, nil
	}

	defaults := config.ChunkPolicy{Size: cfg.Chunk.Size, Overlap: cfg.Chunk.Overlap}
	chunks, err := RouteAndSplit(docs, defaults, cfg.Chunk.Categories, cfg.Chunk.StripReferences)
	if err != nil {
		return 0, err
	}
	chunks = AssignIDs(chunks)

	if cfg.Paths.ChunksFile != "" {
		if err := WriteChunkRecords(cfg.Paths.ChunksFile, chunks); err != nil {
			return 0, err
		}
	}

	if err := s.sink.Add(ctx, chunks); err != nil {
		return 0, err
	}
	logger.WithFields(map[string]interface{}{
		"chunks": len(chunks),
	}).Info("ingest: done")
	return len(chunks), nil
}
