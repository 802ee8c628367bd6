package ingest

import (
	"context"
	"fmt"
	"time"

	"ai-research-kb/config"
	"ai-research-kb/pkg/apperror/status"
	"ai-research-kb/pkg/logger"

	milvusclient "github.com/milvus-io/milvus-sdk-go/v2/client"
	milvusentity "github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const milvusVectorDim = 1536

const maxContentLength = 8192

// MilvusStore is the vector-store collaborator. It owns no chunking or
// ranking logic; it embeds through the injected Embedder and talks to the
// configured Milvus collection.
type MilvusStore struct {
	embedder *Embedder
}

func NewMilvusStore(embedder *Embedder) *MilvusStore {
	return &MilvusStore{embedder: embedder}
}

// Add replaces the collection contents with the given chunks. An index
// build is a full-replace operation; the previous collection is dropped
// once the new data is ready to insert.
func (s *MilvusStore) Add(ctx context.Context, chunks []Document) error {
	if len(chunks) == 0 {
		return nil
	}

	inputs := make([]string, len(chunks))
	for i, ch := range chunks {
		inputs[i] = ch.Content
	}
	vectors, err := s.embedder.Embed(ctx, inputs)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return status.New(status.CollaboratorEmbedder, fmt.Errorf("embedding count mismatch: %d != %d", len(vectors), len(chunks)))
	}

	cli, err := milvusclient.NewClient(ctx, milvusclient.Config{Address: config.Cfg.Milvus.Address})
	if err != nil {
		return status.New(status.CollaboratorVector, err)
	}
	defer cli.Close()

	collection := config.Cfg.Milvus.Collection
	exists, err := cli.HasCollection(ctx, collection)
	if err != nil {
		return status.New(status.CollaboratorVector, err)
	}
	if exists {
		if err := cli.DropCollection(ctx, collection); err != nil {
			return status.New(status.CollaboratorVector, err)
		}
	}
	if err := createChunksCollection(ctx, cli, collection); err != nil {
		return status.New(status.CollaboratorVector, err)
	}

	ids := make([]int64, len(chunks))
	chunkIDs := make([]int64, len(chunks))
	paperIDs := make([]int64, len(chunks))
	pages := make([]int32, len(chunks))
	sources := make([]string, len(chunks))
	categories := make([]string, len(chunks))
	sections := make([]string, len(chunks))
	contents := make([]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = int64(i + 1)
		chunkIDs[i] = metaInt64(ch.Metadata, MetaChunkID)
		paperIDs[i] = metaInt64(ch.Metadata, MetaPaperID)
		pages[i] = int32(metaInt64(ch.Metadata, MetaPage))
		sources[i], _ = ch.Metadata[MetaSource].(string)
		categories[i] = ch.Category()
		sections[i], _ = ch.Metadata[MetaSection].(string)
		contents[i] = truncateRunes(ch.Content, maxContentLength)
	}

	cols := []milvusentity.Column{
		milvusentity.NewColumnInt64("id", ids),
		milvusentity.NewColumnInt64("chunk_id", chunkIDs),
		milvusentity.NewColumnInt64("paper_id", paperIDs),
		milvusentity.NewColumnInt32("page", pages),
		milvusentity.NewColumnVarChar("source", sources),
		milvusentity.NewColumnVarChar("category", categories),
		milvusentity.NewColumnVarChar("section", sections),
		milvusentity.NewColumnVarChar("content", contents),
		milvusentity.NewColumnFloatVector("embedding", milvusVectorDim, vectors),
	}
	if _, err := cli.Insert(ctx, collection, "", cols...); err != nil {
		return status.New(status.CollaboratorVector, err)
	}
	logger.WithFields(map[string]interface{}{
		"collection": collection,
		"chunks":     len(chunks),
	}).Info("milvus: collection rebuilt")
	return nil
}

// SimilaritySearch embeds the query and returns the k nearest chunks in
// similarity order.
func (s *MilvusStore) SimilaritySearch(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 || query == "" {
		return []Document{}, nil
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, status.New(status.CollaboratorEmbedder, fmt.Errorf("no embedding returned"))
	}

	cli, err := milvusclient.NewClient(ctx, milvusclient.Config{Address: config.Cfg.Milvus.Address})
	if err != nil {
		return nil, status.New(status.CollaboratorVector, err)
	}
	defer cli.Close()

	collection := config.Cfg.Milvus.Collection
	exists, err := cli.HasCollection(ctx, collection)
	if err != nil {
		return nil, status.New(status.CollaboratorVector, err)
	}
	if !exists {
		return []Document{}, nil
	}
	if err := cli.LoadCollection(ctx, collection, false); err != nil {
		return nil, status.New(status.CollaboratorVector, err)
	}

	metricType := milvusentity.MetricType(config.Cfg.Milvus.IndexHNSWConfig.MetricType)
	searchParam, err := milvusentity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, status.New(status.CollaboratorVector, err)
	}

	outputFields := []string{"chunk_id", "paper_id", "page", "source", "category", "section", "content"}
	vectors := []milvusentity.Vector{milvusentity.FloatVector(vecs[0])}

	start := time.Now()
	results, err := cli.Search(
		ctx,
		collection,
		nil,
		"",
		outputFields,
		vectors,
		"embedding",
		metricType,
		k,
		searchParam,
	)
	if err != nil {
		logger.Error(err, "milvus: search failed")
		return nil, status.New(status.CollaboratorVector, err)
	}
	logger.WithFields(map[string]interface{}{
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("milvus: search done")

	if len(results) == 0 {
		return []Document{}, nil
	}
	it := results[0]

	docs := make([]Document, 0, it.ResultCount)
	for i := 0; i < it.ResultCount; i++ {
		meta := map[string]any{}
		var content string
		for _, field := range it.Fields {
			switch col := field.(type) {
			case *milvusentity.ColumnInt64:
				switch col.Name() {
				case "chunk_id":
					if v := col.Data()[i]; v > 0 {
						meta[MetaChunkID] = int(v)
					}
				case "paper_id":
					if v := col.Data()[i]; v > 0 {
						meta[MetaPaperID] = int(v)
					}
				}
			case *milvusentity.ColumnInt32:
				if col.Name() == "page" {
					if v := col.Data()[i]; v > 0 {
						meta[MetaPage] = int(v)
					}
				}
			case *milvusentity.ColumnVarChar:
				switch col.Name() {
				case "source":
					meta[MetaSource] = col.Data()[i]
				case "category":
					meta[MetaCategory] = col.Data()[i]
				case "section":
					if v := col.Data()[i]; v != "" {
						meta[MetaSection] = v
					}
				case "content":
					content = col.Data()[i]
				}
			}
		}
		docs = append(docs, Document{Content: content, Metadata: meta})
	}
	return docs, nil
}

func createChunksCollection(ctx context.Context, cli milvusclient.Client, collection string) error {
	schema := milvusentity.NewSchema().WithName(collection).WithDescription("knowledge base chunks")
	schema.WithField(milvusentity.NewField().WithName("id").WithDataType(milvusentity.FieldTypeInt64).WithIsPrimaryKey(true))
	schema.WithField(milvusentity.NewField().WithName("chunk_id").WithDataType(milvusentity.FieldTypeInt64))
	schema.WithField(milvusentity.NewField().WithName("paper_id").WithDataType(milvusentity.FieldTypeInt64))
	schema.WithField(milvusentity.NewField().WithName("page").WithDataType(milvusentity.FieldTypeInt32))
	schema.WithField(milvusentity.NewField().WithName("source").WithDataType(milvusentity.FieldTypeVarChar).WithMaxLength(1024))
	schema.WithField(milvusentity.NewField().WithName("category").WithDataType(milvusentity.FieldTypeVarChar).WithMaxLength(64))
	schema.WithField(milvusentity.NewField().WithName("section").WithDataType(milvusentity.FieldTypeVarChar).WithMaxLength(128))
	schema.WithField(milvusentity.NewField().WithName("content").WithDataType(milvusentity.FieldTypeVarChar).WithMaxLength(maxContentLength))
	schema.WithField(milvusentity.NewField().WithName("embedding").WithDataType(milvusentity.FieldTypeFloatVector).WithDim(milvusVectorDim))

	if err := cli.CreateCollection(ctx, schema, 2); err != nil {
		return err
	}

	hnsw := config.Cfg.Milvus.IndexHNSWConfig
	idx, err := milvusentity.NewIndexHNSW(milvusentity.MetricType(hnsw.MetricType), hnsw.M, hnsw.EfConstruction)
	if err != nil {
		return err
	}
	return cli.CreateIndex(ctx, collection, "embedding", idx, false)
}

func metaInt64(meta map[string]any, key string) int64 {
	switch v := meta[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
