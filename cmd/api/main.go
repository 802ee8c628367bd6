package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"ai-research-kb/config"
	apihealthcheck "ai-research-kb/internal/api/healthcheck"
	apiingest "ai-research-kb/internal/api/ingest"
	apiquery "ai-research-kb/internal/api/query"
	"ai-research-kb/internal/core/ingest"
	"ai-research-kb/internal/core/retriever"
	"ai-research-kb/internal/middleware"
	"ai-research-kb/internal/rag"
	"ai-research-kb/pkg/logger"

	"github.com/gofiber/fiber/v3"
	malvus "github.com/milvus-io/milvus-sdk-go/v2/client"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		logger.Fatal(err, "config load failed")
	}
	if err := logger.SetLevel(string(config.Cfg.LogLevel)); err != nil {
		logger.Warn("invalid log level %q, keeping default", config.Cfg.LogLevel)
	}

	embedder, err := ingest.NewEmbedder()
	if err != nil {
		logger.Fatal(err, "embedder init failed")
	}
	store := ingest.NewMilvusStore(embedder)
	service := ingest.NewService(store)

	corpus, err := ingest.ReadChunkRecords(config.Cfg.Paths.ChunksFile)
	if err != nil {
		logger.Fatal(err, "chunk records load failed")
	}

	var reranker retriever.Reranker
	if rc := retriever.NewRerankClient(); rc != nil {
		reranker = rc
	}

	params := retriever.Params{
		TopKVector: config.Cfg.Retriever.TopKVector,
		TopKBM25:   config.Cfg.Retriever.TopKBM25,
		TopKFinal:  config.Cfg.Retriever.TopKFinal,
	}
	swappable := retriever.NewSwappable(retriever.NewHybrid(store, corpus, reranker, params))

	llm, err := rag.NewOpenAIChat()
	if err != nil {
		logger.Fatal(err, "chat model init failed")
	}
	answerer := rag.NewAnswerer(swappable, llm)
	if config.Cfg.Chat.MaxContextChars > 0 {
		answerer = answerer.WithSummarizer(llm, rag.SummaryPolicy{
			MaxContextChars:  config.Cfg.Chat.MaxContextChars,
			MaxCharsPerChunk: config.Cfg.Chat.MaxCharsPerChunk,
		})
	}

	// Reload the lexical corpus and swap in a fresh retriever after a
	// reindex. Queries in flight keep the old one.
	rebuild := func(ctx context.Context, chunks int) error {
		corpus, err := ingest.ReadChunkRecords(config.Cfg.Paths.ChunksFile)
		if err != nil {
			return err
		}
		swappable.Swap(retriever.NewHybrid(store, corpus, reranker, params))
		logger.WithField("chunks", chunks).Info("retriever rebuilt")
		return nil
	}

	app := fiber.New()
	middleware.Setup(app, config.Cfg.Server.Concurrency)

	// Milvus connectivity check on startup
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	cli, err := malvus.NewClient(ctx, malvus.Config{Address: config.Cfg.Milvus.Address})
	cancel()
	if err != nil {
		logger.Error(err, "milvus connect error")
	} else {
		cli.Close()
		logger.Info("milvus ok")
	}

	// routes
	apihealthcheck.RegisterRoutes(app)
	api := app.Group("/api/v1")
	apiquery.RegisterRoutes(api, apiquery.NewHandler(answerer))
	apiingest.RegisterRoutes(api, apiingest.NewHandler(service, rebuild))

	addr := fmt.Sprintf(":%d", config.Cfg.Server.Port)
	if err := app.Listen(addr); err != nil {
		logger.Error(err, "server error")
	}
}
