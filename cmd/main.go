package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"ai-research-kb/config"
	"ai-research-kb/internal/core/ingest"
	"ai-research-kb/internal/core/retriever"
	"ai-research-kb/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
)

// waitForMilvus polls until Milvus accepts connections. Milvus may take
// tens of seconds to boot.
func waitForMilvus(address string, attempts int, perAttemptTimeout time.Duration, delay time.Duration) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), perAttemptTimeout)
		cli, err := client.NewClient(ctx, client.Config{Address: address})
		cancel()
		if err == nil {
			cli.Close()
			return nil
		}
		lastErr = err
		time.Sleep(delay)
	}
	return lastErr
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	reindex := flag.Bool("reindex", false, "rebuild the index from the knowledge base before querying")
	query := flag.String("query", "", "question to retrieve context for")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		logger.Fatal(err, "config load failed")
	}
	if err := logger.SetLevel(string(config.Cfg.LogLevel)); err != nil {
		logger.Warn("invalid log level %q, keeping default", config.Cfg.LogLevel)
	}

	if !*reindex && *query == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -reindex and/or -query")
		flag.Usage()
		os.Exit(2)
	}

	if err := waitForMilvus(config.Cfg.Milvus.Address, 20, 5*time.Second, 2*time.Second); err != nil {
		logger.Fatal(err, "milvus connect error")
	}

	embedder, err := ingest.NewEmbedder()
	if err != nil {
		logger.Fatal(err, "embedder init failed")
	}
	store := ingest.NewMilvusStore(embedder)
	ctx := context.Background()

	if *reindex {
		count, err := ingest.NewService(store).Run(ctx)
		if err != nil {
			logger.Fatal(err, "ingest run failed")
		}
		fmt.Printf("indexed %d chunks\n", count)
	}

	if *query == "" {
		return
	}

	corpus, err := ingest.ReadChunkRecords(config.Cfg.Paths.ChunksFile)
	if err != nil {
		logger.Fatal(err, "chunk records load failed")
	}
	var reranker retriever.Reranker
	if rc := retriever.NewRerankClient(); rc != nil {
		reranker = rc
	}
	hybrid := retriever.NewHybrid(store, corpus, reranker, retriever.Params{
		TopKVector: config.Cfg.Retriever.TopKVector,
		TopKBM25:   config.Cfg.Retriever.TopKBM25,
		TopKFinal:  config.Cfg.Retriever.TopKFinal,
	})

	docs, err := hybrid.Retrieve(ctx, *query)
	if err != nil {
		logger.Fatal(err, "retrieve failed")
	}
	for i, doc := range docs {
		source, _ := doc.Metadata[ingest.MetaSource].(string)
		section, _ := doc.Metadata[ingest.MetaSection].(string)
		fmt.Printf("[%d] %s", i+1, source)
		if section != "" {
			fmt.Printf(" / %s", section)
		}
		fmt.Println()
		fmt.Println(snippet(doc.Content, 200))
		fmt.Println()
	}
}

func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
