package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type serverConfig struct {
	Port        int    `koanf:"port" validate:"required"`
	Mode        string `koanf:"mode" validate:"required"`
	Concurrency int    `koanf:"concurrency"`
	BodyLimit   int    `koanf:"body_limit"`
	AppName     string `koanf:"app_name" validate:"required"`
}

type logLevel string

const (
	Debug logLevel = "debug"
	Info  logLevel = "info"
	Warn  logLevel = "warn"
	Error logLevel = "error"
	Fatal logLevel = "fatal"
	Panic logLevel = "panic"
)

type Module string

const (
	ModuleSetting   Module = "setting"
	ModuleServer    Module = "server"
	ModuleIngest    Module = "ingest"
	ModuleLoader    Module = "loader"
	ModuleRetriever Module = "retriever"
	ModuleMilvus    Module = "milvus"
	ModuleOpenAI    Module = "openai"
	ModuleRerank    Module = "rerank"
	ModuleChat      Module = "chat"
	ModuleS3        Module = "s3"
)

type pathsConfig struct {
	KnowledgeBaseDir string `koanf:"knowledge_base_dir" validate:"required"`
	ChunksFile       string `koanf:"chunks_file"`
}

// ChunkPolicy is a per-category chunking override. Zero fields fall back
// to the global chunk size/overlap.
type ChunkPolicy struct {
	Size    int `koanf:"size"`
	Overlap int `koanf:"overlap"`
}

type chunkConfig struct {
	Size            int                    `koanf:"size" validate:"required"`
	Overlap         int                    `koanf:"overlap"`
	StripReferences bool                   `koanf:"strip_references"`
	Categories      map[string]ChunkPolicy `koanf:"categories"`
}

// PolicyFor resolves the effective size/overlap for a category.
func (c chunkConfig) PolicyFor(category string) ChunkPolicy {
	return ResolvePolicy(ChunkPolicy{Size: c.Size, Overlap: c.Overlap}, c.Categories, category)
}

// ResolvePolicy applies a category's override on top of the defaults, field
// by field; zero override fields keep the default value.
func ResolvePolicy(defaults ChunkPolicy, overrides map[string]ChunkPolicy, category string) ChunkPolicy {
	p := defaults
	override, ok := overrides[category]
	if !ok {
		return p
	}
	if override.Size > 0 {
		p.Size = override.Size
	}
	if override.Overlap > 0 {
		p.Overlap = override.Overlap
	}
	return p
}

type retrieverConfig struct {
	TopKVector int `koanf:"top_k_vector" validate:"required"`
	TopKBM25   int `koanf:"top_k_bm25" validate:"required"`
	TopKFinal  int `koanf:"top_k_final" validate:"required"`
}

type openaiConfig struct {
	Key            string `koanf:"key"`
	Model          string `koanf:"model" validate:"required"`
	EmbeddingModel string `koanf:"embedding_model" validate:"required"`
}

// chatConfig tunes answer composition. MaxContextChars of 0 disables the
// context-summarization pass.
type chatConfig struct {
	MaxContextChars  int `koanf:"max_context_chars"`
	MaxCharsPerChunk int `koanf:"max_chars_per_chunk"`
}

// rerankConfig selects the reranker model. An empty model disables reranking.
type rerankConfig struct {
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

type milvusConfig struct {
	Address         string          `koanf:"address" validate:"required"`
	Collection      string          `koanf:"collection" validate:"required"`
	IndexHNSWConfig indexHNSWConfig `koanf:"index_hnsw_config"`
}

type indexHNSWConfig struct {
	MetricType     string `koanf:"metric_type"`
	M              int    `koanf:"m"`
	EfConstruction int    `koanf:"ef_construction"`
}

type s3Config struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Region    string `koanf:"region"`
	UseSSL    bool   `koanf:"use_ssl"`
	Bucket    string `koanf:"bucket"`
}

type ingestConfig struct {
	Strict bool `koanf:"strict"`
}

type config struct {
	Server    serverConfig    `koanf:"server"`
	Paths     pathsConfig     `koanf:"paths"`
	Chunk     chunkConfig     `koanf:"chunk"`
	Retriever retrieverConfig `koanf:"retriever"`
	OpenAI    openaiConfig    `koanf:"openai"`
	Chat      chatConfig      `koanf:"chat"`
	Rerank    rerankConfig    `koanf:"rerank"`
	Milvus    milvusConfig    `koanf:"milvus"`
	S3        s3Config        `koanf:"s3"`
	Ingest    ingestConfig    `koanf:"ingest"`
	LogLevel  logLevel        `koanf:"log_level"`
}

var defaultConfig = config{
	Server: serverConfig{
		Port:        8000,
		Mode:        "release",
		Concurrency: 256,
		BodyLimit:   4 << 20,
		AppName:     "ai-research-kb",
	},
	Paths: pathsConfig{
		KnowledgeBaseDir: "data/knowledge_base",
		ChunksFile:       "data/chunks.jsonl",
	},
	Chunk: chunkConfig{
		Size:            1000,
		Overlap:         150,
		StripReferences: true,
		Categories: map[string]ChunkPolicy{
			"paper": {Size: 1000, Overlap: 100},
			"note":  {Size: 800, Overlap: 80},
		},
	},
	Retriever: retrieverConfig{
		TopKVector: 5,
		TopKBM25:   5,
		TopKFinal:  3,
	},
	OpenAI: openaiConfig{
		Model:          "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
	},
	Chat: chatConfig{
		MaxContextChars:  0,
		MaxCharsPerChunk: 900,
	},
	Milvus: milvusConfig{
		Address:    "localhost:19530",
		Collection: "chunks",
		IndexHNSWConfig: indexHNSWConfig{
			MetricType:     "IP",
			M:              16,
			EfConstruction: 200,
		},
	},
	S3: s3Config{
		Endpoint:  "http://localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Region:    "us-east-1",
		Bucket:    "knowledge",
	},
	LogLevel: Info,
}

// Cfg holds the loaded configuration. Init must run before any component
// reads it.
var Cfg = defaultConfig

// Init loads the YAML config (when present) layered with APP_ environment
// variables, then validates. Validation failures are returned to the caller
// before any ingestion or retrieval work starts.
func Init(path string) error {
	k := koanf.New(".")
	validate := validator.New()
	Cfg = defaultConfig

	if _, statErr := os.Stat(path); statErr == nil {
		if e := k.Load(file.Provider(path), yaml.Parser()); e != nil {
			return fmt.Errorf("%v: load %s: %w", ModuleSetting, path, e)
		}
	} else if !os.IsNotExist(statErr) {
		return fmt.Errorf("%v: stat %s: %w", ModuleSetting, path, statErr)
	}

	// env APP_SERVER_PORT -> server.port
	if e := k.Load(env.Provider("APP_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "APP_")), "_", ".")
	}), nil); e != nil {
		return fmt.Errorf("%v: load env: %w", ModuleSetting, e)
	}

	if e := k.Unmarshal("", &Cfg); e != nil {
		return fmt.Errorf("%v: unmarshal config: %w", ModuleSetting, e)
	}

	if err := validate.Struct(Cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("%v: config validation failed:\n", ModuleSetting))
			for _, e := range errs {
				sb.WriteString(fmt.Sprintf("  %s: failed '%s' (value: %v)\n", e.Field(), e.Tag(), e.Value()))
			}
			return fmt.Errorf("%s", sb.String())
		}
		return fmt.Errorf("%v: config validation failed: %w", ModuleSetting, err)
	}

	// Chunk geometry is checked at startup so a bad overlap fails before
	// any ingestion run begins.
	if err := validateChunking(Cfg.Chunk); err != nil {
		return err
	}
	return nil
}

func validateChunking(c chunkConfig) error {
	if c.Size <= 0 {
		return fmt.Errorf("%v: chunk.size must be positive", ModuleSetting)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%v: chunk.overlap must be in [0, chunk.size)", ModuleSetting)
	}
	for name := range c.Categories {
		p := c.PolicyFor(name)
		if p.Overlap >= p.Size {
			return fmt.Errorf("%v: chunk.categories.%s: overlap %d >= size %d", ModuleSetting, name, p.Overlap, p.Size)
		}
	}
	return nil
}
