package retriever

import (
	"context"
	"errors"

	"ai-research-kb/config"
	"ai-research-kb/pkg/apperror/status"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// RerankClient scores candidates against an OpenAI-compatible /rerank
// endpoint (TEI, Jina, and similar servers expose this shape).
type RerankClient struct {
	client openai.Client
	model  string
}

// NewRerankClient returns nil when no rerank model is configured; callers
// pass the nil Reranker through and the rerank stage is skipped.
func NewRerankClient() *RerankClient {
	cfg := config.Cfg.Rerank
	if cfg.Model == "" {
		return nil
	}
	opts := []option.RequestOption{option.WithAPIKey(config.Cfg.OpenAI.Key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &RerankClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// Score rates one (query, candidate) pair; higher is better.
func (r *RerankClient) Score(ctx context.Context, query, candidate string) (float64, error) {
	reqBody := rerankRequest{Model: r.model, Query: query, Documents: []string{candidate}}
	var out rerankResponse
	if err := r.client.Post(ctx, "/rerank", reqBody, &out); err != nil {
		return 0, status.New(status.CollaboratorReranker, err)
	}
	if out.Error != nil {
		return 0, status.New(status.CollaboratorReranker, errors.New(out.Error.Message))
	}
	if len(out.Results) == 0 {
		return 0, status.New(status.CollaboratorReranker, errors.New("empty rerank response"))
	}
	return out.Results[0].RelevanceScore, nil
}
