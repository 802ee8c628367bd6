package ingest

import (
	"context"
	"errors"

	"ai-research-kb/config"
	"ai-research-kb/pkg/apperror/status"
	"ai-research-kb/pkg/logger"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Embedder turns text into vectors through the OpenAI embeddings endpoint.
// It is constructed once by the caller and passed into the components that
// need it.
type Embedder struct {
	client openai.Client
	model  string
}

// NewEmbedder builds an embedder from the loaded configuration.
func NewEmbedder() (*Embedder, error) {
	key := config.Cfg.OpenAI.Key
	if key == "" {
		return nil, status.New(status.ConfigInvalid, errors.New("missing openai key"))
	}
	return &Embedder{
		client: openai.NewClient(option.WithAPIKey(key)),
		model:  config.Cfg.OpenAI.EmbeddingModel,
	}, nil
}

// Embed returns one vector per input, batching up to 100 inputs per call.
// Calls are attempted once; failures propagate.
func (e *Embedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	var all [][]float32
	for i := 0; i < len(inputs); i += 100 {
		j := i + 100
		if j > len(inputs) {
			j = len(inputs)
		}
		batch := inputs[i:j]
		vectors, err := e.embedBatch(ctx, batch)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"model":       e.model,
				"batch_start": i,
				"batch_end":   j,
				"error":       err,
			}).Errorf("openai: embedding batch failed")
			return nil, status.New(status.CollaboratorEmbedder, err)
		}
		logger.WithFields(map[string]interface{}{
			"batch_start": i,
			"batch_end":   j,
			"vectors":     len(vectors),
		}).Debug("openai: embedding batch done")
		all = append(all, vectors...)
	}
	return all, nil
}

func (e *Embedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	reqBody := openAIEmbeddingRequest{Model: e.model, Input: batch}
	var out openAIEmbeddingResponse
	if err := e.client.Post(ctx, "/embeddings", reqBody, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, errors.New(out.Error.Message)
	}
	vectors := make([][]float32, len(out.Data))
	for i := range out.Data {
		src := out.Data[i].Embedding
		vec := make([]float32, len(src))
		for k := range src {
			vec[k] = float32(src[k])
		}
		vectors[i] = vec
	}
	return vectors, nil
}
