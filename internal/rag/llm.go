package rag

import (
	"context"
	"errors"

	"ai-research-kb/config"
	"ai-research-kb/pkg/apperror/status"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAIChat implements ChatModel over the chat completions endpoint.
type OpenAIChat struct {
	client openai.Client
	model  string
}

func NewOpenAIChat() (*OpenAIChat, error) {
	key := config.Cfg.OpenAI.Key
	if key == "" {
		return nil, status.New(status.ConfigInvalid, errors.New("missing openai key"))
	}
	return &OpenAIChat{
		client: openai.NewClient(option.WithAPIKey(key)),
		model:  config.Cfg.OpenAI.Model,
	}, nil
}

func (c *OpenAIChat) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
		MaxTokens:   1024,
	}
	var out chatResponse
	if err := c.client.Post(ctx, "/chat/completions", reqBody, &out); err != nil {
		return "", status.New(status.CollaboratorLLM, err)
	}
	if out.Error != nil {
		return "", status.New(status.CollaboratorLLM, errors.New(out.Error.Message))
	}
	if len(out.Choices) == 0 {
		return "", status.New(status.CollaboratorLLM, errors.New("empty completion"))
	}
	return out.Choices[0].Message.Content, nil
}
