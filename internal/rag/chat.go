package rag

import (
	"context"
	"strings"
	"unicode/utf8"

	"ai-research-kb/internal/core/ingest"
	"ai-research-kb/internal/core/retriever"
	"ai-research-kb/pkg/logger"
)

// maxHistoryTurns bounds how much conversation history enters the prompt.
const maxHistoryTurns = 6

// ChatModel is the language-model collaborator; the core only assembles the
// prompt.
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Turn is one prior message in the conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ContextSnippet reports one retrieved chunk back to the caller.
type ContextSnippet struct {
	Source  string `json:"source"`
	Section string `json:"section,omitempty"`
	Snippet string `json:"snippet"`
}

// SummaryPolicy bounds the prompt context. When the joined context exceeds
// MaxContextChars, every chunk is compressed through the summarizer before
// the prompt is built.
type SummaryPolicy struct {
	MaxContextChars  int
	MaxCharsPerChunk int
}

const defaultMaxCharsPerChunk = 900

// Answerer composes answers from retrieved chunks.
type Answerer struct {
	retriever  retriever.Retriever
	llm        ChatModel
	summarizer ChatModel
	summary    SummaryPolicy
}

func NewAnswerer(r retriever.Retriever, llm ChatModel) *Answerer {
	return &Answerer{retriever: r, llm: llm}
}

// WithSummarizer enables context compression for over-budget prompts.
func (a *Answerer) WithSummarizer(llm ChatModel, policy SummaryPolicy) *Answerer {
	a.summarizer = llm
	a.summary = policy
	return a
}

// Answer retrieves context for the question and delegates the completion to
// the language model. Returned snippets always reflect the retrieved chunks,
// not their summaries.
func (a *Answerer) Answer(ctx context.Context, question string, history []Turn) (string, []ContextSnippet, error) {
	docs, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", nil, err
	}
	logger.WithFields(map[string]interface{}{
		"question_len": len(question),
		"chunks":       len(docs),
	}).Debug("chat: context retrieved")

	contextText := joinContext(docs)
	if a.summarizer != nil && a.summary.MaxContextChars > 0 && utf8.RuneCountInString(contextText) > a.summary.MaxContextChars {
		compressed, err := a.summarizeDocs(ctx, docs)
		if err != nil {
			return "", nil, err
		}
		logger.WithFields(map[string]interface{}{
			"context_chars": utf8.RuneCountInString(contextText),
			"budget":        a.summary.MaxContextChars,
		}).Info("chat: context compressed")
		contextText = joinContext(compressed)
	}

	prompt := BuildPrompt(contextText, question, joinHistory(history))
	answer, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return "", nil, err
	}
	return answer, snippets(docs), nil
}

// summarizeDocs compresses each chunk independently, keeping its metadata so
// source tags survive into the rebuilt context.
func (a *Answerer) summarizeDocs(ctx context.Context, docs []ingest.Document) ([]ingest.Document, error) {
	perChunk := a.summary.MaxCharsPerChunk
	if perChunk <= 0 {
		perChunk = defaultMaxCharsPerChunk
	}
	var out []ingest.Document
	for _, doc := range docs {
		text := strings.TrimSpace(doc.Content)
		if text == "" {
			continue
		}
		if runes := []rune(text); len(runes) > perChunk {
			text = string(runes[:perChunk])
		}
		summary, err := a.summarizer.Complete(ctx, summaryPrompt(text))
		if err != nil {
			return nil, err
		}
		out = append(out, ingest.NewDocument(strings.TrimSpace(summary), doc.Metadata))
	}
	return out, nil
}

// joinContext renders retrieved chunks as source-tagged blocks.
func joinContext(docs []ingest.Document) string {
	blocks := make([]string, 0, len(docs))
	for _, doc := range docs {
		text := strings.TrimSpace(doc.Content)
		if source, _ := doc.Metadata[ingest.MetaSource].(string); source != "" {
			blocks = append(blocks, "["+source+"] "+text)
		} else {
			blocks = append(blocks, text)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// joinHistory keeps only the trailing turns.
func joinHistory(history []Turn) string {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	var lines []string
	for _, turn := range history {
		if turn.Role != "" && turn.Text != "" {
			lines = append(lines, turn.Role+": "+turn.Text)
		}
	}
	return strings.Join(lines, "\n")
}

func snippets(docs []ingest.Document) []ContextSnippet {
	out := make([]ContextSnippet, 0, len(docs))
	for _, doc := range docs {
		source, _ := doc.Metadata[ingest.MetaSource].(string)
		section, _ := doc.Metadata[ingest.MetaSection].(string)
		out = append(out, ContextSnippet{
			Source:  source,
			Section: section,
			Snippet: strings.TrimSpace(doc.Content),
		})
	}
	return out
}
