package rag

import "strings"

const answerPromptTemplate = `You are a research collaboration assistant. Prefer the provided local
knowledge base content when answering.
Rules:
1) If the context contains relevant information, ground the answer in it and
   point out which parts come from the context
2) If the context is insufficient or unrelated, you may answer from general
   knowledge
3) Keep the answer brief and well structured

Conversation history (optional):
{history}

Context:
{context}

Question:
{question}
`

const summaryPromptPrefix = "Summarize the passage into 2-3 bullet points focused on key facts. " +
	"Keep citations if present. Passage:\n\n"

// summaryPrompt wraps one passage for context compression.
func summaryPrompt(passage string) string {
	return summaryPromptPrefix + passage
}

// BuildPrompt fills the answer template.
func BuildPrompt(context, question, history string) string {
	out := strings.ReplaceAll(answerPromptTemplate, "{history}", history)
	out = strings.ReplaceAll(out, "{context}", context)
	return strings.ReplaceAll(out, "{question}", question)
}
