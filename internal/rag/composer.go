package rag

import (
	"context"
	"log"
	"strings"

	"docqa/internal/providers"
)

// Composer turns a question and retrieved chunks into a single model call.
// It never lets a model failure escape: the caller always receives a
// displayable answer string, success or explanation.
type Composer struct {
	llm providers.LLMProvider
}

func NewComposer(llm providers.LLMProvider) *Composer {
	return &Composer{llm: llm}
}

// Compose performs one non-streaming completion. No retries, no multi-turn
// state.
func (c *Composer) Compose(ctx context.Context, question string, chunks []string) string {
	prompt := buildPrompt(question, chunks)
	resp, info, err := c.llm.Generate(ctx, providers.GenerateRequest{
		Operation: "question_answer",
		Prompt:    prompt,
	})
	if err != nil {
		log.Printf("answer generation via %s/%s failed (%s): %v", info.Name, info.Model, providers.ClassifyError(err), err)
		return "Error processing question: the language model could not generate an answer. Please try again."
	}
	answer := strings.TrimSpace(resp.Text)
	if answer == "" {
		return "The information is not available in the provided context."
	}
	return answer
}
