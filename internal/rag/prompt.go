package rag

import "strings"

// promptTemplate instructs the model to answer strictly from the retrieved
// context and to say so when the context does not contain the answer.
const promptTemplate = `Use the following pieces of context to answer the question at the end.
If you don't know the answer based on the context, just say that the information is not available in the provided context.

Context:
{context}

Question: {question}

Answer:`

func buildPrompt(question string, chunks []string) string {
	contextBlock := strings.Join(chunks, "\n\n")
	p := strings.ReplaceAll(promptTemplate, "{context}", contextBlock)
	return strings.ReplaceAll(p, "{question}", question)
}
