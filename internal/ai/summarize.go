package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/sashabaranov/go-openai"
)

// The five sections every summary carries, AI-generated or local fallback
// alike, so the UI renders both the same way.
var summarySections = []string{
	"## Overview",
	"## Key Points",
	"## Decisions",
	"## Action Items",
	"## Next Steps",
}

const summarizeSystemPrompt = `You are a meeting summarization assistant. Given a raw meeting transcript, produce a structured Markdown summary with exactly these sections, in this order:

## Overview
## Key Points
## Decisions
## Action Items
## Next Steps

Be factual and concise. Use bullet points inside each section. If a section has no content, write "None noted." under it. Respond in the same language as the transcript.`

// Summarize generates a structured summary of a transcript via the
// provider's chat-completion endpoint. An optional extra prompt from the
// caller is appended to the transcript.
func Summarize(ctx context.Context, p Provider, transcript, extraPrompt string) (string, error) {
	if !p.Configured() {
		return "", fmt.Errorf("chat provider %s has no API key configured", p.ID)
	}

	user := "Transcript:\n\n" + transcript
	if extraPrompt != "" {
		user += "\n\nAdditional instructions: " + extraPrompt
	}

	log.Printf("[Summarize] provider=%s model=%s transcript=%d chars", p.ID, p.Model, len(transcript))

	resp, err := p.client().CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarizeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("provider %s returned no choices", p.ID)
	}
	return resp.Choices[0].Message.Content, nil
}

// Probe issues a minimal request against the provider to verify
// reachability and credentials. It returns the model list's first entry as
// confirmation of what the provider serves.
func Probe(ctx context.Context, p Provider) (string, error) {
	if !p.Configured() {
		return "", fmt.Errorf("chat provider %s has no API key configured", p.ID)
	}
	models, err := p.client().ListModels(ctx)
	if err != nil {
		return "", fmt.Errorf("provider %s unreachable: %w", p.ID, err)
	}
	if len(models.Models) == 0 {
		return p.Model, nil
	}
	return models.Models[0].ID, nil
}
