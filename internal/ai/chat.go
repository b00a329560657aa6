package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/sashabaranov/go-openai"
)

// Message is one turn of a chat conversation as received from the browser.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const chatSystemPrompt = `You are a meeting assistant. Answer questions about the meeting using the supplied transcript as context. If the transcript does not contain the answer, say so instead of guessing. Respond in the language of the question.`

// Chat answers a conversation against a provider, optionally grounded on a
// meeting transcript.
func Chat(ctx context.Context, p Provider, contextTranscript string, messages []Message) (string, error) {
	if !p.Configured() {
		return "", fmt.Errorf("chat provider %s has no API key configured", p.ID)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("messages are required")
	}

	system := chatSystemPrompt
	if contextTranscript != "" {
		system += "\n\nMeeting transcript:\n\n" + contextTranscript
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	log.Printf("[Chat] provider=%s model=%s turns=%d", p.ID, p.Model, len(messages))

	resp, err := p.client().CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.Model,
		Messages:    chatMessages,
		Temperature: 0.5,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("provider %s returned no choices", p.ID)
	}
	return resp.Choices[0].Message.Content, nil
}
