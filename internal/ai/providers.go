package ai

import (
	"fmt"

	"github.com/sashabaranov/go-openai"

	"zhaiyao/internal/config"
)

// Provider is one configured chat-completion backend.
type Provider struct {
	ID      string
	APIKey  string
	BaseURL string // empty means the library default
	Model   string
}

// Providers returns the chat providers known to this deployment.
func Providers(cfg *config.Config) map[string]Provider {
	return map[string]Provider{
		"openai": {
			ID:      "openai",
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		},
		"apimart": {
			ID:      "apimart",
			APIKey:  cfg.APIMartKey,
			BaseURL: cfg.APIMartChatURL,
			Model:   cfg.OpenAIModel,
		},
	}
}

// Select resolves a provider by id, falling back to the configured default
// when id is empty.
func Select(cfg *config.Config, id string) (Provider, error) {
	if id == "" {
		id = cfg.ChatProvider
	}
	p, ok := Providers(cfg)[id]
	if !ok {
		return Provider{}, fmt.Errorf("unknown chat provider: %s", id)
	}
	return p, nil
}

// Configured reports whether the provider has an API key set.
func (p Provider) Configured() bool {
	return p.APIKey != ""
}

func (p Provider) client() *openai.Client {
	clientCfg := openai.DefaultConfig(p.APIKey)
	if p.BaseURL != "" {
		clientCfg.BaseURL = p.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}
