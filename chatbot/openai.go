package chatbot

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
)

type OpenAIConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, e.g. for Azure-hosted deployments.
	// Leave empty for api.openai.com.
	BaseURL string
}

type OpenAIChatbot struct {
	llmChatbot
}

func NewOpenAIChatbot(cfg OpenAIConfig) (*OpenAIChatbot, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return &OpenAIChatbot{llmChatbot{llm: llm}}, nil
}
