package chatbot

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
)

type OllamaConfig struct {
	Host  string
	Model string
}

type OllamaChatbot struct {
	llmChatbot
}

func NewOllamaChatbot(cfg OllamaConfig) (*OllamaChatbot, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.Host),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating Ollama client: %w", err)
	}

	return &OllamaChatbot{llmChatbot{llm: llm}}, nil
}
