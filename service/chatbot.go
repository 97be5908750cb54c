package service

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	log "github.com/sirupsen/logrus"

	"github.com/first2apply/redditbot/chatbot"
	"github.com/first2apply/redditbot/config"
)

// NewChatbot builds the configured chatbot backend. The rest of the program
// only ever sees the chatbot.Chatbot interface.
func NewChatbot(ctx context.Context, cfg config.Config, secretsManagerClient *secretsmanager.Client) chatbot.Chatbot {
	switch cfg.Chatbot.Backend {
	case config.ChatbotBackendOpenAI:
		// Get the OpenAI secrets from AWS Secrets Manager
		result, err := secretsManagerClient.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(cfg.Chatbot.OpenAISecretPath)})
		if err != nil {
			log.Fatal(err.Error())
		}
		var openAISecrets config.OpenAISecretData
		err = json.Unmarshal([]byte(*result.SecretString), &openAISecrets)
		if err != nil {
			log.Panicf("openai secrets read error: %v", err)
		}

		bot, err := chatbot.NewOpenAIChatbot(chatbot.OpenAIConfig{
			APIKey:  openAISecrets.ApiKey,
			Model:   cfg.Chatbot.Model,
			BaseURL: cfg.Chatbot.OpenAIBaseURL,
		})
		if err != nil {
			log.Fatalf("error creating OpenAI chatbot: %v", err)
		}
		log.Infof("OpenAI chatbot initialized using model %s", cfg.Chatbot.Model)
		return bot

	case config.ChatbotBackendOllama:
		bot, err := chatbot.NewOllamaChatbot(chatbot.OllamaConfig{
			Host:  cfg.Chatbot.OllamaHost,
			Model: cfg.Chatbot.Model,
		})
		if err != nil {
			log.Fatalf("error creating Ollama chatbot: %v", err)
		}
		log.Infof("Ollama chatbot initialized using model %s", cfg.Chatbot.Model)
		return bot

	default:
		log.Fatalf("unsupported chatbot backend: %s", cfg.Chatbot.Backend)
		return nil
	}
}
