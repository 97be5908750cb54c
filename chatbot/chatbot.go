// Package chatbot judges social media posts against the business profile and
// drafts replies to the relevant ones. Two interchangeable backends exist
// (OpenAI-compatible and Ollama); callers depend only on the Chatbot
// interface and pick a backend at wiring time.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/first2apply/redditbot/model"
)

// ErrGenerationFailed means the model returned no usable reply text. The
// pipeline treats this as a hard error for the current run.
var ErrGenerationFailed = errors.New("chatbot failed to generate a reply")

type Chatbot interface {
	IsPostRelevant(ctx context.Context, post model.Post) (bool, error)
	GenerateReply(ctx context.Context, post model.Post) (string, error)
}

const systemPrompt = `You are a marketing assistant at a company that sells First 2 Apply.
First2Apply is a job search automation tool that provides real-time job alerts from over 10 popular job boards like LinkedIn and Indeed. It features advanced matching, which analyzes job listings to match users with the most relevant opportunities based on their profiles. Additionally, users can customize alerts, apply filters, and manage their applications efficiently to ensure they are among the first to apply to suitable positions.
The ideal customer profile is job seekers looking for efficiency in their search, especially those applying to many positions across multiple platforms.
You are responsible for reviewing social media posts and provide helpful feedback as well as mentioning how the app can be useful to the user.
You need to pretend to have used the app and offer it as a solution to the user's problem.`

// llmChatbot drives any langchaingo model through the relevance/reply
// prompts. The concrete backends embed it.
type llmChatbot struct {
	llm llms.Model
}

func (c llmChatbot) IsPostRelevant(ctx context.Context, post model.Post) (bool, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, fmt.Sprintf(`Is the following post relevant to the business? Reply with "yes" or "no".
Title: %s
Content: %s`, post.Title, post.Content)),
	}

	// Temperature is pinned to zero so the verdict is reproducible.
	resp, err := c.llm.GenerateContent(ctx, messages, llms.WithTemperature(0), llms.WithMaxTokens(1))
	if err != nil {
		return false, fmt.Errorf("classifying post %s: %w", post.ExternalID, err)
	}

	return parseVerdict(firstChoice(resp)), nil
}

func (c llmChatbot) GenerateReply(ctx context.Context, post model.Post) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, fmt.Sprintf(`Reply to the following post. Don't put too much emphasis on the app to not sound like you work for them, but mention the name. Also try to keep it short
Title: %s
Content: %s`, post.Title, post.Content)),
	}

	resp, err := c.llm.GenerateContent(ctx, messages, llms.WithTemperature(0), llms.WithMaxTokens(200))
	if err != nil {
		return "", fmt.Errorf("generating reply for post %s: %w", post.ExternalID, err)
	}

	reply := strings.TrimSpace(firstChoice(resp))
	if reply == "" {
		return "", fmt.Errorf("post %s: %w", post.ExternalID, ErrGenerationFailed)
	}

	return stripWrappingQuotes(reply), nil
}

func firstChoice(resp *llms.ContentResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Content
}

// parseVerdict maps free-form model output onto a yes/no judgment. Anything
// that doesn't lead with "yes" counts as not relevant, so ambiguous output
// errs toward silence rather than spam.
func parseVerdict(raw string) bool {
	verdict := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(verdict, "yes")
}

// stripWrappingQuotes removes one pair of quotes wrapping the whole reply.
// Models like to quote their answers. Inner quotes are preserved.
func stripWrappingQuotes(reply string) string {
	if len(reply) >= 2 && strings.HasPrefix(reply, `"`) && strings.HasSuffix(reply, `"`) {
		return reply[1 : len(reply)-1]
	}
	return reply
}
