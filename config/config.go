package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Reddit  RedditConfig
	Chatbot ChatbotConfig
	Bot     BotConfig

	PostgresURL        string
	PostgresSecretPath string

	LogLevel        log.Level
	LogFormat       LogFormat
	TestModeEnabled bool
}

type RedditConfig struct {
	UserAgent  string
	SecretPath string
}

type ChatbotConfig struct {
	Backend ChatbotBackend
	Model   string

	// Ollama backend only
	OllamaHost string

	// OpenAI backend only
	OpenAISecretPath string
	OpenAIBaseURL    string
}

type BotConfig struct {
	Subreddits        []string
	PostsPerSubreddit int
	ReplyQuota        int
	Schedule          string
}

type ChatbotBackend string

const (
	ChatbotBackendOpenAI ChatbotBackend = "openai"
	ChatbotBackendOllama ChatbotBackend = "ollama"
)

type LogFormat string

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

type EnvfileKey string

const (
	// Postgres connection string to use for database connections
	EnvfileKeyPostgresURL = "POSTGRES_URL"
	// AWS Secrets Manager path where Postgres connection string can be found
	EnvfileKeyPostgresSecretsPath = "POSTGRES_SECRETS_PATH"

	// AWS Secrets Manager path where Reddit API credentials can be found
	EnvfileKeyRedditSecretPath = "REDDIT_SECRETS_PATH"
	// User-Agent header sent on every Reddit API call; Reddit throttles
	// generic ones, so make it unique to the deployment
	EnvfileKeyRedditUserAgent = "REDDIT_USER_AGENT"

	// Which chatbot backend to use (e.g. "openai", "ollama")
	EnvfileKeyChatbotBackend = "CHATBOT_BACKEND"
	// Model name passed to the chatbot backend
	EnvfileKeyChatbotModel = "CHATBOT_MODEL"
	// Base URL of the Ollama server (ollama backend only)
	EnvfileKeyOllamaHost = "OLLAMA_HOST"
	// AWS Secrets Manager path where the OpenAI API key can be found
	EnvfileKeyOpenAISecretPath = "OPENAI_SECRETS_PATH"
	// Overrides the OpenAI API endpoint, e.g. for Azure deployments
	EnvfileKeyOpenAIBaseURL = "OPENAI_BASE_URL"

	// Comma-separated list of subreddits to poll for new posts
	EnvfileKeySubreddits = "SUBREDDITS"
	// Number of posts to request per subreddit per tick
	EnvfileKeyPostsPerSubreddit = "POSTS_PER_SUBREDDIT"
	// Maximum number of replies actually posted to Reddit per tick
	EnvfileKeyReplyQuota = "REPLY_QUOTA"
	// Cron expression for the pipeline tick
	EnvfileKeyTickSchedule = "TICK_SCHEDULE"

	// Log level (e.g. "debug", "info", "warn", "error")
	EnvfileKeyLogLevel = "LOG_LEVEL"
	// Log output format (e.g. "text", "json")
	EnvfileKeyLogFormat = "LOG_FORMAT"
	// Enables "test mode" (server simulates posting, etc.)
	EnvfileKeyTestMode = "TEST_MODE"
)

// The subreddits the bot watched before the list became configurable.
var defaultSubreddits = []string{
	"layoffs",
	"jobsearchhacks",
	"csMajors",
	"jobhunting",
	"remotework",
	"recruitinghell",
}

func FromEnvfile() Config {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("dotenv")

	err := viper.ReadInConfig()
	if err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	redditUserAgent := getConfigString(EnvfileKeyRedditUserAgent)
	if redditUserAgent == "" {
		log.Fatal("must supply a reddit user agent")
	}
	redditSecretPath := getConfigString(EnvfileKeyRedditSecretPath)
	if redditSecretPath == "" {
		log.Fatal("reddit credentials not configured")
	}

	backend, err := parseChatbotBackend(getConfigString(EnvfileKeyChatbotBackend))
	if err != nil {
		log.Fatalf("error parsing chatbot backend: %v", err)
	}
	chatbotModel := getConfigString(EnvfileKeyChatbotModel)
	if chatbotModel == "" {
		log.Fatal("must supply a chatbot model")
	}

	subreddits := splitList(getConfigString(EnvfileKeySubreddits))
	if len(subreddits) == 0 {
		subreddits = defaultSubreddits
	}

	postsPerSubreddit := getConfigInt(EnvfileKeyPostsPerSubreddit)
	if postsPerSubreddit == 0 {
		// Default to 10 if not set
		postsPerSubreddit = 10
	}

	replyQuota := getConfigInt(EnvfileKeyReplyQuota)
	if replyQuota == 0 {
		// Default to 10 if not set
		replyQuota = 10
	}

	schedule := getConfigString(EnvfileKeyTickSchedule)
	if schedule == "" {
		// Default to hourly, on the hour
		schedule = "0 * * * *"
	}

	logLevel, err := log.ParseLevel(getConfigString(EnvfileKeyLogLevel))
	if err != nil {
		// Default to info level but log a warning
		log.Warnf("unable to parse log level: %v", err)
		logLevel = log.InfoLevel
	}

	logFormat, err := parseLogFormat(getConfigString(EnvfileKeyLogFormat))
	if err != nil {
		// Default to text formatter but log a warning
		log.Warnf("unable to parse log format: %v", err)
		logFormat = LogFormatText
	}

	postgresURL := getConfigString(EnvfileKeyPostgresURL)
	postgresSecretsPath := getConfigString(EnvfileKeyPostgresSecretsPath)
	if postgresURL == "" && postgresSecretsPath == "" {
		log.Fatal("postgres not configured")
	}

	isTestMode := viper.GetBool(EnvfileKeyTestMode)

	return Config{
		Reddit: RedditConfig{
			UserAgent:  redditUserAgent,
			SecretPath: redditSecretPath,
		},
		Chatbot: ChatbotConfig{
			Backend:          backend,
			Model:            chatbotModel,
			OllamaHost:       getConfigString(EnvfileKeyOllamaHost),
			OpenAISecretPath: getConfigString(EnvfileKeyOpenAISecretPath),
			OpenAIBaseURL:    getConfigString(EnvfileKeyOpenAIBaseURL),
		},
		Bot: BotConfig{
			Subreddits:        subreddits,
			PostsPerSubreddit: postsPerSubreddit,
			ReplyQuota:        replyQuota,
			Schedule:          schedule,
		},
		PostgresURL:        postgresURL,
		PostgresSecretPath: postgresSecretsPath,
		LogLevel:           logLevel,
		LogFormat:          logFormat,
		TestModeEnabled:    isTestMode,
	}
}

func parseChatbotBackend(raw string) (ChatbotBackend, error) {
	switch strings.ToLower(raw) {
	case string(ChatbotBackendOpenAI):
		return ChatbotBackendOpenAI, nil
	case string(ChatbotBackendOllama):
		return ChatbotBackendOllama, nil
	default:
		return "", fmt.Errorf("unidentified chatbot backend: %s", raw)
	}
}

func parseLogFormat(raw string) (LogFormat, error) {
	switch strings.ToLower(raw) {
	case LogFormatJSON:
		return LogFormatJSON, nil
	case LogFormatText:
		return LogFormatText, nil
	default:
		return "", fmt.Errorf("unidentified log format: %s", raw)
	}
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// Gets a config value as a string from env vars or a .env file
func getConfigString(key string) string {
	value := os.Getenv(key)
	if value == "" {
		value = viper.GetString(key)
	}
	return value
}

// Gets a config value as an int from env vars or a .env file
func getConfigInt(key string) int {
	envVarValue := os.Getenv(key)
	if envVarValue == "" {
		return viper.GetInt(key)
	}
	value, err := strconv.Atoi(envVarValue)
	if err != nil {
		return 0
	}
	return value
}
