package config

type RedditSecretData struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

type OpenAISecretData struct {
	ApiKey string `json:"apiKey"`
}

type PostgresSecretData struct {
	ConnectionString string `json:"connectionString"`
}
