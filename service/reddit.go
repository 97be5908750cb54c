package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	log "github.com/sirupsen/logrus"

	"github.com/first2apply/redditbot/config"
	"github.com/first2apply/redditbot/model"
	"github.com/first2apply/redditbot/reddit"
)

// RedditService is both the source feed (subreddit listings) and the
// publisher (comment submission) for the pipeline.
type RedditService struct {
	client *reddit.Client
}

func NewRedditService(ctx context.Context, cfg config.Config, secretsManagerClient *secretsmanager.Client) *RedditService {
	// Get the Reddit secrets from AWS Secrets Manager
	result, err := secretsManagerClient.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(cfg.Reddit.SecretPath)})
	if err != nil {
		log.Fatal(err.Error())
	}
	var redditSecrets config.RedditSecretData
	err = json.Unmarshal([]byte(*result.SecretString), &redditSecrets)
	if err != nil {
		log.Panicf("reddit secrets read error: %v", err)
	}

	client := reddit.NewClient(reddit.Credentials{
		ClientID:     redditSecrets.ClientID,
		ClientSecret: redditSecrets.ClientSecret,
		Username:     redditSecrets.Username,
		Password:     redditSecrets.Password,
	}, cfg.Reddit.UserAgent)
	log.Infof("Reddit client initialized using user %s", redditSecrets.Username)

	return &RedditService{
		client: client,
	}
}

// FetchNewest returns up to limit posts from the subreddit's /new listing,
// mapped into the domain shape.
func (s *RedditService) FetchNewest(ctx context.Context, subreddit string, limit int) ([]model.Post, error) {
	raws, err := s.client.GetSubredditPosts(ctx, subreddit, limit)
	if err != nil {
		return nil, err
	}

	posts := make([]model.Post, 0, len(raws))
	for _, raw := range raws {
		posts = append(posts, model.Post{
			ExternalID: raw.Fullname,
			Title:      raw.Title,
			Content:    raw.Content,
			URL:        raw.URL,
		})
	}
	return posts, nil
}

func (s *RedditService) ReplyToPost(ctx context.Context, externalID string, text string) error {
	return s.client.SubmitComment(ctx, reddit.PostFullname(externalID), text)
}

func (s *RedditService) CheckAuth(ctx context.Context) (string, time.Time, error) {
	return s.client.CheckAuth(ctx)
}
