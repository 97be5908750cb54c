package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	tokenBaseURL = "https://www.reddit.com/api/v1"
	oauthBaseURL = "https://oauth.reddit.com"

	// Refresh the token a bit before Reddit expires it so in-flight
	// requests never race the deadline.
	tokenExpiryMargin = 5 * time.Minute
)

type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// accessToken is a cached OAuth2 token with an explicit expiry deadline.
type accessToken struct {
	Token   string
	Scope   string
	Expires time.Time
}

func (t accessToken) valid() bool {
	return t.Token != "" && time.Now().Before(t.Expires)
}

type APIError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reddit API %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

type Client struct {
	creds      Credentials
	userAgent  string
	token      accessToken
	HTTPClient *http.Client
}

func NewClient(creds Credentials, userAgent string) *Client {
	return &Client{
		creds:      creds,
		userAgent:  userAgent,
		HTTPClient: http.DefaultClient,
	}
}

// GetSubredditPosts fetches up to limit posts from a subreddit's /new
// listing. Reddit may return fewer.
func (c *Client) GetSubredditPosts(ctx context.Context, subreddit string, limit int) ([]Post, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/r/%s/new.json?limit=%s", oauthBaseURL, subreddit, strconv.Itoa(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Add("User-Agent", c.userAgent)

	var listing listingResponse
	if err := c.do(req, &listing); err != nil {
		return nil, fmt.Errorf("fetching r/%s: %w", subreddit, err)
	}

	posts := make([]Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, Post{
			Fullname: child.Data.Name,
			Title:    child.Data.Title,
			Content:  child.Data.Selftext,
			URL:      child.Data.URL,
		})
	}
	return posts, nil
}

// SubmitComment posts a comment under the thing identified by fullname
// (e.g. "t3_abc123" for a post).
func (c *Client) SubmitComment(ctx context.Context, fullname string, text string) error {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", fullname)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/comment", oauthBaseURL), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Add("User-Agent", c.userAgent)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	if err := c.do(req, &struct{}{}); err != nil {
		return fmt.Errorf("commenting on %s: %w", fullname, err)
	}
	return nil
}

// CheckAuth forces a token fetch and returns the granted token so callers
// can inspect the scope and expiry.
func (c *Client) CheckAuth(ctx context.Context) (scope string, expires time.Time, err error) {
	c.token = accessToken{}
	if _, err := c.getAccessToken(ctx); err != nil {
		return "", time.Time{}, err
	}
	return c.token.Scope, c.token.Expires, nil
}

func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	if c.token.valid() {
		return c.token.Token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.creds.Username)
	form.Set("password", c.creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/access_token", tokenBaseURL), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Add("User-Agent", c.userAgent)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	var tr tokenResponse
	if err := c.do(req, &tr); err != nil {
		return "", fmt.Errorf("fetching access token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("access token missing from reddit response")
	}

	c.token = accessToken{
		Token:   tr.AccessToken,
		Scope:   tr.Scope,
		Expires: time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryMargin),
	}
	return c.token.Token, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return json.Unmarshal(body, out)
}
