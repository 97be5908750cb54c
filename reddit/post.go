package reddit

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const postKind = "t3"

// PostFullname turns a bare post ID into Reddit's fullname form ("t3_<id>").
// IDs that already carry a kind prefix are returned unchanged.
func PostFullname(id string) string {
	if strings.Contains(id, "_") {
		return id
	}
	return fmt.Sprintf("%s_%s", postKind, id)
}

func ConstructPostURL(subreddit string, postID string) string {
	return fmt.Sprintf("https://www.reddit.com/r/%s/comments/%s", subreddit, strings.TrimPrefix(postID, postKind+"_"))
}

// Takes in a URL and extracts the subreddit and post ID if it's a Reddit URL.
// Return value order is subreddit followed by post ID, followed by error.
func DeconstructPostURL(postURL string) (string, string, error) {
	// regexp to capture subreddit and ID out of a reddit post URL
	r := regexp.MustCompile(`^https?://(?:www\.|old\.)?reddit\.com/r/(?P<Subreddit>\w+)/comments/(?P<PostID>\w+)`)
	isMatch := r.MatchString(postURL)
	if isMatch {
		matches := r.FindStringSubmatch(postURL)
		return matches[1], matches[2], nil
	}
	return "", "", errors.New("not a reddit post URL")
}
