package model

import (
	"github.com/first2apply/redditbot/database/db"
)

// Post is a single social media post seen by the bot. ExternalID is the
// identity assigned by the source platform (e.g. a Reddit fullname like
// "t3_abc123") and is what deduplicates posts across ingestion runs.
type Post struct {
	ID         string
	ExternalID string
	Title      string
	Content    string
	URL        string
	Processed  bool
}

func PostFromRow(row db.SocialMediaPost) Post {
	return Post{
		ID:         row.ID,
		ExternalID: row.ExternalID,
		Title:      row.Title,
		Content:    row.Content,
		URL:        row.URL,
		Processed:  row.Processed,
	}
}
