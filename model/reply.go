package model

import (
	"time"

	"github.com/first2apply/redditbot/database/db"
)

// Reply is a generated response tied to the post that produced it. A reply
// row existing does not mean it was ever published; posts processed after
// the reply quota runs out keep their reply unpublished.
type Reply struct {
	ID      string
	PostID  string
	Text    string
	Created time.Time
}

func ReplyFromRow(row db.PostReply) Reply {
	return Reply{
		ID:      row.ID,
		PostID:  row.PostID,
		Text:    row.Text,
		Created: row.Created,
	}
}
