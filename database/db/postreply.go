package db

import "time"

type PostReply struct {
	ID      string    `db:"id"`
	PostID  string    `db:"post_id"`
	Text    string    `db:"text"`
	Created time.Time `db:"created"`
}
