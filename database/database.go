package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucsky/cuid"

	"github.com/first2apply/redditbot/database/db"
	"github.com/first2apply/redditbot/model"
)

type Database struct {
	connString string
	pool       *pgxpool.Pool
}

func NewDatabase(connString string) *Database {
	return &Database{
		connString: connString,
	}
}

func (d *Database) Connect(ctx context.Context) error {
	var err error
	d.pool, err = pgxpool.New(ctx, d.connString)
	if err != nil {
		return err
	}
	return nil
}

func (d *Database) Disconnect() {
	d.pool.Close()
}

// UpsertPosts inserts posts that haven't been seen before and refreshes
// title/content for ones that have. The url and processed columns are left
// alone on conflict so re-ingesting a post can never un-process it.
func (d *Database) UpsertPosts(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, post := range posts {
		batch.Queue(`
		INSERT INTO social_media_posts (id, external_id, title, content, url, processed) VALUES ($1, $2, $3, $4, $5, FALSE)
		ON CONFLICT (external_id) DO UPDATE SET title = EXCLUDED.title, content = EXCLUDED.content`,
			cuid.New(),
			post.ExternalID,
			post.Title,
			post.Content,
			post.URL,
		)
	}
	return d.pool.SendBatch(ctx, batch).Close()
}

// GetUnprocessedPosts returns a snapshot of every stored post that hasn't
// been through the processing phase yet. No locking, no paging.
func (d *Database) GetUnprocessedPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := d.pool.Query(ctx, `
	SELECT
		id,
		external_id,
		title,
		content,
		url,
		processed
	FROM social_media_posts
	WHERE processed = FALSE`,
	)
	if err != nil {
		return nil, err
	}

	raws, err := pgx.CollectRows(rows, pgx.RowToStructByName[db.SocialMediaPost])
	if err != nil {
		return nil, err
	}

	var posts []model.Post
	for _, raw := range raws {
		posts = append(posts, model.PostFromRow(raw))
	}

	return posts, nil
}

func (d *Database) MarkPostProcessed(ctx context.Context, postID string) error {
	// don't really care about the result, as long as this succeeds
	_, err := d.pool.Exec(ctx, `
	UPDATE social_media_posts SET processed = TRUE WHERE id = $1`,
		postID,
	)
	if err != nil {
		return err
	}
	return nil
}

func (d *Database) SaveReply(ctx context.Context, postID string, text string) error {
	_, err := d.pool.Exec(
		ctx,
		`INSERT INTO social_media_post_replies (id, post_id, text, created) VALUES ($1, $2, $3, $4)`,
		cuid.New(),
		postID,
		text,
		time.Now().UTC(), // the DB stores timezones and assumes UTC
	)
	if err != nil {
		return err
	}
	return nil
}

func (d *Database) FindRepliesForPost(ctx context.Context, postID string) ([]model.Reply, error) {
	rows, err := d.pool.Query(ctx, `
	SELECT
		id,
		post_id,
		text,
		created
	FROM social_media_post_replies
	WHERE post_id = $1`,
		postID,
	)
	if err != nil {
		return nil, err
	}

	raws, err := pgx.CollectRows(rows, pgx.RowToStructByName[db.PostReply])
	if err != nil {
		return nil, err
	}

	var replies []model.Reply
	for _, raw := range raws {
		replies = append(replies, model.ReplyFromRow(raw))
	}

	return replies, nil
}
