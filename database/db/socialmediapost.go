package db

type SocialMediaPost struct {
	ID         string `db:"id"`
	ExternalID string `db:"external_id"`
	Title      string `db:"title"`
	Content    string `db:"content"`
	URL        string `db:"url"`
	Processed  bool   `db:"processed"`
}
