package reddit

// Post is a single entry from a subreddit listing. Fullname is Reddit's
// "type_id" identifier (e.g. "t3_abc123") and is what the comment API
// expects as a reply target.
type Post struct {
	Fullname string
	Title    string
	Content  string
	URL      string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				Name      string `json:"name"`
				Title     string `json:"title"`
				Selftext  string `json:"selftext"`
				URL       string `json:"url"`
				Permalink string `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}
