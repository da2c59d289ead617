package domain

import (
	"net/url"
	"time"
)

// Share is one post-to-link event. It is immutable once written: the
// consumer creates it and nothing in the pipeline ever updates it.
//
// ContentURL holds the canonical URL of the *last* embedded link resolved
// from the post. Posts carrying several links still produce a single share;
// this is a known simplification carried over deliberately, not a bug.
type Share struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	UserScreenName string    `json:"user_screen_name"`
	UserName       string    `json:"user_name"`
	Text           string    `json:"text"`
	Created        time.Time `json:"created"`
	Reposts        int       `json:"reposts"`
	ContentURL     string    `json:"content_url"`
	Provider       string    `json:"provider"`
}

// ShareFromPost builds the normalized share for a processed raw post.
func ShareFromPost(p *RawPost, contentURL string) *Share {
	return &Share{
		ID:             p.ID,
		UserID:         p.UserID,
		UserScreenName: p.UserScreenName,
		UserName:       p.UserName,
		Text:           p.Text,
		Created:        p.CreatedAt,
		Reposts:        p.Reposts,
		ContentURL:     contentURL,
		Provider:       Provider(contentURL),
	}
}

// Provider returns the bare domain of a URL, with any www. prefix removed.
func Provider(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := u.Host
	if len(host) > 4 && host[:4] == "www." {
		host = host[4:]
	}
	return host
}
