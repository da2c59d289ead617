package domain

import "time"

// RawPost is a post as delivered by the social platform client, before any
// resolution or extraction has happened. Payloads arrive loosely shaped from
// the platform; every optional field defaults to its zero value and is
// validated at the ingestion boundary, not trusted downstream.
type RawPost struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	UserID         string    `json:"user_id"`
	UserScreenName string    `json:"user_screen_name"`
	UserName       string    `json:"user_name"`
	CreatedAt      time.Time `json:"created_at"`
	Reposts        int       `json:"reposts"`
	URLs           []string  `json:"urls"`
}

// HasLinks reports whether the post carries at least one embedded link.
// Posts without links are still persisted as shares, just never extracted.
func (p *RawPost) HasLinks() bool {
	return len(p.URLs) > 0
}
