package domain

import "time"

// Image is a lead image with pixel dimensions when the page declared them.
type Image struct {
	URL    string `json:"url,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Article is the extracted metadata for one canonical URL. There is at most
// one article per canonical URL; writes are idempotent upserts with
// last-extraction-wins semantics, unless the stored record is strictly
// richer than the incoming one.
type Article struct {
	URL         string    `json:"url"`
	OrigURL     string    `json:"orig_url,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Text        string    `json:"text,omitempty"`
	Authors     string    `json:"authors,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Image       Image     `json:"img,omitempty"`
	Player      string    `json:"player,omitempty"`
	Favicon     string    `json:"favicon,omitempty"`
	Published   string    `json:"published,omitempty"`
	OGType      string    `json:"og_type,omitempty"`
	CardType    string    `json:"card_type,omitempty"`
	Creator     string    `json:"creator,omitempty"`
	ExtractedAt time.Time `json:"extracted_at,omitempty"`
}

// Richness counts populated metadata fields. The content store keeps an
// existing record when an incoming write is strictly poorer.
func (a *Article) Richness() int {
	n := 0
	for _, s := range []string{
		a.Title, a.Description, a.Text, a.Authors,
		a.Image.URL, a.Player, a.Favicon, a.Published, a.Creator,
	} {
		if s != "" {
			n++
		}
	}
	if len(a.Tags) > 0 {
		n++
	}
	return n
}
